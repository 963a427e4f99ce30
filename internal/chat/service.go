// Package chat answers questions about a single paper with a language model.
package chat

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/arxivchat/internal/domain"
	"github.com/helixir/arxivchat/internal/llm"
	"github.com/helixir/arxivchat/internal/observability"
)

// Chat response outcomes recorded in metrics.
const (
	OutcomeAnswer      = "answer"
	OutcomeFallback    = "fallback"
	OutcomeError       = "error"
	OutcomeUnavailable = "unavailable"
)

// Service synthesizes answers. The backend is fixed at construction; a nil
// completer means no backend is configured.
type Service struct {
	completer llm.Completer
	metrics   *observability.Metrics
	logger    zerolog.Logger
}

// NewService creates an answer service. completer and metrics may be nil.
func NewService(completer llm.Completer, metrics *observability.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		completer: completer,
		metrics:   metrics,
		logger:    logger.With().Str("component", "answer-synthesis").Logger(),
	}
}

// Available reports whether a language model backend is configured.
func (s *Service) Available() bool {
	return s.completer != nil
}

// Backend returns the provider name of the configured backend, or "" if none.
func (s *Service) Backend() string {
	if s.completer == nil {
		return ""
	}
	return s.completer.Provider()
}

// Chat answers message about paper. It never fails: backend errors are logged
// and replaced by ReplyFailure, and a missing backend yields ReplyNoBackend
// without any outbound call. message is expected to be validated already.
func (s *Service) Chat(ctx context.Context, paper *domain.Paper, message string) string {
	if s.completer == nil {
		s.metrics.RecordChatResponse(OutcomeUnavailable)
		return ReplyNoBackend
	}

	provider, model := s.completer.Provider(), s.completer.Model()
	log := observability.WithLLMContext(observability.LoggerFromContext(ctx, s.logger), provider, model)
	log = observability.WithPaperContext(log, paper.ID)

	prompt := BuildPrompt(paper, message)

	start := time.Now()
	out, err := s.completer.Complete(ctx, prompt)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.RecordLLMRequestFailed(provider, model, llm.ErrorType(err), elapsed.Seconds())
		s.metrics.RecordChatResponse(OutcomeError)
		log.Error().Err(err).Dur("duration", elapsed).Msg("answer generation failed")
		return ReplyFailure
	}

	s.metrics.RecordLLMRequest(provider, model, elapsed.Seconds(), out.InputTokens, out.OutputTokens)

	reply := CleanResponse(out.Text)
	outcome := OutcomeAnswer
	if reply == ReplyTooShort {
		outcome = OutcomeFallback
	}
	s.metrics.RecordChatResponse(outcome)

	log.Info().
		Dur("duration", elapsed).
		Int("input_tokens", out.InputTokens).
		Int("output_tokens", out.OutputTokens).
		Str("outcome", outcome).
		Msg("answer generated")
	return reply
}
