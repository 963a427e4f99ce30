package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// FactoryConfig holds the parameters needed to select a Completer.
// This is defined in the llm package to avoid importing the config package,
// keeping the llm package free of infrastructure dependencies.
type FactoryConfig struct {
	// Temperature is the sampling temperature for every backend.
	Temperature float64
	// Timeout bounds each backend call.
	Timeout time.Duration
	// Groq contains Groq-specific settings.
	Groq GroqConfig
	// Gemini contains Gemini-specific settings.
	Gemini GeminiConfig
}

// SelectCompleter returns the backend to use for the process lifetime.
// Gemini is chosen when its API key is set and the client initializes,
// otherwise Groq when its key is set. It returns nil when no backend is
// usable; the choice is never revisited.
func SelectCompleter(ctx context.Context, cfg FactoryConfig, logger zerolog.Logger) Completer {
	if cfg.Gemini.APIKey != "" {
		provider, err := NewGeminiProvider(ctx, cfg.Gemini, cfg.Temperature, cfg.Timeout)
		if err == nil {
			logger.Info().Str("provider", provider.Provider()).Str("model", provider.Model()).Msg("LLM backend selected")
			return provider
		}
		logger.Warn().Err(err).Msg("gemini initialization failed, trying groq")
	}

	if cfg.Groq.APIKey != "" {
		provider := NewGroqProvider(cfg.Groq, cfg.Temperature, cfg.Timeout)
		logger.Info().Str("provider", provider.Provider()).Str("model", provider.Model()).Msg("LLM backend selected")
		return provider
	}

	logger.Warn().Msg("no LLM API keys configured, chat is disabled")
	return nil
}
