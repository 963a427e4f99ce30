// Package papers implements paper lookup: validated search and id lookup over
// a single paper source.
package papers

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/arxivchat/internal/domain"
	"github.com/helixir/arxivchat/internal/observability"
	"github.com/helixir/arxivchat/internal/papersources"
)

// Service searches and fetches papers. It is safe for concurrent use.
type Service struct {
	source  papersources.PaperSource
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewService creates a lookup service over source. metrics may be nil.
func NewService(source papersources.PaperSource, metrics *observability.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		source:  source,
		metrics: metrics,
		logger:  logger.With().Str("component", "paper-lookup").Str("source", source.Name()).Logger(),
	}
}

// Search validates the query and limit, then returns up to limit papers in
// relevance order. No results is an empty slice, not an error. Upstream
// failures are returned as *domain.LookupError.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]*domain.Paper, error) {
	query, err := domain.ValidateSearch(query, limit)
	if err != nil {
		return nil, err
	}

	name := s.source.Name()
	log := observability.WithSearchContext(observability.LoggerFromContext(ctx, s.logger), domain.Truncate(query, 50), name)

	s.metrics.RecordSearchStarted(name)
	start := time.Now()

	result, err := s.source.Search(ctx, papersources.SearchParams{
		Query:      query,
		MaxResults: limit,
	})
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.RecordSearchFailed(name, elapsed.Seconds())
		log.Error().Err(err).Dur("duration", elapsed).Msg("paper search failed")
		return nil, domain.NewLookupError("search", err)
	}

	papers := result.Papers
	if papers == nil {
		papers = []*domain.Paper{}
	}
	if len(papers) > limit {
		papers = papers[:limit]
	}

	s.metrics.RecordSearchCompleted(name, len(papers), elapsed.Seconds())
	log.Info().
		Int("count", len(papers)).
		Int("total_results", result.TotalResults).
		Bool("has_more", result.HasMore).
		Dur("duration", elapsed).
		Msg("paper search completed")
	return papers, nil
}

// GetByID fetches a single paper. A missing paper yields an error matching
// domain.ErrNotFound; any other failure is a *domain.LookupError.
func (s *Service) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	id, err := domain.ValidatePaperID(id)
	if err != nil {
		return nil, err
	}

	name := s.source.Name()
	log := observability.WithPaperContext(observability.LoggerFromContext(ctx, s.logger), domain.Truncate(id, 20))

	paper, err := s.source.GetByID(ctx, id)
	switch {
	case err == nil:
		s.metrics.RecordPaperLookup(name, "found")
		return paper, nil
	case errors.Is(err, domain.ErrNotFound):
		s.metrics.RecordPaperLookup(name, "not_found")
		log.Info().Msg("paper not found")
	default:
		s.metrics.RecordPaperLookup(name, "error")
		log.Error().Err(err).Msg("paper lookup failed")
	}
	return nil, domain.NewLookupError("get", err)
}
