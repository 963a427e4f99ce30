// Package papersources defines the paper source abstraction and the shared
// HTTP plumbing used by source clients.
//
// Example usage:
//
//	source := arxiv.New(arxiv.Config{}, metrics)
//	result, err := source.Search(ctx, papersources.SearchParams{
//		Query:      "graph neural networks",
//		MaxResults: 10,
//	})
package papersources

import (
	"context"

	"github.com/helixir/arxivchat/internal/domain"
)

// SearchParams defines the parameters for searching academic papers.
type SearchParams struct {
	// Query is the search query string (required). It is passed to the
	// source as given.
	Query string

	// MaxResults limits the number of papers returned in a single request.
	// A value of 0 uses the source's default limit.
	MaxResults int
}

// SearchResult contains the results from a paper source search operation.
type SearchResult struct {
	// Papers contains the papers returned by the search, in source order.
	// Never nil; empty when nothing matched.
	Papers []*domain.Paper

	// TotalResults is the total number of papers matching the query as
	// reported by the source. Zero when the source does not report it.
	TotalResults int

	// HasMore indicates whether additional results are available
	// beyond the current page.
	HasMore bool
}

// PaperSource defines the interface that paper source clients implement.
type PaperSource interface {
	// Search queries the paper source for papers matching the given parameters.
	// An empty result is not an error.
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)

	// GetByID retrieves a specific paper by its source-specific identifier.
	// Returns an error wrapping domain.ErrNotFound if the paper does not exist.
	GetByID(ctx context.Context, id string) (*domain.Paper, error)

	// Name returns a human-readable name for this paper source.
	// Used for logging, metrics, and display purposes.
	Name() string
}
