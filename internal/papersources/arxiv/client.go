// Package arxiv implements the arXiv Atom API as a papersources.PaperSource.
package arxiv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/atom"

	"github.com/helixir/arxivchat/internal/domain"
	"github.com/helixir/arxivchat/internal/observability"
	"github.com/helixir/arxivchat/internal/papersources"
)

const (
	// DefaultBaseURL is the default arXiv API base URL.
	DefaultBaseURL = "https://export.arxiv.org/api"

	// DefaultRateLimit is the default rate limit (3 requests per second).
	DefaultRateLimit = 3.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is used when a search does not set MaxResults.
	DefaultMaxResults = 10

	// SourceName is the source label used in logs and metrics.
	SourceName = "arxiv"

	// maxFeedBytes caps the Atom document read from upstream.
	maxFeedBytes = 10 << 20

	// errorEntryMarker appears in the id of the pseudo-entry arXiv returns
	// for malformed queries.
	errorEntryMarker = "/api/errors"
)

// Config holds configuration for the arXiv client.
type Config struct {
	// BaseURL is the arXiv API base URL.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxRetries is the number of retries on 429/5xx. Zero disables retries.
	MaxRetries int

	// MaxResults is the default page size when SearchParams.MaxResults is 0.
	MaxResults int
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
}

// Client implements the papersources.PaperSource interface for arXiv.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

// Ensure Client implements PaperSource interface.
var _ papersources.PaperSource = (*Client)(nil)

// New creates a new arXiv client with the given configuration. Every HTTP
// attempt is reported to metrics, which may be nil.
func New(cfg Config, metrics *observability.Metrics) *Client {
	cfg.applyDefaults()

	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.RateLimit,
		BurstSize:  cfg.BurstSize,
		MaxRetries: cfg.MaxRetries,
		Observer: func(statusCode int, elapsed time.Duration) {
			metrics.RecordSourceRequest(SourceName, papersources.StatusClass(statusCode), elapsed.Seconds())
		},
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new arXiv client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search queries arXiv for papers matching the given parameters, ordered by
// relevance. The query is passed through as the arXiv search_query and
// results always start at the first match.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = c.config.MaxResults
	}

	query := url.Values{}
	query.Set("search_query", params.Query)
	query.Set("start", "0")
	query.Set("max_results", strconv.Itoa(maxResults))
	query.Set("sortBy", "relevance")
	query.Set("sortOrder", "descending")

	feed, err := c.fetch(ctx, query)
	if err != nil {
		return nil, err
	}

	papers := make([]*domain.Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		if paper := entryToPaper(entry); paper != nil {
			papers = append(papers, paper)
		}
	}

	total := totalResults(feed)
	return &papersources.SearchResult{
		Papers:       papers,
		TotalResults: total,
		HasMore:      len(papers) < total,
	}, nil
}

// GetByID retrieves a specific paper by its arXiv identifier. A versioned id
// ("2301.12345v2") pins that version; a bare id returns the latest.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	query := url.Values{}
	query.Set("id_list", id)
	query.Set("max_results", "1")

	feed, err := c.fetch(ctx, query)
	if err != nil {
		return nil, err
	}

	for _, entry := range feed.Entries {
		if paper := entryToPaper(entry); paper != nil {
			return paper, nil
		}
	}
	return nil, domain.NewNotFoundError("paper", id)
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return SourceName
}

// fetch runs one query against the /query endpoint and parses the Atom feed.
func (c *Client) fetch(ctx context.Context, query url.Values) (*atom.Feed, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/query"
	baseURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/atom+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(SourceName, resp.StatusCode, strings.TrimSpace(string(body)), nil)
	}

	// atom.Parser keeps per-document state and is not safe to share.
	var parser atom.Parser
	feed, err := parser.Parse(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	for _, entry := range feed.Entries {
		if entry != nil && strings.Contains(entry.ID, errorEntryMarker) {
			return nil, domain.NewExternalAPIError(SourceName, resp.StatusCode, normalizeWhitespace(entry.Summary), nil)
		}
	}

	return feed, nil
}

// entryToPaper converts an arXiv Atom entry to a domain Paper. Entries
// without an id are skipped.
func entryToPaper(entry *atom.Entry) *domain.Paper {
	if entry == nil {
		return nil
	}

	id := domain.IDFromEntryID(entry.ID)
	if id == "" {
		return nil
	}

	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		if a == nil {
			continue
		}
		if name := strings.TrimSpace(a.Name); name != "" {
			authors = append(authors, name)
		}
	}

	categories := make([]string, 0, len(entry.Categories))
	for _, cat := range entry.Categories {
		if cat != nil && cat.Term != "" {
			categories = append(categories, cat.Term)
		}
	}

	published := strings.TrimSpace(entry.Published)
	if entry.PublishedParsed != nil {
		published = entry.PublishedParsed.UTC().Format(time.RFC3339)
	}

	return &domain.Paper{
		ID:         id,
		Title:      normalizeWhitespace(entry.Title),
		Authors:    authors,
		Abstract:   normalizeWhitespace(entry.Summary),
		Published:  published,
		PDFURL:     pdfURL(entry, id),
		Categories: categories,
	}
}

// pdfURL returns the entry's PDF link, or the conventional arXiv PDF location
// when the entry carries none.
func pdfURL(entry *atom.Entry, id string) string {
	for _, link := range entry.Links {
		if link == nil {
			continue
		}
		if link.Title == "pdf" || link.Type == "application/pdf" {
			return link.Href
		}
	}
	return "https://arxiv.org/pdf/" + id
}

// totalResults reads opensearch:totalResults when present.
func totalResults(feed *atom.Feed) int {
	for _, ns := range []string{"opensearch", "openSearch"} {
		exts, ok := feed.Extensions[ns]["totalResults"]
		if !ok || len(exts) == 0 {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSpace(exts[0].Value)); err == nil {
			return n
		}
	}
	return 0
}

// normalizeWhitespace trims and collapses runs of whitespace, including the
// hard line breaks arXiv puts in titles and abstracts.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
