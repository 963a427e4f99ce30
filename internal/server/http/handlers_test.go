package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/arxivchat/internal/domain"
	"github.com/helixir/arxivchat/internal/observability"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

// mockLookup implements PaperLookup for HTTP handler tests.
type mockLookup struct {
	searchFn    func(ctx context.Context, query string, limit int) ([]*domain.Paper, error)
	getByIDFn   func(ctx context.Context, id string) (*domain.Paper, error)
	searchCalls int
	getCalls    int
}

func (m *mockLookup) Search(ctx context.Context, query string, limit int) ([]*domain.Paper, error) {
	m.searchCalls++
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return []*domain.Paper{testPaper()}, nil
}

func (m *mockLookup) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	m.getCalls++
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return testPaper(), nil
}

// mockAnswers implements AnswerSynthesizer for HTTP handler tests.
type mockAnswers struct {
	chatFn      func(ctx context.Context, paper *domain.Paper, message string) string
	availableFn func() bool
	calls       int
}

func (m *mockAnswers) Chat(ctx context.Context, paper *domain.Paper, message string) string {
	m.calls++
	if m.chatFn != nil {
		return m.chatFn(ctx, paper, message)
	}
	return "A detailed answer about " + paper.Title
}

func (m *mockAnswers) Available() bool {
	if m.availableFn != nil {
		return m.availableFn()
	}
	return true
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func testPaper() *domain.Paper {
	return &domain.Paper{
		ID:         "1706.03762v7",
		Title:      "Attention Is All You Need",
		Authors:    []string{"Ashish Vaswani", "Noam Shazeer"},
		Abstract:   "The dominant sequence transduction models...",
		Published:  "2017-06-12T17:57:34Z",
		PDFURL:     "https://arxiv.org/pdf/1706.03762v7",
		Categories: []string{"cs.CL", "cs.LG"},
	}
}

func testConfig() Config {
	return Config{Debug: true, AppName: "ArxivChat", Version: "1.0.0"}
}

// newTestHTTPServer builds a server over the given capabilities. Pass nil for
// an unavailable capability.
func newTestHTTPServer(papers PaperLookup, answers AnswerSynthesizer) *Server {
	return NewServer(testConfig(), papers, answers, nil, zerolog.Nop())
}

func serveHTTP(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func searchRequestTo(params url.Values) *http.Request {
	return httptest.NewRequest(http.MethodGet, "/api/papers?"+params.Encode(), nil)
}

func chatRequestWith(t *testing.T, body interface{}) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return resp
}

// ---------------------------------------------------------------------------
// GET /api/papers
// ---------------------------------------------------------------------------

func TestSearchPapers(t *testing.T) {
	t.Run("returns papers and count", func(t *testing.T) {
		var gotQuery string
		var gotLimit int
		lookup := &mockLookup{searchFn: func(_ context.Context, q string, limit int) ([]*domain.Paper, error) {
			gotQuery, gotLimit = q, limit
			return []*domain.Paper{testPaper()}, nil
		}}
		srv := newTestHTTPServer(lookup, &mockAnswers{})

		rr := serveHTTP(srv, searchRequestTo(url.Values{"q": {"attention"}, "limit": {"5"}}))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

		var resp struct {
			Papers []domain.Paper `json:"papers"`
			Count  int            `json:"count"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Count)
		require.Len(t, resp.Papers, 1)
		assert.Equal(t, "1706.03762v7", resp.Papers[0].ID)
		assert.Equal(t, "https://arxiv.org/pdf/1706.03762v7", resp.Papers[0].PDFURL)
		assert.Equal(t, "attention", gotQuery)
		assert.Equal(t, 5, gotLimit)
	})

	t.Run("default limit is 10", func(t *testing.T) {
		var gotLimit int
		lookup := &mockLookup{searchFn: func(_ context.Context, _ string, limit int) ([]*domain.Paper, error) {
			gotLimit = limit
			return []*domain.Paper{}, nil
		}}
		srv := newTestHTTPServer(lookup, &mockAnswers{})

		rr := serveHTTP(srv, searchRequestTo(url.Values{"q": {"graphs"}}))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 10, gotLimit)
	})

	t.Run("empty result is success", func(t *testing.T) {
		lookup := &mockLookup{searchFn: func(context.Context, string, int) ([]*domain.Paper, error) {
			return []*domain.Paper{}, nil
		}}
		srv := newTestHTTPServer(lookup, &mockAnswers{})

		rr := serveHTTP(srv, searchRequestTo(url.Values{"q": {"zzzz"}}))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"papers": [], "count": 0}`, rr.Body.String())
	})

	t.Run("invalid input never reaches upstream", func(t *testing.T) {
		cases := []struct {
			name   string
			params url.Values
			detail string
		}{
			{"missing q", url.Values{}, "query cannot be empty"},
			{"blank q", url.Values{"q": {"   "}}, "query cannot be empty"},
			{"q too long", url.Values{"q": {strings.Repeat("a", 201)}}, "query too long (max 200 characters)"},
			{"limit zero", url.Values{"q": {"ok"}, "limit": {"0"}}, "limit must be between 1 and 50"},
			{"limit too large", url.Values{"q": {"ok"}, "limit": {"51"}}, "limit must be between 1 and 50"},
			{"limit not a number", url.Values{"q": {"ok"}, "limit": {"ten"}}, "limit must be an integer"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				lookup := &mockLookup{}
				srv := newTestHTTPServer(lookup, &mockAnswers{})

				rr := serveHTTP(srv, searchRequestTo(tc.params))

				assert.Equal(t, http.StatusBadRequest, rr.Code)
				assert.Equal(t, tc.detail, decodeError(t, rr).Detail)
				assert.Equal(t, 0, lookup.searchCalls)
			})
		}
	})

	t.Run("q of exactly 200 characters is accepted", func(t *testing.T) {
		lookup := &mockLookup{}
		srv := newTestHTTPServer(lookup, &mockAnswers{})

		rr := serveHTTP(srv, searchRequestTo(url.Values{"q": {strings.Repeat("a", 200)}, "limit": {"50"}}))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("lookup unavailable is 503", func(t *testing.T) {
		srv := newTestHTTPServer(nil, &mockAnswers{})

		rr := serveHTTP(srv, searchRequestTo(url.Values{"q": {"ok"}}))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Equal(t, "ArXiv service not available", decodeError(t, rr).Detail)
	})

	t.Run("upstream failure is a generic 500", func(t *testing.T) {
		lookup := &mockLookup{searchFn: func(context.Context, string, int) ([]*domain.Paper, error) {
			return nil, domain.NewLookupError("search", errors.New("dial tcp 10.1.2.3:443: connection refused"))
		}}
		srv := newTestHTTPServer(lookup, &mockAnswers{})

		rr := serveHTTP(srv, searchRequestTo(url.Values{"q": {"ok"}}))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		resp := decodeError(t, rr)
		assert.Equal(t, errCategoryInternal, resp.Error)
		assert.Equal(t, detailSearchFailed, resp.Detail)
		assert.NotContains(t, rr.Body.String(), "10.1.2.3")
	})
}

// ---------------------------------------------------------------------------
// POST /api/chat
// ---------------------------------------------------------------------------

func TestChatWithPaper(t *testing.T) {
	t.Run("returns response and paper title", func(t *testing.T) {
		var gotID, gotMessage string
		lookup := &mockLookup{getByIDFn: func(_ context.Context, id string) (*domain.Paper, error) {
			gotID = id
			return testPaper(), nil
		}}
		answers := &mockAnswers{chatFn: func(_ context.Context, _ *domain.Paper, message string) string {
			gotMessage = message
			return "It introduces the Transformer."
		}}
		srv := newTestHTTPServer(lookup, answers)

		rr := serveHTTP(srv, chatRequestWith(t, map[string]string{
			"paper_id": " 1706.03762v7 ",
			"message":  "  What is new here?  ",
		}))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.JSONEq(t, `{"response": "It introduces the Transformer.", "paper_title": "Attention Is All You Need"}`, rr.Body.String())
		assert.Equal(t, "1706.03762v7", gotID)
		assert.Equal(t, "What is new here?", gotMessage)
	})

	t.Run("paper title is cut to 100 characters", func(t *testing.T) {
		lookup := &mockLookup{getByIDFn: func(context.Context, string) (*domain.Paper, error) {
			p := testPaper()
			p.Title = strings.Repeat("T", 150)
			return p, nil
		}}
		srv := newTestHTTPServer(lookup, &mockAnswers{})

		rr := serveHTTP(srv, chatRequestWith(t, map[string]string{"paper_id": "x", "message": "q"}))
		require.Equal(t, http.StatusOK, rr.Code)

		var resp chatResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, strings.Repeat("T", 100), resp.PaperTitle)
	})

	t.Run("invalid payload never reaches lookup or synthesis", func(t *testing.T) {
		cases := []struct {
			name   string
			body   map[string]string
			detail string
		}{
			{"empty message", map[string]string{"paper_id": "1706.03762", "message": ""}, "message cannot be empty"},
			{"blank message", map[string]string{"paper_id": "1706.03762", "message": " \n\t "}, "message cannot be empty"},
			{"missing message", map[string]string{"paper_id": "1706.03762"}, "message cannot be empty"},
			{"message too long", map[string]string{"paper_id": "1706.03762", "message": strings.Repeat("x", 1001)}, "message too long (max 1000 characters)"},
			{"blank paper id", map[string]string{"paper_id": "  ", "message": "hi"}, "paper ID cannot be empty"},
			{"missing paper id", map[string]string{"message": "hi"}, "paper ID cannot be empty"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				lookup := &mockLookup{}
				answers := &mockAnswers{}
				srv := newTestHTTPServer(lookup, answers)

				rr := serveHTTP(srv, chatRequestWith(t, tc.body))

				assert.Equal(t, http.StatusBadRequest, rr.Code)
				assert.Equal(t, tc.detail, decodeError(t, rr).Detail)
				assert.Equal(t, 0, lookup.getCalls)
				assert.Equal(t, 0, answers.calls)
			})
		}
	})

	t.Run("message of exactly 1000 characters is accepted", func(t *testing.T) {
		srv := newTestHTTPServer(&mockLookup{}, &mockAnswers{})
		rr := serveHTTP(srv, chatRequestWith(t, map[string]string{"paper_id": "x", "message": strings.Repeat("é", 1000)}))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("malformed JSON is 400", func(t *testing.T) {
		srv := newTestHTTPServer(&mockLookup{}, &mockAnswers{})
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"paper_id":`))

		rr := serveHTTP(srv, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, detailInvalidJSON, decodeError(t, rr).Detail)
	})

	t.Run("no LLM backend is 503 before validation and lookup", func(t *testing.T) {
		lookup := &mockLookup{}
		answers := &mockAnswers{availableFn: func() bool { return false }}
		srv := newTestHTTPServer(lookup, answers)

		rr := serveHTTP(srv, chatRequestWith(t, map[string]string{"paper_id": "", "message": ""}))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		body := decodeError(t, rr)
		assert.Equal(t, "Service unavailable", body.Error)
		assert.Equal(t, "LLM service not available - please check API keys", body.Detail)
		assert.Equal(t, 0, lookup.getCalls)
		assert.Equal(t, 0, answers.calls)
	})

	t.Run("nil synthesizer is 503", func(t *testing.T) {
		srv := newTestHTTPServer(&mockLookup{}, nil)
		rr := serveHTTP(srv, chatRequestWith(t, map[string]string{"paper_id": "x", "message": "q"}))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})

	t.Run("lookup unavailable is 503", func(t *testing.T) {
		answers := &mockAnswers{}
		srv := newTestHTTPServer(nil, answers)

		rr := serveHTTP(srv, chatRequestWith(t, map[string]string{"paper_id": "x", "message": "q"}))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Equal(t, "ArXiv service not available", decodeError(t, rr).Detail)
		assert.Equal(t, 0, answers.calls)
	})

	t.Run("unknown paper is 404", func(t *testing.T) {
		lookup := &mockLookup{getByIDFn: func(_ context.Context, id string) (*domain.Paper, error) {
			return nil, domain.NewLookupError("get", domain.NewNotFoundError("paper", id))
		}}
		answers := &mockAnswers{}
		srv := newTestHTTPServer(lookup, answers)

		rr := serveHTTP(srv, chatRequestWith(t, map[string]string{"paper_id": "0000.00000", "message": "q"}))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		resp := decodeError(t, rr)
		assert.Equal(t, errCategoryNotFound, resp.Error)
		assert.Equal(t, detailPaperNotFound, resp.Detail)
		assert.Equal(t, 0, answers.calls)
	})

	t.Run("lookup failure is a generic 500", func(t *testing.T) {
		lookup := &mockLookup{getByIDFn: func(context.Context, string) (*domain.Paper, error) {
			return nil, domain.NewLookupError("get", domain.NewExternalAPIError("arXiv", 503, "<html>backend busy</html>", nil))
		}}
		srv := newTestHTTPServer(lookup, &mockAnswers{})

		rr := serveHTTP(srv, chatRequestWith(t, map[string]string{"paper_id": "x", "message": "q"}))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, detailChatFailed, decodeError(t, rr).Detail)
		assert.NotContains(t, rr.Body.String(), "backend busy")
	})

	t.Run("wrong method is JSON 405", func(t *testing.T) {
		srv := newTestHTTPServer(&mockLookup{}, &mockAnswers{})
		rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/chat", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
		assert.Equal(t, errCategoryMethodNotAllowed, decodeError(t, rr).Error)
	})
}

// ---------------------------------------------------------------------------
// GET /api/health
// ---------------------------------------------------------------------------

func TestHealthCheck(t *testing.T) {
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 500_000_000, time.UTC)

	healthOf := func(t *testing.T, papers PaperLookup, answers AnswerSynthesizer) (int, healthResponse) {
		t.Helper()
		srv := newTestHTTPServer(papers, answers)
		srv.now = func() time.Time { return fixed }

		rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		var resp healthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
		return rr.Code, resp
	}

	t.Run("all healthy", func(t *testing.T) {
		var gotQuery string
		var gotLimit int
		lookup := &mockLookup{searchFn: func(_ context.Context, q string, limit int) ([]*domain.Paper, error) {
			gotQuery, gotLimit = q, limit
			return []*domain.Paper{testPaper()}, nil
		}}

		code, resp := healthOf(t, lookup, &mockAnswers{})

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", resp.Status)
		require.NotNil(t, resp.Services)
		assert.Equal(t, "healthy", resp.Services.ArxivAPI)
		assert.Equal(t, "healthy", resp.Services.LLMService)
		assert.Equal(t, "1.0.0", resp.Version)
		assert.InDelta(t, float64(fixed.Unix())+0.5, resp.Timestamp, 1e-3)
		assert.Equal(t, "machine learning", gotQuery)
		assert.Equal(t, 1, gotLimit)
	})

	t.Run("smoke search failure degrades arxiv only", func(t *testing.T) {
		lookup := &mockLookup{searchFn: func(context.Context, string, int) ([]*domain.Paper, error) {
			return nil, errors.New("timeout")
		}}

		code, resp := healthOf(t, lookup, &mockAnswers{})

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "degraded", resp.Services.ArxivAPI)
	})

	t.Run("empty smoke search degrades arxiv", func(t *testing.T) {
		lookup := &mockLookup{searchFn: func(context.Context, string, int) ([]*domain.Paper, error) {
			return []*domain.Paper{}, nil
		}}

		_, resp := healthOf(t, lookup, &mockAnswers{})
		assert.Equal(t, "degraded", resp.Services.ArxivAPI)
	})

	t.Run("panicking smoke search degrades arxiv", func(t *testing.T) {
		lookup := &mockLookup{searchFn: func(context.Context, string, int) ([]*domain.Paper, error) {
			panic("boom")
		}}

		code, resp := healthOf(t, lookup, &mockAnswers{})
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "degraded", resp.Services.ArxivAPI)
	})

	t.Run("lookup unavailable", func(t *testing.T) {
		code, resp := healthOf(t, nil, &mockAnswers{})

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "unavailable", resp.Services.ArxivAPI)
	})

	t.Run("no LLM keys does not affect overall status", func(t *testing.T) {
		answers := &mockAnswers{availableFn: func() bool { return false }}

		_, resp := healthOf(t, &mockLookup{}, answers)
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "no_api_keys", resp.Services.LLMService)
		assert.Equal(t, 0, answers.calls)
	})

	t.Run("panic during evaluation still answers 200", func(t *testing.T) {
		answers := &mockAnswers{availableFn: func() bool { panic("broken") }}

		code, resp := healthOf(t, &mockLookup{}, answers)

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "degraded", resp.Status)
		assert.Nil(t, resp.Services)
		assert.Equal(t, "Health check partially failed", resp.Error)
	})

	t.Run("records probe metric", func(t *testing.T) {
		m := observability.NewMetrics("test_http_health")
		srv := NewServer(testConfig(), &mockLookup{}, &mockAnswers{}, m, zerolog.Nop())

		serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.HealthProbes.WithLabelValues("healthy")))
	})
}

// ---------------------------------------------------------------------------
// Static endpoints
// ---------------------------------------------------------------------------

func TestStats(t *testing.T) {
	lookup := &mockLookup{}
	srv := newTestHTTPServer(lookup, nil)

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{
		"app": "ArxivChat",
		"version": "1.0.0",
		"features": ["paper_search", "ai_chat", "paper_focused_responses"],
		"apis": ["arxiv", "groq", "gemini"]
	}`, rr.Body.String())
	assert.Equal(t, 0, lookup.searchCalls)
}

func TestLiveness(t *testing.T) {
	srv := newTestHTTPServer(nil, nil)
	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rr.Body.String())
}

func TestNotFound(t *testing.T) {
	srv := newTestHTTPServer(nil, nil)
	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	resp := decodeError(t, rr)
	assert.Equal(t, "Not found", resp.Error)
	assert.Equal(t, detailRouteNotFound, resp.Detail)
}

func TestRequestMetrics_UseRoutePattern(t *testing.T) {
	m := observability.NewMetrics("test_http_routes")
	srv := NewServer(testConfig(), &mockLookup{}, nil, m, zerolog.Nop())

	serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	serveHTTP(srv, searchRequestTo(url.Values{"q": {"ok"}}))
	serveHTTP(srv, searchRequestTo(url.Values{"q": {""}}))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/api/stats", "GET", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/api/papers", "GET", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/api/papers", "GET", "400")))
}

func TestWriteDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"validation", domain.NewValidationError("q", "query cannot be empty"), http.StatusBadRequest, "query cannot be empty"},
		{"wrapped invalid input", errors.Join(domain.ErrInvalidInput), http.StatusBadRequest, "invalid input"},
		{"not found", domain.NewLookupError("get", domain.NewNotFoundError("paper", "x")), http.StatusNotFound, detailPaperNotFound},
		{"unavailable", domain.NewUnavailableError("LLM service", ""), http.StatusServiceUnavailable, "LLM service not available"},
		{"unknown", errors.New("secret internals"), http.StatusInternalServerError, "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeDomainError(rr, tt.err, "fallback")

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.detail, decodeError(t, rr).Detail)
		})
	}

	t.Run("nil writes nothing", func(t *testing.T) {
		rr := httptest.NewRecorder()
		writeDomainError(rr, nil, "fallback")
		assert.Equal(t, 0, rr.Body.Len())
	})
}
