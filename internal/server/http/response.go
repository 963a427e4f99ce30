package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/helixir/arxivchat/internal/domain"
)

// Error categories reported in the "error" field of error bodies.
const (
	errCategoryBadRequest       = "Bad request"
	errCategoryNotFound         = "Not found"
	errCategoryMethodNotAllowed = "Method not allowed"
	errCategoryUnavailable      = "Service unavailable"
	errCategoryInternal         = "Internal server error"
)

// Fixed error details.
const (
	detailPaperNotFound    = "Paper not found"
	detailSearchFailed     = "Failed to search papers"
	detailChatFailed       = "Failed to generate response"
	detailInvalidJSON      = "invalid JSON request body"
	detailRouteNotFound    = "The requested resource was not found"
	detailMethodNotAllowed = "The requested method is not allowed for this resource"
	detailUnexpected       = "An unexpected error occurred"
	detailInvalidHost      = "Invalid host header"
)

// Response types for JSON serialization.

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

type searchResponse struct {
	Papers []*domain.Paper `json:"papers"`
	Count  int             `json:"count"`
}

type chatResponse struct {
	Response   string `json:"response"`
	PaperTitle string `json:"paper_title"`
}

type healthServices struct {
	ArxivAPI   string `json:"arxiv_api"`
	LLMService string `json:"llm_service"`
}

type healthResponse struct {
	Status    string          `json:"status"`
	Services  *healthServices `json:"services,omitempty"`
	Timestamp float64         `json:"timestamp"`
	Version   string          `json:"version"`
	Error     string          `json:"error,omitempty"`
}

type statsResponse struct {
	App      string   `json:"app"`
	Version  string   `json:"version"`
	Features []string `json:"features"`
	APIs     []string `json:"apis"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, category, detail string) {
	writeJSON(w, statusCode, errorResponse{Error: category, Detail: detail})
}

// writeDomainError maps domain errors to HTTP status codes and writes a JSON
// error response. fallback is the detail used for 500s; internal error
// details are not leaked to clients.
func writeDomainError(w http.ResponseWriter, err error, fallback string) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, errCategoryBadRequest, ve.Message)
		} else {
			writeError(w, http.StatusBadRequest, errCategoryBadRequest, "invalid input")
		}
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, errCategoryNotFound, detailPaperNotFound)
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, errCategoryUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, errCategoryInternal, fallback)
	}
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, errCategoryNotFound, detailRouteNotFound)
}

func methodNotAllowedHandler(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, errCategoryMethodNotAllowed, detailMethodNotAllowed)
}
