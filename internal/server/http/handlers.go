package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/helixir/arxivchat/internal/domain"
)

// Request and probe constants.
const (
	maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies
	maxTitleLength     = 100
	healthProbeQuery   = "machine learning"
	healthProbeTimeout = 10 * time.Second
)

// Health statuses.
const (
	statusHealthy     = "healthy"
	statusDegraded    = "degraded"
	statusUnavailable = "unavailable"
	statusNoAPIKeys   = "no_api_keys"
)

var (
	statsFeatures = []string{"paper_search", "ai_chat", "paper_focused_responses"}
	statsAPIs     = []string{"arxiv", "groq", "gemini"}
)

// chatRequest is the JSON request body for POST /api/chat.
type chatRequest struct {
	Message string `json:"message"`
	PaperID string `json:"paper_id"`
}

// Capabilities reported as 503 when they failed to initialize.
var (
	errArxivUnavailable = domain.NewUnavailableError("ArXiv service", "")
	errLLMUnavailable   = domain.NewUnavailableError("LLM service", "please check API keys")
)

// searchPapers handles GET /api/papers.
func (s *Server) searchPapers(w http.ResponseWriter, r *http.Request) {
	if !s.lookupAvailable() {
		writeDomainError(w, errArxivUnavailable, detailSearchFailed)
		return
	}

	params := r.URL.Query()
	limit := domain.DefaultSearchLimit
	if raw := params.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errCategoryBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	query, err := domain.ValidateSearch(params.Get("q"), limit)
	if err != nil {
		writeDomainError(w, err, detailSearchFailed)
		return
	}

	papers, err := s.papers.Search(r.Context(), query, limit)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidInput) {
			logger := s.requestLogger(r)
			logger.Error().Err(err).Msg("error searching papers")
		}
		writeDomainError(w, err, detailSearchFailed)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{Papers: papers, Count: len(papers)})
}

// chatWithPaper handles POST /api/chat. Both capabilities must be available
// before the body is even read.
func (s *Server) chatWithPaper(w http.ResponseWriter, r *http.Request) {
	if !s.lookupAvailable() {
		writeDomainError(w, errArxivUnavailable, detailChatFailed)
		return
	}
	if !s.synthesisAvailable() {
		writeDomainError(w, errLLMUnavailable, detailChatFailed)
		return
	}

	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, errCategoryBadRequest, "failed to read request body")
		return
	}

	var req chatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, errCategoryBadRequest, detailInvalidJSON)
		return
	}
	turn, err := domain.NewChatTurn(req.PaperID, req.Message)
	if err != nil {
		writeDomainError(w, err, detailChatFailed)
		return
	}

	ctx := r.Context()
	log := s.requestLogger(r).With().Str("paper_id", domain.Truncate(turn.PaperID, 20)).Logger()

	paper, err := s.papers.GetByID(ctx, turn.PaperID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrInvalidInput) {
			log.Error().Err(err).Msg("error fetching paper for chat")
		}
		writeDomainError(w, err, detailChatFailed)
		return
	}

	turn.Response = s.answers.Chat(ctx, paper, turn.Message)
	log.Info().Msg("generated response for paper")

	writeJSON(w, http.StatusOK, chatResponse{
		Response:   turn.Response,
		PaperTitle: paper.ShortTitle(maxTitleLength),
	})
}

// healthCheck handles GET /api/health. It always answers 200.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	resp := s.evaluateHealth(r.Context())
	s.metrics.RecordHealthProbe(resp.Status)
	writeJSON(w, http.StatusOK, resp)
}

// evaluateHealth builds the health report. A panic anywhere in evaluation
// yields a degraded report without service details.
func (s *Server) evaluateHealth(ctx context.Context) (resp healthResponse) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error().Interface("panic", rec).Msg("health check failed")
			resp = healthResponse{
				Status:    statusDegraded,
				Timestamp: s.timestamp(),
				Version:   s.cfg.Version,
				Error:     "Health check partially failed",
			}
		}
	}()

	arxivStatus := statusUnavailable
	if s.lookupAvailable() {
		arxivStatus = statusHealthy
		if !s.probeLookup(ctx) {
			arxivStatus = statusDegraded
		}
	}

	llmStatus := statusNoAPIKeys
	if s.synthesisAvailable() {
		llmStatus = statusHealthy
	}

	overall := statusDegraded
	if s.lookupAvailable() {
		overall = statusHealthy
	}

	return healthResponse{
		Status: overall,
		Services: &healthServices{
			ArxivAPI:   arxivStatus,
			LLMService: llmStatus,
		},
		Timestamp: s.timestamp(),
		Version:   s.cfg.Version,
	}
}

// probeLookup runs one live smoke search. Errors, panics and empty results
// all count as failure.
func (s *Server) probeLookup(ctx context.Context) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Warn().Interface("panic", rec).Msg("health probe search panicked")
			ok = false
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	papers, err := s.papers.Search(ctx, healthProbeQuery, 1)
	if err != nil {
		s.logger.Warn().Err(err).Msg("health probe search failed")
		return false
	}
	return len(papers) > 0
}

// stats handles GET /api/stats.
func (s *Server) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statsResponse{
		App:      s.cfg.AppName,
		Version:  s.cfg.Version,
		Features: statsFeatures,
		APIs:     statsAPIs,
	})
}

// livenessHandler handles GET /healthz.
func (s *Server) livenessHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) timestamp() float64 {
	return float64(s.now().UnixNano()) / 1e9
}
