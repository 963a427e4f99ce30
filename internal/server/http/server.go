// Package httpserver provides the HTTP REST API for paper search and chat.
package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/helixir/arxivchat/internal/domain"
	"github.com/helixir/arxivchat/internal/observability"
)

// PaperLookup is the paper search and fetch capability used by the handlers.
type PaperLookup interface {
	Search(ctx context.Context, query string, limit int) ([]*domain.Paper, error)
	GetByID(ctx context.Context, id string) (*domain.Paper, error)
}

// AnswerSynthesizer answers questions about a paper.
type AnswerSynthesizer interface {
	Chat(ctx context.Context, paper *domain.Paper, message string) string
	Available() bool
}

// Server is the HTTP REST API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	papers     PaperLookup
	answers    AnswerSynthesizer
	metrics    *observability.Metrics
	logger     zerolog.Logger
	cfg        Config
	now        func() time.Time
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Debug allows any CORS origin and any Host header.
	Debug          bool
	AllowedOrigins []string
	AllowedHosts   []string

	AppName string
	Version string
}

// NewServer creates a new HTTP server. papers and answers may be nil when the
// capability failed to initialize; requests that need it get 503. metrics may
// be nil.
func NewServer(cfg Config, papers PaperLookup, answers AnswerSynthesizer, metrics *observability.Metrics, logger zerolog.Logger) *Server {
	s := &Server{
		papers:   papers,
		answers:  answers,
		metrics:  metrics,
		logger:   logger.With().Str("component", "http-server").Logger(),
		cfg:      cfg,
		now:      time.Now,
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(requestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(correlationIDMiddleware)
	r.Use(requestLoggingMiddleware(s.logger, s.metrics))
	r.Use(recoverMiddleware(s.logger))
	if !s.cfg.Debug {
		r.Use(trustedHostMiddleware(s.cfg.AllowedHosts))
	}
	r.Use(corsMiddleware(s.cfg.AllowedOrigins, s.cfg.Debug))
	r.Use(jsonContentTypeMiddleware)

	r.NotFound(notFoundHandler)
	r.MethodNotAllowed(methodNotAllowedHandler)

	// Liveness (no upstream calls)
	r.Get("/healthz", s.livenessHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/papers", s.searchPapers)
		r.Post("/chat", s.chatWithPaper)
		r.Get("/health", s.healthCheck)
		r.Get("/stats", s.stats)
	})

	return r
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// lookupAvailable reports whether paper lookup initialized.
func (s *Server) lookupAvailable() bool {
	return s.papers != nil
}

// synthesisAvailable reports whether an LLM backend is configured.
func (s *Server) synthesisAvailable() bool {
	return s.answers != nil && s.answers.Available()
}

// requestLogger returns the server logger enriched with request identifiers.
func (s *Server) requestLogger(r *http.Request) zerolog.Logger {
	return observability.LoggerFromContext(r.Context(), s.logger)
}
