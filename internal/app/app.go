// Package app wires configuration into running services. It is shared by the
// server binary and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/helixir/arxivchat/internal/chat"
	"github.com/helixir/arxivchat/internal/config"
	"github.com/helixir/arxivchat/internal/llm"
	"github.com/helixir/arxivchat/internal/observability"
	"github.com/helixir/arxivchat/internal/papers"
	"github.com/helixir/arxivchat/internal/papersources/arxiv"
	httpserver "github.com/helixir/arxivchat/internal/server/http"
)

// Services holds the capabilities built at startup. They are read-only
// afterwards.
type Services struct {
	// Papers is nil when the arXiv source is disabled.
	Papers *papers.Service
	// Chat is always set; Chat.Available reports whether a backend exists.
	Chat *chat.Service
	// Metrics is nil when metrics are disabled.
	Metrics *observability.Metrics
}

// NewMetrics registers the service metrics if enabled in cfg. It must be
// called at most once per process.
func NewMetrics(cfg *config.Config) *observability.Metrics {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return observability.NewMetrics(cfg.Metrics.Namespace)
}

// BuildServices constructs paper lookup and answer synthesis. A missing
// credential or disabled source is logged and leaves the capability
// unavailable; it is never an error.
func BuildServices(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger zerolog.Logger) *Services {
	svc := &Services{Metrics: metrics}

	src := cfg.PaperSources.ArXiv
	if src.Enabled {
		client := arxiv.New(arxiv.Config{
			BaseURL:    src.BaseURL,
			Timeout:    src.Timeout,
			RateLimit:  src.RateLimit,
			BurstSize:  src.BurstSize,
			MaxRetries: src.MaxRetries,
		}, metrics)
		svc.Papers = papers.NewService(client, metrics, logger)
		logger.Info().Str("base_url", src.BaseURL).Msg("arXiv paper source initialized")
	} else {
		logger.Warn().Msg("arXiv paper source disabled, search and chat are unavailable")
	}

	completer := llm.SelectCompleter(ctx, FactoryConfig(cfg), logger)
	svc.Chat = chat.NewService(completer, metrics, logger)

	return svc
}

// FactoryConfig maps the LLM section of cfg to the llm package's settings.
func FactoryConfig(cfg *config.Config) llm.FactoryConfig {
	return llm.FactoryConfig{
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		Groq: llm.GroqConfig{
			APIKey:    cfg.LLM.Groq.APIKey,
			Model:     cfg.LLM.Groq.Model,
			BaseURL:   cfg.LLM.Groq.BaseURL,
			MaxTokens: cfg.LLM.Groq.MaxTokens,
		},
		Gemini: llm.GeminiConfig{
			APIKey:  cfg.LLM.Gemini.APIKey,
			Model:   cfg.LLM.Gemini.Model,
			BaseURL: cfg.LLM.Gemini.BaseURL,
		},
	}
}

// NewHTTPServer builds the REST API server over svc.
func NewHTTPServer(cfg *config.Config, svc *Services, logger zerolog.Logger) *httpserver.Server {
	// Keep an absent lookup as a nil interface, not a typed nil.
	var lookup httpserver.PaperLookup
	if svc.Papers != nil {
		lookup = svc.Papers
	}
	var answers httpserver.AnswerSynthesizer
	if svc.Chat != nil {
		answers = svc.Chat
	}

	return httpserver.NewServer(httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Debug:           cfg.App.Debug,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		AllowedHosts:    cfg.Server.AllowedHosts,
		AppName:         cfg.App.Name,
		Version:         cfg.App.Version,
	}, lookup, answers, svc.Metrics, logger)
}

// Run serves the REST API, and metrics if enabled, until ctx is cancelled or
// a server fails, then shuts down gracefully.
func Run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	metrics := NewMetrics(cfg)
	svc := BuildServices(ctx, cfg, metrics, logger)
	httpSrv := NewHTTPServer(cfg, svc, logger)

	// Set up Prometheus metrics handler on a separate port if configured.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
	}

	// Channel to collect server errors.
	errCh := make(chan error, 2)

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if metricsServer != nil {
		go func() {
			logger.Info().
				Str("address", metricsServer.Addr).
				Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	readyLog := logger.Info().
		Str("http_address", cfg.Server.HTTPAddress()).
		Bool("arxiv_available", svc.Papers != nil).
		Str("llm_backend", svc.Chat.Backend()).
		Bool("debug", cfg.App.Debug)
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("arxivchat is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	logger.Info().Msg("shutting down arxivchat")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Msg("arxivchat shutdown complete")
	return nil
}
