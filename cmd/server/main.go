// Package main provides the entry point for the arxivchat HTTP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/helixir/arxivchat/internal/app"
	"github.com/helixir/arxivchat/internal/config"
	"github.com/helixir/arxivchat/internal/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(cfg.Logging.LoggerConfig())
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().
		Str("version", cfg.App.Version).
		Bool("debug", cfg.App.Debug).
		Msg("arxivchat server starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return app.Run(ctx, cfg, logger)
}
