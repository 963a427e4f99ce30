package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/helixir/arxivchat/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serve starts the REST API (/api/papers, /api/chat, /api/health, /api/stats)
and, when enabled, the Prometheus metrics endpoint on its own port. It stops
gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return app.Run(ctx, cfg, logger.With().Str("component", "server").Logger())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
