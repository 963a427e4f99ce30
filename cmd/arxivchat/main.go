// Package main is the entry point for the arxivchat CLI. It exposes the
// server plus one-shot search and question commands over the same services.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/helixir/arxivchat/internal/config"
	"github.com/helixir/arxivchat/internal/observability"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	cfg    *config.Config
	logger zerolog.Logger
)

// rootCmd is the base command for the arxivchat CLI.
var rootCmd = &cobra.Command{
	Use:   "arxivchat",
	Short: "Search arXiv and ask questions about papers",
	Long: `arxivchat searches the arXiv catalogue and answers questions about a
single paper with a hosted language model (Gemini or Groq).

Run "arxivchat serve" for the web API, or use "search" and "ask" directly
from the terminal. Configuration comes from config.yaml and ARXIVCHAT_*
environment variables; API keys are read from GOOGLE_API_KEY and GROQ_API_KEY.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		cfgFile, _ := cmd.Flags().GetString("config")
		loaded, err := config.LoadFile(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

		logCfg := cfg.Logging.LoggerConfig()
		if cmd.Name() != "serve" {
			logCfg.Format = "console"
			logCfg.Output = "stderr"
			if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
				logCfg.Level = "warn"
			}
		}
		logger = observability.NewLogger(logCfg)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./config.yaml, ./config/config.yaml or /etc/arxivchat/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log at the configured level instead of warn")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
