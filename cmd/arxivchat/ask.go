package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helixir/arxivchat/internal/app"
	"github.com/helixir/arxivchat/internal/domain"
)

var askCmd = &cobra.Command{
	Use:   "ask <paper-id> <question...>",
	Short: "Ask a question about one arXiv paper",
	Long: `Ask fetches the paper by its arXiv identifier (for example 1706.03762v7)
and answers the question with the configured language model.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		turn, err := domain.NewChatTurn(args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}

		svc := app.BuildServices(cmd.Context(), cfg, nil, logger)
		if svc.Papers == nil {
			return domain.NewUnavailableError("arXiv paper source", "enable paper_sources.arxiv")
		}
		if !svc.Chat.Available() {
			return domain.NewUnavailableError("LLM service", "set GOOGLE_API_KEY or GROQ_API_KEY")
		}

		paper, err := svc.Papers.GetByID(cmd.Context(), turn.PaperID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("paper %s not found", turn.PaperID)
			}
			return err
		}

		turn.Response = svc.Chat.Chat(cmd.Context(), paper, turn.Message)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n\n%s\n", paper.ShortTitle(100), turn.Response)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
