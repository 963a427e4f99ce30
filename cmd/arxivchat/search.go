package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helixir/arxivchat/internal/app"
	"github.com/helixir/arxivchat/internal/domain"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search arXiv for papers",
	Long: `Search sends the query to arXiv as-is and prints matches in relevance
order. arXiv field prefixes such as ti:, au: and cat: are passed through.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		svc := app.BuildServices(cmd.Context(), cfg, nil, logger)
		if svc.Papers == nil {
			return domain.NewUnavailableError("arXiv paper source", "enable paper_sources.arxiv")
		}

		papers, err := svc.Papers.Search(cmd.Context(), strings.Join(args, " "), limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]interface{}{"papers": papers, "count": len(papers)})
		}
		printPapers(out, papers)
		return nil
	},
}

func init() {
	searchCmd.Flags().IntP("limit", "n", domain.DefaultSearchLimit, "maximum number of results (1-50)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func printPapers(w io.Writer, papers []*domain.Paper) {
	if len(papers) == 0 {
		fmt.Fprintln(w, "No papers found.")
		return
	}
	for i, p := range papers {
		fmt.Fprintf(w, "%2d. [%s] %s\n", i+1, p.ID, p.Title)
		if authors := p.AuthorList(); authors != "" {
			fmt.Fprintf(w, "    %s\n", authors)
		}
		fmt.Fprintf(w, "    %s  %s\n", p.CategoryList(), p.PDFURL)
	}
}
