package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/config"
	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/pipeline"
)

type searchOptions struct {
	dir        string
	limit      int
	jsonOutput bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Keyword search over a directory",
		Long: `Index a directory and run a BM25 keyword query against it.

Results below searchMinScore (relative to the best hit) are dropped and
at most searchMaxResults are returned.

Examples:
  codeindex search "circuit breaker"
  codeindex search handleRequest --dir ./server --limit 5
  codeindex search "retry policy" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.dir, "dir", "d", ".", "Directory to search")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, opts searchOptions) error {
	ctx := cmd.Context()
	res, err := loadConfig(ctx, config.Options{})
	if err != nil {
		return err
	}

	ws, err := openWorkspace(opts.dir, res.Config, false)
	if err != nil {
		return err
	}
	defer ws.Close()

	if err := ws.indexer.Run(ctx); err != nil {
		return err
	}

	hits := ws.indexer.Search(query, opts.limit)
	slog.Info("search_completed",
		slog.String("query", query),
		slog.Int("limit", opts.limit),
		slog.Int("results", len(hits)))

	out := cmd.OutOrStdout()
	if opts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	if len(hits) == 0 {
		_, _ = fmt.Fprintf(out, "No results for %q\n", query)
		return nil
	}
	for i, h := range hits {
		_, _ = fmt.Fprintf(out, "%d. %s:%d-%d (score %.2f, %.0f%%)\n",
			i+1, h.Document.FilePath, h.Document.StartLine, h.Document.EndLine, h.Score, h.Normalized*100)
		if line := firstLine(h); line != "" {
			_, _ = fmt.Fprintf(out, "   %s\n", line)
		}
	}
	return nil
}

// firstLine returns the first non-blank line of the hit's text.
func firstLine(h pipeline.Hit) string {
	for _, l := range strings.Split(h.Document.Text, "\n") {
		if t := strings.TrimSpace(l); t != "" {
			return t
		}
	}
	return ""
}
