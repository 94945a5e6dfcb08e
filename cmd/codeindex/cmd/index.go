package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/config"
	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/ui"
)

func newIndexCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Index a directory and report progress",
		Long: `Scan a directory, apply ignore files and filters, and build the keyword
index while reporting progress. The vector and graph backends are probed
first; failures degrade health but do not stop indexing.

Use --watch to keep the index in step with file changes until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, err := loadConfig(ctx, config.Options{SkipChecks: skippedChecks()})
			if err != nil {
				return err
			}
			if w := configWarning(res); w != "" {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), w)
			}

			ws, err := openWorkspace(dirArg(args), res.Config, !skipProbes)
			if err != nil {
				return err
			}
			defer ws.Close()

			out := cmd.OutOrStdout()
			printer := ui.NewProgressPrinter(out, !ui.UseColor(out, noColor))
			unsubscribe := ws.state.OnProgressUpdate(printer.Handle)
			defer unsubscribe()

			ws.probe(ctx)

			start := time.Now()
			if err := ws.indexer.Run(ctx); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "Indexed %d files (%d documents) in %s\n",
				ws.indexer.IndexedFiles(), ws.indexer.Index().Len(), time.Since(start).Round(time.Millisecond))

			if !watch {
				return nil
			}
			_, _ = fmt.Fprintf(out, "Watching %s for changes (Ctrl+C to stop)\n", ws.indexer.Root())
			slog.Info("watch_started", slog.String("root", ws.indexer.Root()))
			return ws.indexer.Watch(ctx)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep watching for file changes after indexing")

	return cmd
}
