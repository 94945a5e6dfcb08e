package cmd

import (
	"github.com/spf13/cobra"

	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/config"
	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status [path]",
		Short: "Show indexing state and backend health",
		Long: `Scan a directory, probe the vector and graph backends, and display:
  - Indexing state, health and message
  - Discovery funnel (discovered, ignored, filtered, skipped, indexing)
  - Vector and graph store status with the last error and a retry hint`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			res, err := loadConfig(ctx, config.Options{})
			if err != nil {
				return err
			}

			ws, err := openWorkspace(dirArg(args), res.Config, !skipProbes)
			if err != nil {
				return err
			}
			defer ws.Close()

			ws.probe(ctx)
			runErr := ws.indexer.Run(ctx)

			rep := ui.StatusReport{
				Root:         ws.indexer.Root(),
				IndexedFiles: ws.indexer.IndexedFiles(),
				Documents:    ws.indexer.Index().Len(),
				Status:       ws.state.GetCurrentStatus(),
			}
			out := cmd.OutOrStdout()
			r := ui.NewStatusRenderer(out, !ui.UseColor(out, noColor))
			if jsonOutput {
				if err := r.RenderJSON(rep); err != nil {
					return err
				}
			} else if err := r.Render(rep); err != nil {
				return err
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
