package cmd

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/logging"
	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/ui"
)

func newLogsCmd() *cobra.Command {
	var (
		lines int
		level string
		grep  string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log entries",
		Long: `Show the last entries of the codeindex log file (see --log-file).

Examples:
  codeindex logs -n 100
  codeindex logs --level warn
  codeindex logs --grep graph_probe`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := logging.FindLogFile(logFile)
			if err != nil {
				return err
			}

			vcfg := logging.ViewerConfig{Level: level}
			if grep != "" {
				re, err := regexp.Compile(grep)
				if err != nil {
					return fmt.Errorf("invalid --grep pattern: %w", err)
				}
				vcfg.Pattern = re
			}

			out := cmd.OutOrStdout()
			vcfg.NoColor = !ui.UseColor(out, noColor)
			v := logging.NewViewer(vcfg, out)
			entries, err := v.Tail(path, lines)
			if err != nil {
				return err
			}
			v.Print(entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to read from the end of the file")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (debug, info, warn, error)")
	cmd.Flags().StringVar(&grep, "grep", "", "Only show lines matching this regular expression")

	return cmd
}
