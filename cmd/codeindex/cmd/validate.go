package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/config"
	cierrors "github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/errors"
)

type validateOptions struct {
	file       string
	production bool
	clamp      bool
	jsonOutput bool
}

func newValidateCmd() *cobra.Command {
	var opts validateOptions

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the code index configuration",
		Long: `Validate the stored configuration, or a YAML/JSON snapshot given with --file.

With --production, operational settings are also checked. Individual
production checks can be skipped with CODEINDEX_SKIP_PRODUCTION_CHECKS
(comma separated names, or "all").

Examples:
  codeindex validate
  codeindex validate --file codeindex.yaml --production
  codeindex validate --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Validate a configuration file instead of the stored configuration")
	cmd.Flags().BoolVar(&opts.production, "production", false, "Run production-safety checks")
	cmd.Flags().BoolVar(&opts.clamp, "clamp", false, "Clamp out-of-range numbers instead of rejecting them")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the validation result as JSON")

	return cmd
}

func runValidate(cmd *cobra.Command, opts validateOptions) error {
	vopts := config.Options{
		Production: opts.production,
		Clamp:      opts.clamp,
		SkipChecks: skippedChecks(),
		Now:        time.Now,
	}

	var res config.Result
	if opts.file != "" {
		cfg, err := config.LoadFile(opts.file)
		if err != nil {
			return err
		}
		res = config.ValidateConfig(cfg, vopts)
	} else {
		loaded, err := loadConfig(cmd.Context(), vopts)
		if err != nil {
			return err
		}
		res = loaded.Validation
	}

	out := cmd.OutOrStdout()
	if opts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		printResult(out, res)
	}

	if !res.Valid {
		return cierrors.ConfigError(fmt.Sprintf("configuration has %d errors", len(res.Errors)), res.Err()).
			WithSuggestion("Fix the fields listed above and run 'codeindex validate' again")
	}
	return nil
}

func printResult(out io.Writer, res config.Result) {
	if res.Valid {
		provider := string(res.Metadata.Provider)
		if provider == "" {
			provider = "none"
		}
		_, _ = fmt.Fprintf(out, "Configuration is valid (provider: %s)\n", provider)
	} else {
		_, _ = fmt.Fprintf(out, "Configuration is invalid\n\nErrors:\n")
		printIssues(out, res.Errors)
	}

	if len(res.Warnings) > 0 {
		_, _ = fmt.Fprintf(out, "\nWarnings:\n")
		printIssues(out, res.Warnings)
	}
	for _, c := range res.Metadata.Clamped {
		_, _ = fmt.Fprintf(out, "\nClamped %s: %g -> %g\n", c.Field, c.Original, c.Clamped)
	}
}

func printIssues(out io.Writer, issues []config.Issue) {
	for _, is := range issues {
		_, _ = fmt.Fprintf(out, "  - %s: %s [%s]\n", is.Field, is.Message, is.Code)
		if is.Suggestion != "" {
			_, _ = fmt.Fprintf(out, "    Hint: %s\n", is.Suggestion)
		}
	}
}
