// Package cmd provides the CLI commands for codeindex.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/config"
	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/logging"
	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/profiling"
	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/storage"
	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/pkg/version"
)

// Persistent flags shared by every command.
var (
	debugMode  bool
	noColor    bool
	logFile    string
	stateDB    string
	envFile    string
	skipProbes bool

	loggingCleanup func()
)

// Profiling flags.
var (
	profileOpts profiling.Options
	profile     *profiling.Session
)

// NewRootCmd creates the root command for the codeindex CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codeindex",
		Short: "Keyword code index with configuration validation and backend health",
		Long: `codeindex scans a workspace, keeps a BM25 keyword index of its source
files, and tracks the health of the vector and graph backends it reports to.

It also validates and migrates the persisted code index configuration.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("codeindex version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging (also copied to stderr)")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", logging.DefaultLogPath(), "Log file path")
	cmd.PersistentFlags().StringVar(&stateDB, "state-db", storage.DefaultPath(), "Configuration store database")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Secrets file overlaid on the configuration store")
	cmd.PersistentFlags().BoolVar(&skipProbes, "skip-probes", false, "Do not contact the vector or graph backends")

	cmd.PersistentFlags().StringVar(&profileOpts.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startLoggingAndProfiling
	cmd.PersistentPostRunE = stopLoggingAndProfiling

	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLoggingAndProfiling loads .env into the environment, installs the
// file logger and starts any requested profiles.
func startLoggingAndProfiling(_ *cobra.Command, _ []string) error {
	_ = godotenv.Load(envFile)

	cfg := logging.DefaultConfig()
	cfg.FilePath = logFile
	cfg.Level = config.LogLevelFromEnv(cfg.Level)
	if debugMode {
		cfg.Level = "debug"
		cfg.WriteToStderr = true
	}

	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Debug("cli_started", slog.String("version", version.Version), slog.String("log_file", logFile))

	if profileOpts.Enabled() {
		profile, err = profiling.Start(profileOpts)
		if err != nil {
			return err
		}
	}
	return nil
}

func stopLoggingAndProfiling(_ *cobra.Command, _ []string) error {
	var err error
	if profile != nil {
		err = profile.Stop()
		profile = nil
	}
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
