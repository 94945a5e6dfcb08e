package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/bm25"
	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/config"
	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/health"
	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/pipeline"
	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/state"
	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/storage"
)

const probeTimeout = 3 * time.Second

// skipChecksEnv lists production checks to skip, comma separated, or "all".
const skipChecksEnv = "CODEINDEX_SKIP_PRODUCTION_CHECKS"

// stateDir holds config backups and the migration lock next to the store.
func stateDir() string {
	return filepath.Dir(stateDB)
}

func newMigrator() *config.Migrator {
	return config.NewMigrator(
		config.DirBackupSink{Root: stateDir()},
		config.WithMigratorLogger(slog.Default()))
}

// loadConfig reads, migrates and validates the stored configuration.
func loadConfig(ctx context.Context, opts config.Options) (*config.LoadResult, error) {
	store, err := storage.OpenSQLite(stateDB,
		storage.WithEnvFile(envFile),
		storage.WithLogger(slog.Default()))
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	mgr := config.NewManager(store, newMigrator(),
		config.WithValidationOptions(opts),
		config.WithMigrationLock(config.NewMigrationLock(stateDir())),
		config.WithEnvOverrides(),
		config.WithManagerLogger(slog.Default()))
	return mgr.Load(ctx)
}

// skippedChecks parses CODEINDEX_SKIP_PRODUCTION_CHECKS.
func skippedChecks() []config.ProductionCheck {
	raw := strings.TrimSpace(os.Getenv(skipChecksEnv))
	switch strings.ToLower(raw) {
	case "":
		return nil
	case "all", "true", "1":
		return config.ProductionChecks
	}

	names := strings.Split(raw, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	checks, unknown := config.ParseProductionChecks(names)
	if len(unknown) > 0 {
		slog.Warn("unknown_production_checks", slog.String("names", strings.Join(unknown, ",")))
	}
	return checks
}

// workspace wires the state manager, the indexer and the backend probes
// for one directory.
type workspace struct {
	state   *state.Manager
	indexer *pipeline.Indexer
	prober  *health.Prober
	closers []func() error
}

// openWorkspace builds the workspace for dir. Without probes the backends
// are never contacted.
func openWorkspace(dir string, cfg *config.CodeIndexConfig, probes bool) (*workspace, error) {
	st := state.NewManager(state.WithLogger(slog.Default()))
	ix, err := pipeline.New(dir, st, bm25.New(), cfg,
		pipeline.WithCacheSize(cfg.EffectiveEmbeddingCacheSize()),
		pipeline.WithLogger(slog.Default()))
	if err != nil {
		st.Dispose()
		return nil, err
	}

	ws := &workspace{state: st, indexer: ix}
	if !probes {
		return ws, nil
	}

	var vector health.VectorStore
	apiKey := ""
	if cfg.QdrantAPIKey != nil {
		apiKey = *cfg.QdrantAPIKey
	}
	q, err := health.NewQdrantStore(cfg.EffectiveQdrantURL(), apiKey)
	if err != nil {
		slog.Warn("vector_client_unavailable",
			slog.String("url", cfg.EffectiveQdrantURL()),
			slog.String("error", err.Error()))
	} else {
		vector = q
		ws.closers = append(ws.closers, q.Close)
	}

	// No graph store client is built in; an enabled graph reports disabled.
	ws.prober = health.NewProber(st, cfg, vector, nil,
		health.WithTimeout(probeTimeout),
		health.WithLogger(slog.Default()))
	return ws, nil
}

// probe checks both backends. Failures are recorded in the state manager
// and do not stop indexing.
func (ws *workspace) probe(ctx context.Context) {
	if ws.prober == nil {
		return
	}
	if err := ws.prober.ProbeAll(ctx); err != nil {
		slog.Debug("backend_probe_failed", slog.String("error", err.Error()))
	}
}

func (ws *workspace) Close() {
	for _, c := range ws.closers {
		_ = c()
	}
	ws.state.Dispose()
}

func dirArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func configWarning(res *config.LoadResult) string {
	if res.Validation.Valid {
		return ""
	}
	return fmt.Sprintf("warning: stored configuration has %d errors; run 'codeindex validate' for details",
		len(res.Validation.Errors))
}
