package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"

	cierrors "github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/errors"
)

// CurrentSchemaVersion is the schema version written by this build.
const CurrentSchemaVersion = "1.0.0"

// BackupDir is the sink-relative directory for pre-migration snapshots.
const BackupDir = "config-backups"

// BackupSink writes pre-migration snapshots. Paths are relative to the sink.
type BackupSink interface {
	CreateDirectory(ctx context.Context, path string) error
	WriteFile(ctx context.Context, path string, data []byte) error
}

// MigrationStep transforms a configuration to Version. Apply receives a
// private copy and may modify it in place.
type MigrationStep struct {
	Version string
	Apply   func(cfg *CodeIndexConfig) error
}

// DefaultSteps returns the built-in migration steps.
func DefaultSteps() []MigrationStep {
	return []MigrationStep{
		{Version: "1.0.0", Apply: migrateTo100},
	}
}

// migrateTo100 tags the schema and backfills graph defaults that older
// records lacked.
func migrateTo100(cfg *CodeIndexConfig) error {
	cfg.ConfigSchemaVersion = Ptr("1.0.0")
	if cfg.GraphEnabled {
		if cfg.GraphCircuitBreakerThreshold == nil {
			cfg.GraphCircuitBreakerThreshold = Ptr(DefaultGraphCircuitBreakerThreshold)
		}
		if cfg.GraphMaxConnectionPoolSize == nil {
			cfg.GraphMaxConnectionPoolSize = Ptr(DefaultGraphMaxConnectionPoolSize)
		}
	}
	return nil
}

// Migrator brings persisted configurations up to the current schema.
// It is not safe to migrate the same configuration concurrently; callers
// serialize with MigrationLock across processes.
type Migrator struct {
	sink    BackupSink
	steps   []MigrationStep
	current string
	logger  *slog.Logger
	now     func() time.Time

	lastBackup string
}

// MigratorOption configures a Migrator.
type MigratorOption func(*Migrator)

// WithMigrationSteps replaces the built-in steps.
func WithMigrationSteps(steps ...MigrationStep) MigratorOption {
	return func(m *Migrator) { m.steps = steps }
}

// WithCurrentVersion overrides the target schema version.
func WithCurrentVersion(v string) MigratorOption {
	return func(m *Migrator) { m.current = v }
}

// WithMigratorLogger sets the logger.
func WithMigratorLogger(l *slog.Logger) MigratorOption {
	return func(m *Migrator) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMigratorClock sets the clock used for backup file names.
func WithMigratorClock(now func() time.Time) MigratorOption {
	return func(m *Migrator) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMigrator creates a Migrator that backs up to sink. A nil sink skips backups.
func NewMigrator(sink BackupSink, opts ...MigratorOption) *Migrator {
	m := &Migrator{
		sink:    sink,
		steps:   DefaultSteps(),
		current: CurrentSchemaVersion,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.steps = append([]MigrationStep(nil), m.steps...)
	sort.SliceStable(m.steps, func(i, j int) bool {
		return CompareVersions(m.steps[i].Version, m.steps[j].Version) < 0
	})
	return m
}

// CurrentVersion returns the schema version this Migrator migrates to.
func (m *Migrator) CurrentVersion() string {
	return m.current
}

// LastBackup returns the sink-relative path of the backup written by the
// last Migrate call, or "" if none was written.
func (m *Migrator) LastBackup() string {
	return m.lastBackup
}

// NeedsMigration reports whether cfg's schema version is absent or older
// than the current version. A nil cfg never needs migration.
func (m *Migrator) NeedsMigration(cfg *CodeIndexConfig) bool {
	if cfg == nil {
		return false
	}
	return CompareVersions(cfg.SchemaVersion(), m.current) < 0
}

// Migrate returns cfg unchanged if it is already current. Otherwise it backs
// up the original, applies every step newer than cfg's version in ascending
// order to a copy, and returns the copy. Backup failures are logged and
// ignored; step failures abort the migration.
func (m *Migrator) Migrate(ctx context.Context, cfg *CodeIndexConfig) (*CodeIndexConfig, error) {
	m.lastBackup = ""
	if !m.NeedsMigration(cfg) {
		return cfg, nil
	}

	from := cfg.SchemaVersion()
	if from == "" {
		from = "0.0.0"
	}

	if backupPath, err := m.backup(ctx, cfg); err != nil {
		m.logger.Warn("config_backup_failed",
			slog.String("from_version", from),
			slog.String("error", err.Error()))
	} else if backupPath != "" {
		m.lastBackup = backupPath
		m.logger.Info("config_backup_written", slog.String("path", backupPath))
	}

	out := cfg.Clone()
	for _, step := range m.steps {
		if CompareVersions(step.Version, from) <= 0 {
			continue
		}
		if CompareVersions(step.Version, m.current) > 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, cierrors.MigrationError("migration cancelled", err).
				WithDetail("step", step.Version)
		}
		if err := step.Apply(out); err != nil {
			return nil, cierrors.MigrationError(
				fmt.Sprintf("migration to schema %s failed", step.Version), err).
				WithDetail("from", from).
				WithDetail("step", step.Version)
		}
	}
	out.ConfigSchemaVersion = Ptr(m.current)

	m.logger.Info("config_migrated",
		slog.String("from_version", from),
		slog.String("to_version", m.current))
	return out, nil
}

// backup writes cfg to BackupDir. It returns the path written, or "" when
// there is no sink.
func (m *Migrator) backup(ctx context.Context, cfg *CodeIndexConfig) (string, error) {
	if m.sink == nil {
		return "", nil
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal config backup: %w", err)
	}
	if err := m.sink.CreateDirectory(ctx, BackupDir); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := fmt.Sprintf("config-backup-%s.json", m.now().UTC().Format("20060102T150405.000Z"))
	p := path.Join(BackupDir, name)
	if err := m.sink.WriteFile(ctx, p, data); err != nil {
		return "", fmt.Errorf("failed to write config backup: %w", err)
	}
	return p, nil
}

// CompareVersions compares two "major.minor.patch" versions and returns -1,
// 0 or 1. Missing components count as zero; empty or unparseable versions
// count as 0.0.0.
func CompareVersions(a, b string) int {
	return parseVersion(a).Compare(parseVersion(b))
}

var zeroVersion = semver.MustParse("0.0.0")

func parseVersion(s string) *semver.Version {
	if s == "" {
		return zeroVersion
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return zeroVersion
	}
	return v
}
