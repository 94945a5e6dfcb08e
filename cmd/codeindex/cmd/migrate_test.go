package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/config"
)

const legacyYAML = `embedderProvider: ollama
ollamaOptions:
  ollamaBaseUrl: http://localhost:11434
graphEnabled: true
graphUrl: bolt://localhost:7687
`

func TestMigrateCmd_File(t *testing.T) {
	// Given: an unversioned config file
	env := newTestEnv(t)
	path := env.write(t, "legacy.yaml", legacyYAML)
	backups := filepath.Join(env.dir, "backups")

	// When: migrating it
	out, _, err := env.run(t, "migrate", "--file", path, "--backup-dir", backups)
	require.NoError(t, err)

	// Then: the file is rewritten at the current schema with graph defaults
	assert.Contains(t, out, "from unversioned to "+config.CurrentSchemaVersion)
	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.CurrentSchemaVersion, cfg.SchemaVersion())
	require.NotNil(t, cfg.GraphCircuitBreakerThreshold)
	assert.Equal(t, config.DefaultGraphCircuitBreakerThreshold, *cfg.GraphCircuitBreakerThreshold)

	// And: one backup was written and its path is reported
	entries, err := os.ReadDir(filepath.Join(backups, config.BackupDir))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, out, "Backup written to "+filepath.Join(backups, config.BackupDir, entries[0].Name()))
}

func TestPrintBackup(t *testing.T) {
	var buf bytes.Buffer
	printBackup(&buf, "/state", "")
	assert.Equal(t, "No backup was written; see the log for details\n", buf.String())

	buf.Reset()
	printBackup(&buf, "/state", "config-backups/config-backup-1.json")
	assert.Equal(t, "Backup written to "+filepath.Join("/state", "config-backups", "config-backup-1.json")+"\n", buf.String())
}

func TestMigrateCmd_FileAlreadyCurrent(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "codeindex.yaml", validOllamaYAML)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	out, _, err := env.run(t, "migrate", "--file", path)

	require.NoError(t, err)
	assert.Contains(t, out, "already at schema "+config.CurrentSchemaVersion)
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestMigrateCmd_DryRun(t *testing.T) {
	// Given: an unversioned config file
	env := newTestEnv(t)
	path := env.write(t, "legacy.yaml", legacyYAML)

	// When: running a dry run
	out, _, err := env.run(t, "migrate", "--file", path, "--dry-run")

	// Then: nothing is written
	require.NoError(t, err)
	assert.Contains(t, out, "would be migrated")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, legacyYAML, string(data))
	_, err = os.Stat(filepath.Join(env.dir, config.BackupDir))
	assert.True(t, os.IsNotExist(err))
}

func TestMigrateCmd_StoredConfig(t *testing.T) {
	// Given: an empty store
	env := newTestEnv(t)

	// When: migrating the stored configuration
	out, _, err := env.run(t, "migrate")

	// Then: the defaults are already current
	require.NoError(t, err)
	assert.Contains(t, out, "already at schema "+config.CurrentSchemaVersion)
}
