package cmd

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/pipeline"
	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/state"
	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/ui"
)

// newWorkspace creates a small source tree and returns its root.
func newWorkspace(t *testing.T, env *testEnv) string {
	t.Helper()
	env.write(t, "ws/main.go", "package main\n\nfunc main() {\n\tstartServer()\n}\n")
	env.write(t, "ws/server.go", "package main\n\n// startServer opens the listener.\nfunc startServer() {}\n")
	env.write(t, "ws/notes.bin", "binary blob")
	env.write(t, "ws/debug.log", "startServer called\n")
	env.write(t, "ws/.gitignore", "*.log\n")
	return filepath.Join(env.dir, "ws")
}

func TestIndexCmd_ReportsProgress(t *testing.T) {
	// Given: a workspace with two indexable files
	env := newTestEnv(t)
	ws := newWorkspace(t, env)

	// When: indexing it
	out, _, err := env.run(t, "--skip-probes", "index", ws)

	// Then: progress and a summary are printed
	require.NoError(t, err)
	assert.Contains(t, out, "[INDEX] Scanning workspace...")
	assert.Contains(t, out, "[DONE] Index up-to-date.")
	assert.Contains(t, out, "Indexed 2 files")
}

func TestIndexCmd_InvalidStoredConfigWarns(t *testing.T) {
	// Given: the default configuration without an API key
	env := newTestEnv(t)
	ws := newWorkspace(t, env)

	// When: indexing
	_, errOut, err := env.run(t, "--skip-probes", "index", ws)

	// Then: indexing still succeeds with a warning on stderr
	require.NoError(t, err)
	assert.Contains(t, errOut, "codeindex validate")
}

func TestIndexCmd_MissingDirectory(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, "--skip-probes", "index", filepath.Join(env.dir, "missing"))

	assert.Error(t, err)
}

func TestSearchCmd_FindsDefinition(t *testing.T) {
	// Given: a workspace
	env := newTestEnv(t)
	ws := newWorkspace(t, env)

	// When: searching for a function name
	out, _, err := env.run(t, "search", "startServer", "--dir", ws)

	// Then: both files mentioning it are returned
	require.NoError(t, err)
	assert.Contains(t, out, "server.go:1-")
	assert.Contains(t, out, "main.go:1-")
}

func TestSearchCmd_NoResults(t *testing.T) {
	env := newTestEnv(t)
	ws := newWorkspace(t, env)

	out, _, err := env.run(t, "search", "zebra", "--dir", ws)

	require.NoError(t, err)
	assert.Contains(t, out, `No results for "zebra"`)
}

func TestSearchCmd_JSON(t *testing.T) {
	env := newTestEnv(t)
	ws := newWorkspace(t, env)

	out, _, err := env.run(t, "search", "listener", "--dir", ws, "--json", "--limit", "1")
	require.NoError(t, err)

	var hits []pipeline.Hit
	require.NoError(t, json.Unmarshal([]byte(out), &hits))
	require.Len(t, hits, 1)
	assert.Equal(t, "server.go", hits[0].Document.FilePath)
	assert.InDelta(t, 1.0, hits[0].Normalized, 1e-9)
}

func TestStatusCmd_JSON(t *testing.T) {
	// Given: a workspace
	env := newTestEnv(t)
	ws := newWorkspace(t, env)

	// When: asking for status without probes
	out, _, err := env.run(t, "--skip-probes", "status", ws, "--json")
	require.NoError(t, err)

	// Then: the report contains the funnel and indexed state
	var rep ui.StatusReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 2, rep.IndexedFiles)
	assert.Equal(t, state.StateIndexed, rep.Status.SystemStatus)
	assert.Equal(t, state.HealthHealthy, rep.Status.SystemHealth)
	require.NotNil(t, rep.Status.FileDiscovery)
	assert.Equal(t, 2, rep.Status.FileDiscovery.ActivelyIndexing)
	assert.Equal(t, 1, rep.Status.FileDiscovery.FilteredByIgnore)
}

func TestStatusCmd_Text(t *testing.T) {
	env := newTestEnv(t)
	ws := newWorkspace(t, env)

	out, _, err := env.run(t, "--skip-probes", "status", ws)

	require.NoError(t, err)
	assert.Contains(t, out, "Index Status:")
	assert.Contains(t, out, "State:     Indexed")
	assert.Contains(t, out, "Files:     2")
}

func TestLogsCmd_FiltersByLevel(t *testing.T) {
	// Given: a log file with mixed levels
	env := newTestEnv(t)
	env.write(t, "logs/codeindex.log",
		`{"time":"2026-01-02T10:00:00Z","level":"INFO","msg":"index_completed"}`+"\n"+
			`{"time":"2026-01-02T10:00:01Z","level":"WARN","msg":"vector_probe_failed"}`+"\n")

	// When: showing warnings only
	out, _, err := env.run(t, "logs", "--level", "warn")

	// Then: only the warning is printed
	require.NoError(t, err)
	assert.Contains(t, out, "vector_probe_failed")
	assert.NotContains(t, out, "index_completed")
}

func TestLogsCmd_BadPattern(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, "logs", "--grep", "(")

	assert.Error(t, err)
}
