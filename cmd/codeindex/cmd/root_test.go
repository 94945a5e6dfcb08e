package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv isolates the log file, state store and secrets file per test.
type testEnv struct {
	dir     string
	logFile string
	stateDB string
	envFile string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	return &testEnv{
		dir:     dir,
		logFile: filepath.Join(dir, "logs", "codeindex.log"),
		stateDB: filepath.Join(dir, "state", "state.db"),
		envFile: filepath.Join(dir, "secrets.env"),
	}
}

// run executes the root command and returns stdout, stderr and the error.
func (e *testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	full := append([]string{
		"--log-file", e.logFile,
		"--state-db", e.stateDB,
		"--env-file", e.envFile,
		"--no-color",
	}, args...)
	cmd.SetArgs(full)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (e *testEnv) write(t *testing.T, rel, content string) string {
	t.Helper()
	p := filepath.Join(e.dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestRootCmd_ShowsHelp(t *testing.T) {
	// Given: a root command
	env := newTestEnv(t)

	// When: executing with --help
	out, _, err := env.run(t, "--help")

	// Then: every subcommand is listed
	require.NoError(t, err)
	for _, name := range []string{"validate", "migrate", "index", "search", "status", "logs", "version"} {
		assert.Contains(t, out, name)
	}
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, "bogus")

	assert.Error(t, err)
}

func TestRootCmd_WritesLogFile(t *testing.T) {
	// Given: a command that logs at info level
	env := newTestEnv(t)
	ws := filepath.Join(env.dir, "ws")
	env.write(t, "ws/main.go", "package main\n")

	// When: indexing
	_, _, err := env.run(t, "--skip-probes", "index", ws)
	require.NoError(t, err)

	// Then: the log file exists and holds JSON records
	data, err := os.ReadFile(env.logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"index_completed"`)
}

func TestRootCmd_WritesMemoryProfile(t *testing.T) {
	// Given: a heap profile requested on any command
	env := newTestEnv(t)
	heap := filepath.Join(env.dir, "heap.prof")

	// When: running version
	_, _, err := env.run(t, "--profile-mem", heap, "version", "--short")

	// Then: the profile is written after the command
	require.NoError(t, err)
	info, err := os.Stat(heap)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
