package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, root string) *Watcher {
	t.Helper()
	w, err := New(Options{DebounceWindow: 20 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = w.Stop()
	})
	go func() { _ = w.Start(ctx, root) }()
	time.Sleep(150 * time.Millisecond)
	return w
}

// waitFor drains batches until one contains path with op.
func waitFor(t *testing.T, w *Watcher, path string, op Operation) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case batch, ok := <-w.Events():
			require.True(t, ok, "events channel closed")
			for _, ev := range batch {
				if ev.Path == path && ev.Operation == op {
					return
				}
			}
		case <-deadline:
			t.Fatalf("timeout waiting for %s %s", op, path)
		}
	}
}

func TestWatcher_CreateModifyDelete(t *testing.T) {
	// Given: a watched directory
	root := t.TempDir()
	w := startWatcher(t, root)
	file := filepath.Join(root, "main.go")

	// When/Then: each change is reported
	require.NoError(t, os.WriteFile(file, []byte("package main"), 0o644))
	waitFor(t, w, "main.go", OpCreate)

	require.NoError(t, os.WriteFile(file, []byte("package main\n\nfunc main() {}"), 0o644))
	waitFor(t, w, "main.go", OpModify)

	require.NoError(t, os.Remove(file))
	waitFor(t, w, "main.go", OpDelete)
}

func TestWatcher_NewSubdirectoryIsWatched(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)

	sub := filepath.Join(root, "pkg")
	require.NoError(t, os.Mkdir(sub, 0o755))
	waitFor(t, w, "pkg", OpCreate)

	require.NoError(t, os.WriteFile(filepath.Join(sub, "a.go"), []byte("package pkg"), 0o644))
	waitFor(t, w, "pkg/a.go", OpCreate)
}

func TestWatcher_IgnoreFiles(t *testing.T) {
	// Given: a workspace whose .gitignore skips log files
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.log\n"), 0o644))
	w := startWatcher(t, root)

	// When: an ignored and a tracked file are written
	require.NoError(t, os.WriteFile(filepath.Join(root, "debug.log"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "z.go"), []byte("package z"), 0o644))

	// Then: the tracked file arrives and the ignored one never does
	deadline := time.After(3 * time.Second)
	for seen := false; !seen; {
		select {
		case batch := <-w.Events():
			for _, ev := range batch {
				require.NotEqual(t, "debug.log", ev.Path)
				if ev.Path == "z.go" {
					seen = true
				}
			}
		case <-deadline:
			t.Fatal("timeout waiting for z.go")
		}
	}

	// When: the ignore file itself changes
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.tmp\n"), 0o644))

	// Then: an ignore-change event is reported
	waitFor(t, w, ".gitignore", OpIgnoreChange)
}

func TestWatcher_StopClosesChannels(t *testing.T) {
	w, err := New(DefaultOptions())
	require.NoError(t, err)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	_, ok := <-w.Events()
	require.False(t, ok)
	_, ok = <-w.Errors()
	require.False(t, ok)
}
