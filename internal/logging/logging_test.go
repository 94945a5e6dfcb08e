package logging

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSetup_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "codeindex.log")

	logger, cleanup, err := Setup(Config{Level: "debug", FilePath: path})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	logger.Info("index_completed", slog.Int("files", 3))
	logger.Debug("debug_event")
	cleanup()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `"msg":"index_completed"`) {
		t.Errorf("log missing index_completed: %s", content)
	}
	if !strings.Contains(content, `"files":3`) {
		t.Errorf("log missing files attribute: %s", content)
	}
	if !strings.Contains(content, "debug_event") {
		t.Errorf("debug record dropped at debug level: %s", content)
	}
}

func TestSetup_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codeindex.log")

	logger, cleanup, err := Setup(Config{Level: "warn", FilePath: path})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	cleanup()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "hidden") {
		t.Errorf("info record written at warn level")
	}
	if !strings.Contains(string(data), "shown") {
		t.Errorf("warn record missing")
	}
}

func TestSetup_StderrOnly(t *testing.T) {
	logger, cleanup, err := Setup(Config{Level: "info"})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer cleanup()
	if logger == nil {
		t.Fatal("Setup() returned nil logger")
	}
}

func TestRotatingWriter_Rotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	w, err := NewRotatingWriter(path, 1, 2)
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	// Shrink the limit so a few writes trigger rotation.
	w.maxSize = 100

	line := []byte(strings.Repeat("x", 60) + "\n")
	for i := 0; i < 5; i++ {
		if _, err := w.Write(line); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	for _, p := range []string{path, path + ".1", path + ".2"} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s to exist: %v", p, err)
		}
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Errorf("expected %s.3 to be pruned", path)
	}
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	w, err := NewRotatingWriter(filepath.Join(t.TempDir(), "app.log"), 1, 1)
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	_ = w.Close()
	if _, err := w.Write([]byte("late")); err == nil {
		t.Error("Write() after Close() should fail")
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestFindLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.log")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := FindLogFile(path)
	if err != nil || got != path {
		t.Errorf("FindLogFile(%q) = %q, %v", path, got, err)
	}
	if _, err := FindLogFile(filepath.Join(dir, "missing.log")); err == nil {
		t.Error("FindLogFile() should fail for a missing file")
	}
}

func TestParseLine(t *testing.T) {
	e := ParseLine(`{"time":"2026-01-02T10:11:12.5Z","level":"WARN","msg":"graph_probe_failed","category":"connection"}`)
	if !e.IsValid {
		t.Fatal("expected valid entry")
	}
	if e.Level != "WARN" || e.Msg != "graph_probe_failed" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.Attrs["category"] != "connection" {
		t.Errorf("category attr = %v", e.Attrs["category"])
	}
	if _, ok := e.Attrs["msg"]; ok {
		t.Error("msg should not be an attribute")
	}

	bad := ParseLine("not json")
	if bad.IsValid || bad.Raw != "not json" {
		t.Errorf("unexpected entry for invalid line: %+v", bad)
	}
}

func TestViewer_TailAndFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codeindex.log")
	var b strings.Builder
	levels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	for i, lvl := range levels {
		fmt.Fprintf(&b, `{"time":"2026-01-02T10:00:0%dZ","level":"%s","msg":"event_%d"}`+"\n", i, lvl, i)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	all, err := NewViewer(ViewerConfig{}, &bytes.Buffer{}).Tail(path, 0)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if len(all) != 4 {
		t.Errorf("Tail(0) returned %d entries, want 4", len(all))
	}

	last, _ := NewViewer(ViewerConfig{}, &bytes.Buffer{}).Tail(path, 2)
	if len(last) != 2 || last[0].Msg != "event_2" {
		t.Errorf("Tail(2) = %+v", last)
	}

	warn, _ := NewViewer(ViewerConfig{Level: "warn"}, &bytes.Buffer{}).Tail(path, 0)
	if len(warn) != 2 {
		t.Errorf("warn filter returned %d entries, want 2", len(warn))
	}

	re := regexp.MustCompile(`event_1`)
	matched, _ := NewViewer(ViewerConfig{Pattern: re}, &bytes.Buffer{}).Tail(path, 0)
	if len(matched) != 1 || matched[0].Level != "INFO" {
		t.Errorf("pattern filter = %+v", matched)
	}

	if _, err := NewViewer(ViewerConfig{}, &bytes.Buffer{}).Tail(filepath.Join(t.TempDir(), "none"), 0); err == nil {
		t.Error("Tail() on missing file should fail")
	}
}

func TestViewer_Format(t *testing.T) {
	var out bytes.Buffer
	v := NewViewer(ViewerConfig{NoColor: true}, &out)

	e := ParseLine(`{"time":"2026-01-02T10:11:12.5Z","level":"INFO","msg":"index_completed","files":2,"dir":"/src"}`)
	got := v.Format(e)
	want := "10:11:12.500 INFO  index_completed dir=/src files=2"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}

	v.Print([]Entry{e, ParseLine("plain text")})
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || lines[1] != "plain text" {
		t.Errorf("Print() output = %q", out.String())
	}
}
