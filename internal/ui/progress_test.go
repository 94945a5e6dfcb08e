package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/state"
)

func TestFormatProgress(t *testing.T) {
	tests := []struct {
		name string
		snap state.StatusSnapshot
		want string
	}{
		{
			name: "with totals",
			snap: state.StatusSnapshot{
				SystemStatus:    state.StateIndexing,
				ProcessedItems:  3,
				TotalItems:      8,
				CurrentItemUnit: state.UnitFiles,
				Message:         "Processing 3 / 8 files. Current: a.go",
			},
			want: "[INDEX] 3/8 files - Processing 3 / 8 files. Current: a.go",
		},
		{
			name: "indexed",
			snap: state.StatusSnapshot{SystemStatus: state.StateIndexed, Message: "Index up-to-date."},
			want: "[DONE] Index up-to-date.",
		},
		{
			name: "error",
			snap: state.StatusSnapshot{SystemStatus: state.StateError, Message: "Indexing failed: boom"},
			want: "[ERROR] Indexing failed: boom",
		},
		{
			name: "standby",
			snap: state.StatusSnapshot{SystemStatus: state.StateStandby, Message: "Ready."},
			want: "[IDLE] Ready.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatProgress(tt.snap))
		})
	}
}

func TestProgressPrinter_SkipsDuplicates(t *testing.T) {
	// Given: a printer
	buf := &bytes.Buffer{}
	p := NewProgressPrinter(buf, true)
	snap := state.StatusSnapshot{SystemStatus: state.StateIndexing, Message: "Scanning workspace..."}

	// When: the same snapshot arrives twice, then a new one
	p.Handle(snap)
	p.Handle(snap)
	p.Handle(state.StatusSnapshot{SystemStatus: state.StateIndexed, Message: "Index up-to-date."})

	// Then: two lines are printed
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{"[INDEX] Scanning workspace...", "[DONE] Index up-to-date."}, lines)
}

func TestProgressPrinter_SubscribedToManager(t *testing.T) {
	// Given: a manager with a subscribed printer
	buf := &bytes.Buffer{}
	p := NewProgressPrinter(buf, true)
	m := state.NewManager()
	defer m.Dispose()
	unsubscribe := m.OnProgressUpdate(p.Handle)
	defer unsubscribe()

	// When: the system finishes indexing
	m.SetSystemState(state.StateIndexing, "Scanning workspace...")
	m.SetSystemState(state.StateIndexed, "")

	// Then: both transitions are printed
	out := buf.String()
	assert.Contains(t, out, "[INDEX] Scanning workspace...")
	assert.Contains(t, out, "[DONE] Index up-to-date.")
}

func TestStyles(t *testing.T) {
	// Plain styles render text unchanged.
	plain := GetStyles(true)
	assert.Equal(t, "text", plain.Header.Render("text"))
	assert.Equal(t, "text", plain.Error.Render("text"))

	colored := GetStyles(false)
	assert.True(t, colored.Header.GetBold())
}

func TestUseColor_NonTTY(t *testing.T) {
	// A buffer is never a terminal.
	assert.False(t, IsTTY(&bytes.Buffer{}))
	assert.False(t, IsTTY(nil))
	assert.False(t, UseColor(&bytes.Buffer{}, false))
}

func TestDetectNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.True(t, DetectNoColor())
}
