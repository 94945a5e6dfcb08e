package ui

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/state"
)

func TestStatusRenderer_Render_Indexed(t *testing.T) {
	// Given: an indexed snapshot with discovery metrics
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)
	rep := StatusReport{
		Root:         "/src/project",
		IndexedFiles: 12,
		Documents:    40,
		Status: state.StatusSnapshot{
			SystemStatus: state.StateIndexed,
			Message:      "Index up-to-date.",
			VectorStatus: state.VectorIndexed,
			GraphStatus:  state.GraphDisabled,
			SystemHealth: state.HealthHealthy,
			FileDiscovery: &state.FileDiscoveryMetrics{
				Discovered:       20,
				FilteredByIgnore: 3,
				ActivelyIndexing: 12,
			},
		},
	}

	// When: rendering
	require.NoError(t, r.Render(rep))

	// Then: the key lines are present
	out := buf.String()
	assert.Contains(t, out, "Index Status: /src/project")
	assert.Contains(t, out, "State:     Indexed")
	assert.Contains(t, out, "Health:    healthy")
	assert.Contains(t, out, "Files:     12")
	assert.Contains(t, out, "Documents: 40")
	assert.Contains(t, out, "Discovered:    20")
	assert.Contains(t, out, "Ignored:       3")
	assert.Contains(t, out, "Status: disabled")
	assert.NotContains(t, out, "Error:")
}

func TestStatusRenderer_Render_GraphFailure(t *testing.T) {
	// Given: a degraded snapshot with a graph failure five minutes old
	buf := &bytes.Buffer{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := NewStatusRenderer(buf, true)
	r.now = func() time.Time { return now }

	rep := StatusReport{
		Root: "/src",
		Status: state.StatusSnapshot{
			SystemStatus:             state.StateIndexed,
			VectorStatus:             state.VectorIndexed,
			GraphStatus:              state.GraphConnectionFailed,
			GraphError:               "dial tcp: connection refused",
			GraphErrorTimestamp:      now.Add(-5 * time.Minute),
			GraphConsecutiveFailures: 3,
			GraphRetrySuggestion:     "Check that the graph database is running.",
			SystemHealth:             state.HealthDegraded,
		},
	}

	// When: rendering
	require.NoError(t, r.Render(rep))

	// Then: the failure details are shown
	out := buf.String()
	assert.Contains(t, out, "Health:    degraded")
	assert.Contains(t, out, "Status: connection-failed")
	assert.Contains(t, out, "Error:  dial tcp: connection refused")
	assert.Contains(t, out, "Since:  5 minutes ago")
	assert.Contains(t, out, "Failures: 3")
	assert.Contains(t, out, "Hint:   Check that the graph database is running.")
}

func TestStatusRenderer_Render_ProgressLine(t *testing.T) {
	// Given: an indexing snapshot
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)
	rep := StatusReport{Status: state.StatusSnapshot{
		SystemStatus:    state.StateIndexing,
		ProcessedItems:  4,
		TotalItems:      10,
		CurrentItemUnit: state.UnitFiles,
	}}

	// When: rendering
	require.NoError(t, r.Render(rep))

	// Then: progress is shown
	assert.Contains(t, buf.String(), "Progress:  4/10 files")
}

func TestStatusRenderer_RenderJSON(t *testing.T) {
	// Given: a report
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)
	rep := StatusReport{
		Root:         "/src",
		IndexedFiles: 2,
		Status: state.StatusSnapshot{
			SystemStatus: state.StateStandby,
			SystemHealth: state.HealthHealthy,
		},
	}

	// When: rendering JSON
	require.NoError(t, r.RenderJSON(rep))

	// Then: it decodes with the expected keys
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "/src", parsed["root"])
	assert.Equal(t, float64(2), parsed["indexedFiles"])
	status, ok := parsed["status"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Standby", status["systemStatus"])
	assert.Equal(t, "healthy", status["systemHealth"])
}

func TestStatusRenderer_FormatTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := NewStatusRenderer(&bytes.Buffer{}, true)
	r.now = func() time.Time { return now }

	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{30 * time.Minute, "30 minutes ago"},
		{time.Hour, "1 hour ago"},
		{5 * time.Hour, "5 hours ago"},
		{48 * time.Hour, "2026-02-27 12:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.formatTime(now.Add(-tt.ago)))
	}
}
