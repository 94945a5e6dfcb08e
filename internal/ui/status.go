package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/state"
)

// StatusReport is what the status command prints.
type StatusReport struct {
	Root         string               `json:"root"`
	IndexedFiles int                  `json:"indexedFiles"`
	Documents    int                  `json:"documents"`
	Status       state.StatusSnapshot `json:"status"`
}

// StatusRenderer displays indexer status.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
	now    func() time.Time
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:    out,
		styles: GetStyles(noColor),
		now:    time.Now,
	}
}

// Render displays the report to the terminal.
func (r *StatusRenderer) Render(rep StatusReport) error {
	s := rep.Status

	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Index Status: "+rep.Root))

	_, _ = fmt.Fprintf(r.out, "  State:     %s\n", r.renderSystem(s.SystemStatus))
	_, _ = fmt.Fprintf(r.out, "  Health:    %s\n", r.renderHealth(s.SystemHealth))
	if s.Message != "" {
		_, _ = fmt.Fprintf(r.out, "  Message:   %s\n", s.Message)
	}
	if s.TotalItems > 0 {
		_, _ = fmt.Fprintf(r.out, "  Progress:  %d/%d %s\n", s.ProcessedItems, s.TotalItems, s.CurrentItemUnit)
	}
	_, _ = fmt.Fprintf(r.out, "  Files:     %d\n", rep.IndexedFiles)
	_, _ = fmt.Fprintf(r.out, "  Documents: %d\n", rep.Documents)
	_, _ = fmt.Fprintln(r.out)

	if d := s.FileDiscovery; d != nil {
		_, _ = fmt.Fprintln(r.out, "  Discovery:")
		_, _ = fmt.Fprintf(r.out, "    Discovered:    %d\n", d.Discovered)
		_, _ = fmt.Fprintf(r.out, "    Ignored:       %d\n", d.FilteredByIgnore)
		_, _ = fmt.Fprintf(r.out, "    Extension:     %d\n", d.FilteredByExtension)
		_, _ = fmt.Fprintf(r.out, "    Too large:     %d\n", d.SkippedBySize)
		_, _ = fmt.Fprintf(r.out, "    Unchanged:     %d\n", d.SkippedByCache)
		_, _ = fmt.Fprintf(r.out, "    Indexing:      %d\n", d.ActivelyIndexing)
		_, _ = fmt.Fprintln(r.out)
	}

	_, _ = fmt.Fprintln(r.out, "  Vector store:")
	_, _ = fmt.Fprintf(r.out, "    Status: %s\n", r.renderBackend(string(s.VectorStatus)))
	if s.VectorError != "" {
		_, _ = fmt.Fprintf(r.out, "    Error:  %s\n", r.styles.Error.Render(s.VectorError))
	}
	if s.VectorRetrySuggestion != "" {
		_, _ = fmt.Fprintf(r.out, "    Hint:   %s\n", s.VectorRetrySuggestion)
	}
	_, _ = fmt.Fprintln(r.out)

	_, _ = fmt.Fprintln(r.out, "  Graph store:")
	_, _ = fmt.Fprintf(r.out, "    Status: %s\n", r.renderBackend(string(s.GraphStatus)))
	if s.GraphError != "" {
		_, _ = fmt.Fprintf(r.out, "    Error:  %s\n", r.styles.Error.Render(s.GraphError))
		if !s.GraphErrorTimestamp.IsZero() {
			_, _ = fmt.Fprintf(r.out, "    Since:  %s\n", r.formatTime(s.GraphErrorTimestamp))
		}
	}
	if s.GraphConsecutiveFailures > 0 {
		_, _ = fmt.Fprintf(r.out, "    Failures: %d\n", s.GraphConsecutiveFailures)
	}
	if s.GraphRetrySuggestion != "" {
		_, _ = fmt.Fprintf(r.out, "    Hint:   %s\n", s.GraphRetrySuggestion)
	}

	return nil
}

// RenderJSON outputs the report as JSON.
func (r *StatusRenderer) RenderJSON(rep StatusReport) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rep)
}

func (r *StatusRenderer) renderSystem(st state.IndexingState) string {
	switch st {
	case state.StateIndexed:
		return r.styles.Success.Render(string(st))
	case state.StateIndexing:
		return r.styles.Active.Render(string(st))
	case state.StateError:
		return r.styles.Error.Render(string(st))
	default:
		return r.styles.Dim.Render(string(st))
	}
}

func (r *StatusRenderer) renderHealth(h state.SystemHealth) string {
	switch h {
	case state.HealthHealthy:
		return r.styles.Success.Render(string(h))
	case state.HealthDegraded:
		return r.styles.Warning.Render(string(h))
	case state.HealthFailed:
		return r.styles.Error.Render(string(h))
	default:
		return string(h)
	}
}

// renderBackend colors vector and graph status strings alike.
func (r *StatusRenderer) renderBackend(status string) string {
	switch status {
	case "indexed", "idle":
		return r.styles.Success.Render(status)
	case "indexing":
		return r.styles.Active.Render(status)
	case "disabled":
		return r.styles.Dim.Render(status)
	case "error", "connection-failed", "resource-exhausted":
		return r.styles.Error.Render(status)
	default:
		return status
	}
}

// formatTime formats a time relative to now.
func (r *StatusRenderer) formatTime(t time.Time) string {
	diff := r.now().Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	default:
		return t.Format("2006-01-02 15:04")
	}
}
