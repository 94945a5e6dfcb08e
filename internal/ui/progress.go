package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/state"
)

// ProgressPrinter writes one plain line per distinct snapshot. Pass
// Handle to state.Manager.OnProgressUpdate.
type ProgressPrinter struct {
	mu     sync.Mutex
	out    io.Writer
	styles Styles
	last   string
}

// NewProgressPrinter creates a printer writing to out.
func NewProgressPrinter(out io.Writer, noColor bool) *ProgressPrinter {
	return &ProgressPrinter{out: out, styles: GetStyles(noColor)}
}

// Handle prints the snapshot unless it renders the same as the previous one.
func (p *ProgressPrinter) Handle(s state.StatusSnapshot) {
	line := FormatProgress(s)

	p.mu.Lock()
	defer p.mu.Unlock()
	if line == p.last {
		return
	}
	p.last = line

	switch s.SystemStatus {
	case state.StateError:
		line = p.styles.Error.Render(line)
	case state.StateIndexed:
		line = p.styles.Success.Render(line)
	}
	_, _ = fmt.Fprintln(p.out, line)
}

// FormatProgress renders a snapshot as "[TAG] current/total unit - message".
func FormatProgress(s state.StatusSnapshot) string {
	tag := stateTag(s.SystemStatus)
	if s.TotalItems > 0 {
		return fmt.Sprintf("[%s] %d/%d %s - %s", tag, s.ProcessedItems, s.TotalItems, s.CurrentItemUnit, s.Message)
	}
	return fmt.Sprintf("[%s] %s", tag, s.Message)
}

func stateTag(st state.IndexingState) string {
	switch st {
	case state.StateIndexing:
		return "INDEX"
	case state.StateIndexed:
		return "DONE"
	case state.StateError:
		return "ERROR"
	case state.StateStandby:
		return "IDLE"
	default:
		return "???"
	}
}
