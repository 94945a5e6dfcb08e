package watcher

import (
	"time"
)

// Operation is a file system operation type.
type Operation int

const (
	// OpCreate indicates a new file or directory was created.
	OpCreate Operation = iota
	// OpModify indicates an existing file was written.
	OpModify
	// OpDelete indicates a file or directory was removed or renamed away.
	OpDelete
	// OpIgnoreChange indicates an ignore file changed; the set of indexable
	// files must be recomputed.
	OpIgnoreChange
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpIgnoreChange:
		return "IGNORE_CHANGE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is a single file system event.
type FileEvent struct {
	// Path is relative to the watched root, slash-separated.
	Path      string
	Operation Operation
	IsDir     bool
	Timestamp time.Time
}

// Options configures the watcher.
type Options struct {
	// DebounceWindow is how long a path must be quiet before its event is
	// emitted. Default: 200ms
	DebounceWindow time.Duration

	// EventBufferSize is the capacity of the batch channel. Default: 100
	EventBufferSize int

	// IgnoreFiles are the ignore-file names loaded from every directory.
	// Default: .gitignore, .rooignore
	IgnoreFiles []string

	// IgnorePatterns are extra rules in gitignore syntax.
	IgnorePatterns []string
}

// DefaultIgnoreFiles are the ignore files honored by default.
var DefaultIgnoreFiles = []string{".gitignore", ".rooignore"}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  200 * time.Millisecond,
		EventBufferSize: 100,
		IgnoreFiles:     DefaultIgnoreFiles,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	if o.IgnoreFiles == nil {
		o.IgnoreFiles = defaults.IgnoreFiles
	}
	return o
}
