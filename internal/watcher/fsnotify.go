package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/gitignore"
)

// alwaysIgnored directories are never watched.
var alwaysIgnored = []string{".git", ".codeindex"}

// Watcher watches a directory tree with fsnotify.
type Watcher struct {
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	ignore    *gitignore.Matcher
	events    chan []FileEvent
	errors    chan error
	stopCh    chan struct{}
	root      string
	opts      Options
	logger    *slog.Logger

	mu             sync.RWMutex
	stopped        bool
	droppedBatches atomic.Uint64
}

// New creates a watcher. Call Start to begin watching.
func New(opts Options) (*Watcher, error) {
	opts = opts.WithDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsw:       fsw,
		debouncer: NewDebouncer(opts.DebounceWindow),
		ignore:    gitignore.New(),
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
		opts:      opts,
		logger:    slog.Default(),
	}, nil
}

// Start watches root recursively and blocks until ctx is done or Stop is
// called.
func (w *Watcher) Start(ctx context.Context, root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	w.mu.Lock()
	w.root = abs
	w.mu.Unlock()

	w.reloadIgnore()
	if err := w.addRecursive(abs); err != nil {
		return fmt.Errorf("add directories to watcher: %w", err)
	}

	go w.forward(ctx)
	w.logger.Debug("watcher_started", slog.String("root", abs))

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	isDir := false
	if info, err := os.Stat(ev.Name); err == nil {
		isDir = info.IsDir()
	}
	if w.ignored(rel, isDir) {
		return
	}

	now := time.Now()
	if slices.Contains(w.opts.IgnoreFiles, filepath.Base(ev.Name)) {
		w.reloadIgnore()
		w.debouncer.Add(FileEvent{Path: rel, Operation: OpIgnoreChange, Timestamp: now})
		return
	}

	var op Operation
	switch {
	case ev.Op&fsnotify.Create != 0:
		op = OpCreate
		if isDir {
			if err := w.addRecursive(ev.Name); err != nil {
				w.emitError(err)
			}
		}
	case ev.Op&fsnotify.Write != 0:
		op = OpModify
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// The new name of a rename arrives as its own Create.
		op = OpDelete
	default:
		return
	}

	w.debouncer.Add(FileEvent{Path: rel, Operation: op, IsDir: isDir, Timestamp: now})
}

func (w *Watcher) forward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case batch, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			if len(batch) > 0 {
				w.emit(batch)
			}
		}
	}
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(w.root, path)
		rel = filepath.ToSlash(rel)
		if rel != "." && w.ignored(rel, true) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) ignored(rel string, isDir bool) bool {
	if rel == "." || rel == "" {
		return true
	}
	top := strings.SplitN(rel, "/", 2)[0]
	if slices.Contains(alwaysIgnored, top) {
		return true
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.ignore.Match(rel, isDir)
}

// reloadIgnore rebuilds the matcher from every ignore file under root.
func (w *Watcher) reloadIgnore() {
	m := gitignore.LoadTree(w.root, w.opts.IgnoreFiles, w.opts.IgnorePatterns...)
	w.mu.Lock()
	w.ignore = m
	w.mu.Unlock()
}

func (w *Watcher) emit(batch []FileEvent) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return
	}
	select {
	case w.events <- batch:
	default:
		n := w.droppedBatches.Add(1)
		w.logger.Warn("watcher_buffer_full",
			slog.Int("batch_size", len(batch)),
			slog.Uint64("total_dropped_batches", n))
	}
}

func (w *Watcher) emitError(err error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return
	}
	select {
	case w.errors <- err:
	default:
	}
}

// Stop stops watching and closes the event and error channels.
// Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.debouncer.Stop()
	err := w.fsw.Close()
	close(w.events)
	close(w.errors)
	return err
}

// Events returns the channel of debounced event batches.
func (w *Watcher) Events() <-chan []FileEvent {
	return w.events
}

// Errors returns non-fatal watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// DroppedBatches returns how many batches were dropped on a full buffer.
func (w *Watcher) DroppedBatches() uint64 {
	return w.droppedBatches.Load()
}
