package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	cierrors "github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/errors"
	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/scanner"
	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/watcher"
)

// HandleEvent applies one file event to the index. Creates and modifies
// replace the file's documents, deletes remove them, and an ignore-file
// change triggers a full Run.
func (ix *Indexer) HandleEvent(ctx context.Context, ev watcher.FileEvent) error {
	if ev.Operation == watcher.OpIgnoreChange {
		return ix.Run(ctx)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	switch ev.Operation {
	case watcher.OpDelete:
		n := ix.removePathLocked(ev.Path)
		ix.logger.Debug("index_path_removed", slog.String("path", ev.Path), slog.Int("blocks", n))
		return nil
	case watcher.OpCreate, watcher.OpModify:
		if ev.IsDir {
			return ix.indexDirLocked(ctx, ev.Path)
		}
		return ix.updateFileLocked(ev.Path)
	default:
		return nil
	}
}

// updateFileLocked re-reads one file. Files that vanished or no longer pass
// discovery filters lose their documents.
func (ix *Indexer) updateFileLocked(rel string) error {
	info, verdict, err := ix.scanner.Classify(rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			ix.removePathLocked(rel)
			return nil
		}
		return cierrors.IOError(fmt.Sprintf("cannot stat %s", rel), err)
	}
	if verdict != scanner.Accepted {
		if n := ix.removePathLocked(rel); n > 0 {
			ix.logger.Debug("index_file_filtered", slog.String("path", rel), slog.String("reason", verdict.String()))
		}
		return nil
	}

	p, err := ix.parse(info)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			ix.removePathLocked(rel)
			return nil
		}
		return cierrors.IOError(fmt.Sprintf("cannot read %s", rel), err)
	}
	ix.replaceFileLocked(p)
	ix.logger.Debug("index_file_updated", slog.String("path", rel), slog.Int("blocks", len(p.docs)))
	return nil
}

// indexDirLocked indexes every regular file below a newly created directory;
// files copied in before the watch was added produce no events of their own.
func (ix *Indexer) indexDirLocked(ctx context.Context, rel string) error {
	abs := filepath.Join(ix.Root(), filepath.FromSlash(rel))
	return filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil || d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		r, err := filepath.Rel(ix.Root(), path)
		if err != nil {
			return nil
		}
		if err := ix.updateFileLocked(filepath.ToSlash(r)); err != nil {
			ix.logger.Warn("index_file_failed", slog.String("path", r), slog.String("error", err.Error()))
		}
		return nil
	})
}

// Watch feeds debounced file system events into HandleEvent until ctx is
// done. Per-event failures are logged; only a watcher that cannot start is
// an error.
func (ix *Indexer) Watch(ctx context.Context) error {
	patterns := append([]string(nil), ix.scanOpts.ExcludePatterns...)
	for _, dir := range ix.scanOpts.ExcludeDirs {
		patterns = append(patterns, dir+"/")
	}

	w, err := watcher.New(watcher.Options{
		DebounceWindow: ix.debounce,
		IgnoreFiles:    ix.scanOpts.IgnoreFiles,
		IgnorePatterns: patterns,
	})
	if err != nil {
		return cierrors.InternalError("cannot start file watcher", err)
	}
	defer func() { _ = w.Stop() }()

	started := make(chan error, 1)
	go func() { started <- w.Start(ctx, ix.Root()) }()
	ix.logger.Info("watch_started", slog.String("root", ix.Root()))

	events, errs := w.Events(), w.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-started:
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("watch %s: %w", ix.Root(), err)
			}
			return nil
		case batch, ok := <-events:
			if !ok {
				return nil
			}
			for _, ev := range batch {
				if err := ix.HandleEvent(ctx, ev); err != nil {
					ix.logger.Warn("watch_event_failed",
						slog.String("path", ev.Path),
						slog.String("op", ev.Operation.String()),
						slog.String("error", err.Error()))
				}
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			ix.logger.Warn("watcher_error", slog.String("error", err.Error()))
		}
	}
}
