// Package pipeline indexes a workspace into the BM25 index and reports
// every phase into the state manager.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/bm25"
	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/config"
	cierrors "github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/errors"
	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/scanner"
	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/state"
)

// Indexer keeps a BM25 index in step with a workspace. Run, HandleEvent
// and Watch may be called from different goroutines; they are serialized.
type Indexer struct {
	state   *state.Manager
	index   *bm25.Index
	cfg     *config.CodeIndexConfig
	scanner *scanner.Scanner
	cache   *fileCache
	logger  *slog.Logger

	scanOpts     scanner.Options
	cacheSize    int
	chunkLines   int
	chunkOverlap int
	debounce     time.Duration

	mu      sync.Mutex
	indexed map[string]struct{}
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(ix *Indexer) {
		if l != nil {
			ix.logger = l
		}
	}
}

// WithScanOptions overrides discovery options.
func WithScanOptions(opts scanner.Options) Option {
	return func(ix *Indexer) { ix.scanOpts = opts }
}

// WithCacheSize sets how many file fingerprints are remembered.
func WithCacheSize(n int) Option {
	return func(ix *Indexer) { ix.cacheSize = n }
}

// WithChunking sets the line window and overlap.
func WithChunking(lines, overlap int) Option {
	return func(ix *Indexer) {
		ix.chunkLines = lines
		ix.chunkOverlap = overlap
	}
}

// WithDebounce sets the watcher debounce window.
func WithDebounce(d time.Duration) Option {
	return func(ix *Indexer) { ix.debounce = d }
}

// New creates an indexer for root. A nil index or config gets a fresh one.
func New(root string, st *state.Manager, idx *bm25.Index, cfg *config.CodeIndexConfig, opts ...Option) (*Indexer, error) {
	if st == nil {
		return nil, cierrors.InternalError("pipeline requires a state manager", nil)
	}
	if idx == nil {
		idx = bm25.New()
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}

	ix := &Indexer{
		state:        st,
		index:        idx,
		cfg:          cfg,
		logger:       slog.Default(),
		scanOpts:     scanner.DefaultOptions(),
		chunkLines:   DefaultChunkLines,
		chunkOverlap: DefaultChunkOverlap,
		indexed:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(ix)
	}

	sc, err := scanner.New(root, ix.scanOpts, ix.logger)
	if err != nil {
		return nil, cierrors.New(cierrors.ErrCodeInvalidPath, "cannot index workspace", err)
	}
	cache, err := newFileCache(ix.cacheSize)
	if err != nil {
		return nil, cierrors.InternalError("cannot create file cache", err)
	}
	ix.scanner = sc
	ix.cache = cache
	return ix, nil
}

// Root returns the absolute workspace root.
func (ix *Indexer) Root() string {
	return ix.scanner.Root()
}

// Index returns the underlying BM25 index.
func (ix *Indexer) Index() *bm25.Index {
	return ix.index
}

// IndexedFiles returns how many files currently have documents.
func (ix *Indexer) IndexedFiles() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.indexed)
}

// parsedFile is the read phase's output for one file.
type parsedFile struct {
	info scanner.FileInfo
	docs []bm25.Document
	hash string
	ok   bool
}

// Run performs a full pass: discover, read changed files, index their
// chunks and drop documents of files that disappeared. Unchanged files are
// skipped. Cancellation returns the system to Standby; any other failure
// puts it into Error.
func (ix *Indexer) Run(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	started := time.Now()
	ix.state.SetSystemState(state.StateIndexing, "Scanning workspace...")

	ix.scanner.Reload()
	files, funnel, err := ix.scanner.Scan(ctx)
	if err != nil {
		return ix.fail(err)
	}

	seen := make(map[string]struct{}, len(files))
	work := make([]scanner.FileInfo, 0, len(files))
	cached := 0
	for _, f := range files {
		seen[f.Path] = struct{}{}
		if _, ok := ix.indexed[f.Path]; ok && ix.cache.unchanged(f) {
			cached++
			continue
		}
		work = append(work, f)
	}

	ix.state.ReportFileDiscoveryMetrics(state.FileDiscoveryMetrics{
		Discovered:          funnel.Discovered,
		FilteredByIgnore:    funnel.FilteredByIgnore,
		FilteredByExtension: funnel.FilteredByExtension,
		SkippedBySize:       funnel.SkippedBySize,
		SkippedByCache:      cached,
		ActivelyIndexing:    len(work),
	})

	removed := 0
	for path := range ix.indexed {
		if _, ok := seen[path]; !ok {
			removed += ix.removeFileLocked(path)
		}
	}

	parsed, err := ix.readAll(ctx, work)
	if err != nil {
		return ix.fail(err)
	}
	blocks := ix.indexParsed(parsed)

	ix.state.SetSystemState(state.StateIndexed, "")
	ix.logger.Info("index_completed",
		slog.String("root", ix.Root()),
		slog.Int("files", len(ix.indexed)),
		slog.Int("changed_files", len(work)),
		slog.Int("cached_files", cached),
		slog.Int("blocks", blocks),
		slog.Int("removed_blocks", removed),
		slog.Int("fingerprints", ix.cache.count()),
		slog.Duration("duration", time.Since(started)))
	return nil
}

// readAll reads and chunks files with bounded concurrency, reporting
// file-queue progress. Unreadable files are logged and skipped.
func (ix *Indexer) readAll(ctx context.Context, work []scanner.FileInfo) ([]parsedFile, error) {
	results := make([]parsedFile, len(work))
	if len(work) == 0 {
		return results, nil
	}

	var (
		progressMu sync.Mutex
		done       int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.cfg.EffectiveBatchConcurrency())

	for i, f := range work {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := ix.parse(f)
			if err != nil {
				ix.logger.Warn("file_read_failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			} else {
				results[i] = p
			}

			progressMu.Lock()
			done++
			ix.state.ReportFileQueueProgress(done, len(work), f.Path)
			progressMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (ix *Indexer) parse(f scanner.FileInfo) (parsedFile, error) {
	content, err := os.ReadFile(f.AbsPath)
	if err != nil {
		return parsedFile{}, err
	}
	return parsedFile{
		info: f,
		docs: Chunk(f.Path, content, ix.chunkLines, ix.chunkOverlap),
		hash: contentHash(content),
		ok:   true,
	}, nil
}

// indexParsed swaps each file's documents in the index and reports block
// progress. It returns the number of blocks processed.
func (ix *Indexer) indexParsed(parsed []parsedFile) int {
	total := 0
	for _, p := range parsed {
		total += len(p.docs)
	}

	processed := 0
	for _, p := range parsed {
		if !p.ok {
			continue
		}
		ix.replaceFileLocked(p)
		processed += len(p.docs)
		if len(p.docs) > 0 {
			ix.state.ReportBlockIndexingProgress(processed, total)
		}
	}
	return processed
}

// replaceFileLocked applies a parsed file. Content identical to what is
// already indexed only refreshes the fingerprint.
func (ix *Indexer) replaceFileLocked(p parsedFile) {
	_, present := ix.indexed[p.info.Path]
	if present && ix.cache.sameContent(p.info.Path, p.hash) {
		ix.cache.put(p.info, p.hash)
		return
	}

	ix.index.RemoveDocumentsByFilePath(p.info.Path)
	if len(p.docs) == 0 {
		delete(ix.indexed, p.info.Path)
		ix.cache.put(p.info, p.hash)
		return
	}
	ix.index.AddDocuments(p.docs)
	ix.indexed[p.info.Path] = struct{}{}
	ix.cache.put(p.info, p.hash)
}

// removeFileLocked drops every document of path and forgets it.
func (ix *Indexer) removeFileLocked(path string) int {
	n := ix.index.RemoveDocumentsByFilePath(path)
	delete(ix.indexed, path)
	ix.cache.remove(path)
	return n
}

// removePathLocked removes a file or, for a directory, every file below it.
func (ix *Indexer) removePathLocked(path string) int {
	if _, ok := ix.indexed[path]; ok {
		return ix.removeFileLocked(path)
	}
	n := 0
	prefix := strings.TrimSuffix(path, "/") + "/"
	for p := range ix.indexed {
		if strings.HasPrefix(p, prefix) {
			n += ix.removeFileLocked(p)
		}
	}
	return n
}

func (ix *Indexer) fail(err error) error {
	if errors.Is(err, context.Canceled) {
		ix.state.SetSystemState(state.StateStandby, "Indexing cancelled.")
		ix.logger.Info("index_cancelled", slog.String("root", ix.Root()))
		return err
	}

	ix.state.SetSystemState(state.StateError, fmt.Sprintf("Indexing failed: %v", err))
	ix.logger.Error("index_failed", slog.String("root", ix.Root()), slog.String("error", err.Error()))
	return cierrors.New(cierrors.ErrCodeIndexFailed, "indexing failed", err)
}
