package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/gitignore"
)

// Scanner walks a workspace and classifies files. A Scanner is bound to one
// root; call Reload after ignore files change.
type Scanner struct {
	root       string
	opts       Options
	extensions map[string]bool
	ignore     *gitignore.Matcher
	logger     *slog.Logger
}

// New creates a scanner for root and loads its ignore files.
func New(root string, opts Options, logger *slog.Logger) (*Scanner, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path is not a directory: %s", abs)
	}

	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scanner{
		root:       abs,
		opts:       opts,
		extensions: make(map[string]bool),
		logger:     logger,
	}
	if len(opts.Extensions) == 0 {
		for ext := range languageMap {
			s.extensions[ext] = true
		}
	} else {
		for _, ext := range opts.Extensions {
			s.extensions[ext] = true
		}
	}
	s.Reload()
	return s, nil
}

// Root returns the absolute workspace root.
func (s *Scanner) Root() string {
	return s.root
}

// Reload re-reads the ignore files under root.
func (s *Scanner) Reload() {
	s.ignore = gitignore.LoadTree(s.root, s.opts.IgnoreFiles, s.opts.ExcludePatterns...)
}

// Scan walks root and returns accepted files in lexical order together with
// the discovery funnel. Unreadable entries are logged and skipped.
func (s *Scanner) Scan(ctx context.Context) ([]FileInfo, Funnel, error) {
	var (
		files  []FileInfo
		funnel Funnel
	)

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == s.root {
				return fmt.Errorf("failed to read root directory: %w", err)
			}
			s.logger.Warn("scan_entry_unreadable", slog.String("path", path), slog.String("error", err.Error()))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel := s.rel(path)
		if d.IsDir() {
			if rel != "" && s.skipDir(rel, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		v := s.classify(rel, info.Size())
		funnel.count(v)
		if v == Accepted {
			files = append(files, FileInfo{
				Path:     rel,
				AbsPath:  path,
				Size:     info.Size(),
				ModTime:  info.ModTime(),
				Language: DetectLanguage(rel),
			})
		}
		return nil
	})
	if err != nil {
		return nil, Funnel{}, err
	}

	s.logger.Debug("scan_completed",
		slog.String("root", s.root),
		slog.Int("discovered", funnel.Discovered),
		slog.Int("accepted", funnel.Accepted))
	return files, funnel, nil
}

// Classify decides a single file by its root-relative path. It stats the
// file to apply the size limit.
func (s *Scanner) Classify(rel string) (FileInfo, Verdict, error) {
	rel = filepath.ToSlash(rel)
	abs := filepath.Join(s.root, filepath.FromSlash(rel))
	info, err := os.Stat(abs)
	if err != nil {
		return FileInfo{}, Accepted, err
	}

	parts := strings.Split(rel, "/")
	for i := 1; i < len(parts); i++ {
		if s.skipDir(strings.Join(parts[:i], "/"), parts[i-1]) {
			return FileInfo{}, FilteredByIgnore, nil
		}
	}

	v := s.classify(rel, info.Size())
	if v != Accepted {
		return FileInfo{}, v, nil
	}
	return FileInfo{
		Path:     rel,
		AbsPath:  abs,
		Size:     info.Size(),
		ModTime:  info.ModTime(),
		Language: DetectLanguage(rel),
	}, Accepted, nil
}

func (s *Scanner) classify(rel string, size int64) Verdict {
	if s.ignore.Match(rel, false) {
		return FilteredByIgnore
	}
	base := filepath.Base(filepath.FromSlash(rel))
	if !s.extensions[base] && !s.extensions[strings.ToLower(filepath.Ext(base))] {
		return FilteredByExtension
	}
	if size > s.opts.MaxFileSize {
		return SkippedBySize
	}
	return Accepted
}

func (s *Scanner) skipDir(rel, name string) bool {
	return slices.Contains(s.opts.ExcludeDirs, name) || s.ignore.Match(rel, true)
}

func (s *Scanner) rel(path string) string {
	r, err := filepath.Rel(s.root, path)
	if err != nil || r == "." {
		return ""
	}
	return filepath.ToSlash(r)
}
