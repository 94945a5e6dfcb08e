package gitignore

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
)

// skippedDirs are never searched for ignore files.
var skippedDirs = []string{".git", "node_modules"}

// LoadTree builds a matcher from extra patterns plus every ignore file
// named in names found under root. Nested files are scoped to their
// directory. Unreadable files are logged and skipped.
func LoadTree(root string, names []string, extra ...string) *Matcher {
	m := New()
	for _, p := range extra {
		m.AddPattern(p)
	}
	if len(names) == 0 {
		return m
	}

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && (slices.Contains(skippedDirs, d.Name()) || m.Match(rel(root, path), true)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !slices.Contains(names, d.Name()) {
			return nil
		}
		base := rel(root, filepath.Dir(path))
		if err := m.AddFromFile(path, base); err != nil {
			slog.Warn("ignore_file_unreadable", slog.String("path", path), slog.String("error", err.Error()))
		}
		return nil
	})
	return m
}

func rel(root, path string) string {
	r, err := filepath.Rel(root, path)
	if err != nil || r == "." {
		return ""
	}
	return filepath.ToSlash(r)
}
