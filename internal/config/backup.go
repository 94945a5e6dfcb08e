package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MaxBackups is the number of config backups DirBackupSink keeps.
const MaxBackups = 10

// DirBackupSink is a BackupSink rooted at a directory on disk.
type DirBackupSink struct {
	Root string
	// Keep overrides MaxBackups when positive.
	Keep int
}

// CreateDirectory creates path under Root, including parents.
func (s DirBackupSink) CreateDirectory(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}
	return nil
}

// WriteFile writes data to path under Root atomically, then prunes old
// backups in the same directory.
func (s DirBackupSink) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.resolve(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".backup-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("failed to move backup into place: %w", err)
	}

	// Pruning is best-effort; the backup itself succeeded.
	_ = s.prune(filepath.Dir(target))
	return nil
}

// ListBackups returns backup files under Root/BackupDir, newest first.
func (s DirBackupSink) ListBackups() ([]string, error) {
	dir := filepath.Join(s.Root, BackupDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list backup directory: %w", err)
	}

	var backups []string
	for _, e := range entries {
		if e.IsDir() || !isBackupName(e.Name()) {
			continue
		}
		backups = append(backups, filepath.Join(dir, e.Name()))
	}
	// Names embed a sortable UTC timestamp.
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))
	return backups, nil
}

func (s DirBackupSink) prune(dir string) error {
	if filepath.Clean(dir) != filepath.Join(filepath.Clean(s.Root), BackupDir) {
		return nil
	}
	keep := s.Keep
	if keep <= 0 {
		keep = MaxBackups
	}
	backups, err := s.ListBackups()
	if err != nil || len(backups) <= keep {
		return err
	}
	for _, old := range backups[keep:] {
		_ = os.Remove(old)
	}
	return nil
}

// resolve joins path onto Root and refuses paths that escape it.
func (s DirBackupSink) resolve(path string) (string, error) {
	if s.Root == "" {
		return "", fmt.Errorf("backup sink has no root directory")
	}
	full := filepath.Join(s.Root, filepath.FromSlash(path))
	rel, err := filepath.Rel(s.Root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("backup path %q escapes %s", path, s.Root)
	}
	return full, nil
}

func isBackupName(name string) bool {
	return strings.HasPrefix(name, "config-backup-") && strings.HasSuffix(name, ".json")
}
