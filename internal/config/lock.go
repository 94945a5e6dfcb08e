package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// MigrationLock serializes configuration migrations across processes.
// The lock file lives at <dir>/.migrate.lock.
type MigrationLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewMigrationLock creates a lock in dir.
func NewMigrationLock(dir string) *MigrationLock {
	p := filepath.Join(dir, ".migrate.lock")
	return &MigrationLock{path: p, flock: flock.New(p)}
}

// Lock blocks until the lock is held or ctx is done.
func (l *MigrationLock) Lock(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	ok, err := l.flock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("failed to acquire migration lock: %s", l.path)
	}
	l.locked = true
	return nil
}

// Unlock releases the lock. It is safe to call on an unlocked lock.
func (l *MigrationLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release migration lock: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *MigrationLock) Path() string {
	return l.path
}

// MigrateLocked runs m.Migrate while holding l.
func MigrateLocked(ctx context.Context, l *MigrationLock, m *Migrator, cfg *CodeIndexConfig) (*CodeIndexConfig, error) {
	if err := l.Lock(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = l.Unlock() }()
	return m.Migrate(ctx, cfg)
}
