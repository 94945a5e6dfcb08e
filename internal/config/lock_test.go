package config

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationLock_LockUnlock(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	l := NewMigrationLock(dir)

	require.NoError(t, l.Lock(context.Background()))
	assert.FileExists(t, l.Path())
	require.NoError(t, l.Unlock())
	require.NoError(t, l.Unlock())
}

func TestMigrationLock_ContendedLockHonorsContext(t *testing.T) {
	dir := t.TempDir()
	first := NewMigrationLock(dir)
	require.NoError(t, first.Lock(context.Background()))
	defer func() { _ = first.Unlock() }()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	second := NewMigrationLock(dir)
	err := second.Lock(ctx)

	assert.Error(t, err)
}

func TestMigrateLocked(t *testing.T) {
	l := NewMigrationLock(t.TempDir())

	out, err := MigrateLocked(context.Background(), l, NewMigrator(nil), &CodeIndexConfig{})

	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, out.SchemaVersion())
	// Released afterwards
	require.NoError(t, l.Lock(context.Background()))
	require.NoError(t, l.Unlock())
}
