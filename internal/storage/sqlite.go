package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

const schema = `
CREATE TABLE IF NOT EXISTS global_state (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS secrets (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`

// SQLite is a Store backed by a SQLite database. Secrets come from an
// optional .env file first and the secrets table second.
type SQLite struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	env    envSecrets
	logger *slog.Logger
	closed bool
}

// Option configures a SQLite store.
type Option func(*SQLite)

// WithEnvFile overlays secrets from a .env file.
func WithEnvFile(path string) Option {
	return func(s *SQLite) { s.env.path = path }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *SQLite) {
		if l != nil {
			s.logger = l
		}
	}
}

// OpenSQLite opens (creating if needed) the database at path. An empty path
// opens a private in-memory database.
func OpenSQLite(path string, opts ...Option) (*SQLite, error) {
	s := &SQLite{path: path, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	if path != "" {
		pragmas = append([]string{"PRAGMA journal_mode = WAL"}, pragmas...)
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s.db = db
	if err := s.env.refresh(); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.logger.Debug("state_store_opened", slog.String("path", path))
	return s, nil
}

// Get returns the raw JSON stored under key, or nil if absent.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM global_state WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

// UpdateGlobalState stores value, JSON-encoded, under key.
func (s *SQLite) UpdateGlobalState(ctx context.Context, key string, value any) error {
	data, err := marshalValue(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO global_state (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// GetSecret returns the secret for key, or "" if unset.
func (s *SQLite) GetSecret(ctx context.Context, key string) (string, error) {
	if v, ok := s.env.get(key); ok {
		return v, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", ErrClosed
	}

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM secrets WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read secret %s: %w", key, err)
	}
	return value, nil
}

// SetSecret stores a secret in the database. An empty value deletes it.
func (s *SQLite) SetSecret(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	var err error
	if value == "" {
		_, err = s.db.ExecContext(ctx, "DELETE FROM secrets WHERE key = ?", key)
	} else {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO secrets (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, value, time.Now().Unix())
	}
	if err != nil {
		return fmt.Errorf("failed to write secret %s: %w", key, err)
	}
	return nil
}

// RefreshSecrets re-reads the .env overlay.
func (s *SQLite) RefreshSecrets(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	return s.env.refresh()
}

// Path returns the database path, "" for in-memory.
func (s *SQLite) Path() string {
	return s.path
}

// Close closes the database. It is safe to call more than once.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
