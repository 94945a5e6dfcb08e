// Package storage persists the code index configuration and its secrets.
// Both implementations satisfy config.Store.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage: store is closed")

// DefaultDir returns ~/.codeindex, falling back to ./.codeindex.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".codeindex"
	}
	return filepath.Join(home, ".codeindex")
}

// DefaultPath is the default SQLite database location.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "state.db")
}

// envSecrets caches secrets read from a .env file. RefreshSecrets re-reads
// the file; a missing file is an empty set.
type envSecrets struct {
	path string

	mu     sync.RWMutex
	values map[string]string
}

func (e *envSecrets) refresh() error {
	if e.path == "" {
		return nil
	}
	values, err := godotenv.Read(e.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			values = map[string]string{}
		} else {
			return fmt.Errorf("failed to read secrets file %s: %w", e.path, err)
		}
	}

	e.mu.Lock()
	e.values = values
	e.mu.Unlock()
	return nil
}

func (e *envSecrets) get(key string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.values[key]
	return v, ok && v != ""
}

func marshalValue(value any) ([]byte, error) {
	if raw, ok := value.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	return data, nil
}
