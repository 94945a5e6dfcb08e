package storage

import (
	"context"
	"sync"
)

// Memory is an in-process Store. It is used for tests and for one-shot CLI
// runs that should not touch the user's database.
type Memory struct {
	mu      sync.RWMutex
	global  map[string][]byte
	secrets map[string]string
	env     envSecrets
}

// NewMemory returns an empty store. envFile, if non-empty, overlays secrets.
func NewMemory(envFile string) *Memory {
	m := &Memory{
		global:  make(map[string][]byte),
		secrets: make(map[string]string),
		env:     envSecrets{path: envFile},
	}
	_ = m.env.refresh()
	return m
}

// Get returns a copy of the value under key, or nil if absent.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.global[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

// UpdateGlobalState stores value, JSON-encoded, under key.
func (m *Memory) UpdateGlobalState(_ context.Context, key string, value any) error {
	data, err := marshalValue(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.global[key] = data
	return nil
}

// GetSecret returns the secret for key, or "" if unset.
func (m *Memory) GetSecret(_ context.Context, key string) (string, error) {
	if v, ok := m.env.get(key); ok {
		return v, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.secrets[key], nil
}

// SetSecret stores a secret. An empty value deletes it.
func (m *Memory) SetSecret(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value == "" {
		delete(m.secrets, key)
	} else {
		m.secrets[key] = value
	}
	return nil
}

// RefreshSecrets re-reads the .env overlay.
func (m *Memory) RefreshSecrets(context.Context) error {
	return m.env.refresh()
}
