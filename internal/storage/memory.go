package storage

import (
	"context"
	"sync"
)

// MemoryStorage is an in-process Preferences used by tests and by the CLI when no
// database is wanted. Nothing survives the process.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string
	// FailWrites makes Set return ErrReadOnly.
	FailWrites bool
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

// Get returns the value for key.
func (m *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set stores value under key.
func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return ErrReadOnly
	}
	m.values[key] = value
	return nil
}

// All returns a copy of every pair.
func (m *MemoryStorage) All(_ context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

// Close is a no-op.
func (m *MemoryStorage) Close() error { return nil }
