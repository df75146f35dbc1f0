// Package prefs persists user preferences as JSON-encoded values in a
// key/value store. Load and save failures never reach the caller: they are
// logged as warnings and the documented defaults are used instead.
package prefs

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("preference store closed")

// Store is an opaque string key/value store.
type Store interface {
	// Get returns the raw value of key. ok is false when the key is unset.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores the raw value of key.
	Set(ctx context.Context, key, value string) error
	Close() error
}

// MemoryStore keeps preferences in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	closed bool
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
