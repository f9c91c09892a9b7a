package kv

import (
	"context"
	"fmt"
	"sync"

	"playmap/internal/playmap"
)

// MemoryStore is an in-memory slot store. Nothing survives Close; it backs
// tests and the "memory" storage type. Safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	slots  map[string]string
	closed bool
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string]string)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", false, fmt.Errorf("memory store is closed")
	}
	v, ok := m.slots[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("memory store is closed")
	}
	m.slots[key] = value
	return nil
}

func (m *MemoryStore) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("memory store is closed")
	}
	delete(m.slots, key)
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Compile-time check that MemoryStore implements playmap.KeyValueStore
var _ playmap.KeyValueStore = (*MemoryStore)(nil)
