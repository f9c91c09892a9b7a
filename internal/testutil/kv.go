package testutil

import (
	"context"
	"testing"

	"playmap/internal/kv"
	"playmap/internal/playmap"
)

// NewTestKV creates an in-memory key-value store that is closed when the
// test completes.
func NewTestKV(t *testing.T) *kv.MemoryStore {
	t.Helper()

	store := kv.NewMemoryStore()
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// FailingKV wraps a store and fails the operations whose error is set.
type FailingKV struct {
	playmap.KeyValueStore

	GetErr    error
	SetErr    error
	RemoveErr error
}

func (f *FailingKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.GetErr != nil {
		return "", false, f.GetErr
	}
	return f.KeyValueStore.Get(ctx, key)
}

func (f *FailingKV) Set(ctx context.Context, key, value string) error {
	if f.SetErr != nil {
		return f.SetErr
	}
	return f.KeyValueStore.Set(ctx, key, value)
}

func (f *FailingKV) Remove(ctx context.Context, key string) error {
	if f.RemoveErr != nil {
		return f.RemoveErr
	}
	return f.KeyValueStore.Remove(ctx, key)
}
