package testutil

import (
	"context"
	"encoding/json"
	"sync"

	"playmap/internal/playmap"
)

// FakePersistence keeps the catalog in memory. Errors can be injected to
// exercise failure paths; a set error applies to every later call until it is
// cleared.
type FakePersistence struct {
	mu    sync.Mutex
	list  []*playmap.Playground
	saves int

	SaveErr error
	LoadErr error
	SizeErr error
}

// NewFakePersistence creates a fake holding a copy of initial.
func NewFakePersistence(initial ...*playmap.Playground) *FakePersistence {
	f := &FakePersistence{}
	f.list = cloneAll(initial)
	return f
}

func (f *FakePersistence) Save(ctx context.Context, list []*playmap.Playground) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SaveErr != nil {
		return f.SaveErr
	}
	f.list = cloneAll(list)
	f.saves++
	return nil
}

func (f *FakePersistence) Load(ctx context.Context) ([]*playmap.Playground, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.LoadErr != nil {
		return nil, f.LoadErr
	}
	return cloneAll(f.list), nil
}

func (f *FakePersistence) DataSize(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SizeErr != nil {
		return 0, f.SizeErr
	}
	b, err := json.Marshal(f.list)
	if err != nil {
		return 0, err
	}
	return int64(len(b)), nil
}

// Stored returns a copy of the persisted catalog.
func (f *FakePersistence) Stored() []*playmap.Playground {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneAll(f.list)
}

// SaveCount returns the number of successful saves.
func (f *FakePersistence) SaveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

// SetSaveErr injects (or with nil, clears) a save failure.
func (f *FakePersistence) SetSaveErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SaveErr = err
}

func cloneAll(list []*playmap.Playground) []*playmap.Playground {
	out := make([]*playmap.Playground, len(list))
	for i, p := range list {
		out[i] = p.Clone()
	}
	return out
}

// Compile-time check
var _ playmap.Persistence = (*FakePersistence)(nil)
