package playmap_test

import (
	"context"
	"testing"
	"time"

	"playmap/internal/playmap"
	"playmap/internal/testutil"
)

const (
	testPhotoDir     = "/data/photos"
	testThumbnailDir = "/data/thumbnails"
)

type storeFixture struct {
	store       *playmap.CatalogStore
	persistence *testutil.FakePersistence
	clock       *testutil.StubClock
}

// newTestStore creates a store over a fake persistence with auto-save
// disabled unless opts says otherwise.
func newTestStore(t *testing.T, opts playmap.StoreOptions, initial ...*playmap.Playground) storeFixture {
	t.Helper()

	if opts.AutoSaveDelay == 0 {
		opts.AutoSaveDelay = -1
	}
	persistence := testutil.NewFakePersistence(initial...)
	clock := testutil.FixedClock()
	store := playmap.NewCatalogStore(persistence, clock, testutil.NewStubIDGenerator(), playmap.NewNopLogger(), opts)
	t.Cleanup(func() {
		store.Close()
	})
	return storeFixture{store: store, persistence: persistence, clock: clock}
}

// newLoadedStore is newTestStore after a successful Load.
func newLoadedStore(t *testing.T, opts playmap.StoreOptions, initial ...*playmap.Playground) storeFixture {
	t.Helper()

	f := newTestStore(t, opts, initial...)
	if err := f.store.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return f
}

func centralParkDraft() playmap.Draft {
	return playmap.Draft{
		Name: "Central Park",
		Location: playmap.Location{
			Address:     "New York, NY",
			Coordinates: &playmap.Coordinates{Latitude: 40.7829, Longitude: -73.9654},
		},
		Rating: 5,
	}
}

func newPlayground(id, name string, rating int, added time.Time) *playmap.Playground {
	return &playmap.Playground{
		ID:           id,
		Name:         name,
		Location:     playmap.Location{Address: name + " address"},
		Rating:       rating,
		Photos:       []string{},
		DateAdded:    added,
		DateModified: added,
	}
}

func ptr[T any](v T) *T {
	return &v
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func mustCreate(t *testing.T, store *playmap.CatalogStore, draft playmap.Draft) *playmap.Playground {
	t.Helper()

	p, err := store.Create(context.Background(), draft)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return p
}
