package playmap_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"playmap/internal/persist"
	"playmap/internal/playmap"
	"playmap/internal/testutil"
)

func TestCatalogStore_Create(t *testing.T) {
	f := newLoadedStore(t, playmap.StoreOptions{})

	p := mustCreate(t, f.store, centralParkDraft())

	if p.ID != "pg-1" {
		t.Errorf("ID = %q, want pg-1", p.ID)
	}
	if !p.DateAdded.Equal(f.clock.Now()) || !p.DateModified.Equal(p.DateAdded) {
		t.Errorf("DateAdded, DateModified = %v, %v, want both %v", p.DateAdded, p.DateModified, f.clock.Now())
	}
	if p.Photos == nil {
		t.Error("Photos = nil, want empty list")
	}

	if got := f.store.Playgrounds(); len(got) != 1 || got[0].Name != "Central Park" {
		t.Errorf("Playgrounds() = %v, want Central Park", got)
	}
	if stored := f.persistence.Stored(); len(stored) != 1 || stored[0].ID != "pg-1" {
		t.Errorf("persisted = %v, want pg-1", stored)
	}
	if !f.store.LastSaved().Equal(f.clock.Now()) {
		t.Errorf("LastSaved() = %v, want %v", f.store.LastSaved(), f.clock.Now())
	}
}

func TestCatalogStore_CreateRejectsInvalid(t *testing.T) {
	f := newLoadedStore(t, playmap.StoreOptions{})

	draft := centralParkDraft()
	draft.Rating = playmap.RatingUnset

	_, err := f.store.Create(context.Background(), draft)
	if playmap.KindOf(err) != playmap.KindValidation {
		t.Fatalf("Create() error = %v, want validation error", err)
	}
	if f.persistence.SaveCount() != 0 {
		t.Errorf("SaveCount() = %d, want 0", f.persistence.SaveCount())
	}
	state := f.store.State()
	if state.Error == nil || state.Error.Field != "rating" {
		t.Errorf("State().Error = %v, want rating error", state.Error)
	}
	if state.Loading {
		t.Error("State().Loading = true after failed operation")
	}

	var appErr *playmap.AppError
	if errors.As(err, &appErr) && !appErr.Timestamp.Equal(f.clock.Now()) {
		t.Errorf("error Timestamp = %v, want store clock %v", appErr.Timestamp, f.clock.Now())
	}
}

func TestCatalogStore_UpdateStampsModified(t *testing.T) {
	ctx := context.Background()
	f := newLoadedStore(t, playmap.StoreOptions{})
	created := mustCreate(t, f.store, centralParkDraft())

	f.clock.Advance(time.Minute)
	updated, err := f.store.Update(ctx, created.ID, playmap.Update{Rating: ptr(4)})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Rating != 4 {
		t.Errorf("Rating = %d, want 4", updated.Rating)
	}
	if updated.Name != "Central Park" {
		t.Errorf("Name = %q, want unchanged", updated.Name)
	}
	if !updated.DateAdded.Equal(created.DateAdded) {
		t.Errorf("DateAdded changed: %v -> %v", created.DateAdded, updated.DateAdded)
	}
	if !updated.DateModified.After(created.DateModified) {
		t.Errorf("DateModified = %v, want after %v", updated.DateModified, created.DateModified)
	}
	if stored := f.persistence.Stored(); stored[0].Rating != 4 {
		t.Errorf("persisted rating = %d, want 4", stored[0].Rating)
	}
}

func TestCatalogStore_UpdateInvalidKeepsRecord(t *testing.T) {
	ctx := context.Background()
	f := newLoadedStore(t, playmap.StoreOptions{})
	created := mustCreate(t, f.store, centralParkDraft())

	_, err := f.store.Update(ctx, created.ID, playmap.Update{Name: ptr("  ")})
	if playmap.KindOf(err) != playmap.KindValidation {
		t.Fatalf("Update() error = %v, want validation error", err)
	}

	got, ok := f.store.Get(created.ID)
	if !ok || got.Name != "Central Park" {
		t.Errorf("Get() = %v, want unchanged record", got)
	}
}

func TestCatalogStore_NotFound(t *testing.T) {
	ctx := context.Background()
	f := newLoadedStore(t, playmap.StoreOptions{})

	_, err := f.store.Update(ctx, "missing", playmap.Update{Rating: ptr(3)})
	if !errors.Is(err, playmap.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}

	err = f.store.Delete(ctx, "missing")
	if !errors.Is(err, playmap.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestCatalogStore_Delete(t *testing.T) {
	ctx := context.Background()
	f := newLoadedStore(t, playmap.StoreOptions{})
	created := mustCreate(t, f.store, centralParkDraft())

	if err := f.store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got := f.store.Playgrounds(); len(got) != 0 {
		t.Errorf("Playgrounds() = %v, want empty", got)
	}
	if stored := f.persistence.Stored(); len(stored) != 0 {
		t.Errorf("persisted = %v, want empty", stored)
	}
	if _, ok := f.store.Get(created.ID); ok {
		t.Error("Get() found deleted playground")
	}
}

func TestCatalogStore_FailedSaveLeavesCatalogUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newLoadedStore(t, playmap.StoreOptions{})
	existing := mustCreate(t, f.store, centralParkDraft())

	f.persistence.SetSaveErr(errors.New("disk full"))

	tests := []struct {
		name string
		op   func() error
	}{
		{name: "create", op: func() error {
			_, err := f.store.Create(ctx, centralParkDraft())
			return err
		}},
		{name: "update", op: func() error {
			_, err := f.store.Update(ctx, existing.ID, playmap.Update{Rating: ptr(1)})
			return err
		}},
		{name: "delete", op: func() error {
			return f.store.Delete(ctx, existing.ID)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op()
			if playmap.KindOf(err) != playmap.KindSystem {
				t.Fatalf("error = %v, want system error", err)
			}

			got := f.store.Playgrounds()
			if len(got) != 1 || got[0].ID != existing.ID || got[0].Rating != 5 {
				t.Errorf("Playgrounds() = %v, want only the unchanged original", got)
			}
			if f.store.State().Error == nil {
				t.Error("State().Error = nil, want the failure")
			}
		})
	}
}

func TestCatalogStore_Load(t *testing.T) {
	ctx := context.Background()
	added := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f := newTestStore(t, playmap.StoreOptions{}, newPlayground("pg-7", "Riverside", 4, added))

	if f.store.Loaded() {
		t.Fatal("Loaded() = true before Load")
	}
	if err := f.store.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !f.store.Loaded() {
		t.Error("Loaded() = false after Load")
	}
	if got := f.store.ActiveIDs(); len(got) != 1 || got[0] != "pg-7" {
		t.Errorf("ActiveIDs() = %v, want [pg-7]", got)
	}
}

func TestCatalogStore_LoadFailureKeepsPriorCatalog(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		loadErr error
	}{
		{name: "foreign error", loadErr: errors.New("read failed")},
		{name: "recoverable storage error", loadErr: playmap.NewStorageError("slot busy", true, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLoadedStore(t, playmap.StoreOptions{})
			mustCreate(t, f.store, centralParkDraft())
			f.persistence.LoadErr = tt.loadErr

			err := f.store.Load(ctx)

			var appErr *playmap.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("Load() error = %v, want *AppError", err)
			}
			if appErr.Kind != playmap.KindStorage || appErr.Recoverable {
				t.Errorf("Load() error = %+v, want non-recoverable storage error", appErr)
			}
			if len(f.store.Playgrounds()) != 1 {
				t.Error("failed Load() dropped the prior catalog")
			}
			if !f.store.Loaded() {
				t.Error("failed reload cleared Loaded()")
			}

			var original *playmap.AppError
			if errors.As(tt.loadErr, &original) && !original.Recoverable {
				t.Error("Load() mutated the persistence error")
			}
		})
	}
}

func TestCatalogStore_ReturnsCopies(t *testing.T) {
	f := newLoadedStore(t, playmap.StoreOptions{})
	created := mustCreate(t, f.store, centralParkDraft())

	created.Name = "Changed"
	created.Location.Coordinates.Latitude = 0

	got, _ := f.store.Get(created.ID)
	if got.Name != "Central Park" || got.Location.Coordinates.Latitude != 40.7829 {
		t.Errorf("store record was mutated through a returned copy: %+v", got)
	}
}

func TestCatalogStore_Visible(t *testing.T) {
	f := newLoadedStore(t, playmap.StoreOptions{})

	for _, d := range []struct {
		name   string
		rating int
	}{{"Zebra Park", 3}, {"Alpha Park", 5}, {"Mid Park", 4}} {
		draft := centralParkDraft()
		draft.Name = d.name
		draft.Rating = d.rating
		mustCreate(t, f.store, draft)
		f.clock.Advance(time.Minute)
	}

	f.store.SetSortBy(playmap.SortByName)
	f.store.SetFilterBy(playmap.Filter{Ratings: []int{4, 5}})

	var names []string
	for _, p := range f.store.Visible(nil) {
		names = append(names, p.Name)
	}
	if want := []string{"Alpha Park", "Mid Park"}; !equalIDs(names, want) {
		t.Errorf("Visible() = %v, want %v", names, want)
	}

	state := f.store.State()
	if state.SortBy != playmap.SortByName || len(state.FilterBy.Ratings) != 2 {
		t.Errorf("State() sort/filter = %q/%v", state.SortBy, state.FilterBy)
	}
}

func TestCatalogStore_Subscribe(t *testing.T) {
	f := newLoadedStore(t, playmap.StoreOptions{})

	var mu sync.Mutex
	var states []playmap.StoreState
	unsubscribe := f.store.Subscribe(func(s playmap.StoreState) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	mustCreate(t, f.store, centralParkDraft())

	mu.Lock()
	n := len(states)
	sawLoading := false
	for _, s := range states {
		sawLoading = sawLoading || s.Loading
	}
	last := states[n-1]
	mu.Unlock()

	if n < 2 || !sawLoading {
		t.Errorf("observer saw %d states (loading=%v), want a loading and a final state", n, sawLoading)
	}
	if last.Loading || len(last.Playgrounds) != 1 {
		t.Errorf("final state = %+v, want one playground and not loading", last)
	}

	unsubscribe()
	f.store.ClearError()

	mu.Lock()
	defer mu.Unlock()
	if len(states) != n {
		t.Errorf("observer called after unsubscribe")
	}
}

func TestCatalogStore_AutoSave(t *testing.T) {
	f := newLoadedStore(t, playmap.StoreOptions{AutoSaveDelay: 20 * time.Millisecond})
	mustCreate(t, f.store, centralParkDraft())

	if got := f.persistence.SaveCount(); got != 1 {
		t.Fatalf("SaveCount() = %d right after Create, want 1", got)
	}
	if !waitFor(t, 2*time.Second, func() bool { return f.persistence.SaveCount() >= 2 }) {
		t.Error("auto-save did not run")
	}
}

func TestCatalogStore_AutoSaveDisabled(t *testing.T) {
	f := newLoadedStore(t, playmap.StoreOptions{AutoSaveDelay: -1})
	mustCreate(t, f.store, centralParkDraft())

	time.Sleep(50 * time.Millisecond)
	if got := f.persistence.SaveCount(); got != 1 {
		t.Errorf("SaveCount() = %d, want 1", got)
	}
}

func TestCatalogStore_Close(t *testing.T) {
	ctx := context.Background()
	f := newLoadedStore(t, playmap.StoreOptions{AutoSaveDelay: 50 * time.Millisecond})
	mustCreate(t, f.store, centralParkDraft())

	if err := f.store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	time.Sleep(150 * time.Millisecond)
	if got := f.persistence.SaveCount(); got != 1 {
		t.Errorf("SaveCount() = %d after Close, want 1 (no auto-save)", got)
	}

	if _, err := f.store.Create(ctx, centralParkDraft()); err == nil {
		t.Error("Create() after Close succeeded")
	}
	if err := f.store.ForceSave(ctx); err == nil {
		t.Error("ForceSave() after Close succeeded")
	}
	if err := f.store.Load(ctx); err == nil {
		t.Error("Load() after Close succeeded")
	}
}

func TestCatalogStore_ConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	f := newLoadedStore(t, playmap.StoreOptions{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.store.Create(ctx, centralParkDraft()); err != nil {
				t.Errorf("Create() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := len(f.store.Playgrounds()); got != 20 {
		t.Errorf("len(Playgrounds()) = %d, want 20", got)
	}
	if got := len(f.persistence.Stored()); got != 20 {
		t.Errorf("persisted %d playgrounds, want 20", got)
	}
}

func TestCatalogStore_LoadCorruptedRecord(t *testing.T) {
	ctx := context.Background()
	slot := testutil.NewTestKV(t)
	raw := `{"version":"` + persist.CurrentVersion + `","lastModified":"2024-05-01T00:00:00Z","playgrounds":[null]}`
	if err := slot.Set(ctx, persist.StorageKey, raw); err != nil {
		t.Fatal(err)
	}

	clock := testutil.FixedClock()
	adapter := persist.NewAdapter(slot, clock, playmap.NewNopLogger())
	store := playmap.NewCatalogStore(adapter, clock, testutil.NewStubIDGenerator(), playmap.NewNopLogger(), playmap.StoreOptions{AutoSaveDelay: -1})
	t.Cleanup(func() {
		store.Close()
	})

	err := store.Load(ctx)

	var appErr *playmap.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("Load() error = %v, want *AppError", err)
	}
	if appErr.Kind != playmap.KindStorage || appErr.Recoverable {
		t.Errorf("Load() error = %+v, want non-recoverable storage error", appErr)
	}
	if store.Loaded() {
		t.Error("Loaded() = true after corrupted Load")
	}
	if got, _, _ := slot.Get(ctx, persist.StorageKey); got != raw {
		t.Errorf("corrupted slot was rewritten: %q", got)
	}
}

func TestCatalogStore_MutationsRequireLoad(t *testing.T) {
	ctx := context.Background()
	added := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(*playmap.CatalogStore) error
	}{
		{name: "create", mutate: func(s *playmap.CatalogStore) error {
			_, err := s.Create(ctx, centralParkDraft())
			return err
		}},
		{name: "update", mutate: func(s *playmap.CatalogStore) error {
			_, err := s.Update(ctx, "pg-1", playmap.Update{Rating: ptr(1)})
			return err
		}},
		{name: "delete", mutate: func(s *playmap.CatalogStore) error {
			return s.Delete(ctx, "pg-1")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestStore(t, playmap.StoreOptions{}, newPlayground("pg-1", "Persisted", 4, added))

			err := tt.mutate(f.store)
			if err == nil {
				t.Fatal("mutation before Load succeeded")
			}
			if kind := playmap.KindOf(err); kind != playmap.KindSystem {
				t.Errorf("KindOf() = %q, want system", kind)
			}
			if got := f.persistence.SaveCount(); got != 0 {
				t.Errorf("SaveCount() = %d, want 0", got)
			}
			if stored := f.persistence.Stored(); len(stored) != 1 || stored[0].Rating != 4 {
				t.Errorf("persisted catalog = %+v, want the original record", stored)
			}
		})
	}
}
