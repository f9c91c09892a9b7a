package playmap

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

// DefaultAutoSaveDelay is the idle interval after the last mutation before
// the catalog is re-persisted as a safety net.
const DefaultAutoSaveDelay = 5 * time.Second

// StoreOptions tunes a CatalogStore.
type StoreOptions struct {
	// AutoSaveDelay is the debounce interval of the background auto-save.
	// Zero selects DefaultAutoSaveDelay; a negative value disables it.
	AutoSaveDelay time.Duration
}

// StoreState is a point-in-time snapshot of the store, as observed by the UI.
type StoreState struct {
	Playgrounds []*Playground
	Loading     bool
	Error       *AppError
	SortBy      SortOption
	FilterBy    Filter
}

// CatalogStore holds the authoritative in-memory catalog. Every mutation is
// validated, persisted, and only then committed to memory, so a failed save
// leaves memory and storage consistent.
//
// Mutations are serialized: the mutation lock is held across the persist
// call, so the persisted copy is always the last committed list. Readers
// never wait on persistence.
type CatalogStore struct {
	persistence Persistence
	clock       Clock
	idgen       IDGenerator
	logger      Logger
	autosave    *debouncer

	writeMu sync.Mutex

	mu           sync.RWMutex
	playgrounds  []*Playground
	loading      bool
	err          *AppError
	sortBy       SortOption
	filterBy     Filter
	lastSaved    time.Time
	loaded       bool
	closed       bool
	observers    map[int]func(StoreState)
	nextObserver int
}

// NewCatalogStore creates an empty store. Call Load to populate it from
// persistence and Close to tear it down.
func NewCatalogStore(persistence Persistence, clock Clock, idgen IDGenerator, logger Logger, opts StoreOptions) *CatalogStore {
	delay := opts.AutoSaveDelay
	if delay == 0 {
		delay = DefaultAutoSaveDelay
	}

	s := &CatalogStore{
		persistence: persistence,
		clock:       clock,
		idgen:       idgen,
		logger:      logger,
		playgrounds: []*Playground{},
		sortBy:      SortByDateAdded,
		observers:   make(map[int]func(StoreState)),
	}
	s.autosave = newDebouncer(delay, s.autoSave)
	return s
}

// Create validates draft, assigns its identity and timestamps, and appends
// it to the catalog. Like Update and Delete it fails until Load has
// succeeded.
func (s *CatalogStore) Create(ctx context.Context, draft Draft) (*Playground, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.beginMutation(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	p := &Playground{
		ID:           s.idgen.New(),
		Name:         draft.Name,
		Location:     draft.Location.clone(),
		Rating:       draft.Rating,
		Notes:        draft.Notes,
		Photos:       slices.Clone(draft.Photos),
		DateAdded:    now,
		DateModified: now,
	}
	if p.Photos == nil {
		p.Photos = []string{}
	}

	if err := Validate(p); err != nil {
		return nil, s.fail(err)
	}

	next := append(s.current(), p)
	if err := s.persist(ctx, next); err != nil {
		return nil, s.fail(NewSystemError("failed to save new playground", err))
	}

	s.commit(next, true)
	s.logger.Info("playground created", "id", p.ID, "name", p.Name)
	return p.Clone(), nil
}

// Update merges u onto the playground with the given id, validates the
// merged record and stamps a new modification time.
func (s *CatalogStore) Update(ctx context.Context, id string, u Update) (*Playground, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.beginMutation(); err != nil {
		return nil, err
	}

	list := s.current()
	i := indexOf(list, id)
	if i < 0 {
		return nil, s.fail(newNotFoundError(id))
	}

	existing := list[i]
	merged := u.apply(existing)
	merged.ID = existing.ID
	merged.DateAdded = existing.DateAdded
	merged.DateModified = s.clock.Now()

	if err := Validate(merged); err != nil {
		return nil, s.fail(err)
	}

	list[i] = merged
	if err := s.persist(ctx, list); err != nil {
		return nil, s.fail(NewSystemError("failed to save playground update", err))
	}

	s.commit(list, true)
	s.logger.Info("playground updated", "id", id)
	return merged.Clone(), nil
}

// Delete removes the playground with the given id. Its photo files are not
// touched here; see Coordinator.DeletePlayground.
func (s *CatalogStore) Delete(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.beginMutation(); err != nil {
		return err
	}

	list := s.current()
	i := indexOf(list, id)
	if i < 0 {
		return s.fail(newNotFoundError(id))
	}

	next := slices.Delete(list, i, i+1)
	if err := s.persist(ctx, next); err != nil {
		return s.fail(NewSystemError("failed to save after delete", err))
	}

	s.commit(next, true)
	s.logger.Info("playground deleted", "id", id)
	return nil
}

// Load replaces the in-memory catalog with the persisted one. On failure the
// prior catalog is kept.
func (s *CatalogStore) Load(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.load(ctx)
}

// replaceFrom runs replace against persistence and reloads the result, with
// mutations and the pending auto-save held off so the replaced catalog cannot
// be overwritten by the old one in between.
func (s *CatalogStore) replaceFrom(ctx context.Context, replace func(context.Context) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.isClosed() {
		return NewSystemError("catalog store is closed", nil)
	}
	s.autosave.Cancel()
	if err := replace(ctx); err != nil {
		return err
	}
	return s.load(ctx)
}

// load is Load with writeMu held.
func (s *CatalogStore) load(ctx context.Context) error {
	if err := s.begin(); err != nil {
		return err
	}

	list, err := s.persistence.Load(ctx)
	if err != nil {
		var appErr *AppError
		if errors.As(err, &appErr) && appErr.Kind == KindStorage {
			loadErr := *appErr
			loadErr.Recoverable = false
			return s.fail(&loadErr)
		}
		return s.fail(NewStorageError("failed to load playgrounds", false, err))
	}
	if list == nil {
		list = []*Playground{}
	}
	if i := slices.Index(list, nil); i >= 0 {
		return s.fail(NewStorageError(fmt.Sprintf("stored playground %d is empty", i), false, nil))
	}

	s.commit(clonePlaygrounds(list), false)
	s.mu.Lock()
	s.loaded = true
	s.mu.Unlock()
	s.logger.Debug("catalog loaded", "count", len(list))
	return nil
}

// ForceSave persists the current catalog immediately, bypassing the
// auto-save debounce.
func (s *CatalogStore) ForceSave(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.isClosed() {
		return NewSystemError("catalog store is closed", nil)
	}

	s.autosave.Cancel()
	if err := s.persist(ctx, s.current()); err != nil {
		return err
	}
	s.logger.Debug("catalog saved")
	return nil
}

// SetSortBy selects the sort order of Visible.
func (s *CatalogStore) SetSortBy(option SortOption) {
	s.mu.Lock()
	s.sortBy = option
	s.mu.Unlock()
	s.notify()
}

// SetFilterBy selects the filter of Visible.
func (s *CatalogStore) SetFilterBy(filter Filter) {
	s.mu.Lock()
	s.filterBy = cloneFilter(filter)
	s.mu.Unlock()
	s.notify()
}

// ClearError resets the last operation error.
func (s *CatalogStore) ClearError() {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()
	s.notify()
}

// State returns a snapshot of the store.
func (s *CatalogStore) State() StoreState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StoreState{
		Playgrounds: clonePlaygrounds(s.playgrounds),
		Loading:     s.loading,
		Error:       s.err,
		SortBy:      s.sortBy,
		FilterBy:    cloneFilter(s.filterBy),
	}
}

// Playgrounds returns a copy of the catalog in insertion order.
func (s *CatalogStore) Playgrounds() []*Playground {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePlaygrounds(s.playgrounds)
}

// Get returns a copy of the playground with the given id.
func (s *CatalogStore) Get(id string) (*Playground, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := indexOf(s.playgrounds, id); i >= 0 {
		return s.playgrounds[i].Clone(), true
	}
	return nil, false
}

// ActiveIDs returns the ids of every live playground.
func (s *CatalogStore) ActiveIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, len(s.playgrounds))
	for i, p := range s.playgrounds {
		ids[i] = p.ID
	}
	return ids
}

// Visible projects the catalog with the current sort and filter.
func (s *CatalogStore) Visible(ref *Coordinates) []*Playground {
	state := s.State()
	return Project(state.Playgrounds, state.SortBy, state.FilterBy, ref)
}

// Loaded reports whether the catalog has been loaded from persistence.
func (s *CatalogStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// LastSaved returns when the catalog was last persisted by this store.
func (s *CatalogStore) LastSaved() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSaved
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned function unregisters it.
func (s *CatalogStore) Subscribe(fn func(StoreState)) func() {
	s.mu.Lock()
	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Close cancels the pending auto-save and rejects further operations.
func (s *CatalogStore) Close() error {
	s.autosave.Stop()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.closed = true
	s.observers = make(map[int]func(StoreState))
	s.mu.Unlock()
	return nil
}

func (s *CatalogStore) autoSave() {
	if s.isClosed() {
		return
	}
	if err := s.ForceSave(context.Background()); err != nil {
		s.logger.Warn("auto-save failed", "error", err)
	}
}

// begin marks an operation in flight. The caller holds writeMu.
func (s *CatalogStore) begin() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return NewSystemError("catalog store is closed", nil)
	}
	s.loading = true
	s.err = nil
	s.mu.Unlock()
	s.notify()
	return nil
}

// beginMutation is begin for Create, Update and Delete. Until a Load
// succeeds the in-memory catalog does not reflect persistence, and saving it
// would overwrite the stored catalog.
func (s *CatalogStore) beginMutation() error {
	if err := s.begin(); err != nil {
		return err
	}
	if !s.Loaded() {
		return s.fail(NewSystemError("catalog has not been loaded", nil))
	}
	return nil
}

// fail records err, stamped by the store clock, as the store error and ends
// the operation.
func (s *CatalogStore) fail(err error) *AppError {
	stamped := *asAppError(err)
	stamped.Timestamp = s.clock.Now()
	appErr := &stamped

	s.mu.Lock()
	s.err = appErr
	s.loading = false
	s.mu.Unlock()
	s.notify()

	s.logger.Warn("catalog operation failed", "kind", string(appErr.Kind), "error", appErr.Error())
	return appErr
}

// commit swaps in list and ends the operation. The caller holds writeMu.
func (s *CatalogStore) commit(list []*Playground, mutated bool) {
	s.mu.Lock()
	s.playgrounds = list
	s.loading = false
	s.mu.Unlock()
	s.notify()

	if mutated {
		s.autosave.Trigger()
	}
}

// persist saves list and records the save time. The caller holds writeMu.
func (s *CatalogStore) persist(ctx context.Context, list []*Playground) error {
	if err := s.persistence.Save(ctx, list); err != nil {
		return err
	}
	s.mu.Lock()
	s.lastSaved = s.clock.Now()
	s.mu.Unlock()
	return nil
}

// current returns a fresh slice of the committed records. Records are never
// mutated in place, so sharing the pointers is safe.
func (s *CatalogStore) current() []*Playground {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.playgrounds)
}

func (s *CatalogStore) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *CatalogStore) notify() {
	s.mu.RLock()
	if len(s.observers) == 0 {
		s.mu.RUnlock()
		return
	}
	fns := make([]func(StoreState), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	state := s.State()
	for _, fn := range fns {
		fn(state)
	}
}

func indexOf(list []*Playground, id string) int {
	return slices.IndexFunc(list, func(p *Playground) bool { return p.ID == id })
}

func cloneFilter(f Filter) Filter {
	c := Filter{Ratings: slices.Clone(f.Ratings)}
	if f.HasPhotos != nil {
		v := *f.HasPhotos
		c.HasPhotos = &v
	}
	return c
}
