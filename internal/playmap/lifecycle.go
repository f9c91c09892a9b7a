package playmap

import (
	"context"
	"sync"
	"time"
)

// AppState is the host application's foreground state.
type AppState string

const (
	StateActive     AppState = "active"
	StateBackground AppState = "background"
	StateInactive   AppState = "inactive"
)

// StorageUsage summarizes on-device storage used by the catalog.
type StorageUsage struct {
	TotalBytes int64
	PhotoCount int
	PhotoBytes int64
	DataBytes  int64
}

// MaintenanceReport is the outcome of a maintenance pass.
type MaintenanceReport struct {
	OrphansRemoved int
	Usage          StorageUsage
	Saved          bool
}

// Coordinator reacts to application state transitions: it reloads on
// foreground, flushes before suspension, and runs periodic maintenance.
// None of its lifecycle methods return errors; failures are logged.
type Coordinator struct {
	store        *CatalogStore
	tracker      *PhotoTracker
	persistence  Persistence
	clock        Clock
	logger       Logger
	saveInterval time.Duration

	mu    sync.Mutex
	state AppState
}

// NewCoordinator creates a coordinator. saveInterval is how stale the last
// save may be before maintenance forces one; zero selects
// DefaultAutoSaveDelay.
func NewCoordinator(store *CatalogStore, tracker *PhotoTracker, persistence Persistence, clock Clock, logger Logger, saveInterval time.Duration) *Coordinator {
	if saveInterval <= 0 {
		saveInterval = DefaultAutoSaveDelay
	}
	return &Coordinator{
		store:        store,
		tracker:      tracker,
		persistence:  persistence,
		clock:        clock,
		logger:       logger,
		saveInterval: saveInterval,
	}
}

// State returns the last state handled.
func (c *Coordinator) State() AppState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// HandleTransition runs the work for entering next. Re-entering the current
// state does nothing.
func (c *Coordinator) HandleTransition(ctx context.Context, next AppState) {
	c.mu.Lock()
	prev := c.state
	c.state = next
	c.mu.Unlock()

	if prev == next {
		return
	}
	c.logger.Debug("app state changed", "from", string(prev), "to", string(next))

	switch next {
	case StateActive:
		c.onForeground(ctx)
	case StateBackground, StateInactive:
		c.flush(ctx)
	default:
		c.logger.Warn("unknown app state", "state", string(next))
	}
}

// RunMaintenance sweeps orphaned photos, gathers storage statistics, and
// saves the catalog if the last save is older than the save interval.
func (c *Coordinator) RunMaintenance(ctx context.Context) MaintenanceReport {
	var report MaintenanceReport

	if c.store.Loaded() {
		report.OrphansRemoved = c.tracker.SweepOrphans(ctx, c.store.ActiveIDs())
	} else {
		c.logger.Warn("skipping orphan sweep: catalog not loaded")
	}
	report.Usage = c.usage(ctx)

	if c.store.Loaded() && c.clock.Now().Sub(c.store.LastSaved()) >= c.saveInterval {
		if err := c.store.ForceSave(ctx); err != nil {
			c.logger.Error("maintenance save failed", "error", err)
		} else {
			report.Saved = true
		}
	}

	c.logger.Info("maintenance complete",
		"orphans_removed", report.OrphansRemoved,
		"photos", report.Usage.PhotoCount,
		"total_bytes", report.Usage.TotalBytes,
	)
	return report
}

// DeletePlayground removes the record and then, as a separate best-effort
// step, its photo files. A crash between the two leaves orphans that the
// next sweep removes.
func (c *Coordinator) DeletePlayground(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	c.tracker.DeleteAllForPlayground(ctx, id)
	return nil
}

func (c *Coordinator) onForeground(ctx context.Context) {
	if err := c.store.Load(ctx); err != nil {
		c.logger.Error("reload on foreground failed", "error", err)
		return
	}
	c.tracker.SweepOrphans(ctx, c.store.ActiveIDs())
}

// flush saves the catalog. An unloaded store is never flushed, so a failed
// or skipped load cannot overwrite the persisted catalog with an empty one.
func (c *Coordinator) flush(ctx context.Context) {
	if !c.store.Loaded() {
		c.logger.Warn("skipping flush: catalog not loaded")
		return
	}
	if err := c.store.ForceSave(ctx); err != nil {
		c.logger.Error("flush before suspension failed", "error", err)
	}
}

func (c *Coordinator) usage(ctx context.Context) StorageUsage {
	var usage StorageUsage

	photos, err := c.tracker.Usage(ctx)
	if err != nil {
		c.logger.Warn("photo usage unavailable", "error", err)
	} else {
		usage.PhotoCount = photos.PhotoCount
		usage.PhotoBytes = photos.TotalBytes
	}

	dataBytes, err := c.persistence.DataSize(ctx)
	if err != nil {
		c.logger.Warn("data size unavailable", "error", err)
	} else {
		usage.DataBytes = dataBytes
	}

	usage.TotalBytes = usage.PhotoBytes + usage.DataBytes
	return usage
}
