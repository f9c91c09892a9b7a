package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"playmap/internal/config"
	"playmap/internal/encryption"
	"playmap/internal/kv"
	"playmap/internal/persist"
	"playmap/internal/photofs"
	"playmap/internal/playmap"
	"playmap/internal/vault"
)

// PlaymapApp is the application layer between the CLI and the catalog.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string paths, and flushes and closes storage on Close.
type PlaymapApp struct {
	cfg     *config.Config
	kv      playmap.KeyValueStore
	adapter *persist.Adapter
	store   *playmap.CatalogStore
	tracker *playmap.PhotoTracker
	coord   *playmap.Coordinator
	vault   playmap.BackupVault
	backups *playmap.BackupService
	logger  playmap.Logger
	logFile *os.File
	closed  bool
}

// NewPlaymapApp creates a fully wired PlaymapApp from the given config.
// The catalog is not loaded until Activate. The caller must call Close when
// done.
func NewPlaymapApp(ctx context.Context, cfg *config.Config) (*PlaymapApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	autoSaveDelay, err := cfg.Store.AutoSaveDelayDuration()
	if err != nil {
		return nil, err
	}
	if autoSaveDelay == 0 {
		autoSaveDelay = -1
	}
	saveInterval, err := cfg.Maintenance.SaveIntervalDuration()
	if err != nil {
		return nil, err
	}

	session := time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, session, level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	kvStore, err := kv.NewStoreFromConfig(cfg.Storage)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating storage: %w", err)
	}

	v, err := vault.NewVaultFromConfig(ctx, cfg.Backup.Vault)
	if err != nil {
		kvStore.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating vault: %w", err)
	}

	sealer, err := encryption.NewSealerFromConfig(cfg.Backup.Encryption)
	if err != nil {
		kvStore.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating sealer: %w", err)
	}

	clock := playmap.RealClock{}
	adapter := persist.NewAdapter(kvStore, clock, logger)
	store := playmap.NewCatalogStore(adapter, clock, playmap.UUIDGenerator{}, logger, playmap.StoreOptions{
		AutoSaveDelay: autoSaveDelay,
	})
	tracker := playmap.NewPhotoTracker(photofs.NewOSPhotoFilesystem(), cfg.Photos.PhotoDir, cfg.Photos.ThumbnailDir, clock, logger)
	coord := playmap.NewCoordinator(store, tracker, adapter, clock, logger, saveInterval)

	return &PlaymapApp{
		cfg:     cfg,
		kv:      kvStore,
		adapter: adapter,
		store:   store,
		tracker: tracker,
		coord:   coord,
		vault:   v,
		backups: playmap.NewBackupService(adapter, v, sealer, store, clock, logger),
		logger:  logger,
		logFile: logFile,
	}, nil
}

// Activate brings the app to the foreground, loading the catalog and
// sweeping orphaned photos. It fails if the catalog could not be loaded.
func (a *PlaymapApp) Activate(ctx context.Context) error {
	a.coord.HandleTransition(ctx, playmap.StateActive)
	if !a.store.Loaded() {
		if err := a.store.State().Error; err != nil {
			return err
		}
		return fmt.Errorf("catalog could not be loaded")
	}
	return nil
}

// Suspend moves the app to the background, flushing the catalog.
func (a *PlaymapApp) Suspend(ctx context.Context) {
	a.coord.HandleTransition(ctx, playmap.StateBackground)
}

// Store returns the catalog store.
func (a *PlaymapApp) Store() *playmap.CatalogStore {
	return a.store
}

// Tracker returns the photo tracker.
func (a *PlaymapApp) Tracker() *playmap.PhotoTracker {
	return a.tracker
}

// Config returns the config the app was built from.
func (a *PlaymapApp) Config() *config.Config {
	return a.cfg
}

// Logger returns the app logger.
func (a *PlaymapApp) Logger() playmap.Logger {
	return a.logger
}

// AddPlayground creates a playground.
func (a *PlaymapApp) AddPlayground(ctx context.Context, draft playmap.Draft) (*playmap.Playground, error) {
	return a.store.Create(ctx, draft)
}

// UpdatePlayground applies a partial update.
func (a *PlaymapApp) UpdatePlayground(ctx context.Context, id string, u playmap.Update) (*playmap.Playground, error) {
	return a.store.Update(ctx, id, u)
}

// DeletePlayground removes a playground and its photo files.
func (a *PlaymapApp) DeletePlayground(ctx context.Context, id string) error {
	return a.coord.DeletePlayground(ctx, id)
}

// ListPlaygrounds returns the catalog filtered and sorted. ref is the
// reference point for distance sorting and may be nil.
func (a *PlaymapApp) ListPlaygrounds(sortBy playmap.SortOption, filter playmap.Filter, ref *playmap.Coordinates) []*playmap.Playground {
	a.store.SetSortBy(sortBy)
	a.store.SetFilterBy(filter)
	return a.store.Visible(ref)
}

// GetPlayground returns the playground with the given id.
func (a *PlaymapApp) GetPlayground(id string) (*playmap.Playground, error) {
	p, ok := a.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("playground %s: %w", id, playmap.ErrNotFound)
	}
	return p, nil
}

// AddPhoto copies the file at rawPath (and the optional thumbnail) into the
// photo directory and attaches it to the playground. The copied files are
// removed again if the record cannot be updated.
func (a *PlaymapApp) AddPhoto(ctx context.Context, id, rawPath, rawThumbnail string) (string, error) {
	p, err := a.GetPlayground(id)
	if err != nil {
		return "", err
	}

	capture, err := resolveCapture(rawPath, rawThumbnail)
	if err != nil {
		return "", err
	}

	uri, err := a.tracker.AddPhoto(ctx, id, capture)
	if err != nil {
		return "", err
	}

	photos := append(slices.Clone(p.Photos), uri)
	if _, err := a.store.Update(ctx, id, playmap.Update{Photos: &photos}); err != nil {
		a.tracker.DeleteFile(ctx, uri)
		return "", err
	}
	return uri, nil
}

// RemovePhoto detaches a photo from the playground and deletes its files.
func (a *PlaymapApp) RemovePhoto(ctx context.Context, id, uri string) error {
	p, err := a.GetPlayground(id)
	if err != nil {
		return err
	}

	uri = playmap.PathToURI(uri)
	i := slices.Index(p.Photos, uri)
	if i < 0 {
		return playmap.NewValidationError("photos", fmt.Sprintf("photo %s is not attached to playground %s", uri, id))
	}

	photos := slices.Delete(slices.Clone(p.Photos), i, i+1)
	if _, err := a.store.Update(ctx, id, playmap.Update{Photos: &photos}); err != nil {
		return err
	}
	a.tracker.DeleteFile(ctx, uri)
	return nil
}

// ListPhotos returns the stored photos of a playground, newest first.
func (a *PlaymapApp) ListPhotos(ctx context.Context, id string) ([]playmap.PhotoData, error) {
	if _, err := a.GetPlayground(id); err != nil {
		return nil, err
	}
	return a.tracker.PhotosForPlayground(ctx, id)
}

// RunMaintenance runs one maintenance pass.
func (a *PlaymapApp) RunMaintenance(ctx context.Context) playmap.MaintenanceReport {
	return a.coord.RunMaintenance(ctx)
}

// NewScheduler creates a maintenance scheduler using the configured schedule.
func (a *PlaymapApp) NewScheduler() (*MaintenanceScheduler, error) {
	schedule := a.cfg.Maintenance.Schedule
	if schedule == "" {
		schedule = config.DefaultMaintenanceSchedule
	}
	return NewMaintenanceScheduler(schedule, a.coord, a.logger)
}

// ExportBackup checks the vault and exports the catalog to it. A non-empty
// passphrase seals the backup.
func (a *PlaymapApp) ExportBackup(ctx context.Context, passphrase string) (string, error) {
	if err := a.vault.ValidateSetup(ctx); err != nil {
		return "", fmt.Errorf("vault not ready: %w", err)
	}
	return a.backups.Export(ctx, passphrase)
}

// ListBackups returns the backups in the vault.
func (a *PlaymapApp) ListBackups(ctx context.Context) ([]string, error) {
	return a.backups.List(ctx)
}

// ImportBackup replaces the catalog with the named backup.
func (a *PlaymapApp) ImportBackup(ctx context.Context, name, passphrase string) error {
	return a.backups.Import(ctx, name, passphrase)
}

// BackupIsSealed reports whether the named backup needs a passphrase.
func (a *PlaymapApp) BackupIsSealed(name string) bool {
	return a.backups.IsSealed(name)
}

// Reset wipes the catalog.
func (a *PlaymapApp) Reset(ctx context.Context) error {
	return a.backups.Reset(ctx)
}

// Close closes the store and storage. An activated app should be suspended
// first so the catalog is flushed.
func (a *PlaymapApp) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	var firstErr error
	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing store: %w", err)
	}
	if err := a.kv.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing storage: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

func resolveCapture(rawPath, rawThumbnail string) (playmap.CaptureResult, error) {
	path, err := filepath.Abs(playmap.URIToPath(rawPath))
	if err != nil {
		return playmap.CaptureResult{}, fmt.Errorf("resolving path: %w", err)
	}
	capture := playmap.CaptureResult{URI: playmap.PathToURI(path)}

	if rawThumbnail != "" {
		thumb, err := filepath.Abs(playmap.URIToPath(rawThumbnail))
		if err != nil {
			return playmap.CaptureResult{}, fmt.Errorf("resolving thumbnail path: %w", err)
		}
		capture.ThumbnailURI = playmap.PathToURI(thumb)
	}
	return capture, nil
}
