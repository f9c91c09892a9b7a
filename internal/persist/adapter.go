package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"playmap/internal/playmap"
)

// StorageKey is the slot holding the serialized catalog.
const StorageKey = "@playgrounds/data"

// StoredData is the envelope written to the slot.
type StoredData struct {
	Playgrounds  []*playmap.Playground `json:"playgrounds"`
	Version      string                `json:"version"`
	LastModified time.Time             `json:"lastModified"`
}

// Adapter persists the catalog as a single JSON envelope in a key-value slot
// and upgrades older envelopes on read.
type Adapter struct {
	kv     playmap.KeyValueStore
	clock  playmap.Clock
	logger playmap.Logger
}

var (
	_ playmap.Persistence = (*Adapter)(nil)
	_ playmap.Archive     = (*Adapter)(nil)
)

// NewAdapter creates an adapter over kv.
func NewAdapter(kv playmap.KeyValueStore, clock playmap.Clock, logger playmap.Logger) *Adapter {
	return &Adapter{kv: kv, clock: clock, logger: logger}
}

// Save replaces the stored envelope with list, stamped with the current
// version and time.
func (a *Adapter) Save(ctx context.Context, list []*playmap.Playground) error {
	text, err := a.encode(list)
	if err != nil {
		return err
	}
	if err := a.kv.Set(ctx, StorageKey, text); err != nil {
		return playmap.NewStorageError("failed to save playgrounds", true, err)
	}
	return nil
}

// Load returns the stored catalog. An empty slot is an empty catalog. A stale
// envelope is migrated and written back; a failed write-back is logged and the
// migrated catalog is still returned.
func (a *Adapter) Load(ctx context.Context) ([]*playmap.Playground, error) {
	text, ok, err := a.kv.Get(ctx, StorageKey)
	if err != nil {
		return nil, playmap.NewStorageError("failed to read playgrounds", false, err)
	}
	if !ok || text == "" {
		return []*playmap.Playground{}, nil
	}

	var probe struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal([]byte(text), &probe); err != nil {
		return nil, playmap.NewStorageError("stored playgrounds are corrupted", false, err)
	}

	if probe.Version == CurrentVersion {
		var data StoredData
		if err := json.Unmarshal([]byte(text), &data); err != nil {
			return nil, playmap.NewStorageError("stored playgrounds are corrupted", false, err)
		}
		if err := checkRecords(data.Playgrounds); err != nil {
			return nil, playmap.NewStorageError("stored playgrounds are corrupted", false, err)
		}
		return nonNil(data.Playgrounds), nil
	}

	list, err := a.Migrate(ctx, text)
	if err != nil {
		return nil, err
	}

	a.logger.Info("playground data migrated", "from", probe.Version, "to", CurrentVersion, "count", len(list))
	if err := a.Save(ctx, list); err != nil {
		a.logger.Warn("writing migrated playgrounds failed", "error", err)
	}
	return list, nil
}

// Migrate upgrades a serialized envelope of any known version to the current
// schema and returns its playgrounds. An envelope already at the current
// version is returned unchanged.
func (a *Adapter) Migrate(ctx context.Context, raw string) ([]*playmap.Playground, error) {
	doc, err := decodeDocument(raw)
	if err != nil {
		return nil, playmap.NewStorageError("stored playgrounds are corrupted", false, err)
	}

	if err := upgrade(doc); err != nil {
		return nil, playmap.NewStorageError("failed to migrate playgrounds", false, err)
	}

	data, err := documentToStoredData(doc)
	if err != nil {
		return nil, playmap.NewStorageError("migrated playgrounds are corrupted", false, err)
	}
	if err := checkRecords(data.Playgrounds); err != nil {
		return nil, playmap.NewStorageError("migrated playgrounds are corrupted", false, err)
	}
	return nonNil(data.Playgrounds), nil
}

// Clear removes the stored catalog.
func (a *Adapter) Clear(ctx context.Context) error {
	if err := a.kv.Remove(ctx, StorageKey); err != nil {
		return playmap.NewStorageError("failed to clear playgrounds", true, err)
	}
	a.logger.Warn("stored playgrounds cleared")
	return nil
}

// Backup returns the stored envelope as text. With nothing stored it returns
// an empty envelope at the current version.
func (a *Adapter) Backup(ctx context.Context) (string, error) {
	text, ok, err := a.kv.Get(ctx, StorageKey)
	if err != nil {
		return "", playmap.NewStorageError("failed to read playgrounds", false, err)
	}
	if ok && text != "" {
		return text, nil
	}
	return a.encode(nil)
}

// Restore replaces the stored catalog with blob, an envelope produced by
// Backup. Stale envelopes are migrated and every record must validate before
// anything is written.
func (a *Adapter) Restore(ctx context.Context, blob string) error {
	doc, err := decodeDocument(blob)
	if err != nil {
		return playmap.NewStorageError("backup is not valid JSON", false, err)
	}
	if err := checkEnvelope(doc); err != nil {
		return playmap.NewStorageError("backup is not a playground envelope", false, err)
	}
	if err := upgrade(doc); err != nil {
		return playmap.NewStorageError("failed to migrate backup", false, err)
	}

	data, err := documentToStoredData(doc)
	if err != nil {
		return playmap.NewStorageError("backup playgrounds are corrupted", false, err)
	}

	if err := checkRecords(data.Playgrounds); err != nil {
		return playmap.NewStorageError("backup playgrounds are corrupted", false, err)
	}
	for i, p := range data.Playgrounds {
		if err := playmap.Validate(p); err != nil {
			return playmap.NewStorageError(fmt.Sprintf("backup record %d (%s) is invalid", i, p.ID), false, err)
		}
	}

	if err := a.Save(ctx, data.Playgrounds); err != nil {
		return err
	}
	a.logger.Info("playgrounds restored", "count", len(data.Playgrounds))
	return nil
}

// DataSize returns the byte length of the stored envelope.
func (a *Adapter) DataSize(ctx context.Context) (int64, error) {
	text, ok, err := a.kv.Get(ctx, StorageKey)
	if err != nil {
		return 0, playmap.NewStorageError("failed to read playgrounds", false, err)
	}
	if !ok {
		return 0, nil
	}
	return int64(len(text)), nil
}

func (a *Adapter) encode(list []*playmap.Playground) (string, error) {
	data := StoredData{
		Playgrounds:  nonNil(list),
		Version:      CurrentVersion,
		LastModified: a.clock.Now(),
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", playmap.NewSystemError("failed to encode playgrounds", err)
	}
	return string(b), nil
}

func nonNil(list []*playmap.Playground) []*playmap.Playground {
	if list == nil {
		return []*playmap.Playground{}
	}
	return list
}
