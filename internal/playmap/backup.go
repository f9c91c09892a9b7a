package playmap

import (
	"bytes"
	"context"
	"fmt"
	"strings"
)

// backupPrefix and backupExt frame vault object names:
//
//	playgrounds-<UTC timestamp>.json[<sealer extension>]
const (
	backupPrefix     = "playgrounds-"
	backupExt        = ".json"
	backupTimeLayout = "20060102T150405Z"
)

// BackupService exports the serialized catalog to a vault and imports it back.
// It is a one-way copy of a single installation's data, not a sync.
type BackupService struct {
	archive Archive
	vault   BackupVault
	sealer  Sealer
	store   *CatalogStore
	clock   Clock
	logger  Logger
}

// NewBackupService creates a backup service. sealer may be nil, in which case
// only unsealed backups can be written or read.
func NewBackupService(archive Archive, vault BackupVault, sealer Sealer, store *CatalogStore, clock Clock, logger Logger) *BackupService {
	return &BackupService{
		archive: archive,
		vault:   vault,
		sealer:  sealer,
		store:   store,
		clock:   clock,
		logger:  logger,
	}
}

// Export writes the current persisted catalog to the vault and returns the
// backup name. A non-empty passphrase seals the backup.
func (b *BackupService) Export(ctx context.Context, passphrase string) (string, error) {
	if err := b.store.ForceSave(ctx); err != nil {
		return "", err
	}

	text, err := b.archive.Backup(ctx)
	if err != nil {
		return "", err
	}

	name := backupPrefix + b.clock.Now().UTC().Format(backupTimeLayout) + backupExt
	payload := []byte(text)

	if passphrase != "" {
		if b.sealer == nil {
			return "", NewSystemError("backup sealing is not configured", nil)
		}
		var sealed bytes.Buffer
		if err := b.sealer.Seal(passphrase, strings.NewReader(text), &sealed); err != nil {
			return "", NewSystemError("failed to seal backup", err)
		}
		payload = sealed.Bytes()
		name += b.sealer.Extension()
	}

	if err := b.vault.PutBackup(ctx, name, bytes.NewReader(payload), int64(len(payload))); err != nil {
		return "", NewStorageError("failed to store backup", true, err)
	}

	b.logger.Info("backup exported", "name", name, "bytes", len(payload), "sealed", passphrase != "")
	return name, nil
}

// List returns the names of the backups in the vault, oldest first.
func (b *BackupService) List(ctx context.Context) ([]string, error) {
	names, err := b.vault.ListBackups(ctx)
	if err != nil {
		return nil, NewStorageError("failed to list backups", true, err)
	}

	backups := make([]string, 0, len(names))
	for _, name := range names {
		if strings.HasPrefix(name, backupPrefix) {
			backups = append(backups, name)
		}
	}
	return backups, nil
}

// Import replaces the catalog with the named backup and reloads the store.
// Sealed backups need the passphrase they were exported with.
func (b *BackupService) Import(ctx context.Context, name, passphrase string) error {
	var raw bytes.Buffer
	if err := b.vault.GetBackup(ctx, name, &raw); err != nil {
		return NewStorageError(fmt.Sprintf("failed to read backup %s", name), true, err)
	}

	text := raw.String()
	if b.IsSealed(name) {
		if passphrase == "" {
			return NewValidationError("passphrase", "backup is sealed and needs a passphrase")
		}
		var opened bytes.Buffer
		if err := b.sealer.Open(passphrase, &raw, &opened); err != nil {
			return NewStorageError("failed to open sealed backup", true, err)
		}
		text = opened.String()
	}

	if err := b.store.replaceFrom(ctx, func(ctx context.Context) error {
		return b.archive.Restore(ctx, text)
	}); err != nil {
		return err
	}

	b.logger.Info("backup imported", "name", name, "playgrounds", len(b.store.ActiveIDs()))
	return nil
}

// Reset wipes the persisted catalog and reloads the now-empty store.
func (b *BackupService) Reset(ctx context.Context) error {
	if err := b.store.replaceFrom(ctx, b.archive.Clear); err != nil {
		return err
	}
	b.logger.Warn("catalog reset")
	return nil
}

// IsSealed reports whether name is a sealed backup.
func (b *BackupService) IsSealed(name string) bool {
	return b.sealer != nil && b.sealer.Extension() != "" && strings.HasSuffix(name, b.sealer.Extension())
}
