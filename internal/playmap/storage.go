package playmap

import (
	"context"
	"io"
	"time"
)

// KeyValueStore is a string slot store. The catalog occupies a single fixed
// key; implementations must make Set durable before returning.
type KeyValueStore interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Close releases any underlying resources.
	Close() error
}

// Persistence is the durable home of the catalog as seen by the store.
type Persistence interface {
	// Save replaces the persisted catalog with list.
	Save(ctx context.Context, list []*Playground) error

	// Load returns the persisted catalog. A never-written catalog is empty.
	Load(ctx context.Context) ([]*Playground, error)

	// DataSize returns the byte length of the serialized catalog.
	DataSize(ctx context.Context) (int64, error)
}

// Archive exports and imports the serialized catalog as text.
type Archive interface {
	Backup(ctx context.Context) (string, error)
	Restore(ctx context.Context, blob string) error
	Clear(ctx context.Context) error
}

// FileEntry describes a file in one of the photo directories.
type FileEntry struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// PhotoFilesystem abstracts access to the photo and thumbnail directories so
// tests never touch the real filesystem.
type PhotoFilesystem interface {
	// List returns the regular files directly inside dir. A missing dir
	// yields an empty list.
	List(dir string) ([]FileEntry, error)

	// Stat returns the entry for path. The error satisfies
	// errors.Is(err, fs.ErrNotExist) when the file is missing.
	Stat(path string) (FileEntry, error)

	// Remove deletes path. The error satisfies errors.Is(err,
	// fs.ErrNotExist) when the file is missing.
	Remove(path string) error

	// Copy copies the file at src to dst, replacing dst.
	Copy(src, dst string) error

	// MkdirAll creates dir and any missing parents.
	MkdirAll(dir string) error
}

// BackupVault stores exported catalog backups by name.
type BackupVault interface {
	// PutBackup stores size bytes read from r under name.
	PutBackup(ctx context.Context, name string, r io.Reader, size int64) error

	// GetBackup writes the backup stored under name to w.
	GetBackup(ctx context.Context, name string, w io.Writer) error

	// ListBackups returns the stored backup names in ascending order.
	ListBackups(ctx context.Context) ([]string, error)

	// ValidateSetup verifies that the vault is accessible.
	ValidateSetup(ctx context.Context) error
}

// Sealer protects backups at rest with a passphrase.
type Sealer interface {
	// Seal encrypts data read from r and writes ciphertext to w.
	Seal(passphrase string, r io.Reader, w io.Writer) error

	// Open decrypts ciphertext read from r and writes plaintext to w.
	// A wrong passphrase is an error.
	Open(passphrase string, r io.Reader, w io.Writer) error

	// Extension is appended to sealed backup names, e.g. ".age".
	Extension() string
}
