package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults applied when a duration or schedule is left empty.
const (
	DefaultAutoSaveDelay       = "5s"
	DefaultMaintenanceSchedule = "@every 1h"
	DefaultSaveInterval        = "5s"
	DefaultLogLevel            = "info"
)

// Config represents the main configuration for playmap.
type Config struct {
	DataDir     string            `toml:"data_dir"`
	LogDir      string            `toml:"log_dir"`
	LogLevel    string            `toml:"log_level"` // "debug", "info" (default), "warn" or "error"
	Storage     StorageConfig     `toml:"storage"`
	Photos      PhotosConfig      `toml:"photos"`
	Store       StoreConfig       `toml:"store"`
	Maintenance MaintenanceConfig `toml:"maintenance"`
	Backup      BackupConfig      `toml:"backup"`
}

// StorageConfig selects the key-value slot backend holding the catalog.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StorageConfig struct {
	Type string `toml:"type"`          // "memory", "filesystem" or "sqlite"
	Dir  string `toml:"dir,omitempty"` // only used for filesystem and sqlite
}

// PhotosConfig locates the photo and thumbnail directories.
type PhotosConfig struct {
	PhotoDir     string `toml:"photo_dir"`
	ThumbnailDir string `toml:"thumbnail_dir"`
}

// StoreConfig tunes the in-memory catalog store.
type StoreConfig struct {
	// AutoSaveDelay is a Go duration string; "0s" or negative disables auto-save.
	AutoSaveDelay string `toml:"auto_save_delay"`
}

// MaintenanceConfig controls scheduled maintenance.
type MaintenanceConfig struct {
	// Schedule is a cron spec ("@every 1h", "0 3 * * *"). Empty disables it.
	Schedule string `toml:"schedule"`
	// SaveInterval is how stale the last save may get before maintenance
	// forces one.
	SaveInterval string `toml:"save_interval"`
}

// BackupConfig configures backup export and import.
type BackupConfig struct {
	Vault      VaultConfig      `toml:"vault"`
	Encryption EncryptionConfig `toml:"encryption"`
}

// VaultConfig represents configuration for a backup vault.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type VaultConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`
}

// EncryptionConfig selects how sealed backups are protected.
type EncryptionConfig struct {
	Type string `toml:"type"` // "age" (default), "test" or "none"
}

// NewConfig creates a new Config rooted at baseDir with default settings.
func NewConfig(baseDir string) *Config {
	return &Config{
		DataDir:  baseDir,
		LogDir:   filepath.Join(baseDir, "log"),
		LogLevel: DefaultLogLevel,
		Storage: StorageConfig{
			Type: "sqlite",
			Dir:  filepath.Join(baseDir, "db"),
		},
		Photos: PhotosConfig{
			PhotoDir:     filepath.Join(baseDir, "photos"),
			ThumbnailDir: filepath.Join(baseDir, "thumbnails"),
		},
		Store: StoreConfig{AutoSaveDelay: DefaultAutoSaveDelay},
		Maintenance: MaintenanceConfig{
			Schedule:     DefaultMaintenanceSchedule,
			SaveInterval: DefaultSaveInterval,
		},
		Backup: BackupConfig{
			Vault: VaultConfig{
				Type:        "filesystem",
				Name:        "local",
				FSVaultRoot: filepath.Join(baseDir, "backups"),
			},
			Encryption: EncryptionConfig{Type: "age"},
		},
	}
}

// AutoSaveDelayDuration parses AutoSaveDelay, defaulting when empty.
func (s StoreConfig) AutoSaveDelayDuration() (time.Duration, error) {
	return parseDuration("store.auto_save_delay", s.AutoSaveDelay, DefaultAutoSaveDelay)
}

// SaveIntervalDuration parses SaveInterval, defaulting when empty.
func (m MaintenanceConfig) SaveIntervalDuration() (time.Duration, error) {
	return parseDuration("maintenance.save_interval", m.SaveInterval, DefaultSaveInterval)
}

// Validate checks the tagged unions and duration strings.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "memory":
	case "filesystem", "sqlite":
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage type %s requires dir to be set", c.Storage.Type)
		}
	default:
		return fmt.Errorf("unknown storage type: %q", c.Storage.Type)
	}

	if c.Photos.PhotoDir == "" || c.Photos.ThumbnailDir == "" {
		return fmt.Errorf("photos.photo_dir and photos.thumbnail_dir are required")
	}

	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %q", c.LogLevel)
	}

	if _, err := c.Store.AutoSaveDelayDuration(); err != nil {
		return err
	}
	if _, err := c.Maintenance.SaveIntervalDuration(); err != nil {
		return err
	}

	switch c.Backup.Vault.Type {
	case "", "memory":
	case "filesystem":
		if c.Backup.Vault.FSVaultRoot == "" {
			return fmt.Errorf("filesystem vault requires fs_vault_root to be set")
		}
	case "s3":
		if c.Backup.Vault.S3Bucket == "" {
			return fmt.Errorf("s3 vault requires s3_bucket to be set")
		}
	default:
		return fmt.Errorf("unknown vault type: %q", c.Backup.Vault.Type)
	}

	switch c.Backup.Encryption.Type {
	case "", "age", "test", "none":
	default:
		return fmt.Errorf("unknown encryption type: %q", c.Backup.Encryption.Type)
	}
	return nil
}

func parseDuration(field, value, def string) (time.Duration, error) {
	if value == "" {
		value = def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	return d, nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads and validates a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Init writes cfg to a new config file at path. An existing file is never
// overwritten.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}
