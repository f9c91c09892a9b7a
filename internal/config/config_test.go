package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := NewConfig("/home/user/.local/share/playmap")
	original.LogLevel = "debug"
	original.Backup.Vault = VaultConfig{
		Type:     "s3",
		Name:     "offsite",
		S3Bucket: "playmap-backups",
		S3Prefix: "phone/",
		S3Region: "eu-west-1",
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.DataDir != original.DataDir {
		t.Errorf("DataDir = %q, want %q", got.DataDir, original.DataDir)
	}
	if got.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", got.LogLevel, "debug")
	}
	if got.Storage != original.Storage {
		t.Errorf("Storage = %+v, want %+v", got.Storage, original.Storage)
	}
	if got.Photos != original.Photos {
		t.Errorf("Photos = %+v, want %+v", got.Photos, original.Photos)
	}
	if got.Backup.Vault != original.Backup.Vault {
		t.Errorf("Backup.Vault = %+v, want %+v", got.Backup.Vault, original.Backup.Vault)
	}
	if got.Maintenance != original.Maintenance {
		t.Errorf("Maintenance = %+v, want %+v", got.Maintenance, original.Maintenance)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/playmap")

	checks := []struct {
		name string
		got  string
		want string
	}{
		{"LogDir", cfg.LogDir, "/data/playmap/log"},
		{"Storage.Type", cfg.Storage.Type, "sqlite"},
		{"Storage.Dir", cfg.Storage.Dir, "/data/playmap/db"},
		{"Photos.PhotoDir", cfg.Photos.PhotoDir, "/data/playmap/photos"},
		{"Photos.ThumbnailDir", cfg.Photos.ThumbnailDir, "/data/playmap/thumbnails"},
		{"Backup.Vault.FSVaultRoot", cfg.Backup.Vault.FSVaultRoot, "/data/playmap/backups"},
		{"Backup.Encryption.Type", cfg.Backup.Encryption.Type, "age"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestDurations(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Duration
		wantErr bool
	}{
		{name: "empty uses default", value: "", want: 5 * time.Second},
		{name: "explicit", value: "250ms", want: 250 * time.Millisecond},
		{name: "disabled", value: "0s", want: 0},
		{name: "garbage", value: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StoreConfig{AutoSaveDelay: tt.value}.AutoSaveDelayDuration()
			if (err != nil) != tt.wantErr {
				t.Fatalf("AutoSaveDelayDuration() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("AutoSaveDelayDuration() = %v, want %v", got, tt.want)
			}

			got, err = MaintenanceConfig{SaveInterval: tt.value}.SaveIntervalDuration()
			if (err != nil) != tt.wantErr {
				t.Fatalf("SaveIntervalDuration() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("SaveIntervalDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "memory storage needs no dir", mutate: func(c *Config) { c.Storage = StorageConfig{Type: "memory"} }},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage.Type = "redis" }, wantErr: "unknown storage type"},
		{name: "sqlite without dir", mutate: func(c *Config) { c.Storage.Dir = "" }, wantErr: "requires dir"},
		{name: "missing photo dir", mutate: func(c *Config) { c.Photos.PhotoDir = "" }, wantErr: "photo_dir"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "unknown log level"},
		{name: "bad auto-save delay", mutate: func(c *Config) { c.Store.AutoSaveDelay = "5 seconds" }, wantErr: "store.auto_save_delay"},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Backup.Vault = VaultConfig{Type: "s3"} }, wantErr: "s3_bucket"},
		{name: "filesystem vault without root", mutate: func(c *Config) { c.Backup.Vault.FSVaultRoot = "" }, wantErr: "fs_vault_root"},
		{name: "unknown vault", mutate: func(c *Config) { c.Backup.Vault.Type = "ftp" }, wantErr: "unknown vault type"},
		{name: "unknown encryption", mutate: func(c *Config) { c.Backup.Encryption.Type = "rot13" }, wantErr: "unknown encryption type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("/data/playmap")
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "playmap.toml")

		if err := Init(path, NewConfig(dir)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("config file not created: %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "playmap.toml")

		if err := Init(path, NewConfig(dir)); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}
		if err := Init(path, NewConfig(dir)); err == nil {
			t.Fatal("second Init() expected error")
		}
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		dir := t.TempDir()
		cfg := NewConfig(dir)
		cfg.Storage.Type = "unknown"

		if err := Init(filepath.Join(dir, "playmap.toml"), cfg); err == nil {
			t.Fatal("Init() expected error for invalid config")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "playmap.toml")
		cfg := NewConfig(dir)
		cfg.Storage = StorageConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Storage.Type != "memory" {
			t.Errorf("Storage.Type = %q, want %q", got.Storage.Type, "memory")
		}
	})

	t.Run("rejects invalid file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "playmap.toml")
		content := "data_dir = \"" + dir + "\"\n[storage]\ntype = \"tape\"\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		if _, err := ReadFromFile(path); err == nil {
			t.Fatal("ReadFromFile() expected error for invalid config")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/playmap.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
