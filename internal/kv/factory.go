package kv

import (
	"fmt"
	"path/filepath"

	"playmap/internal/config"
	"playmap/internal/playmap"
)

// SQLiteFilename is the database file created under the storage dir.
const SQLiteFilename = "playmap.db"

// NewStoreFromConfig creates a KeyValueStore based on the storage config type.
func NewStoreFromConfig(cfg config.StorageConfig) (playmap.KeyValueStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "filesystem":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("dir required for filesystem storage")
		}
		s, err := NewFileStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("dir required for sqlite storage")
		}
		if err := mkdir(cfg.Dir); err != nil {
			return nil, err
		}
		s, err := NewSQLiteStore(filepath.Join(cfg.Dir, SQLiteFilename))
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
