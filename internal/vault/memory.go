package vault

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"playmap/internal/playmap"
)

// MemoryVault keeps backups in memory, making it useful for testing.
// This implementation is safe for concurrent use.
type MemoryVault struct {
	name    string
	backups map[string][]byte
	mu      sync.RWMutex
}

// NewMemoryVault creates a new in-memory vault with the given name.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:    name,
		backups: make(map[string][]byte),
	}
}

// PutBackup stores a backup, replacing any backup of the same name.
func (m *MemoryVault) PutBackup(ctx context.Context, name string, r io.Reader, size int64) error {
	if err := validateName(name); err != nil {
		return err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.backups[name] = data
	return nil
}

// GetBackup writes the named backup to w.
func (m *MemoryVault) GetBackup(ctx context.Context, name string, w io.Writer) error {
	m.mu.RLock()
	data, ok := m.backups[name]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("backup not found: %s", name)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

// ListBackups returns the stored names in ascending order.
func (m *MemoryVault) ListBackups(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.backups))
	for name := range m.backups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ValidateSetup always succeeds for in-memory vault.
func (m *MemoryVault) ValidateSetup(ctx context.Context) error {
	return nil
}

// Compile-time check that MemoryVault implements playmap.BackupVault interface
var _ playmap.BackupVault = (*MemoryVault)(nil)
