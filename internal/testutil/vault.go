package testutil

import (
	"playmap/internal/encryption"
	"playmap/internal/playmap"
	"playmap/internal/vault"
)

// NewTestVault creates a new in-memory backup vault for testing.
func NewTestVault() playmap.BackupVault {
	return vault.NewMemoryVault("test-vault")
}

// NewTestSealer creates a deterministic, header-only sealer for testing.
func NewTestSealer() playmap.Sealer {
	return encryption.NewTestSealer()
}
