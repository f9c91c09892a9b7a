package encryption

import (
	"fmt"

	"playmap/internal/config"
	"playmap/internal/playmap"
)

// NewSealerFromConfig creates a Sealer based on the configuration type.
// Type "none" returns a nil Sealer: backups are then always written unsealed.
func NewSealerFromConfig(cfg config.EncryptionConfig) (playmap.Sealer, error) {
	switch cfg.Type {
	case "age", "":
		return NewAgeSealer(), nil
	case "test":
		return NewTestSealer(), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
