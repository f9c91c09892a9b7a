package encryption

import (
	"fmt"
	"io"

	"filippo.io/age"

	"playmap/internal/playmap"
)

// AgeSealer seals backups with age's scrypt passphrase encryption. No key
// files are involved: the passphrase alone opens a sealed backup.
type AgeSealer struct {
	workFactor int
}

var _ playmap.Sealer = (*AgeSealer)(nil)

// NewAgeSealer creates a sealer using age's default scrypt work factor.
func NewAgeSealer() *AgeSealer {
	return &AgeSealer{}
}

// Seal reads plaintext from r and writes age ciphertext to w.
func (s *AgeSealer) Seal(passphrase string, r io.Reader, w io.Writer) error {
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}
	if s.workFactor > 0 {
		recipient.SetWorkFactor(s.workFactor)
	}

	encWriter, err := age.Encrypt(w, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.Copy(encWriter, r); err != nil {
		return fmt.Errorf("encrypting backup: %w", err)
	}
	if err := encWriter.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}
	return nil
}

// Open reads age ciphertext from r and writes plaintext to w. A wrong
// passphrase fails before anything is written.
func (s *AgeSealer) Open(passphrase string, r io.Reader, w io.Writer) error {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt identity: %w", err)
	}

	decReader, err := age.Decrypt(r, identity)
	if err != nil {
		return fmt.Errorf("decrypting backup: %w", err)
	}
	if _, err := io.Copy(w, decReader); err != nil {
		return fmt.Errorf("reading decrypted backup: %w", err)
	}
	return nil
}

// Extension marks sealed backup names.
func (s *AgeSealer) Extension() string {
	return ".age"
}
