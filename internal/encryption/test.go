package encryption

import (
	"bytes"
	"fmt"
	"io"

	"playmap/internal/playmap"
)

// testHeader is prepended by TestSealer so sealed output clearly differs from
// plaintext while staying deterministic and reversible.
var testHeader = []byte("PMSEAL\x00\x00")

// TestSealer is a deterministic sealer for testing. It writes a fixed header
// followed by the passphrase length-prefixed, then the plaintext, so a wrong
// passphrase is still detected without any crypto.
type TestSealer struct{}

var _ playmap.Sealer = (*TestSealer)(nil)

// NewTestSealer creates a new TestSealer.
func NewTestSealer() *TestSealer {
	return &TestSealer{}
}

func (s *TestSealer) Seal(passphrase string, r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%d:%s", len(passphrase), passphrase); err != nil {
		return fmt.Errorf("writing test passphrase: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (s *TestSealer) Open(passphrase string, r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("invalid test seal header")
	}

	want := fmt.Sprintf("%d:%s", len(passphrase), passphrase)
	got := make([]byte, len(want))
	if _, err := io.ReadFull(r, got); err != nil || string(got) != want {
		return fmt.Errorf("incorrect passphrase")
	}

	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (s *TestSealer) Extension() string {
	return ".test"
}
