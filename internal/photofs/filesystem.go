// Package photofs is the operating-system implementation of the photo
// filesystem used by the file reference tracker.
package photofs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"playmap/internal/playmap"
)

// OSPhotoFilesystem reads and writes photo files on the local disk.
type OSPhotoFilesystem struct{}

// NewOSPhotoFilesystem creates a photo filesystem over the real disk.
func NewOSPhotoFilesystem() *OSPhotoFilesystem {
	return &OSPhotoFilesystem{}
}

// List returns the regular files directly inside dir. Subdirectories, links
// and other special files are skipped. A missing dir yields no entries.
func (m *OSPhotoFilesystem) List(dir string) ([]playmap.FileEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	files := make([]playmap.FileEntry, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				// removed between ReadDir and Info
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		files = append(files, toEntry(filepath.Join(dir, entry.Name()), info))
	}
	return files, nil
}

// Stat returns the entry for a regular file.
func (m *OSPhotoFilesystem) Stat(path string) (playmap.FileEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return playmap.FileEntry{}, err
	}
	if !info.Mode().IsRegular() {
		return playmap.FileEntry{}, fmt.Errorf("not a regular file: %s", path)
	}
	return toEntry(path, info), nil
}

// Remove deletes a file. The error wraps fs.ErrNotExist for a missing file.
func (m *OSPhotoFilesystem) Remove(path string) error {
	return os.Remove(path)
}

// Copy copies src to dst through a temp file in dst's directory, so dst is
// either the previous file or a complete copy.
func (m *OSPhotoFilesystem) Copy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return fmt.Errorf("copying photo: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("setting photo permissions: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// MkdirAll creates dir and any missing parents.
func (m *OSPhotoFilesystem) MkdirAll(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return nil
}

func toEntry(path string, info fs.FileInfo) playmap.FileEntry {
	return playmap.FileEntry{
		Name:    info.Name(),
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}

// Compile-time check that OSPhotoFilesystem implements playmap.PhotoFilesystem
var _ playmap.PhotoFilesystem = (*OSPhotoFilesystem)(nil)
