package testutil

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"playmap/internal/playmap"
)

// MockFile represents a file in the mock photo filesystem.
type MockFile struct {
	Content []byte
	ModTime time.Time
}

// MockPhotoFilesystem is an in-memory photo filesystem for testing. Failures
// can be injected per directory or path.
type MockPhotoFilesystem struct {
	mu    sync.Mutex
	files map[string]*MockFile
	dirs  map[string]bool

	// ListErr fails List for the given directory.
	ListErr map[string]error
	// RemoveErr fails Remove for the given path.
	RemoveErr map[string]error
	// CopyErr fails every Copy when set.
	CopyErr error

	removed []string
}

// NewMockPhotoFilesystem creates an empty mock filesystem.
func NewMockPhotoFilesystem() *MockPhotoFilesystem {
	return &MockPhotoFilesystem{
		files:     make(map[string]*MockFile),
		dirs:      make(map[string]bool),
		ListErr:   make(map[string]error),
		RemoveErr: make(map[string]error),
	}
}

// AddFile adds a file to the mock filesystem, creating its directory.
func (m *MockPhotoFilesystem) AddFile(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)
	m.files[path] = &MockFile{Content: content, ModTime: time.Now()}
	m.dirs[filepath.Dir(path)] = true
}

// Exists reports whether path is a file in the mock filesystem.
func (m *MockPhotoFilesystem) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[filepath.Clean(path)]
	return ok
}

// Files returns every file path, sorted.
func (m *MockPhotoFilesystem) Files() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Removed returns the paths removed so far, in order.
func (m *MockPhotoFilesystem) Removed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.removed...)
}

func (m *MockPhotoFilesystem) List(dir string) ([]playmap.FileEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dir = filepath.Clean(dir)
	if err := m.ListErr[dir]; err != nil {
		return nil, err
	}

	var entries []playmap.FileEntry
	for p, f := range m.files {
		if filepath.Dir(p) != dir {
			continue
		}
		entries = append(entries, entryFor(p, f))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (m *MockPhotoFilesystem) Stat(path string) (playmap.FileEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)
	f, ok := m.files[path]
	if !ok {
		return playmap.FileEntry{}, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
	}
	return entryFor(path, f), nil
}

func (m *MockPhotoFilesystem) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)
	if err := m.RemoveErr[path]; err != nil {
		return err
	}
	if _, ok := m.files[path]; !ok {
		return &fs.PathError{Op: "remove", Path: path, Err: fs.ErrNotExist}
	}
	delete(m.files, path)
	m.removed = append(m.removed, path)
	return nil
}

func (m *MockPhotoFilesystem) Copy(src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CopyErr != nil {
		return m.CopyErr
	}
	f, ok := m.files[filepath.Clean(src)]
	if !ok {
		return &fs.PathError{Op: "open", Path: src, Err: fs.ErrNotExist}
	}
	dst = filepath.Clean(dst)
	if !m.dirs[filepath.Dir(dst)] {
		return fmt.Errorf("copy %s: directory %s does not exist", dst, filepath.Dir(dst))
	}
	m.files[dst] = &MockFile{Content: append([]byte(nil), f.Content...), ModTime: time.Now()}
	return nil
}

func (m *MockPhotoFilesystem) MkdirAll(dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dir = filepath.Clean(dir)
	for dir != "." && dir != string(filepath.Separator) {
		m.dirs[dir] = true
		dir = filepath.Dir(dir)
	}
	return nil
}

func entryFor(path string, f *MockFile) playmap.FileEntry {
	return playmap.FileEntry{
		Name:    filepath.Base(path),
		Path:    path,
		Size:    int64(len(f.Content)),
		ModTime: f.ModTime,
	}
}

// Compile-time check
var _ playmap.PhotoFilesystem = (*MockPhotoFilesystem)(nil)
