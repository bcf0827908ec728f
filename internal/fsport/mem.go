// pattern: Functional Core

package fsport

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Mem is an in-memory FS for tests. Directories are implied by the files
// below them and can also be added explicitly.
type Mem struct {
	mu    sync.RWMutex
	files map[string]string
	dirs  map[string]bool
	fail  map[string]error
}

// NewMem creates an empty in-memory filesystem.
func NewMem() *Mem {
	return &Mem{
		files: make(map[string]string),
		dirs:  make(map[string]bool),
		fail:  make(map[string]error),
	}
}

// AddFile stores contents at path and registers every parent directory.
func (m *Mem) AddFile(path, contents string) *Mem {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.files[path] = contents
	m.addParentsLocked(path)
	return m
}

// AddDir registers path and its parents as directories.
func (m *Mem) AddDir(path string) *Mem {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.dirs[path] = true
	m.addParentsLocked(path)
	return m
}

// FailOn makes every operation on path return err.
func (m *Mem) FailOn(path string, err error) *Mem {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[filepath.Clean(path)] = err
	return m
}

func (m *Mem) addParentsLocked(path string) {
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		m.dirs[dir] = true
		if dir == filepath.Dir(dir) {
			return
		}
	}
}

func (m *Mem) failure(path string) error {
	return m.fail[filepath.Clean(path)]
}

// ReadDirectory lists the direct children of path, sorted by name.
func (m *Mem) ReadDirectory(path string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	path = filepath.Clean(path)
	if err := m.failure(path); err != nil {
		return nil, err
	}
	if !m.dirs[path] {
		return nil, &fs.PathError{Op: "readdir", Path: path, Err: fs.ErrNotExist}
	}

	seen := make(map[string]Entry)
	for p := range m.dirs {
		if p != path && filepath.Dir(p) == path {
			seen[p] = Entry{Name: filepath.Base(p), Path: p, IsDirectory: true}
		}
	}
	for p := range m.files {
		if filepath.Dir(p) == path {
			seen[p] = Entry{Name: filepath.Base(p), Path: p, IsFile: true}
		}
	}

	entries := make([]Entry, 0, len(seen))
	for _, e := range seen {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Exists reports whether path is a known file or directory.
func (m *Mem) Exists(path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	path = filepath.Clean(path)
	if err := m.failure(path); err != nil {
		return false, err
	}
	_, isFile := m.files[path]
	return isFile || m.dirs[path], nil
}

// IsDirectory reports whether path is a known directory.
func (m *Mem) IsDirectory(path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	path = filepath.Clean(path)
	if err := m.failure(path); err != nil {
		return false, err
	}
	return m.dirs[path], nil
}

// IsFile reports whether path is a known file.
func (m *Mem) IsFile(path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	path = filepath.Clean(path)
	if err := m.failure(path); err != nil {
		return false, err
	}
	_, ok := m.files[path]
	return ok, nil
}

// ReadText returns the stored contents of path.
func (m *Mem) ReadText(path string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	path = filepath.Clean(path)
	if err := m.failure(path); err != nil {
		return "", err
	}
	contents, ok := m.files[path]
	if !ok {
		return "", &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return contents, nil
}

// WriteText stores contents at path. The parent directory must exist.
func (m *Mem) WriteText(path, contents string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	if err := m.failure(path); err != nil {
		return err
	}
	if !m.dirs[filepath.Dir(path)] {
		return fmt.Errorf("write %s: parent directory does not exist", path)
	}
	m.files[path] = contents
	return nil
}

// EnsureDirectory registers path as a directory.
func (m *Mem) EnsureDirectory(path string) error {
	if err := m.failure(path); err != nil {
		return err
	}
	m.AddDir(path)
	return nil
}

// Files returns the stored paths with the given prefix, sorted.
func (m *Mem) Files(prefix string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for p := range m.files {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
