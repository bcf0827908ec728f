// pattern: Imperative Shell

// Package fsport is the filesystem boundary used by discovery, catalog
// and document services.
package fsport

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Entry is one item of a directory listing.
type Entry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	IsDirectory bool   `json:"isDirectory"`
	IsFile      bool   `json:"isFile"`
}

// FS is the filesystem port. Implementations report a missing path as
// (false, nil) from the predicate methods, never as an error.
type FS interface {
	ReadDirectory(path string) ([]Entry, error)
	Exists(path string) (bool, error)
	IsDirectory(path string) (bool, error)
	IsFile(path string) (bool, error)
	ReadText(path string) (string, error)
	WriteText(path, contents string) error
	EnsureDirectory(path string) error
}

// OS implements FS on the local filesystem.
type OS struct{}

// NewOS returns the local filesystem port.
func NewOS() OS {
	return OS{}
}

// ReadDirectory lists path. Symlinked directories are reported as
// directories, matching what a user sees in a file browser.
func (OS) ReadDirectory(path string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		full := filepath.Join(path, de.Name())
		isDir := de.IsDir()
		isFile := de.Type().IsRegular()
		if de.Type()&fs.ModeSymlink != 0 {
			if info, err := os.Stat(full); err == nil {
				isDir = info.IsDir()
				isFile = info.Mode().IsRegular()
			}
		}
		entries = append(entries, Entry{
			Name:        de.Name(),
			Path:        full,
			IsDirectory: isDir,
			IsFile:      isFile,
		})
	}
	return entries, nil
}

// Exists reports whether anything exists at path.
func (OS) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	return statResult(err, true)
}

// IsDirectory reports whether path is a directory.
func (OS) IsDirectory(path string) (bool, error) {
	info, err := os.Stat(path)
	return statResult(err, err == nil && info.IsDir())
}

// IsFile reports whether path is a regular file.
func (OS) IsFile(path string) (bool, error) {
	info, err := os.Stat(path)
	return statResult(err, err == nil && info.Mode().IsRegular())
}

// ReadText returns the file contents as a string.
func (OS) ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteText replaces the contents of path.
func (OS) WriteText(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0644)
}

// EnsureDirectory creates path and any missing parents.
func (OS) EnsureDirectory(path string) error {
	return os.MkdirAll(path, 0755)
}

func statResult(err error, ok bool) (bool, error) {
	if err == nil {
		return ok, nil
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return false, nil
	}
	return false, err
}
