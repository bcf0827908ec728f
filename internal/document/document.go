// pattern: Imperative Shell

// Package document reads and edits markdown files in a project's docs
// folder.
package document

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"projectbranch/internal/fsport"
)

// DefaultFileName is used when no document name is given.
const DefaultFileName = "README.md"

var (
	// ErrNotFound is returned when reading a document that does not exist.
	ErrNotFound = errors.New("document does not exist")
	// ErrInvalidName is returned for names that would escape the docs folder.
	ErrInvalidName = errors.New("invalid document name")
)

// Service reads and writes documents through a filesystem port.
type Service struct {
	fs          fsport.FS
	defaultName string
}

// NewService creates a document service. An empty defaultName means
// DefaultFileName.
func NewService(fs fsport.FS, defaultName string) *Service {
	if defaultName == "" {
		defaultName = DefaultFileName
	}
	return &Service{fs: fs, defaultName: defaultName}
}

// Path resolves name inside docsPath.
func (s *Service) Path(docsPath, name string) (string, error) {
	if name == "" {
		name = s.defaultName
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(docsPath, name), nil
}

// Read returns the contents of the named document.
func (s *Service) Read(docsPath, name string) (string, error) {
	target, err := s.Path(docsPath, name)
	if err != nil {
		return "", err
	}
	isFile, err := s.fs.IsFile(target)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", target, err)
	}
	if !isFile {
		return "", fmt.Errorf("%w: %s", ErrNotFound, target)
	}
	return s.fs.ReadText(target)
}

// Write replaces the named document, creating docsPath if needed, and
// returns the document's path.
func (s *Service) Write(docsPath, contents, name string) (string, error) {
	target, err := s.Path(docsPath, name)
	if err != nil {
		return "", err
	}
	if err := s.fs.EnsureDirectory(docsPath); err != nil {
		return "", fmt.Errorf("create %s: %w", docsPath, err)
	}
	if err := s.fs.WriteText(target, contents); err != nil {
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	return target, nil
}

// Append adds text to the end of the named document, which need not exist
// yet, and returns the document's new contents.
func (s *Service) Append(docsPath, text, name string) (string, error) {
	target, err := s.Path(docsPath, name)
	if err != nil {
		return "", err
	}
	existing := ""
	if isFile, _ := s.fs.IsFile(target); isFile {
		if existing, err = s.fs.ReadText(target); err != nil {
			return "", fmt.Errorf("read %s: %w", target, err)
		}
	}
	next := existing + text
	if _, err := s.Write(docsPath, next, name); err != nil {
		return "", err
	}
	return next, nil
}
