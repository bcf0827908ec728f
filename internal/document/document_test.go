package document

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"projectbranch/internal/fsport"
)

func TestWriteAppendRead(t *testing.T) {
	docs := filepath.Join(t.TempDir(), "repo", "docs", "project")
	svc := NewService(fsport.NewOS(), "")

	path, err := svc.Write(docs, "# Plan\n", "")
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if path != filepath.Join(docs, "README.md") {
		t.Errorf("Write() path = %q", path)
	}

	next, err := svc.Append(docs, "- Item 1\n", "")
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if next != "# Plan\n- Item 1\n" {
		t.Errorf("Append() = %q", next)
	}

	got, err := svc.Read(docs, "")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !strings.Contains(got, "# Plan") || !strings.Contains(got, "- Item 1") {
		t.Errorf("Read() = %q", got)
	}

	onDisk, err := os.ReadFile(path)
	if err != nil || string(onDisk) != got {
		t.Errorf("file on disk = (%q, %v), want %q", onDisk, err, got)
	}
}

func TestRead_Missing(t *testing.T) {
	svc := NewService(fsport.NewMem(), "")
	_, err := svc.Read("/repo/docs/project", "notes.md")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "/repo/docs/project/notes.md") {
		t.Errorf("error should name the path: %v", err)
	}
}

func TestRead_DirectoryIsNotADocument(t *testing.T) {
	fs := fsport.NewMem().AddDir("/repo/docs/project/README.md")
	if _, err := NewService(fs, "").Read("/repo/docs/project", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestAppend_CreatesDocument(t *testing.T) {
	fs := fsport.NewMem()
	svc := NewService(fs, "PLAN.md")

	got, err := svc.Append("/repo/docs/project", "first\n", "")
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if got != "first\n" {
		t.Errorf("Append() = %q", got)
	}
	if files := fs.Files("/repo"); len(files) != 1 || files[0] != "/repo/docs/project/PLAN.md" {
		t.Errorf("files = %v", files)
	}
}

func TestWrite_Failures(t *testing.T) {
	boom := errors.New("read-only")
	fs := fsport.NewMem().FailOn("/repo/docs/project", boom)
	if _, err := NewService(fs, "").Write("/repo/docs/project", "x", ""); !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped %v", err, boom)
	}
}

func TestPath_RejectsEscapes(t *testing.T) {
	svc := NewService(fsport.NewMem(), "")
	for _, name := range []string{"../secret.md", "sub/notes.md", `..\x.md`, "..", "."} {
		if _, err := svc.Path("/repo/docs/project", name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Path(%q) error = %v, want ErrInvalidName", name, err)
		}
	}
	if p, err := svc.Path("/repo/docs/project", "notes.md"); err != nil || p != "/repo/docs/project/notes.md" {
		t.Errorf("Path(notes.md) = (%q, %v)", p, err)
	}
}
