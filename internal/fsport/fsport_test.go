package fsport

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOS_Predicates(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "notes.md")
	if err := os.WriteFile(filePath, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	fsys := NewOS()

	tests := []struct {
		name    string
		path    string
		wantDir bool
		wantReg bool
		wantAny bool
	}{
		{"directory", tmpDir, true, false, true},
		{"file", filePath, false, true, true},
		{"missing", filepath.Join(tmpDir, "missing"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isDir, err := fsys.IsDirectory(tt.path)
			if err != nil || isDir != tt.wantDir {
				t.Errorf("IsDirectory = (%v, %v), want (%v, nil)", isDir, err, tt.wantDir)
			}
			isFile, err := fsys.IsFile(tt.path)
			if err != nil || isFile != tt.wantReg {
				t.Errorf("IsFile = (%v, %v), want (%v, nil)", isFile, err, tt.wantReg)
			}
			exists, err := fsys.Exists(tt.path)
			if err != nil || exists != tt.wantAny {
				t.Errorf("Exists = (%v, %v), want (%v, nil)", exists, err, tt.wantAny)
			}
		})
	}
}

func TestOS_ReadDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, "repo"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "file.txt"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(tmpDir, "repo"), filepath.Join(tmpDir, "link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	entries, err := NewOS().ReadDirectory(tmpDir)
	if err != nil {
		t.Fatalf("ReadDirectory error = %v", err)
	}

	byName := make(map[string]Entry)
	for _, e := range entries {
		byName[e.Name] = e
	}
	if !byName["repo"].IsDirectory {
		t.Error("repo should be a directory")
	}
	if !byName["file.txt"].IsFile {
		t.Error("file.txt should be a file")
	}
	if !byName["link"].IsDirectory {
		t.Error("symlink to a directory should be reported as a directory")
	}
	if byName["repo"].Path != filepath.Join(tmpDir, "repo") {
		t.Errorf("Path = %q, want joined path", byName["repo"].Path)
	}
}

func TestOS_ReadDirectory_Missing(t *testing.T) {
	if _, err := NewOS().ReadDirectory("/nonexistent/projectbranch"); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestOS_WriteAndRead(t *testing.T) {
	tmpDir := t.TempDir()
	fsys := NewOS()
	dir := filepath.Join(tmpDir, "docs", "project")

	if err := fsys.EnsureDirectory(dir); err != nil {
		t.Fatalf("EnsureDirectory error = %v", err)
	}
	target := filepath.Join(dir, "README.md")
	if err := fsys.WriteText(target, "# Title\n"); err != nil {
		t.Fatalf("WriteText error = %v", err)
	}
	got, err := fsys.ReadText(target)
	if err != nil {
		t.Fatalf("ReadText error = %v", err)
	}
	if got != "# Title\n" {
		t.Errorf("ReadText = %q, want %q", got, "# Title\n")
	}
}

func TestMem(t *testing.T) {
	m := NewMem().
		AddFile("/root/repo/docs/project/README.md", "# Repo").
		AddDir("/root/other/.git")

	entries, err := m.ReadDirectory("/root")
	if err != nil {
		t.Fatalf("ReadDirectory error = %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "other" || entries[1].Name != "repo" {
		t.Fatalf("ReadDirectory = %+v, want [other repo]", entries)
	}

	if ok, _ := m.IsDirectory("/root/repo/docs/project"); !ok {
		t.Error("implied parent directory missing")
	}
	if ok, _ := m.IsFile("/root/repo/docs/project/README.md"); !ok {
		t.Error("file missing")
	}

	boom := errors.New("permission denied")
	m.FailOn("/root/repo", boom)
	if _, err := m.ReadDirectory("/root/repo"); !errors.Is(err, boom) {
		t.Errorf("ReadDirectory on failing path = %v, want %v", err, boom)
	}

	if err := m.WriteText("/nowhere/file", "x"); err == nil {
		t.Error("WriteText into a missing directory should fail")
	}
}
