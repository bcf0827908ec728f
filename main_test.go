package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_Version(t *testing.T) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	if code := run([]string{"version"}, nil, stdout, stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}
	if stdout.String() != version+"\n" {
		t.Errorf("stdout = %q, want %q", stdout.String(), version+"\n")
	}
}

func TestRun_HelpListsCommandsAndFlags(t *testing.T) {
	stderr := &bytes.Buffer{}
	if code := run([]string{"--help"}, nil, &bytes.Buffer{}, stderr); code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	for _, want := range []string{"projects", "serve", "--config-dir", "--root", "--json", "--log-level"} {
		if !strings.Contains(stderr.String(), want) {
			t.Errorf("help missing %q:\n%s", want, stderr.String())
		}
	}
}

func TestRun_NoCommand(t *testing.T) {
	stderr := &bytes.Buffer{}
	if code := run(nil, nil, &bytes.Buffer{}, stderr); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestRun_BadFlag(t *testing.T) {
	if code := run([]string{"--bogus"}, nil, &bytes.Buffer{}, &bytes.Buffer{}); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestRun_GlobalFlagsReachCommands(t *testing.T) {
	configDir := t.TempDir()
	root := t.TempDir()
	repo := filepath.Join(root, "app")
	if err := os.MkdirAll(filepath.Join(repo, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(repo, "docs", "project"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("git:\n  backend: gogit\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	code := run([]string{"-c", configDir, "--root", root, "--log-level", "debug", "discover"}, nil, stdout, stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}
	if !strings.Contains(stdout.String(), `"repositoryPath": "`+repo+`"`) {
		t.Errorf("stdout = %s, want %s listed", stdout, repo)
	}
	if _, err := os.Stat(filepath.Join(configDir, "projectbranch.log")); err != nil {
		t.Errorf("log file not written: %v", err)
	}
	if !strings.Contains(stderr.String(), "discovery complete") {
		t.Errorf("debug console mirror missing discovery summary: %s", stderr)
	}
}
