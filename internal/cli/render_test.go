// pattern: Imperative Shell
package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"projectbranch/internal/branch"
	"projectbranch/internal/catalog"
	"projectbranch/internal/discovery"
	"projectbranch/internal/gitport"
	"projectbranch/internal/remote"
)

func renderProjectsFixture() []catalog.Project {
	return []catalog.Project{{
		ProjectID:     "/w/app/.git",
		DisplayName:   "\x1b[31mApp\x1b[0m",
		ProjectPath:   "/w/app",
		HasDocsFolder: true,
		WorktreeCount: 3,
		Worktrees: []catalog.Worktree{
			{Candidate: discovery.Candidate{RepositoryPath: "/w/app"}, BranchName: "main", IsDefault: true},
			{Candidate: discovery.Candidate{RepositoryPath: "/w/app-feature"}, BranchName: "feature"},
			{Candidate: discovery.Candidate{RepositoryPath: "/w/app-detached"}},
		},
	}}
}

func TestRenderer_AutoModeOnBufferIsJSON(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, OutputAuto, "mocha")
	if !r.JSON() {
		t.Error("a non-terminal writer should get JSON")
	}
}

func TestRenderer_ProjectsText(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewRenderer(buf, OutputText, "latte")

	if err := r.Projects(renderProjectsFixture()); err != nil {
		t.Fatalf("Projects() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"App  /w/app  docs",
		"  * main  /w/app\n",
		"    feature  /w/app-feature\n",
		"(detached)  /w/app-detached",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b") {
		t.Errorf("output contains escape codes: %q", out)
	}
}

func TestRenderer_ProjectsJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewRenderer(buf, OutputJSON, "mocha")

	if err := r.Projects(nil); err != nil {
		t.Fatalf("Projects() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty projects = %q, want []", buf.String())
	}

	buf.Reset()
	if err := r.Projects(renderProjectsFixture()); err != nil {
		t.Fatalf("Projects() error = %v", err)
	}
	var decoded []catalog.Project
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 1 || decoded[0].WorktreeCount != 3 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestRenderer_CandidatesTable(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewRenderer(buf, OutputText, "mocha")

	err := r.Candidates([]discovery.Candidate{
		{RepositoryPath: "/w/app", HasDocsFolder: true, HasReadme: true,
			Git: discovery.GitMetadata{HasMetadata: true, MetadataKind: discovery.MetadataDirectory}},
		{RepositoryPath: "/w/app-feature",
			Git: discovery.GitMetadata{HasMetadata: true, IsWorktree: true, MetadataKind: discovery.MetadataFile}},
		{RepositoryPath: "/w/notes"},
	})
	if err != nil {
		t.Fatalf("Candidates() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 3 rows:\n%s", len(lines), buf.String())
	}
	if fields := strings.Fields(lines[0]); strings.Join(fields, " ") != "PATH DOCS README GIT" {
		t.Errorf("header = %q", lines[0])
	}
	wantRows := [][]string{
		{"/w/app", "yes", "yes", "directory"},
		{"/w/app-feature", "-", "-", "worktree"},
		{"/w/notes", "-", "-", "-"},
	}
	for i, want := range wantRows {
		if got := strings.Fields(lines[i+1]); strings.Join(got, " ") != strings.Join(want, " ") {
			t.Errorf("row %d = %v, want %v", i, got, want)
		}
	}
}

func TestRenderer_Mapping(t *testing.T) {
	tests := []struct {
		name string
		view MappingView
		want string
	}{
		{
			name: "mapped",
			view: MappingView{Path: "/w/app", Result: remote.Result{Mapping: &remote.Mapping{
				RemoteName: "origin", Owner: "acme", Repo: "app", FullName: "acme/app",
			}}},
			want: "/w/app  acme/app (origin)\n",
		},
		{
			name: "unmapped",
			view: MappingView{Path: "/w/app", Result: remote.Result{Reason: remote.ReasonNotAccessible}},
			want: "/w/app  not-accessible\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			if err := NewRenderer(buf, OutputText, "mocha").Mapping(tt.view); err != nil {
				t.Fatalf("Mapping() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("output = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestRenderer_BranchesText(t *testing.T) {
	buf := &bytes.Buffer{}
	view := BranchView{Path: "/w/app", Context: branch.Context{
		ActiveBranch: "main",
		Branches:     []gitport.Branch{{Name: "feature"}, {Name: "main", IsCurrent: true}},
	}}
	if err := NewRenderer(buf, OutputText, "mocha").Branches(view); err != nil {
		t.Fatalf("Branches() error = %v", err)
	}
	if want := "  feature\n* main\n"; buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestRenderer_BranchesJSONHasEmptyList(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewRenderer(buf, OutputJSON, "mocha").Branches(BranchView{Path: "/w/app"}); err != nil {
		t.Fatalf("Branches() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"branches": []`) {
		t.Errorf("output = %s, want an empty branches list", buf.String())
	}
}

func TestFlavorFromName(t *testing.T) {
	if flavorFromName("latte").Name() != "latte" {
		t.Error("latte should map to the Latte flavor")
	}
	if flavorFromName("unknown").Name() != "mocha" {
		t.Error("unknown names should fall back to Mocha")
	}
}
