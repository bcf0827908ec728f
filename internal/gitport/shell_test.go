package gitport

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// mockRunner records git invocations and answers from a script keyed by
// the joined arguments.
type mockRunner struct {
	calls   [][]string
	outputs map[string]string
	errors  map[string]error
}

func newMockRunner() *mockRunner {
	return &mockRunner{outputs: make(map[string]string), errors: make(map[string]error)}
}

func (m *mockRunner) run(_ context.Context, dir string, args ...string) (string, error) {
	m.calls = append(m.calls, append([]string{dir}, args...))
	key := strings.Join(args, " ")
	if err, ok := m.errors[key]; ok {
		return "", err
	}
	return m.outputs[key], nil
}

func TestShell_Queries(t *testing.T) {
	mock := newMockRunner()
	mock.outputs["branch --show-current"] = "main"
	mock.outputs["rev-parse --git-common-dir"] = "../repo-a/.git"
	mock.outputs["rev-parse --is-bare-repository"] = "false"
	mock.outputs["remote -v"] = "origin\thttps://github.com/acme/a.git (fetch)\n"
	mock.outputs["branch --format "+branchFormat] = "main|*\nplanning| "

	shell := NewShellWithRunner(mock.run)
	ctx := context.Background()

	branch, err := shell.CurrentBranch(ctx, "/work/repo-b")
	if err != nil || branch != "main" {
		t.Errorf("CurrentBranch = (%q, %v)", branch, err)
	}

	common, err := shell.CommonDirectory(ctx, "/work/repo-b")
	if err != nil || common != "/work/repo-a/.git" {
		t.Errorf("CommonDirectory = (%q, %v), want /work/repo-a/.git", common, err)
	}

	bare, err := shell.IsBareRepository(ctx, "/work/repo-b")
	if err != nil || bare {
		t.Errorf("IsBareRepository = (%v, %v)", bare, err)
	}

	remotes, err := shell.Remotes(ctx, "/work/repo-b")
	if err != nil || len(remotes) != 1 || remotes[0].Name != "origin" {
		t.Errorf("Remotes = (%+v, %v)", remotes, err)
	}

	branches, err := shell.ListBranches(ctx, "/work/repo-b")
	if err != nil || len(branches) != 2 || !branches[0].IsCurrent {
		t.Errorf("ListBranches = (%+v, %v)", branches, err)
	}

	if got := mock.calls[0][0]; got != "/work/repo-b" {
		t.Errorf("runner dir = %q, want repository path", got)
	}
}

func TestShell_PropagatesErrors(t *testing.T) {
	mock := newMockRunner()
	boom := errors.New("fatal: not a git repository")
	mock.errors["rev-parse --git-common-dir"] = boom
	mock.errors["remote -v"] = boom

	shell := NewShellWithRunner(mock.run)
	if _, err := shell.CommonDirectory(context.Background(), "/tmp/x"); !errors.Is(err, boom) {
		t.Errorf("CommonDirectory error = %v, want %v", err, boom)
	}
	if _, err := shell.Remotes(context.Background(), "/tmp/x"); !errors.Is(err, boom) {
		t.Errorf("Remotes error = %v, want %v", err, boom)
	}
}

func TestShell_SwitchBranch_RejectsOptions(t *testing.T) {
	mock := newMockRunner()
	shell := NewShellWithRunner(mock.run)

	if err := shell.SwitchBranch(context.Background(), "/tmp/x", "--orphan"); err == nil {
		t.Error("expected option-like branch name to be rejected")
	}
	if len(mock.calls) != 0 {
		t.Errorf("git should not be invoked, got %v", mock.calls)
	}

	if err := shell.SwitchBranch(context.Background(), "/tmp/x", "planning"); err != nil {
		t.Fatalf("SwitchBranch error = %v", err)
	}
	if got := strings.Join(mock.calls[0][1:], " "); got != "checkout planning" {
		t.Errorf("git args = %q", got)
	}
}

func TestIsBare_Capability(t *testing.T) {
	mock := newMockRunner()
	mock.outputs["rev-parse --is-bare-repository"] = "true"
	if !IsBare(context.Background(), NewShellWithRunner(mock.run), "/tmp/bare") {
		t.Error("IsBare should use the BareChecker capability")
	}

	mock.errors["rev-parse --is-bare-repository"] = errors.New("boom")
	if IsBare(context.Background(), NewShellWithRunner(mock.run), "/tmp/bare") {
		t.Error("IsBare should answer false on error")
	}

	if IsBare(context.Background(), portWithoutBare{}, "/tmp/bare") {
		t.Error("IsBare should answer false when the capability is absent")
	}
}

// portWithoutBare implements Port only.
type portWithoutBare struct{}

func (portWithoutBare) CurrentBranch(context.Context, string) (string, error)   { return "", nil }
func (portWithoutBare) ListBranches(context.Context, string) ([]Branch, error)  { return nil, nil }
func (portWithoutBare) SwitchBranch(context.Context, string, string) error      { return nil }
func (portWithoutBare) Remotes(context.Context, string) ([]Remote, error)       { return nil, nil }
func (portWithoutBare) CommonDirectory(context.Context, string) (string, error) { return "", nil }

// requireGit skips tests that need the git binary.
func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func gitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

// setupRepoWithWorktree creates repo-a on main with one commit and a linked
// worktree at grouped/repo-b on branch planning.
func setupRepoWithWorktree(t *testing.T) (repoA, repoB string) {
	t.Helper()
	requireGit(t)
	root := t.TempDir()
	repoA = filepath.Join(root, "repo-a")
	repoB = filepath.Join(root, "grouped", "repo-b")
	if err := os.MkdirAll(repoA, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(repoA, "README.md"), []byte("# A\n"), 0644); err != nil {
		t.Fatal(err)
	}
	gitCmd(t, repoA, "init", "-q", "-b", "main")
	gitCmd(t, repoA, "add", ".")
	gitCmd(t, repoA, "commit", "-q", "-m", "init")
	gitCmd(t, repoA, "remote", "add", "origin", "git@github.com:acme/repo-a.git")
	gitCmd(t, repoA, "worktree", "add", "-q", "-b", "planning", repoB)
	return repoA, repoB
}

func TestShell_RealRepository(t *testing.T) {
	repoA, repoB := setupRepoWithWorktree(t)
	shell := NewShell(0, nil)
	ctx := context.Background()

	commonA, err := shell.CommonDirectory(ctx, repoA)
	if err != nil {
		t.Fatalf("CommonDirectory(repoA) error = %v", err)
	}
	commonB, err := shell.CommonDirectory(ctx, repoB)
	if err != nil {
		t.Fatalf("CommonDirectory(repoB) error = %v", err)
	}
	if evalPath(t, commonA) != evalPath(t, commonB) {
		t.Errorf("worktrees should share a common dir: %q vs %q", commonA, commonB)
	}

	branch, err := shell.CurrentBranch(ctx, repoB)
	if err != nil || branch != "planning" {
		t.Errorf("CurrentBranch(repoB) = (%q, %v), want planning", branch, err)
	}

	remotes, err := shell.Remotes(ctx, repoA)
	if err != nil || len(remotes) != 1 || remotes[0].URL != "git@github.com:acme/repo-a.git" {
		t.Errorf("Remotes(repoA) = (%+v, %v)", remotes, err)
	}
}

func TestGoGit_RealRepository(t *testing.T) {
	repoA, repoB := setupRepoWithWorktree(t)
	port := NewGoGit()
	ctx := context.Background()

	commonA, err := port.CommonDirectory(ctx, repoA)
	if err != nil {
		t.Fatalf("CommonDirectory(repoA) error = %v", err)
	}
	commonB, err := port.CommonDirectory(ctx, repoB)
	if err != nil {
		t.Fatalf("CommonDirectory(repoB) error = %v", err)
	}
	if evalPath(t, commonA) != evalPath(t, commonB) {
		t.Errorf("worktrees should share a common dir: %q vs %q", commonA, commonB)
	}

	branch, err := port.CurrentBranch(ctx, repoA)
	if err != nil || branch != "main" {
		t.Errorf("CurrentBranch(repoA) = (%q, %v), want main", branch, err)
	}

	remotes, err := port.Remotes(ctx, repoA)
	if err != nil || len(remotes) != 1 || remotes[0].Name != "origin" {
		t.Errorf("Remotes(repoA) = (%+v, %v)", remotes, err)
	}

	bare, err := port.IsBareRepository(ctx, repoA)
	if err != nil || bare {
		t.Errorf("IsBareRepository(repoA) = (%v, %v), want false", bare, err)
	}
}

func TestCommonDirFromLayout_NotARepository(t *testing.T) {
	if _, err := CommonDirFromLayout(t.TempDir()); err == nil {
		t.Error("expected error for a plain directory")
	}
}

func evalPath(t *testing.T, p string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		t.Fatalf("EvalSymlinks(%q): %v", p, err)
	}
	return resolved
}
