// pattern: Imperative Shell

package gitport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// gitdirLine matches the link line of a worktree's .git file.
var gitdirLine = regexp.MustCompile(`(?im)^\s*gitdir:\s*(.+?)\s*$`)

// GoGit implements Port and BareChecker without the git binary. It is
// slower to start than Shell on huge repositories but works where git is
// not installed.
type GoGit struct{}

// NewGoGit returns the in-process port.
func NewGoGit() *GoGit {
	return &GoGit{}
}

// open finds the repository like `git -C` does, walking up from folders
// inside a working tree. A bare layout is opened in place.
func (GoGit) open(repoPath string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{
		DetectDotGit:          !isBareLayout(repoPath),
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", repoPath, err)
	}
	return repo, nil
}

// CurrentBranch returns the branch HEAD points at, including unborn
// branches. A detached HEAD yields "".
func (g GoGit) CurrentBranch(ctx context.Context, repoPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	repo, err := g.open(repoPath)
	if err != nil {
		return "", err
	}
	head, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", fmt.Errorf("read HEAD: %w", err)
	}
	if head.Type() != plumbing.SymbolicReference || !head.Target().IsBranch() {
		return "", nil
	}
	return head.Target().Short(), nil
}

// ListBranches returns local branches sorted by name.
func (g GoGit) ListBranches(ctx context.Context, repoPath string) ([]Branch, error) {
	current, err := g.CurrentBranch(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	repo, err := g.open(repoPath)
	if err != nil {
		return nil, err
	}
	iter, err := repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	defer iter.Close()

	branches := []Branch{}
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		branches = append(branches, Branch{Name: name, IsCurrent: name == current})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return branches, nil
}

// SwitchBranch checks out an existing local branch.
func (g GoGit) SwitchBranch(ctx context.Context, repoPath, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	repo, err := g.open(repoPath)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name)}); err != nil {
		return fmt.Errorf("checkout %s: %w", name, err)
	}
	return nil
}

// Remotes returns configured remotes sorted by name, which is the order
// `git remote -v` prints them in.
func (g GoGit) Remotes(ctx context.Context, repoPath string) ([]Remote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	repo, err := g.open(repoPath)
	if err != nil {
		return nil, err
	}
	configured, err := repo.Remotes()
	if err != nil {
		return nil, fmt.Errorf("list remotes: %w", err)
	}

	remotes := []Remote{}
	for _, r := range configured {
		cfg := r.Config()
		if len(cfg.URLs) == 0 {
			continue
		}
		remotes = append(remotes, Remote{Name: cfg.Name, URL: cfg.URLs[0]})
	}
	sort.Slice(remotes, func(i, j int) bool { return remotes[i].Name < remotes[j].Name })
	return remotes, nil
}

// CommonDirectory follows the on-disk worktree layout: a .git directory is
// its own common dir; a .git file points at a per-worktree gitdir whose
// "commondir" file points at the shared one. Folders without .git resolve
// to the enclosing repository.
func (GoGit) CommonDirectory(ctx context.Context, repoPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return CommonDirFromLayout(repoPath)
}

// IsBareRepository reports whether repoPath is a repository without a
// working tree. A path holding .git is never bare, even when the shared
// config of a bare hub says core.bare = true.
func (g GoGit) IsBareRepository(ctx context.Context, repoPath string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := os.Stat(filepath.Join(repoPath, ".git")); err == nil {
		return false, nil
	}
	repo, err := g.open(repoPath)
	if err != nil {
		return false, err
	}
	cfg, err := repo.Config()
	if err != nil {
		return false, fmt.Errorf("read config: %w", err)
	}
	return cfg.Core.IsBare, nil
}

// CommonDirFromLayout resolves the shared git directory of repoPath by
// reading .git, gitdir and commondir files. A folder without .git belongs
// to the nearest enclosing repository, as with `git -C`.
func CommonDirFromLayout(repoPath string) (string, error) {
	repoPath = filepath.Clean(repoPath)
	if isBareLayout(repoPath) {
		if _, err := os.Stat(filepath.Join(repoPath, ".git")); err != nil {
			return repoPath, nil
		}
	}
	for dir := repoPath; ; {
		dotGit := filepath.Join(dir, ".git")
		if info, err := os.Stat(dotGit); err == nil {
			if info.IsDir() {
				return dotGit, nil
			}
			return commonDirFromFile(dir, dotGit)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not a git repository: %s", repoPath)
		}
		dir = parent
	}
}

// commonDirFromFile follows the gitdir link in a worktree's .git file.
func commonDirFromFile(repoPath, dotGit string) (string, error) {
	data, err := os.ReadFile(dotGit)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", dotGit, err)
	}
	m := gitdirLine.FindStringSubmatch(string(data))
	if m == nil {
		return "", fmt.Errorf("invalid .git file: %s", dotGit)
	}
	gitDir := m[1]
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(repoPath, gitDir)
	}

	common, err := os.ReadFile(filepath.Join(gitDir, "commondir"))
	if err != nil {
		// Not a linked worktree (e.g. a submodule or separate git dir).
		return filepath.Clean(gitDir), nil
	}
	commonDir := strings.TrimSpace(string(common))
	if !filepath.IsAbs(commonDir) {
		commonDir = filepath.Join(gitDir, commonDir)
	}
	return filepath.Clean(commonDir), nil
}

func isBareLayout(path string) bool {
	for _, name := range []string{"HEAD", "objects", "refs"} {
		if _, err := os.Stat(filepath.Join(path, name)); err != nil {
			return false
		}
	}
	return true
}
