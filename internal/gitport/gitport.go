// pattern: Functional Core

// Package gitport is the version-control boundary. The catalog only sees
// the Port interface; Shell drives the git binary and GoGit reads
// repositories in-process.
package gitport

import "context"

// Branch is one local branch.
type Branch struct {
	Name      string `json:"name"`
	IsCurrent bool   `json:"isCurrent"`
}

// Remote is a fetch remote.
type Remote struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Port is the set of git queries the engine needs.
type Port interface {
	CurrentBranch(ctx context.Context, repoPath string) (string, error)
	ListBranches(ctx context.Context, repoPath string) ([]Branch, error)
	SwitchBranch(ctx context.Context, repoPath, name string) error
	// Remotes returns fetch remotes, deduplicated by name (first wins).
	Remotes(ctx context.Context, repoPath string) ([]Remote, error)
	// CommonDirectory returns the absolute git directory shared by all
	// worktrees of the repository.
	CommonDirectory(ctx context.Context, repoPath string) (string, error)
}

// BareChecker is an optional capability of a Port.
type BareChecker interface {
	IsBareRepository(ctx context.Context, repoPath string) (bool, error)
}

// IsBare asks port whether repoPath is a bare repository. Ports without
// the capability and failed queries both answer false.
func IsBare(ctx context.Context, port Port, repoPath string) bool {
	checker, ok := port.(BareChecker)
	if !ok {
		return false
	}
	bare, err := checker.IsBareRepository(ctx, repoPath)
	return err == nil && bare
}
