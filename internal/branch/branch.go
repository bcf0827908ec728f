// pattern: Imperative Shell

// Package branch reads and switches the checked-out branch of a worktree.
package branch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"projectbranch/internal/gitport"
)

// Context is the branch state of one worktree.
type Context struct {
	ActiveBranch string           `json:"activeBranch"`
	Branches     []gitport.Branch `json:"branches"`
}

// Service wraps a git port with branch operations. Unlike the catalog it
// surfaces every git failure to the caller.
type Service struct {
	git gitport.Port
}

// NewService creates a branch service over git.
func NewService(git gitport.Port) *Service {
	return &Service{git: git}
}

// Context returns the active branch and all local branches of repoPath.
// IsCurrent is recomputed from the active branch.
func (s *Service) Context(ctx context.Context, repoPath string) (Context, error) {
	var (
		active   string
		branches []gitport.Branch
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		active, err = s.git.CurrentBranch(gctx, repoPath)
		if err != nil {
			return fmt.Errorf("current branch: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		branches, err = s.git.ListBranches(gctx, repoPath)
		if err != nil {
			return fmt.Errorf("list branches: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Context{}, err
	}

	out := make([]gitport.Branch, len(branches))
	for i, b := range branches {
		out[i] = gitport.Branch{Name: b.Name, IsCurrent: b.Name == active}
	}
	return Context{ActiveBranch: active, Branches: out}, nil
}

// Switch checks out name in repoPath and returns the resulting context.
func (s *Service) Switch(ctx context.Context, repoPath, name string) (Context, error) {
	if err := s.git.SwitchBranch(ctx, repoPath, name); err != nil {
		return Context{}, fmt.Errorf("switch to %s: %w", name, err)
	}
	return s.Context(ctx, repoPath)
}

// Remotes lists the fetch remotes of repoPath.
func (s *Service) Remotes(ctx context.Context, repoPath string) ([]gitport.Remote, error) {
	return s.git.Remotes(ctx, repoPath)
}
