package catalog

import (
	"testing"

	"projectbranch/internal/discovery"
)

func worktree(path, branch string, docs, readme, linked bool) Worktree {
	return Worktree{
		Candidate: discovery.Candidate{
			RepositoryPath: path,
			HasDocsFolder:  docs,
			HasReadme:      readme,
			Git:            discovery.GitMetadata{HasMetadata: true, IsWorktree: linked},
		},
		BranchName: branch,
	}
}

func TestDefaultRank(t *testing.T) {
	tests := []struct {
		name string
		w    Worktree
		want int
	}{
		{"readme on main", worktree("/a", "main", true, true, true), 0},
		{"readme elsewhere", worktree("/a", "feature", true, true, true), 1},
		{"docs on main", worktree("/a", "main", true, false, true), 2},
		{"docs elsewhere", worktree("/a", "feature", true, false, true), 3},
		{"main without docs", worktree("/a", "main", false, false, true), 4},
		{"primary checkout", worktree("/a", "feature", false, false, false), 5},
		{"linked on master", worktree("/a", "master", false, false, true), 6},
		{"anything else", worktree("/a", "", false, false, true), 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultRank(tt.w); got != tt.want {
				t.Errorf("DefaultRank() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRanking_CustomBranches(t *testing.T) {
	r := Ranking{PrimaryBranch: "trunk", SecondaryBranch: "develop"}
	if got := r.Rank(worktree("/a", "trunk", true, true, true)); got != 0 {
		t.Errorf("trunk with readme = %d, want 0", got)
	}
	if got := r.Rank(worktree("/a", "main", true, true, true)); got != 1 {
		t.Errorf("main with readme under trunk ranking = %d, want 1", got)
	}
	if got := r.Rank(worktree("/a", "develop", false, false, true)); got != 6 {
		t.Errorf("develop = %d, want 6", got)
	}
}

func TestElectDefault(t *testing.T) {
	t.Run("readme beats path order", func(t *testing.T) {
		ws := []Worktree{
			worktree("/a/aaa", "main", true, false, false),
			worktree("/a/zzz", "main", true, true, true),
		}
		if got := ElectDefault(ws); got != 1 {
			t.Errorf("ElectDefault() = %d, want 1", got)
		}
	})
	t.Run("ties break by path", func(t *testing.T) {
		ws := []Worktree{
			worktree("/a/b", "x", false, false, true),
			worktree("/a/a", "y", false, false, true),
		}
		if got := ElectDefault(ws); got != 1 {
			t.Errorf("ElectDefault() = %d, want 1", got)
		}
	})
	t.Run("empty", func(t *testing.T) {
		if got := ElectDefault(nil); got != -1 {
			t.Errorf("ElectDefault(nil) = %d, want -1", got)
		}
	})
}
