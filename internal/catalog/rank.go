// pattern: Functional Core

package catalog

// Conventional branch names used when electing a default worktree.
const (
	DefaultPrimaryBranch   = "main"
	DefaultSecondaryBranch = "master"
)

// Ranking elects the default worktree of a project. Lower rank wins;
// equal ranks are broken by repository path.
type Ranking struct {
	PrimaryBranch   string
	SecondaryBranch string
}

// DefaultRanking uses main and master.
var DefaultRanking = Ranking{PrimaryBranch: DefaultPrimaryBranch, SecondaryBranch: DefaultSecondaryBranch}

type rankRule func(r Ranking, w Worktree) bool

// defaultRanks is ordered: a worktree's rank is the index of the first
// rule it satisfies, or len(defaultRanks) when none match.
var defaultRanks = []rankRule{
	func(r Ranking, w Worktree) bool { return w.HasReadme && r.onPrimary(w) },
	func(r Ranking, w Worktree) bool { return w.HasReadme },
	func(r Ranking, w Worktree) bool { return w.HasDocsFolder && r.onPrimary(w) },
	func(r Ranking, w Worktree) bool { return w.HasDocsFolder },
	func(r Ranking, w Worktree) bool { return r.onPrimary(w) },
	func(r Ranking, w Worktree) bool { return !w.Git.IsWorktree },
	func(r Ranking, w Worktree) bool { return r.SecondaryBranch != "" && w.BranchName == r.SecondaryBranch },
}

func (r Ranking) onPrimary(w Worktree) bool {
	return r.PrimaryBranch != "" && w.BranchName == r.PrimaryBranch
}

// Rank returns w's position in the election order, 0 being best.
func (r Ranking) Rank(w Worktree) int {
	for i, rule := range defaultRanks {
		if rule(r, w) {
			return i
		}
	}
	return len(defaultRanks)
}

// Elect returns the index of the default worktree, or -1 for an empty slice.
func (r Ranking) Elect(worktrees []Worktree) int {
	best, bestRank := -1, 0
	for i, w := range worktrees {
		rank := r.Rank(w)
		if best < 0 || rank < bestRank ||
			(rank == bestRank && w.RepositoryPath < worktrees[best].RepositoryPath) {
			best, bestRank = i, rank
		}
	}
	return best
}

// DefaultRank ranks w with DefaultRanking.
func DefaultRank(w Worktree) int {
	return DefaultRanking.Rank(w)
}

// ElectDefault elects among worktrees with DefaultRanking.
func ElectDefault(worktrees []Worktree) int {
	return DefaultRanking.Elect(worktrees)
}
