// pattern: Functional Core

package gitport

import (
	"bufio"
	"path/filepath"
	"strings"
)

// branchFormat is passed to `git branch --format`.
const branchFormat = "%(refname:short)|%(HEAD)"

// ParseBranches parses `git branch --format '%(refname:short)|%(HEAD)'`.
// Blank lines are skipped.
func ParseBranches(output string) []Branch {
	branches := []Branch{}
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		name, head, _ := strings.Cut(line, "|")
		if name == "" {
			continue
		}
		branches = append(branches, Branch{
			Name:      name,
			IsCurrent: strings.TrimSpace(head) == "*",
		})
	}
	return branches
}

// ParseRemotes parses `git remote -v`. Only "(fetch)" lines count and the
// first URL seen for a name wins.
func ParseRemotes(output string) []Remote {
	remotes := []Remote{}
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || !strings.Contains(fields[2], "(fetch)") {
			continue
		}
		name, url := fields[0], fields[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		remotes = append(remotes, Remote{Name: name, URL: url})
	}
	return remotes
}

// ResolveCommonDir turns `git rev-parse --git-common-dir` output into an
// absolute path. Git prints it relative to the repository when it can.
func ResolveCommonDir(repoPath, output string) string {
	output = strings.TrimSpace(output)
	if output == "" {
		return repoPath
	}
	if filepath.IsAbs(output) {
		return filepath.Clean(output)
	}
	return filepath.Join(repoPath, output)
}
