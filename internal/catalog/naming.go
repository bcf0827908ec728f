// pattern: Functional Core

package catalog

import (
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultControlSuffixes are path segments that belong to git's storage
// layout rather than to the project a user created.
var DefaultControlSuffixes = []string{".git", ".bare"}

// nonDescriptiveNames are basenames that say nothing about the project on
// their own and get their parent segment prepended.
var nonDescriptiveNames = map[string]bool{
	"main":     true,
	"master":   true,
	"trunk":    true,
	"repo":     true,
	"src":      true,
	"worktree": true,
}

var (
	whitespaceRun   = regexp.MustCompile(`\s+`)
	readmeHeading   = regexp.MustCompile(`(?m)^#\s+(.+?)\s*$`)
	closingHashes   = regexp.MustCompile(`\s+#*\s*$`)
	remoteLastPart  = regexp.MustCompile(`(?i)([^/:]+?)(?:\.git)?$`)
	trailingSlashes = regexp.MustCompile(`[\\/]+$`)
)

// NormalizeProjectPath turns a repository identity (usually a common git
// directory) into the path a user would recognise. A trailing control
// segment, or any hidden segment, is replaced by its parent. With no
// suffixes given DefaultControlSuffixes apply. fallback is returned when
// identity is blank or has no usable parent.
func NormalizeProjectPath(identity, fallback string, controlSuffixes ...string) string {
	if len(controlSuffixes) == 0 {
		controlSuffixes = DefaultControlSuffixes
	}

	candidate := strings.TrimSpace(identity)
	if candidate == "" {
		return fallback
	}
	trimmed := trailingSlashes.ReplaceAllString(candidate, "")
	if trimmed == "" {
		return fallback
	}

	base := filepath.Base(trimmed)
	if strings.HasPrefix(base, ".") || containsString(controlSuffixes, base) {
		parent := filepath.Dir(trimmed)
		if parent == "" || parent == "." {
			return fallback
		}
		return parent
	}
	return trimmed
}

// NormalizeDisplayName collapses whitespace runs and trims. An empty
// result means no name.
func NormalizeDisplayName(name string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(name, " "))
}

// ParseReadmeTitle returns the first level-1 markdown heading, without
// closing hashes.
func ParseReadmeTitle(contents string) string {
	normalized := strings.ReplaceAll(contents, "\r\n", "\n")
	m := readmeHeading.FindStringSubmatch(normalized)
	if m == nil {
		return ""
	}
	return NormalizeDisplayName(closingHashes.ReplaceAllString(m[1], ""))
}

// RemoteRepoName returns the last path segment of a remote URL without
// a .git suffix.
func RemoteRepoName(url string) string {
	m := remoteLastPart.FindStringSubmatch(strings.TrimSpace(url))
	if m == nil {
		return ""
	}
	return NormalizeDisplayName(m[1])
}

// PathDisplayName derives a name from a project path: its basename, or
// parent/basename when the basename alone is not descriptive.
func PathDisplayName(projectPath string) string {
	normalized := trailingSlashes.ReplaceAllString(projectPath, "")
	if normalized == "" {
		return NormalizeDisplayName(projectPath)
	}
	base := filepath.Base(normalized)
	if nonDescriptiveNames[strings.ToLower(base)] {
		parent := filepath.Base(filepath.Dir(normalized))
		if parent != "" && parent != "." && parent != string(filepath.Separator) {
			return NormalizeDisplayName(parent + "/" + base)
		}
	}
	return NormalizeDisplayName(base)
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
