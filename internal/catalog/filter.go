// pattern: Functional Core

package catalog

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// projectSource exposes display name and path to the fuzzy matcher.
type projectSource []Project

func (s projectSource) String(i int) string {
	return s[i].DisplayName + " " + s[i].ProjectPath
}

func (s projectSource) Len() int {
	return len(s)
}

// Filter returns the projects fuzzily matching pattern, best match first.
// A blank pattern returns projects unchanged.
func Filter(projects []Project, pattern string) []Project {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return projects
	}
	matches := fuzzy.FindFrom(pattern, projectSource(projects))
	out := make([]Project, 0, len(matches))
	for _, m := range matches {
		out = append(out, projects[m.Index])
	}
	return out
}
