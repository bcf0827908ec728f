// pattern: Functional Core

// Package remote maps a local repository's git remotes onto a hosted
// repository slug, optionally restricted to the repositories the caller
// can access.
package remote

import (
	"encoding/json"
	"net/url"
	"strings"

	"projectbranch/internal/gitport"
)

// DefaultHost is the hosted provider recognised by the package-level helpers.
const DefaultHost = "github.com"

// OriginRemote is the conventional name of the preferred remote.
const OriginRemote = "origin"

// Reason explains why no mapping was produced.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonNoHostedRemote Reason = "no-github-remote"
	ReasonNotAccessible  Reason = "not-accessible"
)

// MarshalJSON encodes ReasonNone as null.
func (r Reason) MarshalJSON() ([]byte, error) {
	if r == ReasonNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(r))
}

// Slug identifies a hosted repository.
type Slug struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Slug  string `json:"slug"`
}

// Mapping links a local remote to the hosted repository it points at.
type Mapping struct {
	RemoteName string `json:"remoteName"`
	Owner      string `json:"owner"`
	Repo       string `json:"repo"`
	FullName   string `json:"fullName"`
}

// Result is the outcome of MapLocalToHosted. Exactly one of Mapping and
// Reason is set.
type Result struct {
	Mapping *Mapping `json:"mapping"`
	Reason  Reason   `json:"reason"`
}

// Mapper recognises remote URLs for one hosted provider.
type Mapper struct {
	host string
}

// NewMapper creates a mapper for host. An empty host means DefaultHost.
func NewMapper(host string) *Mapper {
	host = strings.TrimSpace(strings.ToLower(host))
	if host == "" {
		host = DefaultHost
	}
	return &Mapper{host: host}
}

// Host returns the provider host the mapper matches.
func (m *Mapper) Host() string {
	return m.host
}

// ParseURL extracts owner and repository from a remote URL on the
// mapper's host. ok is false for any other shape.
func (m *Mapper) ParseURL(raw string) (Slug, bool) {
	raw = strings.TrimSpace(raw)
	path, ok := m.hostedPath(raw)
	if !ok {
		return Slug{}, false
	}

	path = trimSuffixFold(path, ".git")
	path = strings.TrimSuffix(path, "/")

	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return Slug{}, false
	}

	owner, repo := parts[0], parts[1]
	return Slug{Owner: owner, Repo: repo, Slug: owner + "/" + repo}, true
}

// hostedPath returns the owner/repo portion of raw for the recognised
// URL shapes: scp-style ssh, https, http and ssh:// with the git user.
func (m *Mapper) hostedPath(raw string) (string, bool) {
	if rest, ok := strings.CutPrefix(raw, "git@"+m.host+":"); ok {
		return rest, true
	}
	if rest, ok := strings.CutPrefix(raw, "ssh://git@"+m.host+"/"); ok {
		return rest, true
	}
	for _, scheme := range []string{"https://", "http://"} {
		if !strings.HasPrefix(raw, scheme+m.host+"/") {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			return "", false
		}
		return u.Path, true
	}
	return "", false
}

// MapLocalToHosted selects the hosted remote to use for a repository.
// The origin remote is preferred, then the first hosted remote. A
// non-empty accessible list restricts the result to the slugs it names.
func (m *Mapper) MapLocalToHosted(remotes []gitport.Remote, accessible []string) Result {
	type hosted struct {
		remote gitport.Remote
		slug   Slug
	}

	var candidates []hosted
	for _, r := range remotes {
		if slug, ok := m.ParseURL(r.URL); ok {
			candidates = append(candidates, hosted{remote: r, slug: slug})
		}
	}
	if len(candidates) == 0 {
		return Result{Reason: ReasonNoHostedRemote}
	}

	selected := candidates[0]
	for _, c := range candidates {
		if c.remote.Name == OriginRemote {
			selected = c
			break
		}
	}

	if len(accessible) > 0 {
		allowed := make(map[string]bool, len(accessible))
		for _, name := range accessible {
			allowed[name] = true
		}
		if !allowed[selected.slug.Slug] {
			return Result{Reason: ReasonNotAccessible}
		}
	}

	return Result{Mapping: &Mapping{
		RemoteName: selected.remote.Name,
		Owner:      selected.slug.Owner,
		Repo:       selected.slug.Repo,
		FullName:   selected.slug.Slug,
	}}
}

var defaultMapper = NewMapper(DefaultHost)

// ParseURL parses raw against DefaultHost.
func ParseURL(raw string) (Slug, bool) {
	return defaultMapper.ParseURL(raw)
}

// MapLocalToHosted maps remotes against DefaultHost.
func MapLocalToHosted(remotes []gitport.Remote, accessible []string) Result {
	return defaultMapper.MapLocalToHosted(remotes, accessible)
}

func trimSuffixFold(s, suffix string) string {
	if len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix) {
		return s[:len(s)-len(suffix)]
	}
	return s
}
