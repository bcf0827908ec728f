package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"

	"projectbranch/internal/gitport"
)

var errUnavailable = errors.New("not available")

// fakeGit answers queries from per-path tables; missing entries fail.
type fakeGit struct {
	mu       sync.Mutex
	branches map[string]string
	common   map[string]string
	bare     map[string]bool
	remotes  map[string][]gitport.Remote
	calls    []string
}

func newFakeGit() *fakeGit {
	return &fakeGit{
		branches: make(map[string]string),
		common:   make(map[string]string),
		bare:     make(map[string]bool),
		remotes:  make(map[string][]gitport.Remote),
	}
}

func (f *fakeGit) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeGit) called(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeGit) CurrentBranch(_ context.Context, repo string) (string, error) {
	f.record("branch " + repo)
	if b, ok := f.branches[repo]; ok {
		return b, nil
	}
	return "", errUnavailable
}

func (f *fakeGit) ListBranches(context.Context, string) ([]gitport.Branch, error) {
	return nil, nil
}

func (f *fakeGit) SwitchBranch(context.Context, string, string) error {
	return nil
}

func (f *fakeGit) Remotes(_ context.Context, repo string) ([]gitport.Remote, error) {
	f.record("remotes " + repo)
	if r, ok := f.remotes[repo]; ok {
		return r, nil
	}
	return nil, errUnavailable
}

func (f *fakeGit) CommonDirectory(_ context.Context, repo string) (string, error) {
	f.record("common " + repo)
	if c, ok := f.common[repo]; ok {
		return c, nil
	}
	return "", errUnavailable
}

// bareGit adds the optional bare-repository capability.
type bareGit struct{ *fakeGit }

func (b bareGit) IsBareRepository(_ context.Context, repo string) (bool, error) {
	return b.bare[repo], nil
}
