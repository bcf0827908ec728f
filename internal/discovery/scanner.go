// pattern: Imperative Shell

package discovery

import (
	"context"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/google/uuid"

	"projectbranch/internal/fallible"
	"projectbranch/internal/fsport"
	"projectbranch/internal/logging"
)

// Defaults for Options.
const (
	DefaultDocsRelativePath = "docs/project"
	DefaultReadmeName       = "README.md"
	DefaultNestedDepth      = 1
)

// worktreeLink matches the gitdir: line a linked worktree's .git file holds.
var worktreeLink = regexp.MustCompile(`(?im)^\s*gitdir:`)

// Options controls what a Scanner reports.
type Options struct {
	DocsRelativePath   string // Documentation folder relative to a repository
	ReadmeName         string // File inside the docs folder that marks a readme
	NestedDepth        int    // Levels below each direct folder to consider (0 = direct only)
	IncludeWithoutDocs bool   // Also report git repositories without a docs folder
}

func (o Options) withDefaults() Options {
	if o.DocsRelativePath == "" {
		o.DocsRelativePath = DefaultDocsRelativePath
	}
	if o.ReadmeName == "" {
		o.ReadmeName = DefaultReadmeName
	}
	if o.NestedDepth < 0 {
		o.NestedDepth = 0
	}
	return o
}

// Scanner discovers repositories below configured root folders.
type Scanner struct {
	fs     fsport.FS
	opts   Options
	logger *logging.ScopedLogger
}

// NewScanner creates a scanner over fs. A nil logger discards output.
func NewScanner(fs fsport.FS, opts Options, logger *logging.ScopedLogger) *Scanner {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Scanner{fs: fs, opts: opts.withDefaults(), logger: logger}
}

// Options returns the effective options.
func (s *Scanner) Options() Options {
	return s.opts
}

// WithOptions returns a scanner sharing fs and logger with different options.
func (s *Scanner) WithOptions(opts Options) *Scanner {
	return &Scanner{fs: s.fs, opts: opts.withDefaults(), logger: s.logger}
}

// Discover scans every root and returns candidates sorted by repository
// path. Filesystem errors never abort the scan; an unreadable directory
// simply contributes nothing. Cancelling ctx stops before the next root.
func (s *Scanner) Discover(ctx context.Context, rootPaths []string) []Candidate {
	logger := s.logger.With("scan", uuid.NewString())
	candidates := []Candidate{}
	reported := make(map[string]bool)

	for _, root := range uniqueRoots(rootPaths) {
		if ctx.Err() != nil {
			logger.Debug("scan cancelled", "remaining_root", root)
			break
		}

		paths := s.collectCandidatePaths(root)
		logger.Debug("scanned root", "root", root, "candidates", len(paths))

		for _, repoPath := range paths {
			// Overlapping roots: the first root to reach a path owns it.
			if reported[repoPath] {
				continue
			}
			if c, ok := s.inspect(root, repoPath); ok {
				reported[repoPath] = true
				candidates = append(candidates, c)
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].RepositoryPath < candidates[j].RepositoryPath
	})
	logger.Info("discovery complete", "roots", len(rootPaths), "repositories", len(candidates))
	return candidates
}

// inspect classifies one candidate directory. ok is false when the
// directory should not be reported.
func (s *Scanner) inspect(root, repoPath string) (Candidate, bool) {
	docsPath := filepath.Join(repoPath, s.opts.DocsRelativePath)
	hasDocs := s.isDir(docsPath)

	if !hasDocs && !s.opts.IncludeWithoutDocs {
		return Candidate{}, false
	}

	git := s.detectGitMetadata(repoPath)
	if !hasDocs && !git.HasMetadata {
		return Candidate{}, false
	}

	hasReadme := hasDocs && s.isFile(filepath.Join(docsPath, s.opts.ReadmeName))

	return Candidate{
		RootPath:       root,
		RepositoryPath: repoPath,
		DocsPath:       docsPath,
		HasDocsFolder:  hasDocs,
		HasReadme:      hasReadme,
		Git:            git,
	}, true
}

// detectGitMetadata checks for a .git directory first, then a .git file.
func (s *Scanner) detectGitMetadata(repoPath string) GitMetadata {
	metadataPath := filepath.Join(repoPath, ".git")

	if s.isDir(metadataPath) {
		return GitMetadata{
			HasMetadata:  true,
			MetadataPath: metadataPath,
			MetadataKind: MetadataDirectory,
		}
	}

	if s.isFile(metadataPath) {
		contents := fallible.OrZero(func() (string, error) { return s.fs.ReadText(metadataPath) })
		return GitMetadata{
			HasMetadata:  true,
			IsWorktree:   worktreeLink.MatchString(contents),
			MetadataPath: metadataPath,
			MetadataKind: MetadataFile,
		}
	}

	return GitMetadata{}
}

// collectCandidatePaths returns the direct folders of root plus their
// nested folders down to NestedDepth, deduplicated and sorted.
func (s *Scanner) collectCandidatePaths(root string) []string {
	seen := make(map[string]bool)
	var paths []string

	var walk func(dir string, depth int)
	walk = func(dir string, depth int) {
		for _, folder := range s.subdirectories(dir) {
			if !seen[folder] {
				seen[folder] = true
				paths = append(paths, folder)
			}
			if depth < s.opts.NestedDepth {
				walk(folder, depth+1)
			}
		}
	}
	walk(root, 0)

	sort.Strings(paths)
	return paths
}

// subdirectories lists the directories directly under dir. A listing
// failure reads as an empty directory.
func (s *Scanner) subdirectories(dir string) []string {
	entries, err := s.fs.ReadDirectory(dir)
	if err != nil {
		s.logger.Debug("skipping unreadable directory", "path", dir, "error", err)
		return nil
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDirectory {
			dirs = append(dirs, canonical(e.Path))
		}
	}
	return dirs
}

func (s *Scanner) isDir(path string) bool {
	return fallible.OrZero(func() (bool, error) { return s.fs.IsDirectory(path) })
}

func (s *Scanner) isFile(path string) bool {
	return fallible.OrZero(func() (bool, error) { return s.fs.IsFile(path) })
}

// uniqueRoots drops empty entries and duplicates, keeping first-seen order.
func uniqueRoots(roots []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range roots {
		if r == "" {
			continue
		}
		r = canonical(r)
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// canonical makes path absolute and clean without resolving symlinks.
func canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
