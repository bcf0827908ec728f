// pattern: Imperative Shell

// Package catalog groups discovered repositories into projects: worktrees
// sharing one git common directory become a single project with an
// elected default worktree and a resolved display name.
package catalog

import (
	"context"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"projectbranch/internal/discovery"
	"projectbranch/internal/fallible"
	"projectbranch/internal/fsport"
	"projectbranch/internal/gitport"
	"projectbranch/internal/logging"
)

// DefaultConcurrency bounds the number of repositories enriched at once.
const DefaultConcurrency = 8

// Worktree is a discovered candidate enriched with git state.
type Worktree struct {
	discovery.Candidate
	BranchName         string `json:"branchName"`
	RepositoryIdentity string `json:"repositoryIdentity"`
	IsBareRepository   bool   `json:"isBareRepository"`
	IsDefault          bool   `json:"isDefault"`
}

// Project is a group of worktrees that share one repository.
type Project struct {
	ProjectID           string     `json:"projectId"`
	DisplayName         string     `json:"displayName"`
	ProjectPath         string     `json:"projectPath"`
	RootPath            string     `json:"rootPath"`
	DefaultWorktreePath string     `json:"defaultWorktreePath"`
	HasDocsFolder       bool       `json:"hasDocsFolder"`
	HasReadme           bool       `json:"hasReadme"`
	WorktreeCount       int        `json:"worktreeCount"`
	Worktrees           []Worktree `json:"worktrees"`
}

// Default returns the elected default worktree.
func (p Project) Default() (Worktree, bool) {
	for _, w := range p.Worktrees {
		if w.IsDefault {
			return w, true
		}
	}
	return Worktree{}, false
}

// Options tunes aggregation.
type Options struct {
	Concurrency     int
	PrimaryBranch   string
	SecondaryBranch string
	ControlSuffixes []string
	Manifests       []string // Manifest file names consulted for a display name, in order
	ReadmeName      string
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.PrimaryBranch == "" {
		o.PrimaryBranch = DefaultPrimaryBranch
	}
	if o.SecondaryBranch == "" {
		o.SecondaryBranch = DefaultSecondaryBranch
	}
	if len(o.ControlSuffixes) == 0 {
		o.ControlSuffixes = DefaultControlSuffixes
	}
	if o.Manifests == nil {
		o.Manifests = DefaultManifests
	}
	if o.ReadmeName == "" {
		o.ReadmeName = discovery.DefaultReadmeName
	}
	return o
}

// Service aggregates discovery results into projects.
type Service struct {
	scanner *discovery.Scanner
	git     gitport.Port
	fs      fsport.FS
	opts    Options
	ranking Ranking
	logger  *logging.ScopedLogger
}

// NewService wires the catalog. The scanner is copied with
// IncludeWithoutDocs forced on so that worktrees without documentation
// still join their project. fs may be nil, in which case README titles and
// manifests are not consulted.
func NewService(scanner *discovery.Scanner, git gitport.Port, fs fsport.FS, opts Options, logger *logging.ScopedLogger) *Service {
	if logger == nil {
		logger = logging.NopLogger()
	}
	scanOpts := scanner.Options()
	scanOpts.IncludeWithoutDocs = true
	opts = opts.withDefaults()
	return &Service{
		scanner: scanner.WithOptions(scanOpts),
		git:     git,
		fs:      fs,
		opts:    opts,
		ranking: Ranking{PrimaryBranch: opts.PrimaryBranch, SecondaryBranch: opts.SecondaryBranch},
		logger:  logger,
	}
}

// DiscoverGrouped scans rootPaths and returns projects ordered with
// documented projects first, then by project path and id. The only error
// is ctx's, when the run was cancelled.
func (s *Service) DiscoverGrouped(ctx context.Context, rootPaths []string) ([]Project, error) {
	candidates := s.scanner.Discover(ctx, rootPaths)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	worktrees, err := s.enrich(ctx, candidates)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string][]Worktree)
	for _, w := range worktrees {
		if w.IsBareRepository {
			s.logger.Debug("skipping bare repository", "path", w.RepositoryPath)
			continue
		}
		buckets[w.RepositoryIdentity] = append(buckets[w.RepositoryIdentity], w)
	}

	identities := make([]string, 0, len(buckets))
	for id := range buckets {
		identities = append(identities, id)
	}
	sort.Strings(identities)

	projects := make([]Project, len(identities))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, id := range identities {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			projects[i] = s.assemble(gctx, id, buckets[id])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	SortProjects(projects)
	s.logger.Info("catalog built", "candidates", len(candidates), "projects", len(projects))
	return projects, nil
}

// enrich queries git for every candidate. Each query falls back to its own
// default; a failure never cancels the sibling queries.
func (s *Service) enrich(ctx context.Context, candidates []discovery.Candidate) ([]Worktree, error) {
	worktrees := make([]Worktree, len(candidates))

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, c := range candidates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			worktrees[i] = s.enrichOne(ctx, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return worktrees, nil
}

func (s *Service) enrichOne(ctx context.Context, c discovery.Candidate) Worktree {
	repo := c.RepositoryPath
	var (
		branch    string
		commonDir string
		bare      bool
		queries   errgroup.Group
	)
	queries.Go(func() error {
		branch = fallible.OrZero(s.logged("current branch", repo, func() (string, error) {
			return s.git.CurrentBranch(ctx, repo)
		}))
		return nil
	})
	queries.Go(func() error {
		commonDir = fallible.Or(s.logged("common directory", repo, func() (string, error) {
			return s.git.CommonDirectory(ctx, repo)
		}), repo)
		return nil
	})
	queries.Go(func() error {
		bare = gitport.IsBare(ctx, s.git, repo)
		return nil
	})
	_ = queries.Wait()

	identity := commonDir
	if identity == "" {
		identity = repo
	}
	return Worktree{
		Candidate:          c,
		BranchName:         branch,
		RepositoryIdentity: identity,
		IsBareRepository:   bare,
	}
}

// assemble builds one project from the worktrees sharing identity.
func (s *Service) assemble(ctx context.Context, identity string, members []Worktree) Project {
	sorted := append([]Worktree(nil), members...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RepositoryPath < sorted[j].RepositoryPath })

	elected := s.ranking.Elect(sorted)
	def := sorted[elected]
	projectPath := NormalizeProjectPath(identity, def.RepositoryPath, s.opts.ControlSuffixes...)

	p := Project{
		ProjectID:           identity,
		DisplayName:         s.resolveDisplayName(ctx, def, projectPath),
		ProjectPath:         projectPath,
		RootPath:            def.RootPath,
		DefaultWorktreePath: def.RepositoryPath,
		WorktreeCount:       len(sorted),
		Worktrees:           sorted,
	}
	for i := range sorted {
		sorted[i].IsDefault = i == elected
		p.HasDocsFolder = p.HasDocsFolder || sorted[i].HasDocsFolder
		p.HasReadme = p.HasReadme || sorted[i].HasReadme
	}
	return p
}

// resolveDisplayName tries, in order: the README title, the configured
// manifests, the preferred remote's repository name, and the project path.
func (s *Service) resolveDisplayName(ctx context.Context, def Worktree, projectPath string) string {
	steps := []func() (string, error){s.readmeTitle(def)}
	for _, name := range s.opts.Manifests {
		steps = append(steps, s.manifestName(def, name))
	}
	steps = append(steps, s.remoteName(ctx, def))

	if name, ok := fallible.First(steps...); ok {
		return name
	}
	if projectPath == "" {
		projectPath = def.RepositoryPath
	}
	return PathDisplayName(projectPath)
}

func (s *Service) readmeTitle(w Worktree) func() (string, error) {
	return func() (string, error) {
		if s.fs == nil || !w.HasReadme {
			return "", nil
		}
		contents, err := s.readFile(filepath.Join(w.DocsPath, s.opts.ReadmeName))
		return ParseReadmeTitle(contents), err
	}
}

func (s *Service) manifestName(w Worktree, manifest string) func() (string, error) {
	return func() (string, error) {
		if s.fs == nil {
			return "", nil
		}
		contents, err := s.readFile(filepath.Join(w.RepositoryPath, manifest))
		if err != nil || contents == "" {
			return "", err
		}
		return s.logged("manifest "+manifest, w.RepositoryPath, func() (string, error) {
			return ParseManifest(manifest, contents)
		})()
	}
}

func (s *Service) remoteName(ctx context.Context, w Worktree) func() (string, error) {
	return s.logged("remotes", w.RepositoryPath, func() (string, error) {
		remotes, err := s.git.Remotes(ctx, w.RepositoryPath)
		if err != nil || len(remotes) == 0 {
			return "", err
		}
		preferred := remotes[0]
		for _, r := range remotes {
			if r.Name == "origin" {
				preferred = r
				break
			}
		}
		return RemoteRepoName(preferred.URL), nil
	})
}

// readFile returns "" without error when path is not a regular file.
func (s *Service) readFile(path string) (string, error) {
	isFile, err := s.fs.IsFile(path)
	if err != nil || !isFile {
		return "", err
	}
	return s.fs.ReadText(path)
}

// logged wraps fn so that a failure is recorded at debug level before a
// fallback replaces it.
func (s *Service) logged(what, repo string, fn func() (string, error)) func() (string, error) {
	return func() (string, error) {
		v, err := fn()
		if err != nil {
			s.logger.Debug("query failed, using fallback", "query", what, "path", repo, "error", err)
		}
		return v, err
	}
}

// SortProjects orders projects with documentation first, then by project
// path and project id.
func SortProjects(projects []Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		a, b := projects[i], projects[j]
		if a.HasDocsFolder != b.HasDocsFolder {
			return a.HasDocsFolder
		}
		if a.ProjectPath != b.ProjectPath {
			return a.ProjectPath < b.ProjectPath
		}
		return a.ProjectID < b.ProjectID
	})
}

// Lookup finds the project whose id, project path or any worktree path
// equals path.
func Lookup(projects []Project, path string) (Project, bool) {
	clean := filepath.Clean(path)
	for _, p := range projects {
		if p.ProjectID == path || p.ProjectPath == clean {
			return p, true
		}
		for _, w := range p.Worktrees {
			if w.RepositoryPath == clean {
				return p, true
			}
		}
	}
	return Project{}, false
}
