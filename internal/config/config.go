// pattern: Imperative Shell

package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"projectbranch/internal/catalog"
	"projectbranch/internal/discovery"
	"projectbranch/internal/gitport"
)

// AppName names the config directory and the lock/port files.
const AppName = "projectbranch"

const configFileName = "config.yaml"

// Git backends.
const (
	BackendShell = "shell"
	BackendGoGit = "gogit"
)

var themes = []string{"latte", "frappe", "macchiato", "mocha"}

var logLevels = []string{"debug", "info", "warn", "error"}

type Config struct {
	Roots              []string     `yaml:"roots"`
	DocsPath           string       `yaml:"docs_path"`
	ReadmeName         string       `yaml:"readme_name"`
	NestedDepth        int          `yaml:"nested_depth"`
	IncludeWithoutDocs bool         `yaml:"include_without_docs"`
	PrimaryBranch      string       `yaml:"primary_branch"`
	SecondaryBranch    string       `yaml:"secondary_branch"`
	ControlSuffixes    []string     `yaml:"control_suffixes"`
	Manifests          []string     `yaml:"manifests"`
	Concurrency        int          `yaml:"concurrency"`
	Git                GitConfig    `yaml:"git"`
	GitHub             GitHubConfig `yaml:"github"`
	Web                WebConfig    `yaml:"web"`
	Watch              WatchConfig  `yaml:"watch"`
	LogLevel           string       `yaml:"log_level"`
	Theme              string       `yaml:"theme"`
}

type GitConfig struct {
	Backend string        `yaml:"backend"`
	Timeout time.Duration `yaml:"timeout"`
}

type GitHubConfig struct {
	Host string `yaml:"host"`
	// AccessibleFile lists the repositories the user can reach; empty
	// means every hosted remote is accepted.
	AccessibleFile string `yaml:"accessible_file"`
}

type WebConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"` // 0 picks an ephemeral port
}

type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// LookPathFunc is the function signature for looking up executables.
type LookPathFunc func(name string) (string, error)

func DefaultConfig() Config {
	return Config{
		DocsPath:        discovery.DefaultDocsRelativePath,
		ReadmeName:      discovery.DefaultReadmeName,
		NestedDepth:     discovery.DefaultNestedDepth,
		PrimaryBranch:   catalog.DefaultPrimaryBranch,
		SecondaryBranch: catalog.DefaultSecondaryBranch,
		ControlSuffixes: append([]string(nil), catalog.DefaultControlSuffixes...),
		Manifests:       append([]string(nil), catalog.DefaultManifests...),
		Concurrency:     catalog.DefaultConcurrency,
		Git: GitConfig{
			Backend: BackendShell,
			Timeout: gitport.DefaultTimeout,
		},
		GitHub: GitHubConfig{Host: "github.com"},
		Web:    WebConfig{Bind: "127.0.0.1"},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 500 * time.Millisecond,
		},
		LogLevel: "info",
		Theme:    "mocha",
	}
}

// Load reads the config file from the default directory.
func Load() (Config, error) {
	return LoadFrom(filepath.Join(DefaultDir(), configFileName))
}

// LoadFromDir reads config.yaml from dir.
func LoadFromDir(dir string) (Config, error) {
	return LoadFrom(filepath.Join(dir, configFileName))
}

// LoadFrom reads configPath over the defaults. A missing file yields the
// defaults unchanged.
func LoadFrom(configPath string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse %s: %w", configPath, err)
	}

	if cfg.Theme == "" {
		cfg.Theme = "mocha"
	}
	if cfg.Git.Backend == "" {
		cfg.Git.Backend = BackendShell
	}

	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.NestedDepth < 0:
		return fmt.Errorf("nested_depth must be >= 0, got: %d", c.NestedDepth)
	case c.Concurrency < 0:
		return fmt.Errorf("concurrency must be >= 0, got: %d", c.Concurrency)
	case filepath.IsAbs(c.DocsPath) || strings.HasPrefix(filepath.Clean(c.DocsPath), ".."):
		return fmt.Errorf("docs_path must be relative to the repository, got: %s", c.DocsPath)
	case strings.ContainsAny(c.ReadmeName, `/\`):
		return fmt.Errorf("readme_name must be a file name, got: %s", c.ReadmeName)
	case c.Git.Backend != BackendShell && c.Git.Backend != BackendGoGit:
		return fmt.Errorf("git.backend must be '%s' or '%s', got: %s", BackendShell, BackendGoGit, c.Git.Backend)
	case c.Git.Timeout < 0:
		return fmt.Errorf("git.timeout must not be negative, got: %s", c.Git.Timeout)
	case c.Web.Port < 0 || c.Web.Port > 65535:
		return fmt.Errorf("web.port must be between 0 and 65535, got: %d", c.Web.Port)
	case c.Watch.Debounce < 0:
		return fmt.Errorf("watch.debounce must not be negative, got: %s", c.Watch.Debounce)
	case !contains(themes, c.Theme):
		return fmt.Errorf("theme must be one of %s, got: %s", strings.Join(themes, ", "), c.Theme)
	case c.LogLevel != "" && !contains(logLevels, c.LogLevel):
		return fmt.Errorf("log_level must be one of %s, got: %s", strings.Join(logLevels, ", "), c.LogLevel)
	}
	for _, m := range c.Manifests {
		if !catalog.KnownManifest(m) {
			return fmt.Errorf("unknown manifest %q", m)
		}
	}
	for _, s := range c.ControlSuffixes {
		if s == "" || strings.ContainsAny(s, `/\`) {
			return fmt.Errorf("control_suffixes entries must be single path segments, got: %q", s)
		}
	}
	return nil
}

// ValidateGit checks that the git binary is available when the shell
// backend is selected.
func (c *Config) ValidateGit() error {
	return c.ValidateGitWith(exec.LookPath)
}

// ValidateGitWith is ValidateGit with an injectable lookup function.
func (c *Config) ValidateGitWith(lookPath LookPathFunc) error {
	if c.Git.Backend != BackendShell {
		return nil
	}
	if _, err := lookPath("git"); err != nil {
		return fmt.Errorf("git backend 'shell' needs git in PATH (or set git.backend: gogit)")
	}
	return nil
}

// ResolvedRoots returns the configured roots with ~ expanded, made
// absolute, without blanks.
func (c *Config) ResolvedRoots() []string {
	var roots []string
	for _, r := range c.Roots {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		r = ExpandHome(r)
		if abs, err := filepath.Abs(r); err == nil {
			r = abs
		}
		roots = append(roots, r)
	}
	return roots
}

// ResolvedAccessibleFile returns GitHub.AccessibleFile with ~ expanded.
func (c *Config) ResolvedAccessibleFile() string {
	if c.GitHub.AccessibleFile == "" {
		return ""
	}
	return ExpandHome(c.GitHub.AccessibleFile)
}

// DiscoveryOptions maps the config onto scanner options.
func (c *Config) DiscoveryOptions() discovery.Options {
	return discovery.Options{
		DocsRelativePath:   c.DocsPath,
		ReadmeName:         c.ReadmeName,
		NestedDepth:        c.NestedDepth,
		IncludeWithoutDocs: c.IncludeWithoutDocs,
	}
}

// CatalogOptions maps the config onto catalog options.
func (c *Config) CatalogOptions() catalog.Options {
	return catalog.Options{
		Concurrency:     c.Concurrency,
		PrimaryBranch:   c.PrimaryBranch,
		SecondaryBranch: c.SecondaryBranch,
		ControlSuffixes: c.ControlSuffixes,
		Manifests:       c.Manifests,
		ReadmeName:      c.ReadmeName,
	}
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// DefaultDir is $XDG_CONFIG_HOME/projectbranch, or ~/.config/projectbranch.
func DefaultDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, AppName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", AppName)
	}

	return filepath.Join(home, ".config", AppName)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
