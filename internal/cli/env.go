// pattern: Imperative Shell
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"projectbranch/internal/access"
	"projectbranch/internal/branch"
	"projectbranch/internal/catalog"
	"projectbranch/internal/config"
	"projectbranch/internal/discovery"
	"projectbranch/internal/document"
	"projectbranch/internal/fsport"
	"projectbranch/internal/gitport"
	"projectbranch/internal/logging"
	"projectbranch/internal/remote"
)

const logFileName = "projectbranch.log"

// Options are the global flags shared by every command.
type Options struct {
	ConfigDir string
	Roots     []string // Replaces the configured roots when set
	JSON      bool
	LogLevel  string // Overrides log_level and lowers the stderr mirror to match
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
}

func (o Options) stdin() io.Reader {
	if o.Stdin == nil {
		return os.Stdin
	}
	return o.Stdin
}

// ResolveDataDir returns the data directory for config, lock, port and
// log files. If configDir is specified, uses that.
func ResolveDataDir(configDir string) string {
	if configDir != "" {
		return configDir
	}
	return config.DefaultDir()
}

// env is everything a local command needs, built from config and flags.
type env struct {
	cfg      config.Config
	logs     *logging.Manager
	renderer *Renderer
	services services
}

// services are the engine components wired onto the configured ports.
type services struct {
	fs       fsport.FS
	git      gitport.Port
	scanner  *discovery.Scanner
	catalog  *catalog.Service
	branches *branch.Service
	docs     *document.Service
	mapper   *remote.Mapper
}

// loadEnv reads the config, applies the global flags and wires services.
// The caller must call close.
func (o Options) loadEnv() (*env, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	logs, err := o.newLogManager(cfg)
	if err != nil {
		return nil, err
	}
	logs.For("app").Debug("config loaded", "roots", cfg.ResolvedRoots(), "git_backend", cfg.Git.Backend)

	return &env{
		cfg:      cfg,
		logs:     logs,
		renderer: NewRenderer(o.Stdout, o.outputMode(), cfg.Theme),
		services: newServices(cfg, fsport.NewOS(), logs),
	}, nil
}

func (e *env) close() {
	_ = e.logs.Close()
}

func (o Options) loadConfig() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if o.ConfigDir != "" {
		cfg, err = config.LoadFromDir(o.ConfigDir)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}

	if len(o.Roots) > 0 {
		cfg.Roots = append([]string(nil), o.Roots...)
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if err := cfg.ValidateGit(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (o Options) newLogManager(cfg config.Config) (*logging.Manager, error) {
	consoleLevel := "warn"
	if o.LogLevel != "" {
		consoleLevel = o.LogLevel
	}
	logs, err := logging.NewManager(logging.Config{
		FilePath:     filepath.Join(ResolveDataDir(o.ConfigDir), logFileName),
		MaxSizeMB:    10,
		MaxBackups:   3,
		MaxAgeDays:   7,
		Level:        cfg.LogLevel,
		Console:      o.Stderr,
		ConsoleLevel: consoleLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return logs, nil
}

func (o Options) outputMode() OutputMode {
	if o.JSON {
		return OutputJSON
	}
	return OutputAuto
}

func newServices(cfg config.Config, fs fsport.FS, logs logging.LoggerProvider) services {
	var git gitport.Port
	switch cfg.Git.Backend {
	case config.BackendGoGit:
		git = gitport.NewGoGit()
	default:
		git = gitport.NewShell(cfg.Git.Timeout, logs.For("gitport"))
	}

	scanner := discovery.NewScanner(fs, cfg.DiscoveryOptions(), logs.For("discovery"))
	return services{
		fs:       fs,
		git:      git,
		scanner:  scanner,
		catalog:  catalog.NewService(scanner, git, fs, cfg.CatalogOptions(), logs.For("catalog")),
		branches: branch.NewService(git),
		docs:     document.NewService(fs, cfg.ReadmeName),
		mapper:   remote.NewMapper(cfg.GitHub.Host),
	}
}

// accessible loads the accessible-repository list. No configured file
// means every hosted remote is accepted.
func accessible(cfg config.Config) ([]string, error) {
	path := cfg.ResolvedAccessibleFile()
	if path == "" {
		return nil, nil
	}
	repos, err := access.Load(path)
	if err != nil {
		return nil, err
	}
	return access.FullNames(repos), nil
}
