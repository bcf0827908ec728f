// pattern: Imperative Shell
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"projectbranch/internal/catalog"
	"projectbranch/internal/instance"
)

// BuildApp creates and configures the CLI application with all commands and groups.
func BuildApp(version string, opts Options) *App {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	app := NewApp(version, opts.Stderr)

	app.AddCommand(&Command{
		Name:    "discover",
		Summary: "List repositories found under the workspace roots",
		Usage:   "Usage: projectbranch discover [--all] [--root <dir>]... [--json]",
		Run:     opts.runDiscover,
	})

	app.AddCommand(&Command{
		Name:    "projects",
		Summary: "List projects with their worktrees",
		Usage:   "Usage: projectbranch projects [--filter <pattern>] [--root <dir>]... [--json]",
		Run:     opts.runProjects,
	})

	app.AddCommand(&Command{
		Name:    "map",
		Summary: "Map a repository's remotes to a hosted repository",
		Usage:   "Usage: projectbranch map <path> [--server] [--json]",
		Run:     opts.runMap,
	})

	app.AddCommand(&Command{
		Name:    "branches",
		Summary: "Show the active branch and local branches of a worktree",
		Usage:   "Usage: projectbranch branches <path> [--server] [--json]",
		Run:     opts.runBranches,
	})

	app.AddCommand(&Command{
		Name:    "switch",
		Summary: "Check out a branch in a worktree",
		Usage:   "Usage: projectbranch switch <path> <branch> [--json]",
		Run:     opts.runSwitch,
	})

	docGroup := app.AddGroup("doc", "Read and edit project documents")
	RegisterDocCommands(docGroup, opts)

	app.AddCommand(&Command{
		Name:    "serve",
		Summary: "Serve the catalog over HTTP and watch the roots for changes",
		Usage:   "Usage: projectbranch serve [--bind <addr>] [--port <n>] [--no-watch] [--root <dir>]...",
		Run:     opts.runServe,
	})

	app.AddCommand(&Command{
		Name:             "list",
		Summary:          "Output JSON from the running server",
		Usage:            "Usage: projectbranch list [--filter <pattern>] [--refresh] [--repositories]",
		RequiresInstance: true,
		Run:              opts.runList,
	})

	app.AddCommand(&Command{
		Name:    "cleanup",
		Summary: "Remove stale lock/port files from a crashed server",
		Usage:   "Usage: projectbranch cleanup",
		Run:     opts.runCleanup,
	})

	app.AddCommand(&Command{
		Name:    "version",
		Summary: "Print version and exit",
		Usage:   "Usage: projectbranch version",
		Run: func(args []string) error {
			_, err := fmt.Fprintln(opts.Stdout, version)
			return err
		},
	})

	return app
}

// newFlagSet returns a flag set that reports errors instead of exiting.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// bindCommon registers the global flags on a command's flag set so they
// may also follow the command name.
func (o *Options) bindCommon(fs *flag.FlagSet) {
	fs.StringArrayVarP(&o.Roots, "root", "r", o.Roots, "workspace root (repeatable)")
	fs.BoolVar(&o.JSON, "json", o.JSON, "output JSON")
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

// commandContext is cancelled on interrupt.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return abs, nil
}

func (e *env) roots() ([]string, error) {
	roots := e.cfg.ResolvedRoots()
	if len(roots) == 0 {
		return nil, errors.New("no workspace roots configured (set roots in config.yaml or pass --root)")
	}
	return roots, nil
}

func (o Options) runDiscover(args []string) error {
	fs := newFlagSet("discover")
	o.bindCommon(fs)
	all := fs.Bool("all", false, "include repositories without a docs folder")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireArgs(fs.Args(), 0); err != nil {
		return err
	}

	e, err := o.loadEnv()
	if err != nil {
		return err
	}
	defer e.close()

	roots, err := e.roots()
	if err != nil {
		return err
	}

	scanner := e.services.scanner
	if *all {
		opts := scanner.Options()
		opts.IncludeWithoutDocs = true
		scanner = scanner.WithOptions(opts)
	}

	ctx, stop := commandContext()
	defer stop()
	return e.renderer.Candidates(scanner.Discover(ctx, roots))
}

func (o Options) runProjects(args []string) error {
	fs := newFlagSet("projects")
	o.bindCommon(fs)
	filter := fs.String("filter", "", "fuzzy filter on display name and path")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireArgs(fs.Args(), 0); err != nil {
		return err
	}

	e, err := o.loadEnv()
	if err != nil {
		return err
	}
	defer e.close()

	roots, err := e.roots()
	if err != nil {
		return err
	}

	ctx, stop := commandContext()
	defer stop()
	projects, err := e.services.catalog.DiscoverGrouped(ctx, roots)
	if err != nil {
		return err
	}
	if *filter != "" {
		projects = catalog.Filter(projects, *filter)
	}
	return e.renderer.Projects(projects)
}

func (o Options) runMap(args []string) error {
	fs := newFlagSet("map")
	o.bindCommon(fs)
	server := fs.Bool("server", false, "ask the running server instead of reading git directly")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireArgs(fs.Args(), 1); err != nil {
		return err
	}
	path, err := absPath(fs.Arg(0))
	if err != nil {
		return err
	}

	if *server {
		return o.delegateJSON(func(c *instance.Client) ([]byte, error) { return c.Mapping(path) })
	}

	e, err := o.loadEnv()
	if err != nil {
		return err
	}
	defer e.close()

	accessibleNames, err := accessible(e.cfg)
	if err != nil {
		return err
	}

	ctx, stop := commandContext()
	defer stop()
	remotes, err := e.services.git.Remotes(ctx, path)
	if err != nil {
		return fmt.Errorf("read remotes of %s: %w", path, err)
	}

	return e.renderer.Mapping(MappingView{
		Path:    path,
		Remotes: remotes,
		Result:  e.services.mapper.MapLocalToHosted(remotes, accessibleNames),
	})
}

func (o Options) runBranches(args []string) error {
	fs := newFlagSet("branches")
	o.bindCommon(fs)
	server := fs.Bool("server", false, "ask the running server instead of reading git directly")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireArgs(fs.Args(), 1); err != nil {
		return err
	}
	path, err := absPath(fs.Arg(0))
	if err != nil {
		return err
	}

	if *server {
		return o.delegateJSON(func(c *instance.Client) ([]byte, error) { return c.Branches(path) })
	}

	e, err := o.loadEnv()
	if err != nil {
		return err
	}
	defer e.close()

	ctx, stop := commandContext()
	defer stop()
	bc, err := e.services.branches.Context(ctx, path)
	if err != nil {
		return err
	}
	return e.renderer.Branches(BranchView{Path: path, Context: bc})
}

func (o Options) runSwitch(args []string) error {
	fs := newFlagSet("switch")
	o.bindCommon(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireArgs(fs.Args(), 2); err != nil {
		return err
	}
	path, err := absPath(fs.Arg(0))
	if err != nil {
		return err
	}

	e, err := o.loadEnv()
	if err != nil {
		return err
	}
	defer e.close()

	ctx, stop := commandContext()
	defer stop()
	bc, err := e.services.branches.Switch(ctx, path, fs.Arg(1))
	if err != nil {
		return err
	}
	e.logs.For("app").Info("branch switched", "path", path, "branch", bc.ActiveBranch)
	return e.renderer.Branches(BranchView{Path: path, Context: bc})
}

func (o Options) runList(args []string) error {
	fs := newFlagSet("list")
	filter := fs.String("filter", "", "fuzzy filter on display name and path")
	refresh := fs.Bool("refresh", false, "rescan the roots before listing")
	repositories := fs.Bool("repositories", false, "list discovered repositories instead of projects")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireArgs(fs.Args(), 0); err != nil {
		return err
	}

	return o.delegateJSON(func(c *instance.Client) ([]byte, error) {
		if *refresh {
			if _, err := c.Refresh(); err != nil {
				return nil, err
			}
		}
		if *repositories {
			return c.Repositories()
		}
		return c.List(*filter)
	})
}

// delegateJSON runs fetch against the running server and prints its JSON.
func (o Options) delegateJSON(fetch func(*instance.Client) ([]byte, error)) error {
	delegate := Delegate{ConfigDir: o.ConfigDir}
	return delegate.Run(func(c *instance.Client) error {
		data, err := fetch(c)
		if err != nil {
			return err
		}
		return PrintJSON(o.Stdout, data)
	})
}

// runCleanup removes stale lock and port files from a crashed server.
func (o Options) runCleanup(args []string) error {
	dataDir := ResolveDataDir(o.ConfigDir)

	// Try to acquire the lock to verify no server is actually running
	fl, err := instance.Lock(dataDir)
	if err != nil {
		return errors.New("a projectbranch server appears to be running. Stop it first")
	}
	// We got the lock: no server is running. Clean up and release.
	instance.Cleanup(dataDir, fl)
	_, err = fmt.Fprintln(o.Stdout, "Cleaned up stale lock and port files.")
	return err
}

// RegisterDocCommands registers the doc command group. Documents live in
// the docs folder of the repository given as the first argument.
func RegisterDocCommands(group *Group, opts Options) {
	group.AddCommand(&Command{
		Name:    "read",
		Summary: "Print a document",
		Usage:   "Usage: projectbranch doc read <repo> [--name <file>]",
		Run:     opts.runDocRead,
	})

	group.AddCommand(&Command{
		Name:    "write",
		Summary: "Replace a document with --text or stdin",
		Usage:   "Usage: projectbranch doc write <repo> [--name <file>] [--text <text>]",
		Run: func(args []string) error {
			return opts.runDocEdit("write", args)
		},
	})

	group.AddCommand(&Command{
		Name:    "append",
		Summary: "Append --text or stdin to a document",
		Usage:   "Usage: projectbranch doc append <repo> [--name <file>] [--text <text>]",
		Run: func(args []string) error {
			return opts.runDocEdit("append", args)
		},
	})
}

func (o Options) runDocRead(args []string) error {
	fs := newFlagSet("doc read")
	o.bindCommon(fs)
	name := fs.String("name", "", "document file name (default: configured readme_name)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireArgs(fs.Args(), 1); err != nil {
		return err
	}

	e, err := o.loadEnv()
	if err != nil {
		return err
	}
	defer e.close()

	docsPath, err := e.docsPath(fs.Arg(0))
	if err != nil {
		return err
	}
	text, err := e.services.docs.Read(docsPath, *name)
	if err != nil {
		return err
	}
	if e.renderer.JSON() {
		path, _ := e.services.docs.Path(docsPath, *name)
		return e.renderer.Document(DocumentView{Path: path, Contents: text})
	}
	_, err = io.WriteString(o.Stdout, text)
	return err
}

func (o Options) runDocEdit(mode string, args []string) error {
	fs := newFlagSet("doc " + mode)
	o.bindCommon(fs)
	name := fs.String("name", "", "document file name (default: configured readme_name)")
	text := fs.String("text", "", "text to write (default: read stdin)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireArgs(fs.Args(), 1); err != nil {
		return err
	}

	contents := *text
	if !fs.Changed("text") {
		data, err := io.ReadAll(o.stdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		contents = string(data)
	}

	e, err := o.loadEnv()
	if err != nil {
		return err
	}
	defer e.close()

	docsPath, err := e.docsPath(fs.Arg(0))
	if err != nil {
		return err
	}

	view := DocumentView{}
	switch mode {
	case "append":
		view.Contents, err = e.services.docs.Append(docsPath, contents, *name)
		if err == nil {
			view.Path, err = e.services.docs.Path(docsPath, *name)
		}
	default:
		view.Contents = contents
		view.Path, err = e.services.docs.Write(docsPath, contents, *name)
	}
	if err != nil {
		return err
	}
	e.logs.For("app").Info("document "+mode, "path", view.Path)
	return e.renderer.Document(view)
}

// docsPath returns the docs folder of the repository at repo.
func (e *env) docsPath(repo string) (string, error) {
	abs, err := absPath(repo)
	if err != nil {
		return "", err
	}
	return filepath.Join(abs, filepath.FromSlash(e.cfg.DocsPath)), nil
}
