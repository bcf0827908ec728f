// pattern: Imperative Shell
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"projectbranch/internal/catalog"
	"projectbranch/internal/instance"
	"projectbranch/internal/logging"
	"projectbranch/internal/watch"
	"projectbranch/internal/web"
)

const shutdownTimeout = 5 * time.Second

func (o Options) runServe(args []string) error {
	fs := newFlagSet("serve")
	o.bindCommon(fs)
	bind := fs.String("bind", "", "address to bind (default: web.bind)")
	port := fs.Int("port", -1, "port to listen on, 0 for ephemeral (default: web.port)")
	noWatch := fs.Bool("no-watch", false, "do not watch the roots for changes")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireArgs(fs.Args(), 0); err != nil {
		return err
	}

	dataDir := ResolveDataDir(o.ConfigDir)

	// Acquire single-instance lock
	fl, err := instance.Lock(dataDir)
	if err != nil {
		return err
	}
	defer instance.Cleanup(dataDir, fl)

	e, err := o.loadEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if *bind != "" {
		e.cfg.Web.Bind = *bind
	}
	if *port >= 0 {
		e.cfg.Web.Port = *port
	}
	if *noWatch {
		e.cfg.Watch.Enabled = false
	}

	roots, err := e.roots()
	if err != nil {
		return err
	}

	appLogger := e.logs.For("app")
	appLogger.Info("server starting", "roots", roots)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, e, roots, dataDir, o.Stdout)
}

// serve runs the web server and optional watcher until ctx is cancelled.
func serve(ctx context.Context, e *env, roots []string, dataDir string, out io.Writer) error {
	appLogger := e.logs.For("app")

	webServer := web.New(
		web.Config{Bind: e.cfg.Web.Bind, Port: e.cfg.Web.Port},
		web.Deps{
			Catalog:    e.services.catalog,
			Scanner:    e.services.scanner,
			Branches:   e.services.branches,
			Mapper:     e.services.mapper,
			Accessible: accessibleSource(e, appLogger),
			Roots:      roots,
		},
		e.logs,
	)

	snap, err := webServer.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("initial scan: %w", err)
	}

	ln, err := webServer.Listen()
	if err != nil {
		appLogger.Error("web server listen error", "error", err)
		return err
	}

	// Write port file for CLI discovery
	if err := instance.WritePort(dataDir, webServer.Addr()); err != nil {
		appLogger.Error("failed to write port file", "error", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := webServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := webServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("web server shutdown error", "error", err)
		}
	}()

	fmt.Fprintf(out, "Serving %d projects on http://%s\n", len(snap.Projects), webServer.Addr())

	if e.cfg.Watch.Enabled {
		watcher, err := startWatcher(ctx, e, webServer, roots, snap)
		if err != nil {
			appLogger.Warn("watcher failed to start (continuing without watch)", "error", err)
		} else {
			defer func() { _ = watcher.Close() }()
		}
	}

	select {
	case <-ctx.Done():
		appLogger.Info("server stopping")
		return nil
	case err := <-serveErr:
		if err != nil {
			appLogger.Error("web server error", "error", err)
		}
		return err
	}
}

// startWatcher refreshes the catalog when the roots change and keeps the
// watched set in step with the refreshed catalog.
func startWatcher(ctx context.Context, e *env, webServer *web.Server, roots []string, snap *web.Snapshot) (*watch.Watcher, error) {
	logger := e.logs.For("watch")

	watchSet := func(projects []catalog.Project) []string {
		return watch.WatchSet(e.services.fs, roots, e.cfg.NestedDepth, projects)
	}
	opts := watch.Options{
		Debounce:   e.cfg.Watch.Debounce,
		ReadmeName: e.cfg.ReadmeName,
		Manifests:  e.cfg.Manifests,
	}

	var watcher *watch.Watcher
	watcher, err := watch.New(opts, func(ctx context.Context) {
		snap, err := webServer.Refresh(ctx)
		if err != nil {
			logger.Warn("refresh after change failed", "error", err)
			return
		}
		watcher.Sync(watchSet(snap.Projects))
	}, logger)
	if err != nil {
		return nil, err
	}

	watcher.Sync(watchSet(snap.Projects))
	go func() {
		if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("watcher stopped", "error", err)
		}
	}()
	logger.Info("watching roots", "directories", len(watcher.Watched()))
	return watcher, nil
}

// accessibleSource reloads the accessible-repository list on every call,
// so edits to the file apply without a restart.
func accessibleSource(e *env, logger *logging.ScopedLogger) func() []string {
	return func() []string {
		names, err := accessible(e.cfg)
		if err != nil {
			logger.Warn("accessible repositories unavailable", "error", err)
			return nil
		}
		return names
	}
}
