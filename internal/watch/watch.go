// pattern: Imperative Shell

// Package watch triggers catalog refreshes when workspace folders change.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"projectbranch/internal/catalog"
	"projectbranch/internal/discovery"
	"projectbranch/internal/fsport"
	"projectbranch/internal/logging"
)

// DefaultDebounce is the quiet period before a burst of changes triggers
// one refresh.
const DefaultDebounce = 500 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Debounce is the quiet period; non-positive means DefaultDebounce.
	Debounce time.Duration
	// ReadmeName and Manifests name the files whose edits change what
	// the catalog reports. Other writes are ignored; creation, removal
	// and renames always count.
	ReadmeName string
	Manifests  []string
}

func (o Options) contentNames() map[string]bool {
	readme := o.ReadmeName
	if readme == "" {
		readme = discovery.DefaultReadmeName
	}
	manifests := o.Manifests
	if len(manifests) == 0 {
		manifests = catalog.DefaultManifests
	}
	names := map[string]bool{".git": true, readme: true}
	for _, m := range manifests {
		names[m] = true
	}
	return names
}

// Watcher watches a set of directories and calls onChange once per burst
// of relevant events.
type Watcher struct {
	debounce     time.Duration
	contentNames map[string]bool
	onChange     func(ctx context.Context)
	logger       *logging.ScopedLogger
	watcher      *fsnotify.Watcher

	mu      sync.Mutex
	watched map[string]bool
}

// New creates a watcher.
func New(opts Options, onChange func(ctx context.Context), logger *logging.ScopedLogger) (*Watcher, error) {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		debounce:     debounce,
		contentNames: opts.contentNames(),
		onChange:     onChange,
		logger:       logger,
		watcher:      fw,
		watched:      make(map[string]bool),
	}, nil
}

// Sync makes the watched set equal to dirs. Directories that cannot be
// watched are logged and skipped.
func (w *Watcher) Sync(dirs []string) {
	want := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		want[filepath.Clean(d)] = true
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for d := range w.watched {
		if !want[d] {
			_ = w.watcher.Remove(d)
			delete(w.watched, d)
		}
	}
	added := 0
	for d := range want {
		if w.watched[d] {
			continue
		}
		if err := w.watcher.Add(d); err != nil {
			w.logger.Debug("cannot watch directory", "path", d, "error", err)
			continue
		}
		w.watched[d] = true
		added++
	}
	w.logger.Debug("watch set synced", "watched", len(w.watched), "added", added)
}

// Watched returns the watched directories, sorted.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.watched))
	for d := range w.watched {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Start runs the event loop until ctx is cancelled or the watcher is closed.
func (w *Watcher) Start(ctx context.Context) error {
	var fire <-chan time.Time
	pending := 0

	for {
		select {
		case <-ctx.Done():
			_ = w.Close()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			pending++
			fire = time.After(w.debounce)

		case <-fire:
			fire = nil
			w.logger.Info("workspace changed", "events", pending)
			pending = 0
			if w.onChange != nil {
				w.onChange(ctx)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// Close stops watching. Safe to call more than once.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		return true
	}
	return event.Has(fsnotify.Write) && w.contentNames[filepath.Base(event.Name)]
}

// WatchSet lists the directories whose changes can alter the catalog: the
// roots, the folders above the deepest scanned level, every worktree, and
// every worktree's docs folder. fs lists the root folders down to
// nestedDepth; a nil fs skips them.
func WatchSet(fs fsport.FS, roots []string, nestedDepth int, projects []catalog.Project) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if p == "" {
			return
		}
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	var walk func(dir string, depth int)
	walk = func(dir string, depth int) {
		entries, err := fs.ReadDirectory(dir)
		if err != nil {
			return
		}
		for _, e := range entries {
			if !e.IsDirectory || e.Name == ".git" {
				continue
			}
			add(e.Path)
			if depth+1 < nestedDepth {
				walk(e.Path, depth+1)
			}
		}
	}
	for _, r := range roots {
		add(r)
		if fs != nil && nestedDepth > 0 {
			walk(r, 0)
		}
	}
	for _, p := range projects {
		for _, wt := range p.Worktrees {
			add(wt.RepositoryPath)
			if wt.HasDocsFolder {
				add(wt.DocsPath)
			}
		}
	}
	sort.Strings(out)
	return out
}
