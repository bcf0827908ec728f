// pattern: Imperative Shell

package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"projectbranch/internal/branch"
	"projectbranch/internal/catalog"
	"projectbranch/internal/discovery"
	"projectbranch/internal/gitport"
	"projectbranch/internal/logging"
	"projectbranch/internal/remote"
)

// ProjectSource builds the grouped catalog.
type ProjectSource interface {
	DiscoverGrouped(ctx context.Context, rootPaths []string) ([]catalog.Project, error)
}

// CandidateSource lists discovered repositories without grouping.
type CandidateSource interface {
	Discover(ctx context.Context, rootPaths []string) []discovery.Candidate
}

// BranchReader answers branch and remote queries for one worktree.
type BranchReader interface {
	Context(ctx context.Context, repoPath string) (branch.Context, error)
	Remotes(ctx context.Context, repoPath string) ([]gitport.Remote, error)
}

// Deps are the services the API serves from.
type Deps struct {
	Catalog  ProjectSource
	Scanner  CandidateSource
	Branches BranchReader
	Mapper   *remote.Mapper
	// Accessible returns the accessible repository names; nil or empty
	// accepts every hosted remote.
	Accessible func() []string
	Roots      []string
}

// Config holds web server configuration.
type Config struct {
	Bind string
	Port int
}

// Server serves the catalog over HTTP and pushes refresh notifications
// over SSE and websocket.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *logging.ScopedLogger
	addr       string
	listener   net.Listener
	events     *eventBroker

	// stop ends websocket streams, which Shutdown does not track.
	stop     context.Context
	stopFunc context.CancelFunc

	refreshMu sync.Mutex
	mu        sync.RWMutex
	snapshot  *Snapshot
}

// Snapshot is the catalog as of one refresh.
type Snapshot struct {
	Projects    []catalog.Project `json:"projects"`
	Roots       []string          `json:"roots"`
	RefreshedAt time.Time         `json:"refreshedAt"`
}

// New creates a web server. logProvider may be a *logging.Manager or a
// *logging.TestLogManager.
func New(cfg Config, deps Deps, logProvider logging.LoggerProvider) *Server {
	if deps.Mapper == nil {
		deps.Mapper = remote.NewMapper("")
	}
	addr := fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port)
	stop, stopFunc := context.WithCancel(context.Background())

	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		deps:     deps,
		logger:   logProvider.For("web"),
		addr:     addr,
		events:   newEventBroker(),
		stop:     stop,
		stopFunc: stopFunc,
	}

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/ws", s.handleWebsocket)
	mux.HandleFunc("GET /api/projects", s.handleGetProjects)
	mux.HandleFunc("GET /api/repositories", s.handleGetRepositories)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/projects/{encodedPath}/mapping", s.handleGetMapping)
	mux.HandleFunc("GET /api/projects/{encodedPath}/branches", s.handleGetBranches)

	return s
}

// Handler exposes the routes, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Listen binds the server to its configured address and returns the listener.
// Call Serve() after Listen() to start accepting connections. The split lets
// callers learn the bound address of an ephemeral port before Serve blocks.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, fmt.Errorf("web server listen: %w", err)
	}
	s.listener = ln
	return ln, nil
}

// Serve accepts connections on the listener. Blocks until the server stops.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("web server started", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Addr returns the address the server is listening on.
// Only valid after Listen() has been called.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Shutdown gracefully stops the server and closes event streams.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("web server shutting down")
	s.stopFunc()
	return s.httpServer.Shutdown(ctx)
}

// Refresh rebuilds the catalog, stores it and notifies subscribers.
// Concurrent calls run one after another.
func (s *Server) Refresh(ctx context.Context) (*Snapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := time.Now()
	projects, err := s.deps.Catalog.DiscoverGrouped(ctx, s.deps.Roots)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Projects: projects, Roots: s.deps.Roots, RefreshedAt: time.Now()}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	s.logger.Info("catalog refreshed", "projects", len(projects), "duration", time.Since(start).String())
	s.events.Publish(Event{Type: EventRefresh, Projects: len(projects), At: snap.RefreshedAt})
	return snap, nil
}

// Snapshot returns the current catalog, building it on first use.
func (s *Server) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}
	return s.Refresh(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
