// pattern: Imperative Shell

package web

import (
	"encoding/json"
	"net/http"
	"path/filepath"

	"projectbranch/internal/catalog"
	"projectbranch/internal/discovery"
	"projectbranch/internal/gitport"
	"projectbranch/internal/instance"
	"projectbranch/internal/remote"
)

// RepositoriesResponse is the flat discovery listing.
type RepositoriesResponse struct {
	Repositories []discovery.Candidate `json:"repositories"`
}

// MappingResponse pairs a project with its hosted-repository mapping.
type MappingResponse struct {
	ProjectID    string           `json:"projectId"`
	WorktreePath string           `json:"worktreePath"`
	Remotes      []gitport.Remote `json:"remotes"`
	remote.Result
}

// BranchesResponse is the branch context of one worktree.
type BranchesResponse struct {
	ProjectID    string           `json:"projectId"`
	WorktreePath string           `json:"worktreePath"`
	ActiveBranch string           `json:"activeBranch"`
	Branches     []gitport.Branch `json:"branches"`
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleGetProjects handles GET /api/projects[?filter=].
func (s *Server) handleGetProjects(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "catalog unavailable: "+err.Error())
		return
	}
	if filter := r.URL.Query().Get("filter"); filter != "" {
		filtered := *snap
		filtered.Projects = catalog.Filter(snap.Projects, filter)
		snap = &filtered
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleGetRepositories handles GET /api/repositories.
func (s *Server) handleGetRepositories(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scanner == nil {
		writeError(w, http.StatusNotImplemented, "repository listing not configured")
		return
	}
	writeJSON(w, http.StatusOK, RepositoriesResponse{
		Repositories: s.deps.Scanner.Discover(r.Context(), s.deps.Roots),
	})
}

// handleRefresh handles POST /api/refresh.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Refresh(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "refresh failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleGetMapping handles GET /api/projects/{encodedPath}/mapping. The
// path may name the project or any of its worktrees; remotes are read from
// the default worktree.
func (s *Server) handleGetMapping(w http.ResponseWriter, r *http.Request) {
	project, _, ok := s.resolveProject(w, r)
	if !ok {
		return
	}
	def, _ := project.Default()

	remotes, err := s.deps.Branches.Remotes(r.Context(), def.RepositoryPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read remotes: "+err.Error())
		return
	}

	var accessible []string
	if s.deps.Accessible != nil {
		accessible = s.deps.Accessible()
	}
	writeJSON(w, http.StatusOK, MappingResponse{
		ProjectID:    project.ProjectID,
		WorktreePath: def.RepositoryPath,
		Remotes:      nonNil(remotes),
		Result:       s.deps.Mapper.MapLocalToHosted(remotes, accessible),
	})
}

// handleGetBranches handles GET /api/projects/{encodedPath}/branches. A
// worktree path reports that worktree; a project path reports its default.
func (s *Server) handleGetBranches(w http.ResponseWriter, r *http.Request) {
	project, worktreePath, ok := s.resolveProject(w, r)
	if !ok {
		return
	}

	bc, err := s.deps.Branches.Context(r.Context(), worktreePath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read branches: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, BranchesResponse{
		ProjectID:    project.ProjectID,
		WorktreePath: worktreePath,
		ActiveBranch: bc.ActiveBranch,
		Branches:     nonNil(bc.Branches),
	})
}

// resolveProject decodes {encodedPath} and finds the project it names in
// the current snapshot. It writes the error response itself when ok is
// false. worktreePath is the named worktree, or the project's default.
func (s *Server) resolveProject(w http.ResponseWriter, r *http.Request) (project catalog.Project, worktreePath string, ok bool) {
	path, err := instance.DecodePath(r.PathValue("encodedPath"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return catalog.Project{}, "", false
	}

	snap, err := s.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "catalog unavailable: "+err.Error())
		return catalog.Project{}, "", false
	}

	project, found := catalog.Lookup(snap.Projects, path)
	if !found {
		writeError(w, http.StatusNotFound, "project not found: "+path)
		return catalog.Project{}, "", false
	}

	def, _ := project.Default()
	worktreePath = def.RepositoryPath
	clean := filepath.Clean(path)
	for _, wt := range project.Worktrees {
		if wt.RepositoryPath == clean {
			worktreePath = wt.RepositoryPath
		}
	}
	return project, worktreePath, true
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
