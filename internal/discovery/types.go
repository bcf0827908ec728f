// pattern: Functional Core

package discovery

// MetadataKind says what sits at <repo>/.git.
type MetadataKind string

const (
	MetadataNone      MetadataKind = ""
	MetadataDirectory MetadataKind = "directory"
	MetadataFile      MetadataKind = "file"
)

// GitMetadata classifies how a candidate directory is linked to git.
// A .git directory marks a primary checkout; a .git file with a gitdir:
// line marks a linked worktree.
type GitMetadata struct {
	HasMetadata  bool         `json:"hasMetadata"`
	IsWorktree   bool         `json:"isWorktree"`
	MetadataPath string       `json:"metadataPath,omitempty"`
	MetadataKind MetadataKind `json:"metadataKind,omitempty"`
}

// Candidate is a directory found during a scan that carries documentation,
// git metadata, or both. HasReadme implies HasDocsFolder.
type Candidate struct {
	RootPath       string      `json:"rootPath"`
	RepositoryPath string      `json:"repositoryPath"`
	DocsPath       string      `json:"docsPath"`
	HasDocsFolder  bool        `json:"hasDocsFolder"`
	HasReadme      bool        `json:"hasReadme"`
	Git            GitMetadata `json:"git"`
}
