// pattern: Functional Core

package catalog

import (
	"encoding/json"
	"fmt"
	"path"

	"github.com/BurntSushi/toml"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
)

// ManifestParser extracts a project name from a manifest file's contents.
type ManifestParser func(contents string) (string, error)

// Manifest file names understood by the display-name cascade.
const (
	ManifestPackageJSON = "package.json"
	ManifestGoMod       = "go.mod"
	ManifestCargo       = "Cargo.toml"
	ManifestPyProject   = "pyproject.toml"
)

// DefaultManifests is the order manifests are consulted in.
var DefaultManifests = []string{ManifestPackageJSON, ManifestGoMod, ManifestCargo, ManifestPyProject}

var manifestParsers = map[string]ManifestParser{
	ManifestPackageJSON: parsePackageJSON,
	ManifestGoMod:       parseGoMod,
	ManifestCargo:       parseCargo,
	ManifestPyProject:   parsePyProject,
}

// KnownManifest reports whether name has a parser.
func KnownManifest(name string) bool {
	_, ok := manifestParsers[name]
	return ok
}

// ParseManifest runs the parser registered for file name on contents.
func ParseManifest(name, contents string) (string, error) {
	parse, ok := manifestParsers[name]
	if !ok {
		return "", fmt.Errorf("unknown manifest %q", name)
	}
	return parse(contents)
}

func parsePackageJSON(contents string) (string, error) {
	var pkg struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(contents), &pkg); err != nil {
		return "", fmt.Errorf("parse package.json: %w", err)
	}
	return NormalizeDisplayName(pkg.Name), nil
}

// parseGoMod uses the last element of the module path, skipping a major
// version suffix such as /v2.
func parseGoMod(contents string) (string, error) {
	modPath := modfile.ModulePath([]byte(contents))
	if modPath == "" {
		return "", fmt.Errorf("parse go.mod: no module directive")
	}
	if prefix, _, ok := module.SplitPathVersion(modPath); ok && prefix != "" {
		modPath = prefix
	}
	return NormalizeDisplayName(path.Base(modPath)), nil
}

func parseCargo(contents string) (string, error) {
	var cargo struct {
		Package struct {
			Name string `toml:"name"`
		} `toml:"package"`
	}
	if _, err := toml.Decode(contents, &cargo); err != nil {
		return "", fmt.Errorf("parse Cargo.toml: %w", err)
	}
	return NormalizeDisplayName(cargo.Package.Name), nil
}

func parsePyProject(contents string) (string, error) {
	var py struct {
		Project struct {
			Name string `toml:"name"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Name string `toml:"name"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if _, err := toml.Decode(contents, &py); err != nil {
		return "", fmt.Errorf("parse pyproject.toml: %w", err)
	}
	if name := NormalizeDisplayName(py.Project.Name); name != "" {
		return name, nil
	}
	return NormalizeDisplayName(py.Tool.Poetry.Name), nil
}
