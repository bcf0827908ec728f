// pattern: Imperative Shell

// Package access loads the list of hosted repositories the user can reach.
// The list is produced outside this program (for example by exporting it
// from the provider's CLI) and read from a YAML or JSON file.
package access

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Repository is one accessible hosted repository.
type Repository struct {
	FullName string `json:"fullName" yaml:"fullName"`
}

// UnmarshalYAML accepts a plain "owner/repo" string or a mapping with a
// fullName (or full_name) key.
func (r *Repository) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		r.FullName = strings.TrimSpace(node.Value)
		return nil
	}
	var fields struct {
		FullName      string `yaml:"fullName"`
		SnakeFullName string `yaml:"full_name"`
	}
	if err := node.Decode(&fields); err != nil {
		return err
	}
	r.FullName = strings.TrimSpace(firstNonEmpty(fields.FullName, fields.SnakeFullName))
	return nil
}

// UnmarshalJSON accepts the same shapes as UnmarshalYAML.
func (r *Repository) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		r.FullName = strings.TrimSpace(name)
		return nil
	}
	var fields struct {
		FullName      string `json:"fullName"`
		SnakeFullName string `json:"full_name"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	r.FullName = strings.TrimSpace(firstNonEmpty(fields.FullName, fields.SnakeFullName))
	return nil
}

// Load reads the repository list at path. Files ending in .json are
// decoded as JSON, everything else as YAML. Entries without a name are
// dropped. A missing file yields an empty list.
func Load(path string) ([]Repository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Repository{}, nil
		}
		return nil, fmt.Errorf("read accessible repositories: %w", err)
	}

	var repos []Repository
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &repos)
	} else {
		err = yaml.Unmarshal(data, &repos)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	out := make([]Repository, 0, len(repos))
	for _, r := range repos {
		if r.FullName != "" {
			out = append(out, r)
		}
	}
	return out, nil
}

// FullNames returns the names of repos, in order.
func FullNames(repos []Repository) []string {
	names := make([]string, len(repos))
	for i, r := range repos {
		names[i] = r.FullName
	}
	return names
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
