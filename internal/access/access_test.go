package access

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		contents string
		want     []string
	}{
		{"yaml strings", "repos.yaml", "- acme/one\n- acme/two\n", []string{"acme/one", "acme/two"}},
		{"yaml objects", "repos.yml", "- fullName: acme/one\n- full_name: acme/two\n", []string{"acme/one", "acme/two"}},
		{"json objects", "repos.json", `[{"fullName":"acme/one"},{"full_name":"acme/two"}]`, []string{"acme/one", "acme/two"}},
		{"json strings", "repos.JSON", `["acme/one"]`, []string{"acme/one"}},
		{"blank entries dropped", "repos.yaml", "- acme/one\n- fullName: \"\"\n- \"  \"\n", []string{"acme/one"}},
		{"empty file", "repos.yaml", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repos, err := Load(writeFile(t, tt.file, tt.contents))
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got := FullNames(repos); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Load() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	repos, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil || len(repos) != 0 {
		t.Errorf("Load(missing) = (%v, %v), want empty list", repos, err)
	}
}

func TestLoad_Malformed(t *testing.T) {
	for name, contents := range map[string]string{
		"bad.json": `{"fullName": "acme/one"}`,
		"bad.yaml": "fullName: acme/one\n",
	} {
		if _, err := Load(writeFile(t, name, contents)); err == nil {
			t.Errorf("Load(%s) expected error", name)
		}
	}
}
