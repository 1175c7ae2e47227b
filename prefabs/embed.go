// Package prefabs loads authored machine definitions and the condition
// scripts they reference. Files under Dir on disk take precedence over the
// embedded copies so definitions can be edited while the viewer runs.
package prefabs

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Dir is the on-disk override directory. Empty disables overrides.
var Dir = "prefabs"

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

//go:embed *.yaml
var PrefabsFS embed.FS

// Load reads a definition such as "humanoid.yaml" or "prefabs/humanoid.yaml".
func Load(name string) ([]byte, error) {
	return read(PrefabsFS, relPath(name, ""))
}

// LoadScript reads a condition script. "landed.tengo", "scripts/landed.tengo"
// and "prefabs/scripts/landed.tengo" name the same file.
func LoadScript(name string) ([]byte, error) {
	return read(ScriptsFS, relPath(name, "scripts"))
}

func read(embedded fs.FS, rel string) ([]byte, error) {
	if disk, ok := overrides(); ok {
		if data, err := fs.ReadFile(disk, rel); err == nil {
			return data, nil
		}
	}
	data, err := fs.ReadFile(embedded, rel)
	if err != nil {
		return nil, fmt.Errorf("prefabs: %s: %w", rel, err)
	}
	return data, nil
}

// List returns the definition names on disk or embedded, sorted.
func List() []string {
	sources := []fs.FS{PrefabsFS}
	if disk, ok := overrides(); ok {
		sources = append(sources, disk)
	}
	seen := make(map[string]bool)
	var out []string
	for _, src := range sources {
		names, _ := fs.Glob(src, "*.yaml")
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	sort.Strings(out)
	return out
}

func overrides() (fs.FS, bool) {
	if Dir == "" {
		return nil, false
	}
	return os.DirFS(Dir), true
}

// relPath maps a user-supplied name to a slash path relative to the prefab
// root, inside sub when sub is set.
func relPath(name, sub string) string {
	s := strings.TrimPrefix(filepath.ToSlash(name), "prefabs/")
	if sub == "" || s == "" {
		return s
	}
	return path.Join(sub, strings.TrimPrefix(s, sub+"/"))
}
