package schema

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed layouts/*.yaml
var embeddedLayouts embed.FS

// Built-in layout names.
const (
	LayoutFlat   = "thesis_tbl"
	LayoutJoined = "tblthesis"
)

// LoadLayouts returns the embedded layouts keyed by name. When dir is not
// empty, every *.yaml/*.yml file in it is loaded as well and replaces the
// embedded layout of the same name. The merged set is validated.
func LoadLayouts(dir string) (map[string]Layout, error) {
	builtin, err := loadLayoutsFS(embeddedLayouts, "layouts")
	if err != nil {
		return nil, fmt.Errorf("loading embedded layouts: %w", err)
	}

	merged := make(map[string]Layout, len(builtin))
	for _, l := range builtin {
		merged[l.Name] = l
	}

	if dir != "" {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("reading layout directory %q: %w", dir, err)
		}
		overrides, err := loadLayoutsFS(os.DirFS(dir), ".")
		if err != nil {
			return nil, err
		}
		for _, l := range overrides {
			merged[l.Name] = l
		}
	}

	all := make([]Layout, 0, len(merged))
	for _, l := range merged {
		all = append(all, l)
	}
	if err := ValidateLayouts(all); err != nil {
		return nil, err
	}

	return merged, nil
}

// loadLayoutsFS reads every YAML file in dir of fsys and returns the layouts
// sorted by name.
func loadLayoutsFS(fsys fs.FS, dir string) ([]Layout, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading layout directory %q: %w", dir, err)
	}

	var layouts []Layout
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := path.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading layout file %q: %w", entry.Name(), err)
		}

		l, err := parseLayout(data)
		if err != nil {
			return nil, fmt.Errorf("loading layout file %q: %w", entry.Name(), err)
		}
		layouts = append(layouts, l)
	}

	sort.Slice(layouts, func(i, j int) bool {
		return layouts[i].Name < layouts[j].Name
	})

	return layouts, nil
}

// parseLayout decodes one YAML layout. Unknown keys are rejected so that a
// misspelled key fails loudly instead of silently dropping a mapping.
func parseLayout(data []byte) (Layout, error) {
	var l Layout
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&l); err != nil {
		return Layout{}, fmt.Errorf("parsing YAML: %w", err)
	}

	l.SchemaHash = fmt.Sprintf("%x", sha256.Sum256(data))

	return l, nil
}
