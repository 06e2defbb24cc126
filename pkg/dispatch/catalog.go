package dispatch

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// CatalogEntry describes one recordable tool: its symbolic name, the
// category it belongs to, and its declared parameter names in call order.
type CatalogEntry struct {
	Name     string   `yaml:"name"`
	Category string   `yaml:"category"`
	Params   []string `yaml:"params"`
}

type catalogDoc struct {
	Tools   []CatalogEntry               `yaml:"tools"`
	Renames map[string]map[string]string `yaml:"renames"`
}

// catalog is the static tool catalog, parsed once from the embedded YAML.
var catalog = mustLoadCatalog()

func mustLoadCatalog() *catalogDoc {
	var doc catalogDoc
	if err := yaml.Unmarshal(catalogYAML, &doc); err != nil {
		panic(fmt.Sprintf("dispatch: embedded catalog is invalid: %v", err))
	}
	return &doc
}

// CatalogEntries returns the declared tool catalog in file order.
func CatalogEntries() []CatalogEntry {
	out := make([]CatalogEntry, len(catalog.Tools))
	copy(out, catalog.Tools)
	return out
}

// catalogEntry looks up a tool's catalog entry by name.
func catalogEntry(name string) (CatalogEntry, bool) {
	for _, e := range catalog.Tools {
		if e.Name == name {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

// signature renders a tool's declared parameter list, e.g. "(x, y, device_id)".
func signature(name string) string {
	e, ok := catalogEntry(name)
	if !ok {
		return "(unknown)"
	}
	return "(" + strings.Join(e.Params, ", ") + ")"
}

// reconcile applies the catalog's rename rules for a tool to a copy of the
// recorded parameters. The caller's map is never mutated.
func reconcile(tool string, params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}
	for recorded, expected := range catalog.Renames[tool] {
		if v, ok := out[recorded]; ok {
			if _, taken := out[expected]; !taken {
				out[expected] = v
			}
			delete(out, recorded)
		}
	}
	return out
}
