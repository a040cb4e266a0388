package catalog

import (
	"embed"
	"fmt"
	"sort"

	"github.com/hardenctl/hardenctl/internal/models"
)

//go:embed presets/*.yaml
var presetFS embed.FS

// presetCache holds parsed presets to avoid re-parsing
var presetCache = map[string]*models.Catalog{}

// presetFiles maps preset names to embedded file paths
var presetFiles = map[string]string{
	"defender":     "presets/defender.yaml",
	"firewall":     "presets/firewall.yaml",
	"bitlocker":    "presets/bitlocker.yaml",
	"audit-policy": "presets/audit-policy.yaml",
	"vdi-agent":    "presets/vdi-agent.yaml",
}

// GetPreset returns a built-in catalog by name, or nil if not found
func GetPreset(name string) *models.Catalog {
	if cached, ok := presetCache[name]; ok {
		return cached
	}

	path, ok := presetFiles[name]
	if !ok {
		return nil
	}

	data, err := presetFS.ReadFile(path)
	if err != nil {
		return nil
	}

	def, err := Parse(data)
	if err != nil {
		return nil
	}

	presetCache[name] = &def
	return &def
}

// ListPresetNames returns the names of all built-in catalogs, sorted.
func ListPresetNames() []string {
	names := make([]string, 0, len(presetFiles))
	for name := range presetFiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MustGetPreset returns a preset or panics (for tests)
func MustGetPreset(name string) *models.Catalog {
	p := GetPreset(name)
	if p == nil {
		panic(fmt.Sprintf("preset %q not found", name))
	}
	return p
}
