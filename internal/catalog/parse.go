package catalog

import (
	"fmt"
	"os"

	"github.com/hardenctl/hardenctl/internal/models"
	"gopkg.in/yaml.v3"
)

// Parse decodes a catalog definition from YAML.
func Parse(data []byte) (models.Catalog, error) {
	var def models.Catalog
	if err := yaml.Unmarshal(data, &def); err != nil {
		return models.Catalog{}, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return def, nil
}

// Load reads a catalog definition from a YAML file.
func Load(path string) (models.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Catalog{}, fmt.Errorf("failed to read catalog file: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return models.Catalog{}, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Marshal encodes a catalog definition to YAML. Marshal and Parse round
// trip: a reparsed catalog filters identically under every context.
func Marshal(def models.Catalog) ([]byte, error) {
	data, err := yaml.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog: %w", err)
	}
	return data, nil
}
