package catalog

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/go-containerregistry/pkg/crane"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/hardenctl/hardenctl/internal/models"
)

// OCIScheme prefixes catalog references fetched from a registry
const OCIScheme = "oci://"

// IsOCIRef reports whether a catalog reference points at a registry.
func IsOCIRef(ref string) bool {
	return strings.HasPrefix(ref, OCIScheme)
}

// FetchOCI pulls a catalog published as a single-layer OCI artifact and
// parses it. The layer content is the catalog YAML verbatim.
func FetchOCI(imageRef string) (models.Catalog, error) {
	trimmed := strings.TrimPrefix(imageRef, OCIScheme)

	ref, err := name.ParseReference(trimmed)
	if err != nil {
		return models.Catalog{}, fmt.Errorf("failed to parse catalog reference: %w", err)
	}

	img, err := crane.Pull(ref.String())
	if err != nil {
		return models.Catalog{}, fmt.Errorf("failed to pull catalog artifact: %w", err)
	}

	layers, err := img.Layers()
	if err != nil {
		return models.Catalog{}, fmt.Errorf("failed to read catalog artifact layers: %w", err)
	}
	if len(layers) != 1 {
		return models.Catalog{}, fmt.Errorf("catalog artifact must have exactly one layer, got %d", len(layers))
	}

	rc, err := layers[0].Uncompressed()
	if err != nil {
		return models.Catalog{}, fmt.Errorf("failed to open catalog layer: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return models.Catalog{}, fmt.Errorf("failed to read catalog layer: %w", err)
	}

	def, err := Parse(data)
	if err != nil {
		return models.Catalog{}, fmt.Errorf("%s: %w", imageRef, err)
	}
	return def, nil
}
