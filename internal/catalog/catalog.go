package catalog

import (
	"errors"
	"fmt"

	"github.com/hardenctl/hardenctl/internal/models"
)

// ErrInvalidCatalog is returned by Build for catalogs with missing
// fields or uncompilable predicates. Fatal: a run never starts with an
// invalid catalog.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog is a validated catalog with compiled predicates. Immutable
// after Build.
type Catalog struct {
	def      models.Catalog
	matchers []matcher
}

// Build validates a catalog definition and compiles every predicate.
// Every entry must carry a key, a name, and a value; duplicate keys are
// allowed (last write wins by catalog order, see DuplicateKeys).
func Build(engine *Engine, def models.Catalog) (*Catalog, error) {
	if def.ID == "" {
		return nil, fmt.Errorf("%w: missing catalog id", ErrInvalidCatalog)
	}
	if len(def.Settings) == 0 {
		return nil, fmt.Errorf("%w: catalog %q has no settings", ErrInvalidCatalog, def.ID)
	}

	matchers := make([]matcher, len(def.Settings))
	for i, s := range def.Settings {
		if s.Key == "" {
			return nil, fmt.Errorf("%w: setting %d: missing key", ErrInvalidCatalog, i)
		}
		if s.Name == "" {
			return nil, fmt.Errorf("%w: setting %d (%s): missing name", ErrInvalidCatalog, i, s.Key)
		}
		if s.Value.IsZero() {
			return nil, fmt.Errorf("%w: setting %q: missing value", ErrInvalidCatalog, s.Name)
		}

		m, err := engine.Compile(s.When)
		if err != nil {
			return nil, fmt.Errorf("%w: setting %q: %v", ErrInvalidCatalog, s.Name, err)
		}
		matchers[i] = m
	}

	return &Catalog{def: def, matchers: matchers}, nil
}

// ID of the catalog
func (c *Catalog) ID() string {
	return c.def.ID
}

// Definition returns the underlying definition.
func (c *Catalog) Definition() models.Catalog {
	return c.def
}

// Settings in catalog order
func (c *Catalog) Settings() []models.Setting {
	return c.def.Settings
}

// Filter returns the settings whose predicate matches the context,
// preserving catalog order. Pure: no side effects, the catalog is never
// mutated. A predicate evaluation error counts as a non-match.
func (c *Catalog) Filter(rc models.RunContext) []models.Setting {
	matched := make([]models.Setting, 0, len(c.def.Settings))
	for i, s := range c.def.Settings {
		ok, err := c.matchers[i](rc)
		if err == nil && ok {
			matched = append(matched, s)
		}
	}
	return matched
}

// Partition splits the catalog into the settings to apply and the
// skipped remainder, each with a reason citing the unmet predicate.
// Order within both halves follows catalog order.
func (c *Catalog) Partition(rc models.RunContext) ([]models.Setting, []models.SkippedSetting) {
	apply := make([]models.Setting, 0, len(c.def.Settings))
	var skipped []models.SkippedSetting
	for i, s := range c.def.Settings {
		ok, err := c.matchers[i](rc)
		switch {
		case err != nil:
			skipped = append(skipped, models.SkippedSetting{
				Setting: s,
				Reason:  fmt.Sprintf("predicate error: %v", err),
			})
		case !ok:
			skipped = append(skipped, models.SkippedSetting{
				Setting: s,
				Reason:  fmt.Sprintf("predicate not met: %s", s.When.Describe()),
			})
		default:
			apply = append(apply, s)
		}
	}
	return apply, skipped
}

// DuplicateKeys returns keys assigned more than once, in first-seen
// order. Not an error, but `catalog validate` warns about them because
// only the last assignment survives.
func (c *Catalog) DuplicateKeys() []string {
	seen := make(map[string]int, len(c.def.Settings))
	var dups []string
	for _, s := range c.def.Settings {
		seen[s.Key]++
		if seen[s.Key] == 2 {
			dups = append(dups, s.Key)
		}
	}
	return dups
}
