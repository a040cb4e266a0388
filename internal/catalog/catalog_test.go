package catalog

import (
	"errors"
	"testing"

	"github.com/hardenctl/hardenctl/internal/models"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return engine
}

func TestBuildRejectsMissingFields(t *testing.T) {
	engine := testEngine(t)

	cases := []struct {
		name string
		def  models.Catalog
	}{
		{
			name: "missing id",
			def: models.Catalog{
				Settings: []models.Setting{
					{Key: "a/b", Name: "x", Value: models.IntValue(1)},
				},
			},
		},
		{
			name: "no settings",
			def:  models.Catalog{ID: "empty"},
		},
		{
			name: "missing key",
			def: models.Catalog{
				ID: "c",
				Settings: []models.Setting{
					{Name: "x", Value: models.IntValue(1)},
				},
			},
		},
		{
			name: "missing name",
			def: models.Catalog{
				ID: "c",
				Settings: []models.Setting{
					{Key: "a/b", Value: models.IntValue(1)},
				},
			},
		},
		{
			name: "missing value",
			def: models.Catalog{
				ID: "c",
				Settings: []models.Setting{
					{Key: "a/b", Name: "x"},
				},
			},
		},
		{
			name: "bad predicate expression",
			def: models.Catalog{
				ID: "c",
				Settings: []models.Setting{
					{Key: "a/b", Name: "x", Value: models.IntValue(1),
						When: models.Predicate{Expr: "flags["}},
				},
			},
		},
		{
			name: "non-bool predicate expression",
			def: models.Catalog{
				ID: "c",
				Settings: []models.Setting{
					{Key: "a/b", Name: "x", Value: models.IntValue(1),
						When: models.Predicate{Expr: `"hello"`}},
				},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(engine, tc.def)
			if !errors.Is(err, ErrInvalidCatalog) {
				t.Fatalf("Build() error = %v, want ErrInvalidCatalog", err)
			}
		})
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	engine := testEngine(t)

	def := models.Catalog{
		ID: "order",
		Settings: []models.Setting{
			{Key: "k/1", Name: "first", Value: models.IntValue(1)},
			{Key: "k/2", Name: "second", Value: models.IntValue(2), When: models.Predicate{Flag: "extra"}},
			{Key: "k/3", Name: "third", Value: models.IntValue(3)},
			{Key: "k/4", Name: "fourth", Value: models.IntValue(4), When: models.Predicate{NotFlag: "extra"}},
			{Key: "k/5", Name: "fifth", Value: models.IntValue(5)},
		},
	}

	cat, err := Build(engine, def)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	got := cat.Filter(models.RunContext{Flags: map[string]bool{"extra": true}})
	want := []string{"first", "second", "third", "fifth"}
	if len(got) != len(want) {
		t.Fatalf("Filter() returned %d settings, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("Filter()[%d] = %q, want %q", i, got[i].Name, name)
		}
	}

	// Absent flag: the notFlag setting matches instead.
	got = cat.Filter(models.RunContext{})
	want = []string{"first", "third", "fourth", "fifth"}
	if len(got) != len(want) {
		t.Fatalf("Filter() returned %d settings, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("Filter()[%d] = %q, want %q", i, got[i].Name, name)
		}
	}
}

func TestFilterIsPure(t *testing.T) {
	engine := testEngine(t)

	def := models.Catalog{
		ID: "pure",
		Settings: []models.Setting{
			{Key: "k/1", Name: "a", Value: models.IntValue(1), When: models.Predicate{Flag: "on"}},
		},
	}

	cat, err := Build(engine, def)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	rc := models.RunContext{Flags: map[string]bool{"on": true}}
	first := cat.Filter(rc)
	second := cat.Filter(rc)
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("repeated Filter() gave %d then %d settings, want 1 and 1", len(first), len(second))
	}
	if len(cat.Settings()) != 1 {
		t.Errorf("catalog mutated by Filter()")
	}
}

func TestPartitionReasonCitesPredicate(t *testing.T) {
	engine := testEngine(t)

	def := models.Catalog{
		ID: "gated",
		Settings: []models.Setting{
			{Key: "k/1", Name: "disk-encryption", Value: models.IntValue(1),
				When: models.Predicate{NotFlag: "ephemeral"}},
		},
	}

	cat, err := Build(engine, def)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	apply, skipped := cat.Partition(models.RunContext{Flags: map[string]bool{"ephemeral": true}})
	if len(apply) != 0 {
		t.Fatalf("expected no applicable settings, got %d", len(apply))
	}
	if len(skipped) != 1 {
		t.Fatalf("expected 1 skipped setting, got %d", len(skipped))
	}
	if skipped[0].Reason == "" {
		t.Error("skip reason is empty, want it to cite the unmet predicate")
	}
}

func TestDuplicateKeys(t *testing.T) {
	engine := testEngine(t)

	def := models.Catalog{
		ID: "dups",
		Settings: []models.Setting{
			{Key: "k/1", Name: "default", Value: models.IntValue(0)},
			{Key: "k/2", Name: "other", Value: models.IntValue(1)},
			{Key: "k/1", Name: "override", Value: models.IntValue(2)},
		},
	}

	cat, err := Build(engine, def)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	dups := cat.DuplicateKeys()
	if len(dups) != 1 || dups[0] != "k/1" {
		t.Errorf("DuplicateKeys() = %v, want [k/1]", dups)
	}
}
