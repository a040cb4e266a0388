package catalog

import (
	"testing"

	"github.com/hardenctl/hardenctl/internal/models"
)

func TestCompileShorthands(t *testing.T) {
	engine := testEngine(t)

	cases := []struct {
		name  string
		pred  models.Predicate
		flags map[string]bool
		want  bool
	}{
		{"always empty context", models.Predicate{}, nil, true},
		{"always with flags", models.Predicate{}, map[string]bool{"x": true}, true},
		{"flag true", models.Predicate{Flag: "ephemeral"}, map[string]bool{"ephemeral": true}, true},
		{"flag false", models.Predicate{Flag: "ephemeral"}, map[string]bool{"ephemeral": false}, false},
		{"flag absent", models.Predicate{Flag: "ephemeral"}, nil, false},
		{"notFlag true", models.Predicate{NotFlag: "ephemeral"}, map[string]bool{"ephemeral": true}, false},
		{"notFlag false", models.Predicate{NotFlag: "ephemeral"}, map[string]bool{"ephemeral": false}, true},
		{"notFlag absent", models.Predicate{NotFlag: "ephemeral"}, nil, true},
		{"expr conjunction", models.Predicate{Expr: `"a" in flags && "b" in flags`},
			map[string]bool{"a": true, "b": true}, true},
		{"expr over values", models.Predicate{Expr: `"a" in flags && flags["a"]`},
			map[string]bool{"a": false}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := engine.Compile(tc.pred)
			if err != nil {
				t.Fatalf("Compile() failed: %v", err)
			}
			got, err := m(models.RunContext{Flags: tc.flags})
			if err != nil {
				t.Fatalf("matcher failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("match = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCompileRejectsAmbiguousPredicate(t *testing.T) {
	engine := testEngine(t)

	_, err := engine.Compile(models.Predicate{Flag: "a", NotFlag: "b"})
	if err == nil {
		t.Fatal("Compile() accepted a predicate with two forms set")
	}
}

func TestCompileHostileFlagNames(t *testing.T) {
	engine := testEngine(t)

	// A flag name that would break if shorthands were interpolated into
	// an expression language.
	m, err := engine.Compile(models.Predicate{Flag: `weird"name`})
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}

	got, err := m(models.RunContext{Flags: map[string]bool{`weird"name`: true}})
	if err != nil {
		t.Fatalf("matcher failed: %v", err)
	}
	if !got {
		t.Error("flag with quote in name did not match")
	}
}
