package models

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ValueKind discriminates setting value types
type ValueKind string

const (
	ValueString ValueKind = "string"
	ValueInt    ValueKind = "int"
	ValueEnum   ValueKind = "enum"
)

// Value is a setting's payload. The backing store receives it verbatim;
// the engine never interprets it.
type Value struct {
	Kind ValueKind
	Str  string // payload for string and enum kinds
	Int  int64
}

// StringValue constructor
func StringValue(s string) Value {
	return Value{Kind: ValueString, Str: s}
}

// IntValue constructor
func IntValue(i int64) Value {
	return Value{Kind: ValueInt, Int: i}
}

// EnumValue constructor
func EnumValue(tag string) Value {
	return Value{Kind: ValueEnum, Str: tag}
}

// IsZero reports whether the value was never set. A catalog entry with a
// zero value is invalid; an explicit empty string is not zero.
func (v Value) IsZero() bool {
	return v.Kind == ""
}

// String canonical form (used for store persistence and reports)
func (v Value) String() string {
	switch v.Kind {
	case ValueInt:
		return strconv.FormatInt(v.Int, 10)
	default:
		return v.Str
	}
}

// UnmarshalYAML accepts a bare scalar (string or integer) or the tagged
// form {enum: Name}.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!int" {
			i, err := strconv.ParseInt(node.Value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value %q: %w", node.Value, err)
			}
			*v = IntValue(i)
			return nil
		}
		var s string
		if err := node.Decode(&s); err != nil {
			return fmt.Errorf("invalid setting value: %w", err)
		}
		*v = StringValue(s)
		return nil
	case yaml.MappingNode:
		var tagged struct {
			Enum string `yaml:"enum"`
		}
		if err := node.Decode(&tagged); err != nil || tagged.Enum == "" {
			return fmt.Errorf("setting value mapping must be {enum: <tag>}")
		}
		*v = EnumValue(tagged.Enum)
		return nil
	default:
		return fmt.Errorf("setting value must be a scalar or {enum: <tag>}")
	}
}

// MarshalYAML emits the same forms UnmarshalYAML accepts, so a catalog
// survives a load/save round trip unchanged.
func (v Value) MarshalYAML() (interface{}, error) {
	switch v.Kind {
	case ValueInt:
		return v.Int, nil
	case ValueEnum:
		return map[string]string{"enum": v.Str}, nil
	default:
		return v.Str, nil
	}
}

// Predicate gates a setting on the run's context flags. An empty
// predicate always matches. At most one field may be set.
type Predicate struct {
	Flag    string `yaml:"flag,omitempty" json:"flag,omitempty"`       // matches when the flag is present and true
	NotFlag string `yaml:"notFlag,omitempty" json:"notFlag,omitempty"` // matches when the flag is absent or false
	Expr    string `yaml:"expr,omitempty" json:"expr,omitempty"`       // raw CEL over the flags map
}

// IsAlways reports whether the predicate is unconditional.
func (p Predicate) IsAlways() bool {
	return p.Flag == "" && p.NotFlag == "" && p.Expr == ""
}

// Describe returns a short human-readable form for reports.
func (p Predicate) Describe() string {
	switch {
	case p.Flag != "":
		return fmt.Sprintf("flag %q is true", p.Flag)
	case p.NotFlag != "":
		return fmt.Sprintf("flag %q is false", p.NotFlag)
	case p.Expr != "":
		return p.Expr
	default:
		return "always"
	}
}

// Setting is one named key/value assignment. Key paths are opaque to the
// engine; only the backing store gives them meaning.
type Setting struct {
	Key   string    `yaml:"key" json:"key"`
	Name  string    `yaml:"name" json:"name"`
	Value Value     `yaml:"value" json:"value"`
	When  Predicate `yaml:"when,omitempty" json:"when,omitempty"`
}

// Catalog is an ordered, named list of settings. Order is significant:
// settings apply in catalog order, and a later entry for the same key
// wins over an earlier one.
type Catalog struct {
	ID          string    `yaml:"id" json:"id"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Settings    []Setting `yaml:"settings" json:"settings"`
}

// RunContext carries the per-run flag set consumed by predicates.
// Immutable for the duration of a run.
type RunContext struct {
	Flags map[string]bool `yaml:"flags" json:"flags"`
}

// Flag reports a flag's value; absent flags read as false.
func (c RunContext) Flag(name string) bool {
	return c.Flags[name]
}
