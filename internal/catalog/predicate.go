// Package catalog holds validated setting catalogs and their
// applicability predicates.
package catalog

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/hardenctl/hardenctl/internal/models"
)

// Engine compiles applicability predicates using CEL
type Engine struct {
	env *cel.Env
}

// NewEngine builds the CEL environment shared by all predicates. The
// only variable exposed to expressions is the run's flag map.
func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("flags", cel.MapType(cel.StringType, cel.BoolType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{env: env}, nil
}

// matcher is a compiled predicate
type matcher func(rc models.RunContext) (bool, error)

// matchAlways for unconditional settings
func matchAlways(models.RunContext) (bool, error) { return true, nil }

// Compile turns a predicate into an executable matcher. Shorthand forms
// (flag/notFlag) are direct flag lookups; only expr predicates go
// through CEL. Absent flags read as false either way.
func (e *Engine) Compile(p models.Predicate) (matcher, error) {
	if err := validatePredicate(p); err != nil {
		return nil, err
	}

	switch {
	case p.IsAlways():
		return matchAlways, nil
	case p.Flag != "":
		name := p.Flag
		return func(rc models.RunContext) (bool, error) {
			return rc.Flag(name), nil
		}, nil
	case p.NotFlag != "":
		name := p.NotFlag
		return func(rc models.RunContext) (bool, error) {
			return !rc.Flag(name), nil
		}, nil
	}

	expr := p.Expr

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("predicate %q: %w", expr, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("predicate %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("predicate %q: %w", expr, err)
	}

	return func(rc models.RunContext) (bool, error) {
		flags := rc.Flags
		if flags == nil {
			flags = map[string]bool{}
		}
		out, _, err := prg.Eval(map[string]interface{}{
			"flags": flags,
		})
		if err != nil {
			return false, fmt.Errorf("predicate %q: %w", expr, err)
		}
		matched, ok := out.Value().(bool)
		if !ok {
			return false, fmt.Errorf("predicate %q returned %T, want bool", expr, out.Value())
		}
		return matched, nil
	}, nil
}

// validatePredicate rejects predicates with more than one form set.
func validatePredicate(p models.Predicate) error {
	set := 0
	if p.Flag != "" {
		set++
	}
	if p.NotFlag != "" {
		set++
	}
	if p.Expr != "" {
		set++
	}
	if set > 1 {
		return fmt.Errorf("predicate must set at most one of flag, notFlag, expr")
	}
	return nil
}
