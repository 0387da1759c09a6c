package routing

import (
	"log/slog"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
)

// celRule is a compiled RuleConfig.
type celRule struct {
	name    string
	family  Family
	program cel.Program
}

// CELRules evaluates operator-defined content rules in declaration order.
type CELRules struct {
	rules []celRule
}

// NewCELRules compiles the configured rules. Every expression must
// type-check to bool and name a valid family.
func NewCELRules(configs []RuleConfig) (*CELRules, error) {
	if len(configs) == 0 {
		return &CELRules{}, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("query", cel.StringType),
		cel.Variable("raw", cel.StringType),
		cel.Variable("turns", cel.IntType),
		cel.Variable("last_capability", cel.StringType),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create CEL environment")
	}

	rules := make([]celRule, 0, len(configs))
	for _, rc := range configs {
		if !rc.Family.Valid() {
			return nil, errors.Errorf("rule %q: unknown family %q", rc.Name, rc.Family)
		}
		ast, issues := env.Compile(rc.Expr)
		if issues != nil && issues.Err() != nil {
			return nil, errors.Wrapf(issues.Err(), "rule %q: invalid expression", rc.Name)
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, errors.Errorf("rule %q: expression must be boolean, got %s", rc.Name, ast.OutputType())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, errors.Wrapf(err, "rule %q: failed to build program", rc.Name)
		}
		rules = append(rules, celRule{name: rc.Name, family: rc.Family, program: prg})
	}
	return &CELRules{rules: rules}, nil
}

// Len returns the number of compiled rules.
func (r *CELRules) Len() int {
	if r == nil {
		return 0
	}
	return len(r.rules)
}

// Evaluate returns the family of the first rule that evaluates to true.
// Rules that fail at evaluation time are skipped.
func (r *CELRules) Evaluate(normalized, raw string, view ContextView) (Family, string, bool) {
	if r.Len() == 0 {
		return "", "", false
	}

	last, _ := view.LastCapability()
	vars := map[string]any{
		"query":           normalized,
		"raw":             raw,
		"turns":           int64(view.TurnCount()),
		"last_capability": string(last),
	}

	for _, rule := range r.rules {
		out, _, err := rule.program.Eval(vars)
		if err != nil {
			slog.Debug("routing rule evaluation failed", "rule", rule.name, "error", err)
			continue
		}
		if matched, ok := out.Value().(bool); ok && matched {
			return rule.family, rule.name, true
		}
	}
	return "", "", false
}
