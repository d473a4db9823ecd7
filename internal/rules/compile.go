// internal/rules/compile.go
package rules

import (
	"fmt"
	"sort"

	"github.com/solatis/casekeeper/internal/types"
)

/*
 * Rule compilation and validation.
 *
 * Compiles types.Rule to CompiledRule with resolved fact types, coerced
 * literals and cost-ordered conditions.
 *
 * Compilation workflow:
 *   1. Resolve each condition's fact (ErrUnknownFact)
 *   2. Check the operator against the fact type (ErrInvalidOperator)
 *   3. Coerce literals to the fact type (ErrCoercionFailed)
 *   4. Order conditions by ascending cost (stable sort for determinism)
 *
 * Catalog definitions are compiled once at first use, so a bad definition
 * surfaces at start-up through SelfCheck rather than on the first case
 * that happens to reach it.
 */

// OnMissingFact is the policy for a condition whose fact is missing.
type OnMissingFact int

const (
	// OnMissingSkip: the condition does not hold.
	OnMissingSkip OnMissingFact = iota
	// OnMissingMatch: the condition holds. Used by is_null.
	OnMissingMatch
)

// CompiledCondition is a pre-processed condition ready for evaluation.
type CompiledCondition struct {
	Fact      string
	Operator  Operator
	FactType  FactType
	Value     any   // coerced comparison value (nil for exists/is_null)
	Values    []any // coerced set for in
	OnMissing OnMissingFact
	Cost      int
}

// CompiledOrGroup is a pre-processed AND group.
type CompiledOrGroup struct {
	Conditions []CompiledCondition // ordered by ascending cost
}

// CompiledRule is fully pre-processed and ready for evaluation.
type CompiledRule struct {
	Rule     *types.Rule
	OrGroups []CompiledOrGroup
	Cost     int
}

// Code returns the rule code.
func (r *CompiledRule) Code() string {
	return r.Rule.Code
}

// Unconditional reports whether the rule always applies.
func (r *CompiledRule) Unconditional() bool {
	return len(r.OrGroups) == 0
}

// Compile validates and pre-processes a rule for evaluation.
func Compile(rule *types.Rule) (*CompiledRule, error) {
	compiled := &CompiledRule{
		Rule:     rule,
		OrGroups: make([]CompiledOrGroup, 0, len(rule.OrGroups)),
	}

	for i, group := range rule.OrGroups {
		if len(group.Conditions) == 0 {
			return nil, fmt.Errorf("rule %s group %d: %w", rule.Code, i, types.ErrEmptyExpression)
		}
		compiledGroup := CompiledOrGroup{
			Conditions: make([]CompiledCondition, 0, len(group.Conditions)),
		}

		for _, cond := range group.Conditions {
			cc, err := compileCondition(cond)
			if err != nil {
				return nil, fmt.Errorf("rule %s: %w", rule.Code, err)
			}
			compiledGroup.Conditions = append(compiledGroup.Conditions, cc)
			compiled.Cost += cc.Cost
		}

		// Stable sort: equal-cost conditions keep declaration order
		sort.SliceStable(compiledGroup.Conditions, func(i, j int) bool {
			return compiledGroup.Conditions[i].Cost < compiledGroup.Conditions[j].Cost
		})

		compiled.OrGroups = append(compiled.OrGroups, compiledGroup)
	}

	return compiled, nil
}

// compileCondition resolves the fact, checks the operator and coerces the
// literal(s) to the fact type.
func compileCondition(cond types.Condition) (CompiledCondition, error) {
	ft, ok := LookupFactType(cond.Fact)
	if !ok {
		return CompiledCondition{}, fmt.Errorf("%w: %q", types.ErrUnknownFact, cond.Fact)
	}

	op := Operator(cond.Operator)
	if !op.Valid() {
		return CompiledCondition{}, fmt.Errorf("%w: %q", types.ErrInvalidOperator, cond.Operator)
	}
	if op.textOnly() && ft != FactTypeText {
		return CompiledCondition{}, fmt.Errorf("%w: %s on %s fact %q", types.ErrInvalidOperator, op, ft, cond.Fact)
	}

	cc := CompiledCondition{
		Fact:     cond.Fact,
		Operator: op,
		FactType: ft,
		Cost:     CalculateConditionCost(cond.Fact, op, ft),
	}
	if op == OpIsNull {
		cc.OnMissing = OnMissingMatch
	}

	switch {
	case op.nullary():
	case op == OpIn:
		if len(cond.Values) == 0 {
			return CompiledCondition{}, fmt.Errorf("%w: in on %q without values", types.ErrInvalidOperator, cond.Fact)
		}
		cc.Values = make([]any, 0, len(cond.Values))
		for _, v := range cond.Values {
			c, err := coerceLiteral(cond.Fact, v, ft)
			if err != nil {
				return CompiledCondition{}, err
			}
			cc.Values = append(cc.Values, c)
		}
	default:
		c, err := coerceLiteral(cond.Fact, cond.Value, ft)
		if err != nil {
			return CompiledCondition{}, err
		}
		cc.Value = c
	}

	return cc, nil
}

func coerceLiteral(fact string, v any, ft FactType) (any, error) {
	res, err := Coerce(v, ft)
	if err != nil {
		return nil, fmt.Errorf("fact %q value %v: %w", fact, v, err)
	}
	if res.IsNull {
		return nil, fmt.Errorf("fact %q: comparison value is empty: %w", fact, types.ErrCoercionFailed)
	}
	return res.Value, nil
}
