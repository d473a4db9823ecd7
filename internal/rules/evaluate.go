// internal/rules/evaluate.go
package rules

/*
 * Condition evaluation.
 *
 * Evaluates a CompiledRule against RuleFacts with DNF semantics (OR of AND
 * groups). A rule without groups always applies.
 *
 * Evaluation flow:
 *   1. OR groups evaluation (short-circuit on first match)
 *   2. AND conditions evaluation (short-circuit on first non-match, cost-ordered)
 *   3. Per-condition: look up fact -> coerce -> compare
 *   4. Missing facts go through the condition's OnMissing policy
 *   5. Record the first matched fact and value for diagnostics
 *
 * Evaluation never fails: compile has already rejected unknown facts and
 * mistyped literals, and RuleFacts values are typed.
 */

// MatchResult contains the outcome of rule evaluation.
type MatchResult struct {
	Matched      bool
	Group        int // index of the matching OR group, -1 when unconditional or unmatched
	MatchedFact  string
	MatchedValue any
}

// Evaluate checks whether the rule's condition holds for facts.
func Evaluate(rule *CompiledRule, facts RuleFacts) MatchResult {
	result := MatchResult{Group: -1}

	if rule.Unconditional() {
		result.Matched = true
		return result
	}

	for groupIdx, group := range rule.OrGroups {
		matched, fact, value := evaluateGroup(group, facts)
		if matched {
			result.Matched = true
			result.Group = groupIdx
			result.MatchedFact = fact
			result.MatchedValue = value
			return result
		}
	}

	return result
}

// evaluateGroup evaluates AND group (all conditions must match).
// Short-circuits on first non-match. Reports the first condition's fact.
func evaluateGroup(group CompiledOrGroup, facts RuleFacts) (bool, string, any) {
	var firstFact string
	var firstValue any

	for i, cond := range group.Conditions {
		matched, value := evaluateCondition(cond, facts)
		if !matched {
			return false, "", nil
		}
		if i == 0 {
			firstFact = cond.Fact
			firstValue = value
		}
	}

	return true, firstFact, firstValue
}

// evaluateCondition evaluates a single condition against facts.
func evaluateCondition(cond CompiledCondition, facts RuleFacts) (bool, any) {
	raw, ok := facts.Lookup(cond.Fact)
	if !ok {
		return applyMissingPolicy(cond.OnMissing), nil
	}

	coerced, err := Coerce(raw, cond.FactType)
	if err != nil {
		return false, raw
	}
	if coerced.IsNull {
		return applyMissingPolicy(cond.OnMissing), nil
	}

	var target any
	if cond.Operator == OpIn {
		target = cond.Values
	} else {
		target = cond.Value
	}

	return Compare(cond.Operator, coerced.Value, target), coerced.Value
}

// applyMissingPolicy converts OnMissingFact to a match result.
func applyMissingPolicy(policy OnMissingFact) bool {
	return policy == OnMissingMatch
}
