// internal/rules/cost.go
package rules

/*
 * Cost model for condition evaluation.
 *
 * cost = lookup_cost + (operator_cost * fact_type_multiplier)
 *
 * Evaluating cheaper conditions first lets an AND group short-circuit
 * sooner. Facts derived per occurrence (reactionSerious) sit behind a map of
 * per-reaction values and carry a higher lookup cost than case-level facts.
 */

const (
	// Operator base costs
	CostExists = 1
	CostIsNull = 1
	CostEq     = 5
	CostNeq    = 5
	CostIn     = 8
	CostPrefix = 10
	CostSuffix = 10

	// Fact lookup costs
	CostLookupCase       = 16
	CostLookupOccurrence = 64

	// Fact type multipliers
	MultiplierBool   = 1
	MultiplierString = 48
)

// CalculateConditionCost computes cost for a single condition.
func CalculateConditionCost(fact string, op Operator, factType FactType) int {
	lookup := CostLookupCase
	if occurrenceFacts[fact] {
		lookup = CostLookupOccurrence
	}
	return lookup + operatorCost(op)*typeMultiplier(factType)
}

// operatorCost returns base cost for operator execution.
func operatorCost(op Operator) int {
	switch op {
	case OpExists, OpIsNull:
		return CostExists
	case OpEq, OpNeq:
		return CostEq
	case OpIn:
		return CostIn
	case OpPrefix, OpSuffix:
		return CostPrefix
	default:
		return CostEq
	}
}

// typeMultiplier returns the comparison cost multiplier of a fact type.
func typeMultiplier(ft FactType) int {
	switch ft {
	case FactTypeBoolean:
		return MultiplierBool
	default:
		return MultiplierString
	}
}
