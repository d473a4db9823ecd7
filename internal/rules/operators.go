// internal/rules/operators.go
package rules

import (
	"strings"
)

/*
 * Operator comparison logic.
 *
 * Facts are either booleans or short codes (report type, country), so the
 * operator set is the equality family plus membership and string affixes.
 * Values are coerced to the fact type at compile time; Compare only sees
 * matching types.
 *
 * Operators:
 *   - exists/is_null: presence checks (cost 1)
 *   - eq/neq: equality (cost 5)
 *   - in: membership with equality semantics (cost 8)
 *   - prefix/suffix: text facts only (cost 10)
 *
 * Presence is decided before Compare runs: a missing fact goes through the
 * condition's OnMissing policy, so exists/is_null here only see present
 * values.
 */

// Operator names a condition comparison. The string form is what catalog
// definitions carry.
type Operator string

const (
	OpEq     Operator = "eq"
	OpNeq    Operator = "neq"
	OpIn     Operator = "in"
	OpPrefix Operator = "prefix"
	OpSuffix Operator = "suffix"
	OpExists Operator = "exists"
	OpIsNull Operator = "is_null"
)

// Operators lists every supported operator.
var Operators = []Operator{OpEq, OpNeq, OpIn, OpPrefix, OpSuffix, OpExists, OpIsNull}

// Valid reports whether op is a known operator.
func (op Operator) Valid() bool {
	for _, o := range Operators {
		if o == op {
			return true
		}
	}
	return false
}

// textOnly reports whether op is restricted to text facts.
func (op Operator) textOnly() bool {
	return op == OpPrefix || op == OpSuffix
}

// nullary reports whether op takes no comparison value.
func (op Operator) nullary() bool {
	return op == OpExists || op == OpIsNull
}

// Compare applies the operator to compare value against target.
// Both values should already be coerced to the fact type.
func Compare(op Operator, value, target any) bool {
	switch op {
	case OpExists:
		return value != nil
	case OpIsNull:
		return value == nil
	case OpEq:
		return compareEqual(value, target)
	case OpNeq:
		return !compareEqual(value, target)
	case OpPrefix:
		return comparePrefix(value, target)
	case OpSuffix:
		return compareSuffix(value, target)
	case OpIn:
		return compareIn(value, target)
	default:
		return false
	}
}

// compareEqual compares codes case-sensitively; mismatched types never
// compare equal.
func compareEqual(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return false
	}
}

// comparePrefix checks if value starts with prefix (both must be strings).
func comparePrefix(value, prefix any) bool {
	vs, ok1 := value.(string)
	ps, ok2 := prefix.(string)
	if !ok1 || !ok2 {
		return false
	}
	return strings.HasPrefix(vs, ps)
}

// compareSuffix checks if value ends with suffix (both must be strings).
func compareSuffix(value, suffix any) bool {
	vs, ok1 := value.(string)
	ss, ok2 := suffix.(string)
	if !ok1 || !ok2 {
		return false
	}
	return strings.HasSuffix(vs, ss)
}

// compareIn checks if value exists in set using equality semantics.
func compareIn(value, set any) bool {
	arr, ok := set.([]any)
	if !ok {
		return false
	}
	for _, elem := range arr {
		if compareEqual(value, elem) {
			return true
		}
	}
	return false
}
