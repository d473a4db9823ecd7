// internal/rules/coercion.go
package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/solatis/casekeeper/internal/types"
)

/*
 * Type coercion for condition literals and fact values.
 *
 * Two fact types exist: BOOLEAN (flags such as fulfilExpeditedCriteria) and
 * TEXT (codes such as reportType). Catalog definitions come from YAML, where
 * `value: "true"` and `value: true` are both plausible spellings, and report
 * type codes may be written unquoted (`value: 2`). Coerce normalizes either
 * way at compile time so evaluation compares like with like.
 *
 * Type modes:
 *   - BOOLEAN: bool, or a string strconv.ParseBool accepts
 *   - TEXT: lenient, any scalar rendered as its canonical string
 *
 * Null (nil) is reported separately from a failed coercion; the evaluator
 * routes null through the missing-fact policy.
 */

// FactType is the declared type of a rule fact.
type FactType int

const (
	FactTypeUnspecified FactType = iota
	FactTypeBoolean
	FactTypeText
)

func (t FactType) String() string {
	switch t {
	case FactTypeBoolean:
		return "boolean"
	case FactTypeText:
		return "text"
	default:
		return "unspecified"
	}
}

// CoercionResult holds the coerced value or indicates null.
type CoercionResult struct {
	Value  any  // coerced value (valid only if !IsNull)
	IsNull bool // true if input was nil
}

// Coerce converts value to factType.
// Returns ErrCoercionFailed for impossible coercions.
func Coerce(value any, factType FactType) (CoercionResult, error) {
	if value == nil {
		return CoercionResult{IsNull: true}, nil
	}

	switch factType {
	case FactTypeBoolean:
		return coerceBoolean(value)
	case FactTypeText:
		return coerceText(value)
	default:
		return CoercionResult{}, types.ErrCoercionFailed
	}
}

// coerceBoolean accepts booleans and their string spellings.
// Numbers are rejected to avoid the "1" vs true ambiguity.
func coerceBoolean(value any) (CoercionResult, error) {
	switch v := value.(type) {
	case bool:
		return CoercionResult{Value: v}, nil
	case *bool:
		if v == nil {
			return CoercionResult{IsNull: true}, nil
		}
		return CoercionResult{Value: *v}, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return CoercionResult{}, types.ErrCoercionFailed
		}
		return CoercionResult{Value: b}, nil
	default:
		return CoercionResult{}, types.ErrCoercionFailed
	}
}

// coerceText converts scalars to their string representation.
// Blank strings are null: a blank code is an absent code.
func coerceText(value any) (CoercionResult, error) {
	switch v := value.(type) {
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return CoercionResult{IsNull: true}, nil
		}
		return CoercionResult{Value: v}, nil
	case *string:
		if v == nil {
			return CoercionResult{IsNull: true}, nil
		}
		return coerceText(*v)
	case float64:
		return CoercionResult{Value: strconv.FormatFloat(v, 'f', -1, 64)}, nil
	case int:
		return CoercionResult{Value: strconv.Itoa(v)}, nil
	case int64:
		return CoercionResult{Value: strconv.FormatInt(v, 10)}, nil
	case bool:
		return CoercionResult{Value: strconv.FormatBool(v)}, nil
	case []any, map[string]any:
		return CoercionResult{}, types.ErrCoercionFailed
	default:
		return CoercionResult{Value: fmt.Sprintf("%v", v)}, nil
	}
}
