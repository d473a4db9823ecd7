// internal/rules/policy.go
package rules

import (
	"errors"
	"fmt"

	"github.com/solatis/casekeeper/internal/catalog"
	"github.com/solatis/casekeeper/internal/types"
)

// Rule code whose condition decides whether FDA exports must carry the
// local criteria report type.
const CodeFDALocalCriteriaReportType = "FDA.C.1.7.1.REQUIRED"

// IsRuleConditionSatisfied reports whether the condition of rule code holds
// for facts. Unknown codes fail closed.
func IsRuleConditionSatisfied(code string, facts RuleFacts) bool {
	r, ok := Catalog().Rule(code)
	if !ok {
		return false
	}
	return Evaluate(r, facts).Matched
}

// ExportDirective returns the export directive of rule code.
func ExportDirective(code string) (*types.Directive, bool) {
	r, ok := Catalog().Rule(code)
	if !ok || r.Rule.Directive == nil {
		return nil, false
	}
	d := *r.Rule.Directive
	return &d, true
}

// ShouldClearNullFlavorOnValue reports whether a present value must remove
// a previously written nullFlavor for rule code.
func ShouldClearNullFlavorOnValue(code string) bool {
	d, ok := ExportDirective(code)
	return ok && d.ClearOnValue
}

// ShouldRequireFDALocalCriteriaReportType reports whether an FDA export
// with the given expedited flag must carry a local criteria report type.
func ShouldRequireFDALocalCriteriaReportType(fulfilExpedited bool) bool {
	return IsRuleConditionSatisfied(CodeFDALocalCriteriaReportType, RuleFacts{
		FulfilExpeditedCriteria: types.Bool(fulfilExpedited),
	})
}

// SelfCheck verifies the built-in catalog against its consumers:
// definitions compile, every code in referenced exists and carries an
// export directive, and every rule field is addressable in the path
// catalog under the rule's profile. All problems are reported together.
func SelfCheck(referenced []string) error {
	c, err := Load()
	if err != nil {
		return err
	}

	var errs []error
	for _, code := range referenced {
		r, ok := c.Rule(code)
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("referenced rule %s is not in the catalog", code))
		case r.Rule.Directive == nil:
			errs = append(errs, fmt.Errorf("referenced rule %s has no export directive", code))
		}
	}

	for _, r := range c.Rules() {
		def := r.Rule
		fields := append([]types.Field{}, def.AltFields...)
		if def.Field != "" {
			fields = append(fields, def.Field)
		}
		for _, f := range fields {
			if catalog.Lookup(def.Section, f, def.Profile) == nil {
				errs = append(errs, fmt.Errorf("rule %s: field %s/%s has no path under %s", def.Code, def.Section, f, def.Profile))
			}
		}
	}
	return errors.Join(errs...)
}
