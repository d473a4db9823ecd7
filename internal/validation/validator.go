package validation

import (
	"slices"

	"github.com/solatis/casekeeper/internal/rules"
	"github.com/solatis/casekeeper/internal/types"
)

/*
 * Rule checking.
 *
 * One pass per rule, in catalog order:
 *
 *   list-level checks (at-least-one, exactly-one)
 *       condition against case facts, one issue for the section
 *   field checks on single sections
 *       condition against case facts, one issue at section.field
 *   field checks on list sections
 *       per occurrence, condition against case facts (plus reaction facts
 *       for reactions), one issue at section.<index>.field
 *
 * Absent single sections check as an empty record, so a missing safety
 * report reports its required fields rather than passing silently.
 */

// Validator produces the issues of one profile for a case.
type Validator interface {
	Profile() types.Profile
	Issues(c *types.Case, facts rules.RuleFacts) []Issue
}

// ICHValidator checks the ICH baseline rules.
type ICHValidator struct{}

func (ICHValidator) Profile() types.Profile { return types.ProfileICH }

func (ICHValidator) Issues(c *types.Case, facts rules.RuleFacts) []Issue {
	return check(rules.RulesForProfile(types.ProfileICH), c, facts)
}

// regional wraps the baseline with the rules of one regional profile.
type regional struct {
	base    ICHValidator
	profile types.Profile
}

func (v regional) Profile() types.Profile { return v.profile }

func (v regional) Issues(c *types.Case, facts rules.RuleFacts) []Issue {
	issues := v.base.Issues(c, facts)
	return append(issues, check(rules.RulesForProfile(v.profile), c, facts)...)
}

// FDAValidator checks ICH plus FDA regional rules.
type FDAValidator struct{ regional }

// MFDSValidator checks ICH plus MFDS regional rules.
type MFDSValidator struct{ regional }

func NewFDAValidator() FDAValidator {
	return FDAValidator{regional{profile: types.ProfileFDA}}
}

func NewMFDSValidator() MFDSValidator {
	return MFDSValidator{regional{profile: types.ProfileMFDS}}
}

// ForProfile returns the validator for p.
func ForProfile(p types.Profile) (Validator, error) {
	switch p {
	case types.ProfileICH:
		return ICHValidator{}, nil
	case types.ProfileFDA:
		return NewFDAValidator(), nil
	case types.ProfileMFDS:
		return NewMFDSValidator(), nil
	default:
		return nil, types.ErrUnknownProfile
	}
}

// Validate checks c under profile in one pass and builds the report.
func Validate(profile types.Profile, c *types.Case) (*Report, error) {
	v, err := ForProfile(profile)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = &types.Case{}
	}
	issues := v.Issues(c, rules.CaseFacts(c))
	return NewReport(profile, c.ID, issues, rules.CatalogVersion()), nil
}

func check(set []*rules.CompiledRule, c *types.Case, facts rules.RuleFacts) []Issue {
	var issues []Issue
	for _, r := range set {
		def := r.Rule
		occurrences := c.SectionValues(def.Section)

		switch {
		case def.Check == types.CheckAtLeastOne:
			if rules.Evaluate(r, facts).Matched && len(occurrences) == 0 {
				issues = append(issues, issue(def, -1))
			}

		case def.Check == types.CheckExactlyOne:
			if rules.Evaluate(r, facts).Matched && countEqual(occurrences, def.Field, def.Values[0]) != 1 {
				issues = append(issues, issue(def, -1))
			}

		case !def.Section.Repeating():
			v := types.Values{}
			if len(occurrences) > 0 {
				v = occurrences[0]
			}
			if rules.Evaluate(r, facts).Matched && fails(def, v) {
				issues = append(issues, issue(def, -1))
			}

		default:
			for i, v := range occurrences {
				f := facts
				if def.Section == types.SectionReaction {
					f = rules.ReactionFacts(facts, v)
				}
				if rules.Evaluate(r, f).Matched && fails(def, v) {
					issues = append(issues, issue(def, i))
				}
			}
		}
	}
	return issues
}

// fails reports whether v violates a field-level check.
func fails(def *types.Rule, v types.Values) bool {
	switch def.Check {
	case types.CheckRequired:
		return !v.Has(def.Field)
	case types.CheckOneOf:
		s, ok := v.Get(def.Field)
		return ok && !slices.Contains(def.Values, s)
	case types.CheckAnyOf:
		if v.Has(def.Field) {
			return false
		}
		for _, f := range def.AltFields {
			if v.Has(f) {
				return false
			}
		}
		return true
	}
	return false
}

func countEqual(occurrences []types.Values, f types.Field, want string) int {
	n := 0
	for _, v := range occurrences {
		if s, _ := v.Get(f); s == want {
			n++
		}
	}
	return n
}

func issue(def *types.Rule, index int) Issue {
	return Issue{
		Code:     def.Code,
		Message:  def.Message,
		Path:     def.Path(index),
		Section:  def.Section,
		Blocking: def.Blocking,
	}
}
