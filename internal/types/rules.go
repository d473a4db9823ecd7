// internal/types/rules.go
package types

import "strconv"

/*
 * Domain types for the business rule catalog.
 *
 * Rule carries everything the validator copies into an issue (code,
 * message, section, blocking) plus the machine-evaluable condition and an
 * optional export directive. internal/rules compiles and evaluates them;
 * internal/icsr consults directives at export time.
 *
 * Key types:
 *   - Rule: one catalog entry keyed by Code
 *   - OrGroup: AND group (all conditions must hold)
 *   - Condition: one comparison of a named fact against a literal
 *   - Directive: how an absent field is encoded on export
 *
 * Operator values are the rules.Operator names ("eq", "in", ...); kept as
 * plain strings here so this package stays dependency-free.
 */

// CheckKind names what a rule asserts about its section once its condition
// holds.
type CheckKind string

const (
	// CheckRequired: Field must be present (per occurrence for lists).
	CheckRequired CheckKind = "required"
	// CheckAtLeastOne: the list section must hold at least one occurrence.
	CheckAtLeastOne CheckKind = "at-least-one"
	// CheckExactlyOne: exactly one occurrence has Field equal to Values[0].
	CheckExactlyOne CheckKind = "exactly-one"
	// CheckOneOf: Field, when present, must be one of Values.
	CheckOneOf CheckKind = "one-of"
	// CheckAnyOf: at least one of Field and AltFields must be present.
	CheckAnyOf CheckKind = "any-of"
)

// Condition represents a single condition in a rule expression.
type Condition struct {
	Fact     string `json:"fact" yaml:"fact"`
	Operator string `json:"operator" yaml:"operator"`
	Value    any    `json:"value,omitempty" yaml:"value,omitempty"`
	Values   []any  `json:"values,omitempty" yaml:"values,omitempty"`
}

// OrGroup represents an AND group in DNF (all conditions must match).
type OrGroup struct {
	Conditions []Condition `json:"conditions" yaml:"conditions"`
}

// Directive tells export policy how to encode a field the record leaves
// absent while the owning rule's condition holds.
type Directive struct {
	// NullFlavor written in place of the value, e.g. "NI".
	NullFlavor string `json:"nullFlavor" yaml:"nullFlavor"`
	// ClearOnValue removes a previously written NullFlavor once a value
	// is present.
	ClearOnValue bool `json:"clearOnValue,omitempty" yaml:"clearOnValue,omitempty"`
}

// Rule represents one immutable catalog entry.
type Rule struct {
	Code      string     `json:"code" yaml:"code"`
	Profile   Profile    `json:"profile" yaml:"profile"`
	Section   Section    `json:"section" yaml:"section"`
	Field     Field      `json:"field,omitempty" yaml:"field,omitempty"`
	Check     CheckKind  `json:"check" yaml:"check"`
	Values    []string   `json:"values,omitempty" yaml:"values,omitempty"`
	AltFields []Field    `json:"altFields,omitempty" yaml:"altFields,omitempty"`
	Blocking  bool       `json:"blocking" yaml:"blocking"`
	Message   string     `json:"message" yaml:"message"`
	OrGroups  []OrGroup  `json:"when,omitempty" yaml:"when,omitempty"` // DNF: OR of AND groups; empty = always
	Directive *Directive `json:"directive,omitempty" yaml:"directive,omitempty"`
}

// Clone returns a deep copy of r. Catalog accessors hand out clones so
// callers cannot change the shared definitions.
func (r *Rule) Clone() *Rule {
	c := *r
	c.Values = append([]string(nil), r.Values...)
	c.AltFields = append([]Field(nil), r.AltFields...)
	if r.OrGroups != nil {
		c.OrGroups = make([]OrGroup, len(r.OrGroups))
		for i, g := range r.OrGroups {
			conds := make([]Condition, len(g.Conditions))
			for j, cond := range g.Conditions {
				cond.Values = append([]any(nil), cond.Values...)
				conds[j] = cond
			}
			c.OrGroups[i] = OrGroup{Conditions: conds}
		}
	}
	if r.Directive != nil {
		d := *r.Directive
		c.Directive = &d
	}
	return &c
}

// Path returns the issue path for the rule at occurrence index (or -1 for
// single sections and whole-list checks).
func (r *Rule) Path(index int) string {
	base := r.Section.PathName()
	if index >= 0 {
		base += "." + strconv.Itoa(index)
	}
	if r.Field == "" || r.Check == CheckAtLeastOne || r.Check == CheckExactlyOne {
		return base
	}
	return base + "." + string(r.Field)
}
