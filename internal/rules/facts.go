// internal/rules/facts.go
package rules

import (
	"sort"

	"github.com/solatis/casekeeper/internal/types"
)

/*
 * Rule facts.
 *
 * Conditions never look at records directly. They name a fact, and facts
 * are derived from section values by SectionFacts (one section, used by the
 * patcher when it only holds that section) or CaseFacts (whole case, used
 * by the validator and ExportCase). Reaction-level facts are layered per
 * occurrence with ReactionFacts.
 *
 * Every fact is optional. A nil pointer is a missing fact, which no positive
 * comparison matches.
 */

// Fact names referenced by catalog conditions.
const (
	FactFulfilExpeditedCriteria = "fulfilExpeditedCriteria"
	FactPatientPayloadPresent   = "patientPayloadPresent"
	FactSeriousReport           = "seriousReport"
	FactReactionSerious         = "reactionSerious"
	FactNullificationRequested  = "nullificationRequested"
	FactReportType              = "reportType"
	FactPrimarySourceCountry    = "primarySourceCountry"
)

var factTypes = map[string]FactType{
	FactFulfilExpeditedCriteria: FactTypeBoolean,
	FactPatientPayloadPresent:   FactTypeBoolean,
	FactSeriousReport:           FactTypeBoolean,
	FactReactionSerious:         FactTypeBoolean,
	FactNullificationRequested:  FactTypeBoolean,
	FactReportType:              FactTypeText,
	FactPrimarySourceCountry:    FactTypeText,
}

// occurrenceFacts are only set inside a per-occurrence evaluation.
var occurrenceFacts = map[string]bool{
	FactReactionSerious: true,
}

// LookupFactType returns the declared type of a fact name.
func LookupFactType(name string) (FactType, bool) {
	t, ok := factTypes[name]
	return t, ok
}

// FactNames returns every known fact name, sorted.
func FactNames() []string {
	out := make([]string, 0, len(factTypes))
	for n := range factTypes {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// RuleFacts is the fact set a condition is evaluated against.
type RuleFacts struct {
	FulfilExpeditedCriteria *bool   `json:"fulfilExpeditedCriteria,omitempty"`
	PatientPayloadPresent   *bool   `json:"patientPayloadPresent,omitempty"`
	SeriousReport           *bool   `json:"seriousReport,omitempty"`
	ReactionSerious         *bool   `json:"reactionSerious,omitempty"`
	NullificationRequested  *bool   `json:"nullificationRequested,omitempty"`
	ReportType              *string `json:"reportType,omitempty"`
	PrimarySourceCountry    *string `json:"primarySourceCountry,omitempty"`
}

// Lookup returns the value of the named fact; ok is false when the fact is
// unknown or missing.
func (f RuleFacts) Lookup(name string) (any, bool) {
	switch name {
	case FactFulfilExpeditedCriteria:
		return deref(f.FulfilExpeditedCriteria)
	case FactPatientPayloadPresent:
		return deref(f.PatientPayloadPresent)
	case FactSeriousReport:
		return deref(f.SeriousReport)
	case FactReactionSerious:
		return deref(f.ReactionSerious)
	case FactNullificationRequested:
		return deref(f.NullificationRequested)
	case FactReportType:
		return deref(f.ReportType)
	case FactPrimarySourceCountry:
		return deref(f.PrimarySourceCountry)
	default:
		return nil, false
	}
}

func deref[T any](p *T) (any, bool) {
	if p == nil {
		return nil, false
	}
	return *p, true
}

// Merge returns f with every fact present in o layered on top.
func (f RuleFacts) Merge(o RuleFacts) RuleFacts {
	if o.FulfilExpeditedCriteria != nil {
		f.FulfilExpeditedCriteria = o.FulfilExpeditedCriteria
	}
	if o.PatientPayloadPresent != nil {
		f.PatientPayloadPresent = o.PatientPayloadPresent
	}
	if o.SeriousReport != nil {
		f.SeriousReport = o.SeriousReport
	}
	if o.ReactionSerious != nil {
		f.ReactionSerious = o.ReactionSerious
	}
	if o.NullificationRequested != nil {
		f.NullificationRequested = o.NullificationRequested
	}
	if o.ReportType != nil {
		f.ReportType = o.ReportType
	}
	if o.PrimarySourceCountry != nil {
		f.PrimarySourceCountry = o.PrimarySourceCountry
	}
	return f
}

// SectionFacts derives the facts one section contributes. occurrences holds
// the section's values (one entry for single sections).
func SectionFacts(section types.Section, occurrences []types.Values) RuleFacts {
	var f RuleFacts
	switch section {
	case types.SectionSafetyReport:
		if len(occurrences) == 0 {
			return f
		}
		v := occurrences[0]
		if b, err := types.ParseBool(v[types.FieldFulfilExpeditedCriteria]); err == nil && b != nil {
			f.FulfilExpeditedCriteria = b
		}
		if s, ok := v.Get(types.FieldReportType); ok {
			f.ReportType = &s
		}
		f.NullificationRequested = types.Bool(v.Has(types.FieldNullificationCode))

	case types.SectionPatient:
		present := false
		for _, v := range occurrences {
			if len(v) > 0 {
				present = true
			}
		}
		f.PatientPayloadPresent = types.Bool(present)

	case types.SectionReaction:
		serious := false
		for _, v := range occurrences {
			if reactionSerious(v) {
				serious = true
			}
		}
		f.SeriousReport = types.Bool(serious)

	case types.SectionPrimarySource:
		if c, ok := sourceCountry(occurrences); ok {
			f.PrimarySourceCountry = &c
		}
	}
	return f
}

// CaseFacts derives the case-level facts of c.
func CaseFacts(c *types.Case) RuleFacts {
	var f RuleFacts
	if c == nil {
		return f
	}
	for _, s := range []types.Section{
		types.SectionSafetyReport,
		types.SectionPatient,
		types.SectionReaction,
		types.SectionPrimarySource,
	} {
		f = f.Merge(SectionFacts(s, c.SectionValues(s)))
	}
	return f
}

// ReactionFacts layers the per-occurrence facts of one reaction over base.
func ReactionFacts(base RuleFacts, v types.Values) RuleFacts {
	base.ReactionSerious = types.Bool(reactionSerious(v))
	return base
}

var seriousnessFields = []types.Field{
	types.FieldResultsInDeath,
	types.FieldLifeThreatening,
	types.FieldHospitalization,
	types.FieldDisabling,
	types.FieldCongenitalAnomaly,
	types.FieldOtherMedicallyImportant,
}

func reactionSerious(v types.Values) bool {
	for _, f := range seriousnessFields {
		if b, err := types.ParseBool(v[f]); err == nil && b != nil && *b {
			return true
		}
	}
	return false
}

// sourceCountry returns the country of the primary source flagged for
// regulatory purposes, else the first source carrying a country.
func sourceCountry(occurrences []types.Values) (string, bool) {
	for _, v := range occurrences {
		if p, _ := v.Get(types.FieldPrimaryForRegulatory); p == "1" {
			if c, ok := v.Get(types.FieldCountry); ok {
				return c, true
			}
		}
	}
	for _, v := range occurrences {
		if c, ok := v.Get(types.FieldCountry); ok {
			return c, true
		}
	}
	return "", false
}
