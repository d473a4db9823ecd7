package rules

import (
	"testing"

	"github.com/solatis/casekeeper/internal/types"
)

func TestSectionFacts_SafetyReport(t *testing.T) {
	f := SectionFacts(types.SectionSafetyReport, []types.Values{{
		types.FieldFulfilExpeditedCriteria: "true",
		types.FieldReportType:              "2",
	}})

	if f.FulfilExpeditedCriteria == nil || !*f.FulfilExpeditedCriteria {
		t.Errorf("FulfilExpeditedCriteria = %v, want true", f.FulfilExpeditedCriteria)
	}
	if f.ReportType == nil || *f.ReportType != "2" {
		t.Errorf("ReportType = %v, want 2", f.ReportType)
	}
	if f.NullificationRequested == nil || *f.NullificationRequested {
		t.Errorf("NullificationRequested = %v, want false", f.NullificationRequested)
	}

	f = SectionFacts(types.SectionSafetyReport, []types.Values{{types.FieldNullificationCode: "1"}})
	if f.FulfilExpeditedCriteria != nil {
		t.Errorf("FulfilExpeditedCriteria = %v, want missing", *f.FulfilExpeditedCriteria)
	}
	if f.NullificationRequested == nil || !*f.NullificationRequested {
		t.Errorf("NullificationRequested = %v, want true", f.NullificationRequested)
	}

	if f := SectionFacts(types.SectionSafetyReport, nil); f != (RuleFacts{}) {
		t.Errorf("SectionFacts(nil) = %+v, want empty", f)
	}
}

func TestSectionFacts_PrimarySourceCountry(t *testing.T) {
	tests := []struct {
		name    string
		sources []types.Values
		want    string
	}{
		{
			name: "regulatory source wins",
			sources: []types.Values{
				{types.FieldCountry: "US"},
				{types.FieldCountry: "KR", types.FieldPrimaryForRegulatory: "1"},
			},
			want: "KR",
		},
		{
			name:    "first with country otherwise",
			sources: []types.Values{{types.FieldGivenName: "A"}, {types.FieldCountry: "JP"}},
			want:    "JP",
		},
		{
			name:    "none",
			sources: []types.Values{{types.FieldGivenName: "A"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := SectionFacts(types.SectionPrimarySource, tt.sources)
			var got string
			if f.PrimarySourceCountry != nil {
				got = *f.PrimarySourceCountry
			}
			if got != tt.want {
				t.Errorf("PrimarySourceCountry = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCaseFacts(t *testing.T) {
	c := &types.Case{
		SafetyReport: &types.SafetyReport{FulfilExpeditedCriteria: types.Bool(true), ReportType: "1"},
		Patient:      &types.Patient{Initials: "JD"},
		Reactions: []types.Reaction{
			{PrimarySourceReaction: "rash"},
			{PrimarySourceReaction: "death", ResultsInDeath: types.Bool(true)},
		},
		PrimarySources: []types.PrimarySource{{Country: "KR", PrimaryForRegulatory: "1"}},
	}

	f := CaseFacts(c)
	checks := []struct {
		fact string
		want any
	}{
		{FactFulfilExpeditedCriteria, true},
		{FactPatientPayloadPresent, true},
		{FactSeriousReport, true},
		{FactNullificationRequested, false},
		{FactReportType, "1"},
		{FactPrimarySourceCountry, "KR"},
	}
	for _, ck := range checks {
		got, ok := f.Lookup(ck.fact)
		if !ok || got != ck.want {
			t.Errorf("Lookup(%s) = %v, %v; want %v", ck.fact, got, ok, ck.want)
		}
	}
	if _, ok := f.Lookup(FactReactionSerious); ok {
		t.Errorf("reactionSerious set at case level")
	}

	empty := CaseFacts(&types.Case{})
	if v, ok := empty.Lookup(FactPatientPayloadPresent); !ok || v != false {
		t.Errorf("empty case patientPayloadPresent = %v, %v; want false, true", v, ok)
	}
	if _, ok := empty.Lookup(FactFulfilExpeditedCriteria); ok {
		t.Errorf("empty case has fulfilExpeditedCriteria")
	}
}

func TestReactionFacts(t *testing.T) {
	base := RuleFacts{ReportType: strPtr("1")}
	f := ReactionFacts(base, types.Values{types.FieldHospitalization: "true"})
	if f.ReactionSerious == nil || !*f.ReactionSerious {
		t.Errorf("ReactionSerious = %v, want true", f.ReactionSerious)
	}
	if f.ReportType == nil || *f.ReportType != "1" {
		t.Errorf("base facts lost")
	}
	if base.ReactionSerious != nil {
		t.Errorf("ReactionFacts mutated base")
	}

	f = ReactionFacts(base, types.Values{types.FieldHospitalization: "false"})
	if f.ReactionSerious == nil || *f.ReactionSerious {
		t.Errorf("ReactionSerious = %v, want false", f.ReactionSerious)
	}
}

func TestLookup_UnknownFact(t *testing.T) {
	if _, ok := (RuleFacts{}).Lookup("nope"); ok {
		t.Errorf("Lookup(nope) ok = true")
	}
	for _, n := range FactNames() {
		if _, ok := LookupFactType(n); !ok {
			t.Errorf("FactNames() lists %q without a type", n)
		}
	}
}
