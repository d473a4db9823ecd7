package rules

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/solatis/casekeeper/internal/types"
)

func mustCompile(t *testing.T, groups ...[]types.Condition) *CompiledRule {
	t.Helper()
	rule := &types.Rule{Code: "TEST"}
	for _, g := range groups {
		rule.OrGroups = append(rule.OrGroups, types.OrGroup{Conditions: g})
	}
	compiled, err := Compile(rule)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return compiled
}

func TestEvaluate_SimpleMatch(t *testing.T) {
	rule := mustCompile(t, []types.Condition{cond(FactFulfilExpeditedCriteria, OpEq, true)})

	result := Evaluate(rule, RuleFacts{FulfilExpeditedCriteria: types.Bool(true)})
	if !result.Matched {
		t.Errorf("Matched = false, want true")
	}
	if result.MatchedFact != FactFulfilExpeditedCriteria {
		t.Errorf("MatchedFact = %q, want %q", result.MatchedFact, FactFulfilExpeditedCriteria)
	}
	if result.MatchedValue != true {
		t.Errorf("MatchedValue = %#v, want true", result.MatchedValue)
	}

	if Evaluate(rule, RuleFacts{FulfilExpeditedCriteria: types.Bool(false)}).Matched {
		t.Errorf("Matched = true for false fact, want false")
	}
}

func TestEvaluate_Unconditional(t *testing.T) {
	result := Evaluate(mustCompile(t), RuleFacts{})
	if !result.Matched || result.Group != -1 {
		t.Errorf("Evaluate() = %+v, want unconditional match", result)
	}
}

func TestEvaluate_MultiConditionAND(t *testing.T) {
	rule := mustCompile(t, []types.Condition{
		cond(FactReportType, OpEq, "2"),
		cond(FactPrimarySourceCountry, OpEq, "KR"),
	})

	tests := []struct {
		name  string
		facts RuleFacts
		want  bool
	}{
		{"both hold", RuleFacts{ReportType: strPtr("2"), PrimarySourceCountry: strPtr("KR")}, true},
		{"one fails", RuleFacts{ReportType: strPtr("1"), PrimarySourceCountry: strPtr("KR")}, false},
		{"one missing", RuleFacts{ReportType: strPtr("2")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(rule, tt.facts).Matched; got != tt.want {
				t.Errorf("Matched = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_MultiGroupOR_FirstMatchWins(t *testing.T) {
	rule := &types.Rule{
		Code: "TEST.OR",
		OrGroups: []types.OrGroup{
			{Conditions: []types.Condition{cond(FactSeriousReport, OpEq, true)}},
			{Conditions: []types.Condition{{Fact: FactReportType, Operator: string(OpIn), Values: []any{"1", "2"}}}},
		},
	}
	compiled, err := Compile(rule)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	result := Evaluate(compiled, RuleFacts{SeriousReport: types.Bool(false), ReportType: strPtr("2")})
	if !result.Matched || result.Group != 1 {
		t.Errorf("Evaluate() = %+v, want match on group 1", result)
	}

	result = Evaluate(compiled, RuleFacts{SeriousReport: types.Bool(true), ReportType: strPtr("2")})
	if !result.Matched || result.Group != 0 {
		t.Errorf("Evaluate() = %+v, want match on group 0", result)
	}
}

func TestEvaluate_MissingFacts(t *testing.T) {
	tests := []struct {
		name string
		cond types.Condition
		want bool
	}{
		{"eq on missing fact", cond(FactReportType, OpEq, "2"), false},
		{"neq on missing fact", cond(FactReportType, OpNeq, "2"), false},
		{"exists on missing fact", cond(FactReportType, OpExists, nil), false},
		{"is_null on missing fact", cond(FactReportType, OpIsNull, nil), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := mustCompile(t, []types.Condition{tt.cond})
			if got := Evaluate(rule, RuleFacts{}).Matched; got != tt.want {
				t.Errorf("Matched = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_BlankTextFactIsMissing(t *testing.T) {
	rule := mustCompile(t, []types.Condition{cond(FactReportType, OpIsNull, nil)})
	if !Evaluate(rule, RuleFacts{ReportType: strPtr("  ")}).Matched {
		t.Errorf("is_null on blank fact = false, want true")
	}
}

func TestEvaluate_AllOperators(t *testing.T) {
	tests := []struct {
		name     string
		operator Operator
		value    any
		target   any
		want     bool
	}{
		{"exists_true", OpExists, "value", nil, true},
		{"exists_false", OpExists, nil, nil, false},
		{"is_null_true", OpIsNull, nil, nil, true},
		{"is_null_false", OpIsNull, "value", nil, false},
		{"eq_true", OpEq, "2", "2", true},
		{"eq_false", OpEq, "2", "3", false},
		{"eq_bool", OpEq, true, true, true},
		{"eq_mixed_types", OpEq, true, "true", false},
		{"neq_true", OpNeq, "KR", "JP", true},
		{"neq_false", OpNeq, "KR", "KR", false},
		{"prefix_true", OpPrefix, "KR.1", "KR.", true},
		{"prefix_false", OpPrefix, "KR.1", "JP.", false},
		{"prefix_non_string", OpPrefix, true, "t", false},
		{"suffix_true", OpSuffix, "C54588", "588", true},
		{"suffix_false", OpSuffix, "C54588", "C54", false},
		{"in_true", OpIn, "2", []any{"1", "2"}, true},
		{"in_false", OpIn, "4", []any{"1", "2"}, false},
		{"in_bad_set", OpIn, "1", "1", false},
		{"unknown", Operator("gt"), "2", "1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(tt.operator, tt.value, tt.target)
			if got != tt.want {
				t.Errorf("Compare(%v, %v, %v) = %v, want %v",
					tt.operator, tt.value, tt.target, got, tt.want)
			}
		})
	}
}

// eq and neq partition present facts: exactly one holds.
func TestEvaluate_PropertyEqNeqComplement(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("eq xor neq on present fact", prop.ForAll(
		func(fact, literal string) bool {
			eq := mustCompileQuiet(cond(FactReportType, OpEq, literal))
			neq := mustCompileQuiet(cond(FactReportType, OpNeq, literal))
			facts := RuleFacts{ReportType: &fact}
			return Evaluate(eq, facts).Matched != Evaluate(neq, facts).Matched
		},
		gen.OneConstOf("1", "2", "3", "4"),
		gen.OneConstOf("1", "2", "3", "4"),
	))

	properties.TestingRun(t)
}

func mustCompileQuiet(c types.Condition) *CompiledRule {
	compiled, err := Compile(&types.Rule{
		Code:     "TEST.PROP",
		OrGroups: []types.OrGroup{{Conditions: []types.Condition{c}}},
	})
	if err != nil {
		panic(err)
	}
	return compiled
}
