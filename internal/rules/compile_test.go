package rules

import (
	"errors"
	"testing"

	"github.com/solatis/casekeeper/internal/types"
)

func cond(fact string, op Operator, value any) types.Condition {
	return types.Condition{Fact: fact, Operator: string(op), Value: value}
}

func TestCompile_SimpleRule(t *testing.T) {
	rule := &types.Rule{
		Code: "TEST.SIMPLE",
		OrGroups: []types.OrGroup{
			{Conditions: []types.Condition{cond(FactFulfilExpeditedCriteria, OpEq, true)}},
		},
	}

	compiled, err := Compile(rule)
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}

	if compiled.Code() != "TEST.SIMPLE" {
		t.Errorf("Code() = %v, want TEST.SIMPLE", compiled.Code())
	}
	if len(compiled.OrGroups) != 1 {
		t.Fatalf("len(OrGroups) = %v, want 1", len(compiled.OrGroups))
	}
	c := compiled.OrGroups[0].Conditions[0]
	if c.FactType != FactTypeBoolean {
		t.Errorf("FactType = %v, want boolean", c.FactType)
	}
	if c.Value != true {
		t.Errorf("Value = %#v, want true", c.Value)
	}
}

func TestCompile_Unconditional(t *testing.T) {
	compiled, err := Compile(&types.Rule{Code: "TEST.ALWAYS"})
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	if !compiled.Unconditional() {
		t.Errorf("Unconditional() = false, want true")
	}
}

func TestCompile_CoercesLiterals(t *testing.T) {
	rule := &types.Rule{
		Code: "TEST.COERCE",
		OrGroups: []types.OrGroup{
			{Conditions: []types.Condition{
				cond(FactSeriousReport, OpEq, "true"),
				cond(FactReportType, OpEq, 2),
				{Fact: FactPrimarySourceCountry, Operator: string(OpIn), Values: []any{"KR", " JP "}},
			}},
		},
	}

	compiled, err := Compile(rule)
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}

	byFact := map[string]CompiledCondition{}
	for _, c := range compiled.OrGroups[0].Conditions {
		byFact[c.Fact] = c
	}
	if v := byFact[FactSeriousReport].Value; v != true {
		t.Errorf("seriousReport literal = %#v, want true", v)
	}
	if v := byFact[FactReportType].Value; v != "2" {
		t.Errorf("reportType literal = %#v, want \"2\"", v)
	}
	if vs := byFact[FactPrimarySourceCountry].Values; len(vs) != 2 || vs[1] != "JP" {
		t.Errorf("primarySourceCountry set = %#v, want [KR JP]", vs)
	}
}

func TestCompile_ConditionsOrderedByCost(t *testing.T) {
	rule := &types.Rule{
		Code: "TEST.COST",
		OrGroups: []types.OrGroup{
			{Conditions: []types.Condition{
				cond(FactReportType, OpPrefix, "2"),
				cond(FactReactionSerious, OpEq, true),
				cond(FactPatientPayloadPresent, OpExists, nil),
			}},
		},
	}

	compiled, err := Compile(rule)
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}

	conditions := compiled.OrGroups[0].Conditions
	if len(conditions) != 3 {
		t.Fatalf("len(Conditions) = %v, want 3", len(conditions))
	}

	// exists on a case fact, then eq on an occurrence fact, then prefix on text
	want := []Operator{OpExists, OpEq, OpPrefix}
	for i, op := range want {
		if conditions[i].Operator != op {
			t.Errorf("Conditions[%d].Operator = %v, want %v", i, conditions[i].Operator, op)
		}
	}
	for i := 1; i < len(conditions); i++ {
		if conditions[i-1].Cost > conditions[i].Cost {
			t.Errorf("Conditions not ordered by cost: %v > %v", conditions[i-1].Cost, conditions[i].Cost)
		}
	}
	if compiled.Cost != conditions[0].Cost+conditions[1].Cost+conditions[2].Cost {
		t.Errorf("Cost = %d, want sum of condition costs", compiled.Cost)
	}
}

func TestCompile_IsNullMatchesMissing(t *testing.T) {
	compiled, err := Compile(&types.Rule{
		Code: "TEST.NULL",
		OrGroups: []types.OrGroup{
			{Conditions: []types.Condition{cond(FactReportType, OpIsNull, nil)}},
		},
	})
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	if got := compiled.OrGroups[0].Conditions[0].OnMissing; got != OnMissingMatch {
		t.Errorf("OnMissing = %v, want OnMissingMatch", got)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		groups  []types.OrGroup
		wantErr error
	}{
		{
			name:    "empty group",
			groups:  []types.OrGroup{{}},
			wantErr: types.ErrEmptyExpression,
		},
		{
			name:    "unknown fact",
			groups:  []types.OrGroup{{Conditions: []types.Condition{cond("patientAge", OpEq, "3")}}},
			wantErr: types.ErrUnknownFact,
		},
		{
			name:    "unknown operator",
			groups:  []types.OrGroup{{Conditions: []types.Condition{cond(FactReportType, "gt", "3")}}},
			wantErr: types.ErrInvalidOperator,
		},
		{
			name:    "prefix on boolean fact",
			groups:  []types.OrGroup{{Conditions: []types.Condition{cond(FactSeriousReport, OpPrefix, "t")}}},
			wantErr: types.ErrInvalidOperator,
		},
		{
			name:    "in without values",
			groups:  []types.OrGroup{{Conditions: []types.Condition{cond(FactReportType, OpIn, nil)}}},
			wantErr: types.ErrInvalidOperator,
		},
		{
			name:    "boolean literal not a boolean",
			groups:  []types.OrGroup{{Conditions: []types.Condition{cond(FactSeriousReport, OpEq, 1)}}},
			wantErr: types.ErrCoercionFailed,
		},
		{
			name:    "missing comparison value",
			groups:  []types.OrGroup{{Conditions: []types.Condition{cond(FactReportType, OpEq, nil)}}},
			wantErr: types.ErrCoercionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(&types.Rule{Code: "TEST.ERR", OrGroups: tt.groups})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Compile() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
