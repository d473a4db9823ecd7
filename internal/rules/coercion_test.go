package rules

import (
	"errors"
	"testing"

	"github.com/solatis/casekeeper/internal/types"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name      string
		value     any
		factType  FactType
		wantValue any
		wantNull  bool
		wantErr   error
	}{
		// BOOLEAN type tests
		{
			name:      "boolean: passthrough",
			value:     true,
			factType:  FactTypeBoolean,
			wantValue: true,
		},
		{
			name:      "boolean: string spelling",
			value:     "false",
			factType:  FactTypeBoolean,
			wantValue: false,
		},
		{
			name:      "boolean: string with whitespace",
			value:     " true ",
			factType:  FactTypeBoolean,
			wantValue: true,
		},
		{
			name:      "boolean: pointer",
			value:     types.Bool(true),
			factType:  FactTypeBoolean,
			wantValue: true,
		},
		{
			name:     "boolean: nil pointer is null",
			value:    (*bool)(nil),
			factType: FactTypeBoolean,
			wantNull: true,
		},
		{
			name:     "boolean: rejects number",
			value:    1,
			factType: FactTypeBoolean,
			wantErr:  types.ErrCoercionFailed,
		},
		{
			name:     "boolean: rejects garbage string",
			value:    "yes please",
			factType: FactTypeBoolean,
			wantErr:  types.ErrCoercionFailed,
		},

		// TEXT type tests
		{
			name:      "text: string passthrough trimmed",
			value:     " KR ",
			factType:  FactTypeText,
			wantValue: "KR",
		},
		{
			name:      "text: unquoted yaml integer",
			value:     2,
			factType:  FactTypeText,
			wantValue: "2",
		},
		{
			name:      "text: float without trailing zeros",
			value:     2.0,
			factType:  FactTypeText,
			wantValue: "2",
		},
		{
			name:      "text: int64",
			value:     int64(4),
			factType:  FactTypeText,
			wantValue: "4",
		},
		{
			name:      "text: bool",
			value:     true,
			factType:  FactTypeText,
			wantValue: "true",
		},
		{
			name:     "text: blank is null",
			value:    "   ",
			factType: FactTypeText,
			wantNull: true,
		},
		{
			name:      "text: string pointer",
			value:     strPtr("C54588"),
			factType:  FactTypeText,
			wantValue: "C54588",
		},
		{
			name:     "text: rejects list",
			value:    []any{"a"},
			factType: FactTypeText,
			wantErr:  types.ErrCoercionFailed,
		},

		// NULL and unspecified
		{
			name:     "nil is null for any type",
			value:    nil,
			factType: FactTypeText,
			wantNull: true,
		},
		{
			name:     "unspecified type fails",
			value:    "x",
			factType: FactTypeUnspecified,
			wantErr:  types.ErrCoercionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.value, tt.factType)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Coerce() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Coerce() error = %v, want nil", err)
			}
			if got.IsNull != tt.wantNull {
				t.Errorf("IsNull = %v, want %v", got.IsNull, tt.wantNull)
			}
			if !tt.wantNull && got.Value != tt.wantValue {
				t.Errorf("Value = %#v, want %#v", got.Value, tt.wantValue)
			}
		})
	}
}

func strPtr(s string) *string {
	return &s
}
