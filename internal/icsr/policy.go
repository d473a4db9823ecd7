package icsr

import (
	"github.com/solatis/casekeeper/internal/rules"
	"github.com/solatis/casekeeper/internal/types"
)

// exportDirectiveCodes are the rules whose directives the patcher applies.
// rules.SelfCheck verifies each exists and carries a directive.
var exportDirectiveCodes = []string{
	"ICH.C.1.7.REQUIRED",
	"FDA.C.1.7.1.REQUIRED",
	"FDA.C.1.12.REQUIRED",
	"FDA.E.i.3.2h.REQUIRED",
}

// DirectiveCodes returns the rule codes export policy depends on.
func DirectiveCodes() []string {
	return append([]string(nil), exportDirectiveCodes...)
}

// directivesFor maps each field of section to the directive rule applying
// to it under profile.
func directivesFor(section types.Section, profile types.Profile) map[types.Field]string {
	out := map[types.Field]string{}
	for _, code := range exportDirectiveCodes {
		r, ok := rules.RuleByCode(code)
		if !ok || r.Directive == nil {
			continue
		}
		if r.Section == section && profile.Includes(r.Profile) {
			out[r.Field] = code
		}
	}
	return out
}

// outcomeUnknown is E.i.7 "unknown".
const outcomeUnknown = "3"

// NormalizeOutcomeCode maps a reaction outcome to the code exported:
// valid codes 0..5 are kept, anything else (including absent) is unknown.
func NormalizeOutcomeCode(code string) string {
	switch code {
	case "0", "1", "2", "3", "4", "5":
		return code
	default:
		return outcomeUnknown
	}
}
