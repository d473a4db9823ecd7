package api

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/solatis/casekeeper/internal/icsr"
	"github.com/solatis/casekeeper/internal/rules"
	"github.com/solatis/casekeeper/internal/types"
)

// Rule returns the definition for code.
func (s *Service) Rule(code string) (*types.Rule, bool) {
	return rules.RuleByCode(code)
}

// Rules returns the definitions owned by profile, or every definition when
// profile is empty. Catalog order is preserved.
func (s *Service) Rules(profile types.Profile) []types.Rule {
	if profile == "" {
		return rules.AllRules()
	}
	var out []types.Rule
	for _, r := range rules.RulesForProfile(profile) {
		out = append(out, *r.Rule.Clone())
	}
	return out
}

// CatalogVersion returns the version token of the rule catalog.
func (s *Service) CatalogVersion() string {
	return rules.CatalogVersion()
}

// RuleConditionSatisfied reports whether the condition of code holds for c.
// Unknown codes are never satisfied.
func (s *Service) RuleConditionSatisfied(code string, c *types.Case) bool {
	return rules.IsRuleConditionSatisfied(code, rules.CaseFacts(c))
}

// catalogDocument is the exported shape of the rule catalog.
type catalogDocument struct {
	Version string       `json:"version" yaml:"version"`
	Rules   []types.Rule `json:"rules" yaml:"rules"`
}

// ExportCatalog serializes the rules of profile (all when empty) as yaml
// or json.
func (s *Service) ExportCatalog(profile types.Profile, format string) ([]byte, error) {
	doc := catalogDocument{Version: s.CatalogVersion(), Rules: s.Rules(profile)}
	switch format {
	case "yaml", "":
		return yaml.Marshal(doc)
	case "json":
		return json.MarshalIndent(doc, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported catalog format %q (expected yaml or json)", format)
	}
}

// SelfCheck re-runs the start-up catalog verification.
func (s *Service) SelfCheck() error {
	return rules.SelfCheck(icsr.DirectiveCodes())
}
