// internal/rules/catalog.go
package rules

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/solatis/casekeeper/internal/types"
)

/*
 * Built-in rule catalog.
 *
 * Definitions live in catalog.yaml, embedded at build time and compiled once
 * on first use. The compiled catalog is immutable and shared by the patcher
 * (export directives) and the validator (checks), so both read the same
 * conditions through the same evaluator.
 *
 * The version token is the revision plus a sha256 over the canonical JSON
 * of the definitions. It changes whenever any rule changes and is stamped
 * on every validation report.
 */

// revision is bumped by hand when rule semantics change without the
// definitions changing (e.g. a fact derivation fix).
const revision = "r1"

//go:embed catalog.yaml
var definitionsYAML []byte

// RuleCatalog is the compiled, read-only rule set.
type RuleCatalog struct {
	rules   []*CompiledRule
	byCode  map[string]*CompiledRule
	version string
}

var (
	catalogOnce sync.Once
	ruleCatalog *RuleCatalog
	catalogErr  error
)

// Load returns the process-wide catalog, compiling it on first call.
func Load() (*RuleCatalog, error) {
	catalogOnce.Do(func() {
		ruleCatalog, catalogErr = build(definitionsYAML)
	})
	return ruleCatalog, catalogErr
}

// Catalog returns the process-wide catalog and panics when the built-in
// definitions do not compile. Services call SelfCheck at start-up so the
// panic cannot be reached in a running process.
func Catalog() *RuleCatalog {
	c, err := Load()
	if err != nil {
		panic(fmt.Sprintf("rules: built-in catalog invalid: %v", err))
	}
	return c
}

// ParseDefinitions decodes catalog definitions from YAML.
func ParseDefinitions(data []byte) ([]types.Rule, error) {
	var defs []types.Rule
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&defs); err != nil {
		return nil, fmt.Errorf("failed to decode rule definitions: %w", err)
	}
	return defs, nil
}

// NewCatalog compiles defs into a catalog. Codes must be unique.
func NewCatalog(defs []types.Rule) (*RuleCatalog, error) {
	c := &RuleCatalog{
		rules:  make([]*CompiledRule, 0, len(defs)),
		byCode: make(map[string]*CompiledRule, len(defs)),
	}
	for i := range defs {
		def := &defs[i]
		if def.Code == "" {
			return nil, fmt.Errorf("rule %d: missing code", i)
		}
		if _, dup := c.byCode[def.Code]; dup {
			return nil, fmt.Errorf("duplicate rule code %s", def.Code)
		}
		if _, err := types.ParseProfile(string(def.Profile)); err != nil {
			return nil, fmt.Errorf("rule %s: %w", def.Code, err)
		}
		if err := def.Section.Check(); err != nil {
			return nil, fmt.Errorf("rule %s: %w", def.Code, err)
		}
		if err := checkShape(def); err != nil {
			return nil, fmt.Errorf("rule %s: %w", def.Code, err)
		}
		compiled, err := Compile(def)
		if err != nil {
			return nil, err
		}
		c.rules = append(c.rules, compiled)
		c.byCode[def.Code] = compiled
	}

	canonical, err := json.Marshal(defs)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize rule definitions: %w", err)
	}
	sum := sha256.Sum256(canonical)
	c.version = revision + "-" + hex.EncodeToString(sum[:8])
	return c, nil
}

func build(data []byte) (*RuleCatalog, error) {
	defs, err := ParseDefinitions(data)
	if err != nil {
		return nil, err
	}
	return NewCatalog(defs)
}

// checkShape verifies that the check kind has what it needs.
func checkShape(r *types.Rule) error {
	switch r.Check {
	case types.CheckAtLeastOne:
		if !r.Section.Repeating() {
			return fmt.Errorf("%s on single section %s", r.Check, r.Section)
		}
	case types.CheckExactlyOne:
		if !r.Section.Repeating() || r.Field == "" || len(r.Values) != 1 {
			return fmt.Errorf("%s needs a list section, a field and one value", r.Check)
		}
	case types.CheckOneOf:
		if r.Field == "" || len(r.Values) == 0 {
			return fmt.Errorf("%s needs a field and values", r.Check)
		}
	case types.CheckAnyOf:
		if r.Field == "" || len(r.AltFields) == 0 {
			return fmt.Errorf("%s needs a field and alternatives", r.Check)
		}
	case types.CheckRequired:
		if r.Field == "" {
			return fmt.Errorf("%s needs a field", r.Check)
		}
	default:
		return fmt.Errorf("unknown check %q", r.Check)
	}
	if r.Directive != nil && (r.Field == "" || r.Directive.NullFlavor == "") {
		return fmt.Errorf("directive needs a field and a nullFlavor")
	}
	return nil
}

// Rule returns the compiled rule for code.
func (c *RuleCatalog) Rule(code string) (*CompiledRule, bool) {
	r, ok := c.byCode[code]
	return r, ok
}

// Rules returns every compiled rule in catalog order.
func (c *RuleCatalog) Rules() []*CompiledRule {
	return c.rules
}

// Version returns the catalog version token.
func (c *RuleCatalog) Version() string {
	return c.version
}

// Definitions returns deep copies of every rule definition in catalog order.
func (c *RuleCatalog) Definitions() []types.Rule {
	out := make([]types.Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = *r.Rule.Clone()
	}
	return out
}

// RuleByCode returns a copy of the definition for code.
func RuleByCode(code string) (*types.Rule, bool) {
	r, ok := Catalog().Rule(code)
	if !ok {
		return nil, false
	}
	return r.Rule.Clone(), true
}

// RulesForProfile returns the compiled rules owned by exactly p, in
// catalog order.
func RulesForProfile(p types.Profile) []*CompiledRule {
	var out []*CompiledRule
	for _, r := range Catalog().Rules() {
		if r.Rule.Profile == p {
			out = append(out, r)
		}
	}
	return out
}

// AllRules returns every rule definition in catalog order.
func AllRules() []types.Rule {
	return Catalog().Definitions()
}

// CatalogVersion returns the version token of the built-in catalog.
func CatalogVersion() string {
	return Catalog().Version()
}
