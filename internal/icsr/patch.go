// internal/icsr/patch.go
package icsr

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/beevik/etree"

	"github.com/solatis/casekeeper/internal/catalog"
	"github.com/solatis/casekeeper/internal/rules"
	"github.com/solatis/casekeeper/internal/types"
	"github.com/solatis/casekeeper/internal/xmlpath"
)

/*
 * Document patching.
 *
 * A patch writes one section into an existing document and leaves every
 * node it does not address untouched. Per field:
 *
 *   present  -> overwrite at the first expression that already exists,
 *               else create the primary (fallbacks only when the primary
 *               cannot exist under this root, e.g. batch-only paths)
 *   absent   -> untouched, unless a directive rule applies to the field
 *               and its condition holds: then the node is created with
 *               its value removed and nullFlavor set
 *
 * List sections correlate occurrences with existing items in two passes:
 * first every occurrence carrying an id takes the item with that id, then
 * the rest take unclaimed items without an id in document order.
 * Unmatched occurrences are appended; surplus items stay as they are.
 *
 * Patching the output again with the same patch yields identical bytes.
 *
 * Values XML 1.0 cannot represent (invalid UTF-8, C0 controls other than
 * tab, LF and CR, U+FFFE, U+FFFF) reject the patch with ErrInvalidCharacter
 * before the document is touched.
 */

const attrNullFlavor = "nullFlavor"

// SectionPatch is the input of one patch call.
type SectionPatch struct {
	Section types.Section
	Profile types.Profile

	// Values of a single section.
	Values types.Values

	// Occurrences of a list section, in sequence order.
	Occurrences []types.Values

	// Facts directive conditions are evaluated against.
	Facts rules.RuleFacts
}

// NewPatch builds the patch for one record. List records become a
// one-occurrence list patch.
func NewPatch(profile types.Profile, rec types.SectionRecord) *SectionPatch {
	v := rec.Values()
	p := &SectionPatch{
		Section: rec.Section(),
		Profile: profile,
		Facts:   rules.SectionFacts(rec.Section(), []types.Values{v}),
	}
	if p.Section.Repeating() {
		p.Occurrences = []types.Values{v}
	} else {
		p.Values = v
	}
	return p
}

// NewListPatch builds the patch for every occurrence of a list section.
func NewListPatch(profile types.Profile, section types.Section, recs []types.SectionRecord) (*SectionPatch, error) {
	if !section.Repeating() {
		if err := section.Check(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("section %s is not a list section", section)
	}
	occ := make([]types.Values, 0, len(recs))
	for _, r := range recs {
		if r.Section() != section {
			return nil, fmt.Errorf("record for %s in %s patch", r.Section(), section)
		}
		occ = append(occ, r.Values())
	}
	return &SectionPatch{
		Section:     section,
		Profile:     profile,
		Occurrences: occ,
		Facts:       rules.SectionFacts(section, occ),
	}, nil
}

// Patch applies p to the document raw and returns the re-serialized
// document.
func Patch(raw []byte, p *SectionPatch) ([]byte, error) {
	if err := p.Section.Check(); err != nil {
		return nil, err
	}
	doc, err := parseDocument(raw)
	if err != nil {
		return nil, err
	}
	if err := patchDocument(doc, p); err != nil {
		return nil, err
	}
	return serialize(doc)
}

func patchDocument(doc *etree.Document, p *SectionPatch) error {
	if err := checkValues(p); err != nil {
		return err
	}
	if err := checkRoot(doc); err != nil {
		return err
	}
	sp := catalog.For(p.Section, p.Profile)
	if sp == nil {
		return p.Section.Check()
	}
	anchor, err := ensureAnchor(doc.Root(), sp)
	if err != nil {
		return err
	}

	pt := &patcher{
		sp:         sp,
		directives: directivesFor(p.Section, p.Profile),
	}
	if !p.Section.Repeating() {
		return pt.fields(anchor, p.Values, p.Facts)
	}
	return pt.list(anchor, p)
}

// ensureAnchor returns the first anchor that exists, else creates one.
func ensureAnchor(root *etree.Element, sp *catalog.SectionPaths) (*etree.Element, error) {
	exprs, err := compileAll(sp.Anchor)
	if err != nil {
		return nil, err
	}
	for _, x := range exprs {
		if found := x.Select(root); len(found) > 0 {
			return found[0], nil
		}
	}
	for _, x := range exprs {
		e, err := x.Ensure(root)
		if err == nil {
			return e, nil
		}
		if !errors.Is(err, xmlpath.ErrRootMismatch) {
			return nil, err
		}
	}
	return nil, &types.UnsupportedRootError{Found: root.FullTag()}
}

type patcher struct {
	sp         *catalog.SectionPaths
	directives map[types.Field]string
}

func (pt *patcher) list(anchor *etree.Element, p *SectionPatch) error {
	if len(p.Occurrences) == 0 {
		return nil
	}

	container := anchor
	if pt.sp.Container != "" {
		x, err := xmlpath.Compile(pt.sp.Container)
		if err != nil {
			return err
		}
		if found := x.Select(anchor); len(found) > 0 {
			container = found[0]
		} else if container, err = x.Ensure(anchor); err != nil {
			return err
		}
	}

	item, err := xmlpath.Compile(pt.sp.Item)
	if err != nil {
		return err
	}
	c, err := newCorrelator(pt.sp, item.Select(container))
	if err != nil {
		return err
	}

	targets := c.assign(p.Occurrences)
	for i, occ := range p.Occurrences {
		target := targets[i]
		if target == nil {
			if target, err = item.Append(container); err != nil {
				return err
			}
		}
		facts := p.Facts
		if p.Section == types.SectionReaction {
			facts = rules.ReactionFacts(facts, occ)
		}
		if err := pt.fields(target, occ, facts); err != nil {
			return err
		}
	}
	return nil
}

func (pt *patcher) fields(ctx *etree.Element, values types.Values, facts rules.RuleFacts) error {
	for _, f := range pt.sp.Order {
		exprs, err := compileAll(pt.sp.Paths(f))
		if err != nil {
			return err
		}
		xsi := pt.sp.ValueTypes[f]
		code := pt.directives[f]

		v, present := values.Get(f)
		if pt.sp.Section == types.SectionReaction && f == types.FieldOutcome {
			v, present = NormalizeOutcomeCode(v), true
		}

		switch {
		case present:
			e, x, err := locate(ctx, exprs)
			if err != nil {
				return err
			}
			if e == nil {
				continue
			}
			x.Set(e, v)
			if code != "" && rules.ShouldClearNullFlavorOnValue(code) {
				e.RemoveAttr(attrNullFlavor)
			}
			setValueType(e, xsi)

		case code != "" && rules.IsRuleConditionSatisfied(code, facts):
			d, _ := rules.ExportDirective(code)
			e, x, err := locate(ctx, exprs)
			if err != nil {
				return err
			}
			if e == nil {
				continue
			}
			x.Clear(e)
			e.CreateAttr(attrNullFlavor, d.NullFlavor)
			setValueType(e, xsi)
		}
	}
	return nil
}

// locate returns the node to write through: the first expression with an
// existing match, else the first one that can be created under this root.
// A nil element with nil error means no expression applies to the root.
func locate(ctx *etree.Element, exprs []*xmlpath.Expr) (*etree.Element, *xmlpath.Expr, error) {
	for _, x := range exprs {
		if found := x.Select(ctx); len(found) > 0 {
			return found[0], x, nil
		}
	}
	for _, x := range exprs {
		e, err := x.Ensure(ctx)
		if err == nil {
			return e, x, nil
		}
		if !errors.Is(err, xmlpath.ErrRootMismatch) {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

// setValueType declares xsi:type on a value node that has none.
func setValueType(e *etree.Element, typ string) {
	if typ == "" {
		return
	}
	if _, ok := xmlpath.XSIType(e); !ok {
		xmlpath.SetXSIType(e, typ)
	}
}

func compileAll(srcs []string) ([]*xmlpath.Expr, error) {
	out := make([]*xmlpath.Expr, 0, len(srcs))
	for _, s := range srcs {
		x, err := xmlpath.Compile(s)
		if err != nil {
			return nil, fmt.Errorf("failed to compile catalog expression: %w", err)
		}
		out = append(out, x)
	}
	return out, nil
}

// correlator hands out existing list items to patch occurrences.
type correlator struct {
	items   []*etree.Element
	ids     []string
	claimed []bool
	byID    bool
}

func newCorrelator(sp *catalog.SectionPaths, items []*etree.Element) (*correlator, error) {
	c := &correlator{
		items:   items,
		ids:     make([]string, len(items)),
		claimed: make([]bool, len(items)),
		byID:    sp.Has(types.FieldID),
	}
	if !c.byID {
		return c, nil
	}
	exprs, err := compileAll(sp.Paths(types.FieldID))
	if err != nil {
		return nil, err
	}
	for i, e := range items {
		for _, x := range exprs {
			if v, ok := x.Value(e); ok {
				c.ids[i] = v
				break
			}
		}
	}
	return c, nil
}

// assign returns, per occurrence, the existing item it is written to, or
// nil when a new item must be appended. Id matches are settled before any
// positional reuse so an occurrence without id cannot take an item another
// occurrence owns.
func (c *correlator) assign(occs []types.Values) []*etree.Element {
	out := make([]*etree.Element, len(occs))
	if c.byID {
		for n, occ := range occs {
			id, ok := occ.Get(types.FieldID)
			if !ok {
				continue
			}
			for i := range c.items {
				if !c.claimed[i] && c.ids[i] == id {
					out[n] = c.take(i)
					break
				}
			}
		}
	}
	for n := range occs {
		if out[n] != nil {
			continue
		}
		for i := range c.items {
			if !c.claimed[i] && c.ids[i] == "" {
				out[n] = c.take(i)
				break
			}
		}
	}
	return out
}

func (c *correlator) take(i int) *etree.Element {
	c.claimed[i] = true
	return c.items[i]
}

func checkValues(p *SectionPatch) error {
	if err := checkText(p.Section, -1, p.Values); err != nil {
		return err
	}
	for i, occ := range p.Occurrences {
		if err := checkText(p.Section, i, occ); err != nil {
			return err
		}
	}
	return nil
}

func checkText(section types.Section, index int, values types.Values) error {
	for f, v := range values {
		if !utf8.ValidString(v) {
			return fmt.Errorf("%w: %s", types.ErrInvalidCharacter, fieldName(section, index, f))
		}
		for _, r := range v {
			if !xmlChar(r) {
				return fmt.Errorf("%w: %s holds U+%04X", types.ErrInvalidCharacter, fieldName(section, index, f), r)
			}
		}
	}
	return nil
}

func fieldName(section types.Section, index int, f types.Field) string {
	if index < 0 {
		return fmt.Sprintf("%s.%s", section, f)
	}
	return fmt.Sprintf("%s.%d.%s", section, index, f)
}

// xmlChar reports whether r is in the XML 1.0 Char production.
func xmlChar(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return true
	case r < 0x20:
		return false
	case r >= 0xD800 && r <= 0xDFFF, r == 0xFFFE, r == 0xFFFF:
		return false
	}
	return r <= utf8.MaxRune
}
