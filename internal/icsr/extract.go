package icsr

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/solatis/casekeeper/internal/catalog"
	"github.com/solatis/casekeeper/internal/types"
	"github.com/solatis/casekeeper/internal/xmlpath"
)

/*
 * Document extraction.
 *
 * Each field reads its expressions in catalog order and keeps the first
 * non-blank trimmed value. A node carrying only nullFlavor has no value and
 * so reads as absent. List sections are read item by item in document
 * order, relative to each item.
 *
 * A section whose anchor is missing extracts as nil. A list section whose
 * anchor exists but whose container does not extracts as an empty list.
 */

// ParseSection extracts the raw values of one section. The bool reports
// whether the section's anchor exists in the document.
func ParseSection(raw []byte, section types.Section, profile types.Profile) ([]types.Values, bool, error) {
	if err := section.Check(); err != nil {
		return nil, false, err
	}
	doc, err := parseDocument(raw)
	if err != nil {
		return nil, false, err
	}
	if err := checkRoot(doc); err != nil {
		return nil, false, err
	}
	return extract(doc, section, profile)
}

func extract(doc *etree.Document, section types.Section, profile types.Profile) ([]types.Values, bool, error) {
	sp := catalog.MustFor(section, profile)
	anchors, err := compileAll(sp.Anchor)
	if err != nil {
		return nil, false, err
	}
	var anchor *etree.Element
	for _, x := range anchors {
		if found := x.Select(doc.Root()); len(found) > 0 {
			anchor = found[0]
			break
		}
	}
	if anchor == nil {
		return nil, false, nil
	}

	if !section.Repeating() {
		v, err := readFields(anchor, sp)
		if err != nil {
			return nil, false, err
		}
		return []types.Values{v}, true, nil
	}

	container := anchor
	if sp.Container != "" {
		x, err := xmlpath.Compile(sp.Container)
		if err != nil {
			return nil, false, err
		}
		found := x.Select(anchor)
		if len(found) == 0 {
			return []types.Values{}, true, nil
		}
		container = found[0]
	}
	item, err := xmlpath.Compile(sp.Item)
	if err != nil {
		return nil, false, err
	}
	items := item.Select(container)
	out := make([]types.Values, 0, len(items))
	for _, e := range items {
		v, err := readFields(e, sp)
		if err != nil {
			return nil, false, err
		}
		out = append(out, v)
	}
	return out, true, nil
}

func readFields(ctx *etree.Element, sp *catalog.SectionPaths) (types.Values, error) {
	v := types.Values{}
	for _, f := range sp.Order {
		exprs, err := compileAll(sp.Paths(f))
		if err != nil {
			return nil, err
		}
		for _, x := range exprs {
			if s, ok := x.Value(ctx); ok {
				v[f] = s
				break
			}
		}
	}
	return v, nil
}

// record constrains P to a pointer to R implementing SectionRecord.
type record[R any] interface {
	*R
	types.SectionRecord
}

func parseOne[R any, P record[R]](raw []byte, section types.Section, profile types.Profile) (*R, error) {
	values, ok, err := ParseSection(raw, section, profile)
	if err != nil || !ok {
		return nil, err
	}
	var r R
	if err := P(&r).Assign(values[0]); err != nil {
		return nil, fmt.Errorf("%s: %w", section, err)
	}
	return &r, nil
}

func parseList[R any, P record[R]](raw []byte, section types.Section, profile types.Profile) ([]R, bool, error) {
	values, ok, err := ParseSection(raw, section, profile)
	if err != nil || !ok {
		return nil, ok, err
	}
	out := make([]R, len(values))
	for i, v := range values {
		if err := P(&out[i]).Assign(v); err != nil {
			return nil, true, fmt.Errorf("%s %d: %w", section, i, err)
		}
	}
	return out, true, nil
}

// ParseMessageHeader extracts N.1/N.2, or nil when the document has none.
func ParseMessageHeader(raw []byte, profile types.Profile) (*types.MessageHeader, error) {
	return parseOne[types.MessageHeader](raw, types.SectionMessageHeader, profile)
}

func ParseSafetyReport(raw []byte, profile types.Profile) (*types.SafetyReport, error) {
	return parseOne[types.SafetyReport](raw, types.SectionSafetyReport, profile)
}

func ParsePatient(raw []byte, profile types.Profile) (*types.Patient, error) {
	return parseOne[types.Patient](raw, types.SectionPatient, profile)
}

func ParseNarrative(raw []byte, profile types.Profile) (*types.Narrative, error) {
	return parseOne[types.Narrative](raw, types.SectionNarrative, profile)
}

// ParsePrimarySources extracts C.2.r. The bool is false when the
// investigation event is missing.
func ParsePrimarySources(raw []byte, profile types.Profile) ([]types.PrimarySource, bool, error) {
	return parseList[types.PrimarySource](raw, types.SectionPrimarySource, profile)
}

func ParseReactions(raw []byte, profile types.Profile) ([]types.Reaction, bool, error) {
	return parseList[types.Reaction](raw, types.SectionReaction, profile)
}

func ParseTestResults(raw []byte, profile types.Profile) ([]types.TestResult, bool, error) {
	return parseList[types.TestResult](raw, types.SectionTestResult, profile)
}

func ParseDrugs(raw []byte, profile types.Profile) ([]types.Drug, bool, error) {
	return parseList[types.Drug](raw, types.SectionDrug, profile)
}

// ParseCase extracts every handled section. Sections whose anchor is
// missing, and single sections without any value, stay nil.
func ParseCase(raw []byte, profile types.Profile) (*types.Case, error) {
	doc, err := parseDocument(raw)
	if err != nil {
		return nil, err
	}
	if err := checkRoot(doc); err != nil {
		return nil, err
	}

	c := &types.Case{Profile: profile}
	for _, s := range types.Sections {
		values, ok, err := extract(doc, s, profile)
		if err != nil {
			return nil, err
		}
		if !ok || len(values) == 0 || (!s.Repeating() && len(values[0]) == 0) {
			continue
		}
		recs := make([]types.SectionRecord, 0, len(values))
		for i, v := range values {
			r, err := types.NewRecord(s)
			if err != nil {
				return nil, err
			}
			if err := r.Assign(v); err != nil {
				return nil, fmt.Errorf("%s %d: %w", s, i, err)
			}
			recs = append(recs, r)
		}
		if err := c.SetRecords(s, recs); err != nil {
			return nil, err
		}
	}
	return c, nil
}
