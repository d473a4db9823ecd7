// Package catalog holds the addressing expressions for every ICSR section
// field, per profile.
//
// Core (ICH) tables are shared by all profiles. FDA and MFDS tables only
// add fields the core lacks or override a field whose regional encoding
// differs. Expressions for one field are ordered: the primary first, then
// fallbacks for alternate encodings seen in the wild.
//
// The catalog is pure data, merged once on first use and read-only after.
package catalog

import (
	"fmt"
	"sync"

	"github.com/solatis/casekeeper/internal/types"
)

// OIDs used to disambiguate coded nodes.
const (
	OIDObservationCode   = "2.16.840.1.113883.3.989.2.1.1.19"
	OIDOrganizerCategory = "2.16.840.1.113883.3.989.2.1.1.20"
	OIDSourceReport      = "2.16.840.1.113883.3.989.2.1.1.22"
	OIDReportCharacter   = "2.16.840.1.113883.3.989.2.1.1.23"
	OIDReportID          = "2.16.840.1.113883.3.989.2.1.3.1"
	OIDWorldwideID       = "2.16.840.1.113883.3.989.2.1.3.2"
	OIDBatchID           = "2.16.840.1.113883.3.989.2.1.3.22"
	OIDMessageID         = "2.16.840.1.113883.3.989.2.1.3.1"
	OIDFDARegional       = "2.16.840.1.113883.3.989.5.1.2.2.1.3"
	OIDNCIThesaurus      = "2.16.840.1.113883.3.26.1.1"
	OIDMFDSRegional      = "2.16.410.100.1.5.1.2"
)

// Root element names accepted at the top of a document.
const (
	RootBatch   = "MCCI_IN200100UV01"
	RootMessage = "PORR_IN049016UV"
)

// SectionPaths is the merged expression table of one section under one
// profile.
type SectionPaths struct {
	Section types.Section
	Profile types.Profile

	// Anchor holds absolute expressions for the section root node.
	Anchor []string

	// Container is the optional grouping node of a repeating section,
	// relative to the anchor.
	Container string

	// Item is the repeating node, relative to the container (or anchor).
	Item string

	// Fields maps each field to its expressions, relative to the anchor
	// (single sections) or the item (repeating sections). Absolute
	// expressions are allowed and evaluated against the document root.
	Fields map[types.Field][]string

	// ValueTypes names the xsi:type written on newly created value nodes.
	ValueTypes map[types.Field]string

	// Order lists Fields in declaration order.
	Order []types.Field
}

// Paths returns the expressions of f, or nil when the table lacks it.
func (sp *SectionPaths) Paths(f types.Field) []string {
	return sp.Fields[f]
}

// Has reports whether the table maps f.
func (sp *SectionPaths) Has(f types.Field) bool {
	_, ok := sp.Fields[f]
	return ok
}

// fieldDef is one declared field: primary expression first.
type fieldDef struct {
	field types.Field
	paths []string
	xsi   string
}

type sectionDef struct {
	anchor    []string
	container string
	item      string
	fields    []fieldDef
}

type key struct {
	section types.Section
	profile types.Profile
}

var (
	mergeOnce sync.Once
	merged    map[key]*SectionPaths
)

// For returns the table for section under profile, or nil when the
// section is not handled.
func For(section types.Section, profile types.Profile) *SectionPaths {
	mergeOnce.Do(build)
	return merged[key{section, profile}]
}

// Lookup returns the ordered expressions for one field, or nil.
func Lookup(section types.Section, field types.Field, profile types.Profile) []string {
	sp := For(section, profile)
	if sp == nil {
		return nil
	}
	return sp.Fields[field]
}

// MustFor is For for callers that have already validated section.
func MustFor(section types.Section, profile types.Profile) *SectionPaths {
	sp := For(section, profile)
	if sp == nil {
		panic(fmt.Sprintf("catalog: no paths for section %s under %s", section, profile))
	}
	return sp
}

func build() {
	merged = make(map[key]*SectionPaths)
	for _, p := range types.Profiles {
		for _, s := range types.Sections {
			base, ok := core[s]
			if !ok {
				continue
			}
			sp := &SectionPaths{
				Section:    s,
				Profile:    p,
				Anchor:     base.anchor,
				Container:  base.container,
				Item:       base.item,
				Fields:     make(map[types.Field][]string),
				ValueTypes: make(map[types.Field]string),
			}
			apply(sp, base.fields)
			if regional, ok := overlays[p][s]; ok {
				apply(sp, regional)
			}
			merged[key{s, p}] = sp
		}
	}
}

// apply adds defs to sp; a field already present is overridden in place so
// its position in Order is kept.
func apply(sp *SectionPaths, defs []fieldDef) {
	for _, d := range defs {
		if _, exists := sp.Fields[d.field]; !exists {
			sp.Order = append(sp.Order, d.field)
		}
		sp.Fields[d.field] = d.paths
		if d.xsi != "" {
			sp.ValueTypes[d.field] = d.xsi
		} else {
			delete(sp.ValueTypes, d.field)
		}
	}
}

// All returns every merged table, for consistency checks.
func All() []*SectionPaths {
	mergeOnce.Do(build)
	out := make([]*SectionPaths, 0, len(merged))
	for _, p := range types.Profiles {
		for _, s := range types.Sections {
			if sp, ok := merged[key{s, p}]; ok {
				out = append(out, sp)
			}
		}
	}
	return out
}
