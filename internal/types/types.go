// Package types provides domain models shared across casekeeper components.
//
// Section records mirror one ICSR section each and carry a flat set of
// optional fields. Every record projects to and from Values, the normalized
// string form consumed by the codec (internal/icsr) and the validator
// (internal/validation). Keeping that projection here lets both sides agree
// on field names without importing each other.
package types

import (
	"fmt"
	"strings"
)

// Profile is the regulatory variant a case is exported or validated under.
// Closed set: ICH baseline plus FDA and MFDS regional extensions.
type Profile string

const (
	ProfileICH  Profile = "ICH"
	ProfileFDA  Profile = "FDA"
	ProfileMFDS Profile = "MFDS"
)

// Profiles lists every supported profile in catalog order.
var Profiles = []Profile{ProfileICH, ProfileFDA, ProfileMFDS}

// ParseProfile converts a case-insensitive name into a Profile.
func ParseProfile(s string) (Profile, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ICH":
		return ProfileICH, nil
	case "FDA":
		return ProfileFDA, nil
	case "MFDS":
		return ProfileMFDS, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProfile, s)
	}
}

// Includes reports whether rules and paths owned by other apply under p.
// Every profile includes the ICH baseline.
func (p Profile) Includes(other Profile) bool {
	return other == ProfileICH || other == p
}

// Section identifies one lettered subdivision of the ICSR.
type Section string

const (
	SectionMessageHeader Section = "message-header"
	SectionSafetyReport  Section = "safety-report"
	SectionPrimarySource Section = "primary-source"
	SectionPatient       Section = "patient"
	SectionReaction      Section = "reaction"
	SectionTestResult    Section = "test-result"
	SectionDrug          Section = "drug"
	SectionNarrative     Section = "narrative"

	// Declared so callers get NotImplementedError instead of ErrUnknownSection.
	SectionSender     Section = "sender"
	SectionLiterature Section = "literature"
	SectionStudy      Section = "study"
)

// Sections lists the handled sections in export order.
var Sections = []Section{
	SectionMessageHeader,
	SectionSafetyReport,
	SectionPrimarySource,
	SectionPatient,
	SectionReaction,
	SectionTestResult,
	SectionDrug,
	SectionNarrative,
}

var sectionPathNames = map[Section]string{
	SectionMessageHeader: "messageHeader",
	SectionSafetyReport:  "safetyReportIdentification",
	SectionPrimarySource: "primarySources",
	SectionPatient:       "patient",
	SectionReaction:      "reactions",
	SectionTestResult:    "testResults",
	SectionDrug:          "drugs",
	SectionNarrative:     "narrative",
}

// ParseSection converts a section name into a Section.
// Unhandled but declared sections yield NotImplementedError.
func ParseSection(s string) (Section, error) {
	sec := Section(strings.ToLower(strings.TrimSpace(s)))
	if err := sec.Check(); err != nil {
		return "", err
	}
	return sec, nil
}

// Check returns nil for handled sections.
func (s Section) Check() error {
	switch s {
	case SectionSender, SectionLiterature, SectionStudy:
		return &NotImplementedError{Feature: "section " + string(s)}
	}
	if _, ok := sectionPathNames[s]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSection, string(s))
	}
	return nil
}

// PathName is the first segment of validation issue paths for s.
func (s Section) PathName() string {
	return sectionPathNames[s]
}

// Repeating reports whether the section holds a list of occurrences.
func (s Section) Repeating() bool {
	switch s {
	case SectionPrimarySource, SectionReaction, SectionTestResult, SectionDrug:
		return true
	default:
		return false
	}
}

// Field is the stable camelCase name of one section field.
type Field string

// Values is the normalized string projection of one section record.
// Dates use YYYYMMDD[hhmmss], booleans "true"/"false". Blank means absent.
type Values map[Field]string

// Get returns the trimmed value of f; blank is absent.
func (v Values) Get(f Field) (string, bool) {
	s := strings.TrimSpace(v[f])
	return s, s != ""
}

// Has reports whether f carries a non-blank value.
func (v Values) Has(f Field) bool {
	_, ok := v.Get(f)
	return ok
}

// set stores s under f when non-blank.
func (v Values) set(f Field, s string) {
	if s = strings.TrimSpace(s); s != "" {
		v[f] = s
	}
}

// SectionRecord is implemented by every section record type.
type SectionRecord interface {
	Section() Section
	Values() Values
	Assign(Values) error
}

// NewRecord returns an empty record for s.
func NewRecord(s Section) (SectionRecord, error) {
	if err := s.Check(); err != nil {
		return nil, err
	}
	switch s {
	case SectionMessageHeader:
		return &MessageHeader{}, nil
	case SectionSafetyReport:
		return &SafetyReport{}, nil
	case SectionPrimarySource:
		return &PrimarySource{}, nil
	case SectionPatient:
		return &Patient{}, nil
	case SectionReaction:
		return &Reaction{}, nil
	case SectionTestResult:
		return &TestResult{}, nil
	case SectionDrug:
		return &Drug{}, nil
	default:
		return &Narrative{}, nil
	}
}
