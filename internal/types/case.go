package types

import "fmt"

// Case aggregates the section records of one ICSR as loaded by the
// data-access collaborator. Nil single sections and empty lists are absent.
type Case struct {
	ID             CaseID          `json:"id,omitempty" yaml:"id,omitempty"`
	Profile        Profile         `json:"profile,omitempty" yaml:"profile,omitempty"`
	MessageHeader  *MessageHeader  `json:"messageHeader,omitempty" yaml:"messageHeader,omitempty"`
	SafetyReport   *SafetyReport   `json:"safetyReport,omitempty" yaml:"safetyReport,omitempty"`
	PrimarySources []PrimarySource `json:"primarySources,omitempty" yaml:"primarySources,omitempty"`
	Patient        *Patient        `json:"patient,omitempty" yaml:"patient,omitempty"`
	Reactions      []Reaction      `json:"reactions,omitempty" yaml:"reactions,omitempty"`
	TestResults    []TestResult    `json:"testResults,omitempty" yaml:"testResults,omitempty"`
	Drugs          []Drug          `json:"drugs,omitempty" yaml:"drugs,omitempty"`
	Narrative      *Narrative      `json:"narrative,omitempty" yaml:"narrative,omitempty"`
}

// Records returns the records the case holds for s, in sequence order.
func (c *Case) Records(s Section) []SectionRecord {
	var out []SectionRecord
	switch s {
	case SectionMessageHeader:
		if c.MessageHeader != nil {
			out = append(out, c.MessageHeader)
		}
	case SectionSafetyReport:
		if c.SafetyReport != nil {
			out = append(out, c.SafetyReport)
		}
	case SectionPatient:
		if c.Patient != nil {
			out = append(out, c.Patient)
		}
	case SectionNarrative:
		if c.Narrative != nil {
			out = append(out, c.Narrative)
		}
	case SectionPrimarySource:
		for i := range c.PrimarySources {
			out = append(out, &c.PrimarySources[i])
		}
	case SectionReaction:
		for i := range c.Reactions {
			out = append(out, &c.Reactions[i])
		}
	case SectionTestResult:
		for i := range c.TestResults {
			out = append(out, &c.TestResults[i])
		}
	case SectionDrug:
		for i := range c.Drugs {
			out = append(out, &c.Drugs[i])
		}
	}
	return out
}

// SectionValues projects every record of s to Values.
func (c *Case) SectionValues(s Section) []Values {
	recs := c.Records(s)
	out := make([]Values, len(recs))
	for i, r := range recs {
		out[i] = r.Values()
	}
	return out
}

// SetRecords replaces the records the case holds for s.
// Every record must belong to s; single sections accept at most one.
func (c *Case) SetRecords(s Section, recs []SectionRecord) error {
	for _, r := range recs {
		if r.Section() != s {
			return fmt.Errorf("record for %s assigned to section %s", r.Section(), s)
		}
	}
	if !s.Repeating() && len(recs) > 1 {
		return fmt.Errorf("section %s holds a single record, got %d", s, len(recs))
	}

	switch s {
	case SectionMessageHeader:
		c.MessageHeader = nil
		if len(recs) == 1 {
			c.MessageHeader = recs[0].(*MessageHeader)
		}
	case SectionSafetyReport:
		c.SafetyReport = nil
		if len(recs) == 1 {
			c.SafetyReport = recs[0].(*SafetyReport)
		}
	case SectionPatient:
		c.Patient = nil
		if len(recs) == 1 {
			c.Patient = recs[0].(*Patient)
		}
	case SectionNarrative:
		c.Narrative = nil
		if len(recs) == 1 {
			c.Narrative = recs[0].(*Narrative)
		}
	case SectionPrimarySource:
		c.PrimarySources = make([]PrimarySource, 0, len(recs))
		for _, r := range recs {
			c.PrimarySources = append(c.PrimarySources, *r.(*PrimarySource))
		}
	case SectionReaction:
		c.Reactions = make([]Reaction, 0, len(recs))
		for _, r := range recs {
			c.Reactions = append(c.Reactions, *r.(*Reaction))
		}
	case SectionTestResult:
		c.TestResults = make([]TestResult, 0, len(recs))
		for _, r := range recs {
			c.TestResults = append(c.TestResults, *r.(*TestResult))
		}
	case SectionDrug:
		c.Drugs = make([]Drug, 0, len(recs))
		for _, r := range recs {
			c.Drugs = append(c.Drugs, *r.(*Drug))
		}
	default:
		return s.Check()
	}
	return nil
}

// ReceiverIdentifier returns the most specific receiver identifier the
// message header carries, or "".
func (c *Case) ReceiverIdentifier() string {
	if c.MessageHeader == nil {
		return ""
	}
	if c.MessageHeader.MessageReceiverIdentifier != "" {
		return c.MessageHeader.MessageReceiverIdentifier
	}
	return c.MessageHeader.BatchReceiverIdentifier
}
