package icsr

import (
	"time"

	"github.com/beevik/etree"

	"github.com/solatis/casekeeper/internal/rules"
	"github.com/solatis/casekeeper/internal/types"
)

// now is replaced in tests.
var now = time.Now

// ExportSection renders one record into a fresh starter document.
func ExportSection(profile types.Profile, rec types.SectionRecord) ([]byte, error) {
	if err := rec.Section().Check(); err != nil {
		return nil, err
	}
	doc := newSkeleton()
	if err := patchDocument(doc, NewPatch(profile, rec)); err != nil {
		return nil, err
	}
	doc.Indent(2)
	return serialize(doc)
}

// ExportCase renders every present section of c into a fresh starter
// document. A case without a message header gets generated batch and
// message identifiers stamped with the current time.
func ExportCase(profile types.Profile, c *types.Case) ([]byte, error) {
	out := *c
	if out.MessageHeader == nil {
		out.MessageHeader = generatedHeader()
	}
	doc := newSkeleton()
	if err := patchCase(doc, profile, &out); err != nil {
		return nil, err
	}
	doc.Indent(2)
	return serialize(doc)
}

// PatchCase applies every present section of c to an existing document.
func PatchCase(raw []byte, profile types.Profile, c *types.Case) ([]byte, error) {
	doc, err := parseDocument(raw)
	if err != nil {
		return nil, err
	}
	if err := patchCase(doc, profile, c); err != nil {
		return nil, err
	}
	return serialize(doc)
}

func patchCase(doc *etree.Document, profile types.Profile, c *types.Case) error {
	if err := checkRoot(doc); err != nil {
		return err
	}
	facts := rules.CaseFacts(c)
	for _, s := range types.Sections {
		values := c.SectionValues(s)
		if len(values) == 0 {
			continue
		}
		p := &SectionPatch{Section: s, Profile: profile, Facts: facts}
		if s.Repeating() {
			p.Occurrences = values
		} else {
			p.Values = values[0]
		}
		if err := patchDocument(doc, p); err != nil {
			return err
		}
	}
	return nil
}

func generatedHeader() *types.MessageHeader {
	ts := now().UTC().Truncate(time.Second)
	return &types.MessageHeader{
		BatchNumber:           types.NewMessageID(""),
		BatchTransmissionDate: ts,
		MessageIdentifier:     types.NewMessageID(""),
		MessageDate:           ts,
	}
}
