// Package icsr encodes section records into E2B(R3) ICSR documents and
// extracts them back.
//
// Both directions are driven by the path catalog: the patcher writes each
// present field at the first expression that already exists in the
// document (or creates the primary one), the extractor reads the first
// expression yielding a non-blank value. Export policy (nullFlavor
// directives, outcome normalization) comes from the rule catalog.
//
// All operations are synchronous and operate on a private copy of the
// document; the package holds no mutable state.
package icsr

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/beevik/etree"

	"github.com/solatis/casekeeper/internal/catalog"
	"github.com/solatis/casekeeper/internal/types"
	"github.com/solatis/casekeeper/internal/xmlpath"
)

// Interaction identifiers written into new documents.
const (
	oidInteraction = "2.16.840.1.113883.1.6"
	oidSenderID    = "2.16.840.1.113883.3.989.2.1.3.13"
	oidReceiverID  = "2.16.840.1.113883.3.989.2.1.3.14"
	itsVersion     = "XML_1.0"
)

// parseDocument reads raw into a DOM. Malformed input yields
// *types.InvalidXMLError with the position of the first syntax error.
func parseDocument(raw []byte) (*etree.Document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, types.ErrMissingRootElement
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, invalidXML(raw, err)
	}
	if doc.Root() == nil {
		return nil, types.ErrMissingRootElement
	}
	return doc, nil
}

// invalidXML locates the syntax error etree reported by re-scanning raw
// with a token decoder, which exposes the input position.
func invalidXML(raw []byte, cause error) *types.InvalidXMLError {
	ie := &types.InvalidXMLError{Message: cause.Error()}
	dec := xml.NewDecoder(bytes.NewReader(raw))
	for {
		_, err := dec.Token()
		if err == nil {
			continue
		}
		if !errors.Is(err, io.EOF) {
			ie.Message = err.Error()
			ie.Line, ie.Column = dec.InputPos()
		}
		return ie
	}
}

// serialize writes the full tree back, XML declaration included when the
// document carries one.
func serialize(doc *etree.Document) ([]byte, error) {
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize document: %w", err)
	}
	return out, nil
}

// checkRoot rejects documents whose root is neither the batch wrapper nor a
// bare message in the HL7 namespace.
func checkRoot(doc *etree.Document) error {
	root := doc.Root()
	for _, name := range []string{catalog.RootBatch, catalog.RootMessage} {
		if xmlpath.MustCompile("/hl7:" + name).Select(root) != nil {
			return nil
		}
	}
	return &types.UnsupportedRootError{Found: root.FullTag()}
}

// newSkeleton returns the starter document new exports are patched into:
// a batch wrapper holding one message with an empty investigation event.
// Wrapper identifiers and routing nodes are pre-seeded in schema order so
// later patches fill them in place.
func newSkeleton() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	batch := doc.CreateElement(catalog.RootBatch)
	batch.CreateAttr("xmlns", xmlpath.HL7Namespace)
	batch.CreateAttr("xmlns:xsi", xmlpath.XSINamespace)
	batch.CreateAttr("ITSVersion", itsVersion)
	batch.CreateElement("id").CreateAttr("root", catalog.OIDBatchID)
	batch.CreateElement("creationTime")
	interaction(batch, catalog.RootBatch)

	msg := batch.CreateElement(catalog.RootMessage)
	msg.CreateAttr("ITSVersion", itsVersion)
	msg.CreateElement("id").CreateAttr("root", catalog.OIDMessageID)
	msg.CreateElement("creationTime")
	interaction(msg, catalog.RootMessage)
	device(msg, "receiver", "RCV", oidReceiverID)
	device(msg, "sender", "SND", oidSenderID)

	act := msg.CreateElement("controlActProcess")
	act.CreateAttr("classCode", "CACT")
	act.CreateAttr("moodCode", "EVN")
	event := act.CreateElement("subject").CreateElement("investigationEvent")
	event.CreateAttr("classCode", "INVSTG")
	event.CreateAttr("moodCode", "EVN")

	device(batch, "receiver", "RCV", oidReceiverID)
	device(batch, "sender", "SND", oidSenderID)
	return doc
}

func interaction(parent *etree.Element, extension string) {
	id := parent.CreateElement("interactionId")
	id.CreateAttr("root", oidInteraction)
	id.CreateAttr("extension", extension)
}

func device(parent *etree.Element, tag, typeCode, idRoot string) {
	wrapper := parent.CreateElement(tag)
	wrapper.CreateAttr("typeCode", typeCode)
	dev := wrapper.CreateElement("device")
	dev.CreateAttr("classCode", "DEV")
	dev.CreateAttr("determinerCode", "INSTANCE")
	dev.CreateElement("id").CreateAttr("root", idRoot)
}
