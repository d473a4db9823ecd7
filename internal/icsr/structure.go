package icsr

import (
	"strconv"

	"github.com/beevik/etree"

	"github.com/solatis/casekeeper/internal/catalog"
	"github.com/solatis/casekeeper/internal/types"
	"github.com/solatis/casekeeper/internal/xmlpath"
)

// structuralCheck is one node every conforming message carries.
type structuralCheck struct {
	rel     string // relative to the message element
	message string
}

var messageChecks = []structuralCheck{
	{"@ITSVersion", "message is missing ITSVersion"},
	{"hl7:id/@extension", "message is missing its identifier"},
	{"hl7:sender/hl7:device/hl7:id/@extension", "message is missing the sender identifier"},
	{"hl7:receiver/hl7:device/hl7:id/@extension", "message is missing the receiver identifier"},
	{"hl7:controlActProcess/hl7:subject/hl7:investigationEvent", "message is missing investigationEvent"},
}

// CheckStructure verifies the envelope of raw: a supported root, and for
// every message the identifiers and investigation event a receiver needs.
// All violations are reported together in one *types.SchemaValidationError.
func CheckStructure(raw []byte) error {
	doc, err := parseDocument(raw)
	if err != nil {
		return err
	}
	if err := checkRoot(doc); err != nil {
		return err
	}

	root := doc.Root()
	var errs []string
	messages := []*etree.Element{root}
	if xmlpath.MustCompile("/hl7:" + catalog.RootBatch).Select(root) != nil {
		if _, ok := xmlpath.MustCompile("@ITSVersion").Value(root); !ok {
			errs = append(errs, "batch is missing ITSVersion")
		}
		if _, ok := xmlpath.MustCompile("hl7:id/@extension").Value(root); !ok {
			errs = append(errs, "batch is missing its batch number")
		}
		messages = xmlpath.MustCompile("hl7:" + catalog.RootMessage).Select(root)
		if len(messages) == 0 {
			errs = append(errs, "batch holds no message")
		}
	}

	for i, msg := range messages {
		for _, ck := range messageChecks {
			x := xmlpath.MustCompile(ck.rel)
			ok := len(x.Select(msg)) > 0
			if x.Attribute() != "" {
				_, ok = x.Value(msg)
			}
			if !ok {
				errs = append(errs, messageLabel(i, len(messages))+ck.message)
			}
		}
	}

	if len(errs) > 0 {
		return &types.SchemaValidationError{Errors: errs}
	}
	return nil
}

func messageLabel(i, n int) string {
	if n == 1 {
		return ""
	}
	return "message " + strconv.Itoa(i) + ": "
}
