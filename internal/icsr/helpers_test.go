package icsr

import (
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"

	"github.com/solatis/casekeeper/internal/types"
	"github.com/solatis/casekeeper/internal/xmlpath"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fullCase() *types.Case {
	return &types.Case{
		MessageHeader: &types.MessageHeader{
			BatchNumber:               "B-1",
			BatchSenderIdentifier:     "ACME",
			BatchReceiverIdentifier:   "CDER",
			BatchTransmissionDate:     day(2024, 3, 1),
			MessageIdentifier:         "M-1",
			MessageSenderIdentifier:   "ACME",
			MessageReceiverIdentifier: "CDER",
			MessageDate:               day(2024, 3, 1),
		},
		SafetyReport: &types.SafetyReport{
			SenderSafetyReportID:    "US-ACME-0001",
			CreationDate:            day(2024, 2, 28),
			ReportType:              "1",
			DateFirstReceived:       day(2024, 2, 1),
			DateMostRecent:          day(2024, 2, 20),
			AdditionalDocuments:     types.Bool(false),
			FulfilExpeditedCriteria: types.Bool(true),
			WorldwideUniqueID:       "US-ACME-0001",
		},
		PrimarySources: []types.PrimarySource{
			{GivenName: "Ada", FamilyName: "Lovelace", Country: "US", Qualification: "1", PrimaryForRegulatory: "1"},
			{Organization: "General Hospital", Country: "US", Qualification: "3"},
		},
		Patient: &types.Patient{
			Initials:       "JD",
			Sex:            "2",
			BirthDate:      day(1980, 5, 17),
			Age:            "43",
			AgeUnit:        "a",
			Weight:         "61",
			Height:         "168",
			MedicalHistory: "asthma",
		},
		Reactions: []types.Reaction{
			{
				PrimarySourceReaction: "rash",
				MeddraVersion:         "26.1",
				MeddraCode:            "10037844",
				StartDate:             day(2024, 1, 30),
				Hospitalization:       types.Bool(true),
				Outcome:               "2",
				Country:               "US",
			},
			{
				PrimarySourceReaction: "fever",
				MeddraCode:            "10016558",
				Outcome:               "1",
			},
		},
		TestResults: []types.TestResult{
			{TestDate: day(2024, 2, 2), TestName: "ALT", ResultValue: "120", ResultUnit: "U/L", LowRange: "7", HighRange: "56"},
		},
		Drugs: []types.Drug{
			{ProductName: "Examplinib", DoseValue: "50", DoseUnit: "mg", Route: "048", StartDate: day(2024, 1, 1), LotNumber: "L42", ActionTaken: "1"},
		},
		Narrative: &types.Narrative{
			CaseNarrative:   "Patient developed a rash after starting Examplinib.",
			SenderDiagnosis: "10037844",
		},
	}
}

func readDoc(t *testing.T, raw []byte) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(raw))
	return doc
}

// selectOne evaluates an expression against the document and requires a
// single element.
func selectOne(t *testing.T, raw []byte, expr string) *etree.Element {
	t.Helper()
	found := xmlpath.MustCompile(expr).Select(readDoc(t, raw).Root())
	require.Len(t, found, 1, "select %s", expr)
	return found[0]
}

func count(t *testing.T, raw []byte, expr string) int {
	t.Helper()
	return len(xmlpath.MustCompile(expr).Select(readDoc(t, raw).Root()))
}

const (
	investigationEvent = "/hl7:MCCI_IN200100UV01/hl7:PORR_IN049016UV/hl7:controlActProcess/hl7:subject/hl7:investigationEvent"
	primaryRole        = investigationEvent + "/hl7:component/hl7:adverseEventAssessment/hl7:subject1/hl7:primaryRole"
	reactionItems      = primaryRole + "/hl7:subjectOf2/hl7:observation[hl7:code/@code='29']"
)
