package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Message header (N.1, N.2).
const (
	FieldBatchNumber               Field = "batchNumber"
	FieldBatchSenderIdentifier     Field = "batchSenderIdentifier"
	FieldBatchReceiverIdentifier   Field = "batchReceiverIdentifier"
	FieldBatchTransmissionDate     Field = "batchTransmissionDate"
	FieldMessageIdentifier         Field = "messageIdentifier"
	FieldMessageSenderIdentifier   Field = "messageSenderIdentifier"
	FieldMessageReceiverIdentifier Field = "messageReceiverIdentifier"
	FieldMessageDate               Field = "messageDate"
)

// Safety report identification (C.1).
const (
	FieldSenderSafetyReportID     Field = "senderSafetyReportId"
	FieldCreationDate             Field = "creationDate"
	FieldReportType               Field = "reportType"
	FieldDateFirstReceived        Field = "dateFirstReceived"
	FieldDateMostRecent           Field = "dateMostRecent"
	FieldAdditionalDocuments      Field = "additionalDocuments"
	FieldFulfilExpeditedCriteria  Field = "fulfilExpeditedCriteria"
	FieldWorldwideUniqueID        Field = "worldwideUniqueId"
	FieldNullificationCode        Field = "nullificationCode"
	FieldNullificationReason      Field = "nullificationReason"
	FieldLocalCriteriaReportType  Field = "localCriteriaReportType"
	FieldCombinationProductReport Field = "combinationProductReport"
	FieldReportCategoryKR         Field = "reportCategoryKr"
)

// Primary source (C.2.r).
const (
	FieldGivenName            Field = "givenName"
	FieldFamilyName           Field = "familyName"
	FieldOrganization         Field = "organization"
	FieldQualification        Field = "qualification"
	FieldPrimaryForRegulatory Field = "primaryForRegulatory"
)

// Patient (D).
const (
	FieldInitials            Field = "initials"
	FieldSex                 Field = "sex"
	FieldBirthDate           Field = "birthDate"
	FieldAge                 Field = "age"
	FieldAgeUnit             Field = "ageUnit"
	FieldAgeGroup            Field = "ageGroup"
	FieldWeight              Field = "weight"
	FieldHeight              Field = "height"
	FieldLastMenstrualPeriod Field = "lastMenstrualPeriod"
	FieldDeathDate           Field = "deathDate"
	FieldMedicalHistory      Field = "medicalHistory"
	FieldRace                Field = "race"
	FieldEthnicity           Field = "ethnicity"
)

// Reaction (E.i).
const (
	FieldPrimarySourceReaction   Field = "primarySourceReaction"
	FieldMeddraVersion           Field = "meddraVersion"
	FieldMeddraCode              Field = "meddraCode"
	FieldResultsInDeath          Field = "resultsInDeath"
	FieldLifeThreatening         Field = "lifeThreatening"
	FieldHospitalization         Field = "hospitalization"
	FieldDisabling               Field = "disabling"
	FieldCongenitalAnomaly       Field = "congenitalAnomaly"
	FieldOtherMedicallyImportant Field = "otherMedicallyImportant"
	FieldOutcome                 Field = "outcome"
	FieldRequiredIntervention    Field = "requiredIntervention"
)

// Test result (F.r).
const (
	FieldTestDate        Field = "testDate"
	FieldTestName        Field = "testName"
	FieldTestMeddraCode  Field = "testMeddraCode"
	FieldResultCode      Field = "resultCode"
	FieldResultValue     Field = "resultValue"
	FieldResultUnit      Field = "resultUnit"
	FieldLowRange        Field = "lowRange"
	FieldHighRange       Field = "highRange"
	FieldComments        Field = "comments"
	FieldMoreInformation Field = "moreInformation"
)

// Drug (G.k).
const (
	FieldProductName      Field = "productName"
	FieldMPID             Field = "mpid"
	FieldDosageText       Field = "dosageText"
	FieldDoseValue        Field = "doseValue"
	FieldDoseUnit         Field = "doseUnit"
	FieldRoute            Field = "route"
	FieldLotNumber        Field = "lotNumber"
	FieldActionTaken      Field = "actionTaken"
	FieldIndicationCode   Field = "indicationCode"
	FieldIngredientCodeKR Field = "ingredientCodeKr"
)

// Narrative (H).
const (
	FieldCaseNarrative    Field = "caseNarrative"
	FieldReporterComments Field = "reporterComments"
	FieldSenderDiagnosis  Field = "senderDiagnosis"
	FieldSenderComments   Field = "senderComments"
)

// Shared across sections.
const (
	FieldID        Field = "id"
	FieldCountry   Field = "country"
	FieldStartDate Field = "startDate"
	FieldEndDate   Field = "endDate"
)

const (
	dateLayout     = "20060102"
	dateTimeLayout = "20060102150405"
)

// FormatDate renders t as YYYYMMDD, or YYYYMMDDhhmmss when t carries a
// time of day. The zero time renders as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format(dateLayout)
	}
	return t.Format(dateTimeLayout)
}

// ParseDate accepts YYYYMMDD[hhmmss] with an optional trailing timezone
// offset (+hhmm or -hhmm) as seen in HL7 TS values. Blank yields zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if i := strings.IndexAny(s, "+-"); i == 8 || i == 12 || i == 14 {
		t, err := time.Parse(dateTimeLayout[:i]+"-0700", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
		}
		return t.UTC(), nil
	}
	switch len(s) {
	case 8:
		return time.Parse(dateLayout, s)
	case 14:
		return time.Parse(dateTimeLayout, s)
	case 12:
		return time.Parse(dateTimeLayout[:12], s)
	case 4, 6:
		return time.Parse(dateLayout[:len(s)], s)
	default:
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYYMMDD[hhmmss]", s)
	}
}

// FormatBool renders a tri-state boolean; nil renders as "".
func FormatBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

// ParseBool parses "true"/"false" (and HL7 BL spellings); blank yields nil.
func ParseBool(s string) (*bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("invalid boolean %q", s)
	}
	return &b, nil
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}

// valueReader collects the first parse error while assigning fields.
type valueReader struct {
	v   Values
	err error
}

func (r *valueReader) str(f Field) string {
	s, _ := r.v.Get(f)
	return s
}

func (r *valueReader) date(f Field) time.Time {
	t, err := ParseDate(r.v[f])
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("%s: %w", f, err)
	}
	return t
}

func (r *valueReader) bool(f Field) *bool {
	b, err := ParseBool(r.v[f])
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("%s: %w", f, err)
	}
	return b
}
