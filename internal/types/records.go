// internal/types/records.go
package types

import "time"

/*
 * Section records.
 *
 * One struct per handled ICSR section. Strings are optional when empty,
 * *bool carries tri-state flags, time.Time is a date (zero = absent).
 * Regional fields (FDA, MFDS) live on the shared record; the path catalog
 * decides whether a profile can encode them.
 *
 * Values() and Assign() are exact inverses for every field a record
 * declares, which is what makes export -> import round trips lossless.
 */

// MessageHeader holds batch (N.1) and message (N.2) wrapper identifiers.
type MessageHeader struct {
	BatchNumber               string    `json:"batchNumber,omitempty" yaml:"batchNumber,omitempty"`
	BatchSenderIdentifier     string    `json:"batchSenderIdentifier,omitempty" yaml:"batchSenderIdentifier,omitempty"`
	BatchReceiverIdentifier   string    `json:"batchReceiverIdentifier,omitempty" yaml:"batchReceiverIdentifier,omitempty"`
	BatchTransmissionDate     time.Time `json:"batchTransmissionDate,omitzero" yaml:"batchTransmissionDate,omitempty"`
	MessageIdentifier         string    `json:"messageIdentifier,omitempty" yaml:"messageIdentifier,omitempty"`
	MessageSenderIdentifier   string    `json:"messageSenderIdentifier,omitempty" yaml:"messageSenderIdentifier,omitempty"`
	MessageReceiverIdentifier string    `json:"messageReceiverIdentifier,omitempty" yaml:"messageReceiverIdentifier,omitempty"`
	MessageDate               time.Time `json:"messageDate,omitzero" yaml:"messageDate,omitempty"`
}

func (*MessageHeader) Section() Section { return SectionMessageHeader }

func (m *MessageHeader) Values() Values {
	v := Values{}
	v.set(FieldBatchNumber, m.BatchNumber)
	v.set(FieldBatchSenderIdentifier, m.BatchSenderIdentifier)
	v.set(FieldBatchReceiverIdentifier, m.BatchReceiverIdentifier)
	v.set(FieldBatchTransmissionDate, FormatDate(m.BatchTransmissionDate))
	v.set(FieldMessageIdentifier, m.MessageIdentifier)
	v.set(FieldMessageSenderIdentifier, m.MessageSenderIdentifier)
	v.set(FieldMessageReceiverIdentifier, m.MessageReceiverIdentifier)
	v.set(FieldMessageDate, FormatDate(m.MessageDate))
	return v
}

func (m *MessageHeader) Assign(v Values) error {
	r := valueReader{v: v}
	*m = MessageHeader{
		BatchNumber:               r.str(FieldBatchNumber),
		BatchSenderIdentifier:     r.str(FieldBatchSenderIdentifier),
		BatchReceiverIdentifier:   r.str(FieldBatchReceiverIdentifier),
		BatchTransmissionDate:     r.date(FieldBatchTransmissionDate),
		MessageIdentifier:         r.str(FieldMessageIdentifier),
		MessageSenderIdentifier:   r.str(FieldMessageSenderIdentifier),
		MessageReceiverIdentifier: r.str(FieldMessageReceiverIdentifier),
		MessageDate:               r.date(FieldMessageDate),
	}
	return r.err
}

// SafetyReport holds safety report identification (C.1) plus the FDA and
// MFDS regional additions.
type SafetyReport struct {
	SenderSafetyReportID     string    `json:"senderSafetyReportId,omitempty" yaml:"senderSafetyReportId,omitempty"`
	CreationDate             time.Time `json:"creationDate,omitzero" yaml:"creationDate,omitempty"`
	ReportType               string    `json:"reportType,omitempty" yaml:"reportType,omitempty"`
	DateFirstReceived        time.Time `json:"dateFirstReceived,omitzero" yaml:"dateFirstReceived,omitempty"`
	DateMostRecent           time.Time `json:"dateMostRecent,omitzero" yaml:"dateMostRecent,omitempty"`
	AdditionalDocuments      *bool     `json:"additionalDocuments,omitempty" yaml:"additionalDocuments,omitempty"`
	FulfilExpeditedCriteria  *bool     `json:"fulfilExpeditedCriteria,omitempty" yaml:"fulfilExpeditedCriteria,omitempty"`
	WorldwideUniqueID        string    `json:"worldwideUniqueId,omitempty" yaml:"worldwideUniqueId,omitempty"`
	NullificationCode        string    `json:"nullificationCode,omitempty" yaml:"nullificationCode,omitempty"`
	NullificationReason      string    `json:"nullificationReason,omitempty" yaml:"nullificationReason,omitempty"`
	LocalCriteriaReportType  string    `json:"localCriteriaReportType,omitempty" yaml:"localCriteriaReportType,omitempty"`
	CombinationProductReport *bool     `json:"combinationProductReport,omitempty" yaml:"combinationProductReport,omitempty"`
	ReportCategoryKR         string    `json:"reportCategoryKr,omitempty" yaml:"reportCategoryKr,omitempty"`
}

func (*SafetyReport) Section() Section { return SectionSafetyReport }

func (s *SafetyReport) Values() Values {
	v := Values{}
	v.set(FieldSenderSafetyReportID, s.SenderSafetyReportID)
	v.set(FieldCreationDate, FormatDate(s.CreationDate))
	v.set(FieldReportType, s.ReportType)
	v.set(FieldDateFirstReceived, FormatDate(s.DateFirstReceived))
	v.set(FieldDateMostRecent, FormatDate(s.DateMostRecent))
	v.set(FieldAdditionalDocuments, FormatBool(s.AdditionalDocuments))
	v.set(FieldFulfilExpeditedCriteria, FormatBool(s.FulfilExpeditedCriteria))
	v.set(FieldWorldwideUniqueID, s.WorldwideUniqueID)
	v.set(FieldNullificationCode, s.NullificationCode)
	v.set(FieldNullificationReason, s.NullificationReason)
	v.set(FieldLocalCriteriaReportType, s.LocalCriteriaReportType)
	v.set(FieldCombinationProductReport, FormatBool(s.CombinationProductReport))
	v.set(FieldReportCategoryKR, s.ReportCategoryKR)
	return v
}

func (s *SafetyReport) Assign(v Values) error {
	r := valueReader{v: v}
	*s = SafetyReport{
		SenderSafetyReportID:     r.str(FieldSenderSafetyReportID),
		CreationDate:             r.date(FieldCreationDate),
		ReportType:               r.str(FieldReportType),
		DateFirstReceived:        r.date(FieldDateFirstReceived),
		DateMostRecent:           r.date(FieldDateMostRecent),
		AdditionalDocuments:      r.bool(FieldAdditionalDocuments),
		FulfilExpeditedCriteria:  r.bool(FieldFulfilExpeditedCriteria),
		WorldwideUniqueID:        r.str(FieldWorldwideUniqueID),
		NullificationCode:        r.str(FieldNullificationCode),
		NullificationReason:      r.str(FieldNullificationReason),
		LocalCriteriaReportType:  r.str(FieldLocalCriteriaReportType),
		CombinationProductReport: r.bool(FieldCombinationProductReport),
		ReportCategoryKR:         r.str(FieldReportCategoryKR),
	}
	return r.err
}

// PrimarySource is one reporter (C.2.r).
type PrimarySource struct {
	GivenName            string `json:"givenName,omitempty" yaml:"givenName,omitempty"`
	FamilyName           string `json:"familyName,omitempty" yaml:"familyName,omitempty"`
	Organization         string `json:"organization,omitempty" yaml:"organization,omitempty"`
	Country              string `json:"country,omitempty" yaml:"country,omitempty"`
	Qualification        string `json:"qualification,omitempty" yaml:"qualification,omitempty"`
	PrimaryForRegulatory string `json:"primaryForRegulatory,omitempty" yaml:"primaryForRegulatory,omitempty"`
}

func (*PrimarySource) Section() Section { return SectionPrimarySource }

func (p *PrimarySource) Values() Values {
	v := Values{}
	v.set(FieldGivenName, p.GivenName)
	v.set(FieldFamilyName, p.FamilyName)
	v.set(FieldOrganization, p.Organization)
	v.set(FieldCountry, p.Country)
	v.set(FieldQualification, p.Qualification)
	v.set(FieldPrimaryForRegulatory, p.PrimaryForRegulatory)
	return v
}

func (p *PrimarySource) Assign(v Values) error {
	r := valueReader{v: v}
	*p = PrimarySource{
		GivenName:            r.str(FieldGivenName),
		FamilyName:           r.str(FieldFamilyName),
		Organization:         r.str(FieldOrganization),
		Country:              r.str(FieldCountry),
		Qualification:        r.str(FieldQualification),
		PrimaryForRegulatory: r.str(FieldPrimaryForRegulatory),
	}
	return r.err
}

// Patient characteristics (D).
type Patient struct {
	Initials            string    `json:"initials,omitempty" yaml:"initials,omitempty"`
	Sex                 string    `json:"sex,omitempty" yaml:"sex,omitempty"`
	BirthDate           time.Time `json:"birthDate,omitzero" yaml:"birthDate,omitempty"`
	Age                 string    `json:"age,omitempty" yaml:"age,omitempty"`
	AgeUnit             string    `json:"ageUnit,omitempty" yaml:"ageUnit,omitempty"`
	AgeGroup            string    `json:"ageGroup,omitempty" yaml:"ageGroup,omitempty"`
	Weight              string    `json:"weight,omitempty" yaml:"weight,omitempty"`
	Height              string    `json:"height,omitempty" yaml:"height,omitempty"`
	LastMenstrualPeriod time.Time `json:"lastMenstrualPeriod,omitzero" yaml:"lastMenstrualPeriod,omitempty"`
	DeathDate           time.Time `json:"deathDate,omitzero" yaml:"deathDate,omitempty"`
	MedicalHistory      string    `json:"medicalHistory,omitempty" yaml:"medicalHistory,omitempty"`
	Race                string    `json:"race,omitempty" yaml:"race,omitempty"`
	Ethnicity           string    `json:"ethnicity,omitempty" yaml:"ethnicity,omitempty"`
}

func (*Patient) Section() Section { return SectionPatient }

func (p *Patient) Values() Values {
	v := Values{}
	v.set(FieldInitials, p.Initials)
	v.set(FieldSex, p.Sex)
	v.set(FieldBirthDate, FormatDate(p.BirthDate))
	v.set(FieldAge, p.Age)
	v.set(FieldAgeUnit, p.AgeUnit)
	v.set(FieldAgeGroup, p.AgeGroup)
	v.set(FieldWeight, p.Weight)
	v.set(FieldHeight, p.Height)
	v.set(FieldLastMenstrualPeriod, FormatDate(p.LastMenstrualPeriod))
	v.set(FieldDeathDate, FormatDate(p.DeathDate))
	v.set(FieldMedicalHistory, p.MedicalHistory)
	v.set(FieldRace, p.Race)
	v.set(FieldEthnicity, p.Ethnicity)
	return v
}

func (p *Patient) Assign(v Values) error {
	r := valueReader{v: v}
	*p = Patient{
		Initials:            r.str(FieldInitials),
		Sex:                 r.str(FieldSex),
		BirthDate:           r.date(FieldBirthDate),
		Age:                 r.str(FieldAge),
		AgeUnit:             r.str(FieldAgeUnit),
		AgeGroup:            r.str(FieldAgeGroup),
		Weight:              r.str(FieldWeight),
		Height:              r.str(FieldHeight),
		LastMenstrualPeriod: r.date(FieldLastMenstrualPeriod),
		DeathDate:           r.date(FieldDeathDate),
		MedicalHistory:      r.str(FieldMedicalHistory),
		Race:                r.str(FieldRace),
		Ethnicity:           r.str(FieldEthnicity),
	}
	return r.err
}

// Reaction is one adverse event (E.i).
type Reaction struct {
	ID                      string    `json:"id,omitempty" yaml:"id,omitempty"`
	PrimarySourceReaction   string    `json:"primarySourceReaction,omitempty" yaml:"primarySourceReaction,omitempty"`
	MeddraVersion           string    `json:"meddraVersion,omitempty" yaml:"meddraVersion,omitempty"`
	MeddraCode              string    `json:"meddraCode,omitempty" yaml:"meddraCode,omitempty"`
	StartDate               time.Time `json:"startDate,omitzero" yaml:"startDate,omitempty"`
	EndDate                 time.Time `json:"endDate,omitzero" yaml:"endDate,omitempty"`
	ResultsInDeath          *bool     `json:"resultsInDeath,omitempty" yaml:"resultsInDeath,omitempty"`
	LifeThreatening         *bool     `json:"lifeThreatening,omitempty" yaml:"lifeThreatening,omitempty"`
	Hospitalization         *bool     `json:"hospitalization,omitempty" yaml:"hospitalization,omitempty"`
	Disabling               *bool     `json:"disabling,omitempty" yaml:"disabling,omitempty"`
	CongenitalAnomaly       *bool     `json:"congenitalAnomaly,omitempty" yaml:"congenitalAnomaly,omitempty"`
	OtherMedicallyImportant *bool     `json:"otherMedicallyImportant,omitempty" yaml:"otherMedicallyImportant,omitempty"`
	Outcome                 string    `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	Country                 string    `json:"country,omitempty" yaml:"country,omitempty"`
	RequiredIntervention    *bool     `json:"requiredIntervention,omitempty" yaml:"requiredIntervention,omitempty"`
}

func (*Reaction) Section() Section { return SectionReaction }

func (r *Reaction) Values() Values {
	v := Values{}
	v.set(FieldID, r.ID)
	v.set(FieldPrimarySourceReaction, r.PrimarySourceReaction)
	v.set(FieldMeddraVersion, r.MeddraVersion)
	v.set(FieldMeddraCode, r.MeddraCode)
	v.set(FieldStartDate, FormatDate(r.StartDate))
	v.set(FieldEndDate, FormatDate(r.EndDate))
	v.set(FieldResultsInDeath, FormatBool(r.ResultsInDeath))
	v.set(FieldLifeThreatening, FormatBool(r.LifeThreatening))
	v.set(FieldHospitalization, FormatBool(r.Hospitalization))
	v.set(FieldDisabling, FormatBool(r.Disabling))
	v.set(FieldCongenitalAnomaly, FormatBool(r.CongenitalAnomaly))
	v.set(FieldOtherMedicallyImportant, FormatBool(r.OtherMedicallyImportant))
	v.set(FieldOutcome, r.Outcome)
	v.set(FieldCountry, r.Country)
	v.set(FieldRequiredIntervention, FormatBool(r.RequiredIntervention))
	return v
}

func (r *Reaction) Assign(v Values) error {
	rd := valueReader{v: v}
	*r = Reaction{
		ID:                      rd.str(FieldID),
		PrimarySourceReaction:   rd.str(FieldPrimarySourceReaction),
		MeddraVersion:           rd.str(FieldMeddraVersion),
		MeddraCode:              rd.str(FieldMeddraCode),
		StartDate:               rd.date(FieldStartDate),
		EndDate:                 rd.date(FieldEndDate),
		ResultsInDeath:          rd.bool(FieldResultsInDeath),
		LifeThreatening:         rd.bool(FieldLifeThreatening),
		Hospitalization:         rd.bool(FieldHospitalization),
		Disabling:               rd.bool(FieldDisabling),
		CongenitalAnomaly:       rd.bool(FieldCongenitalAnomaly),
		OtherMedicallyImportant: rd.bool(FieldOtherMedicallyImportant),
		Outcome:                 rd.str(FieldOutcome),
		Country:                 rd.str(FieldCountry),
		RequiredIntervention:    rd.bool(FieldRequiredIntervention),
	}
	return rd.err
}

// Serious reports whether any seriousness criterion is set.
func (r *Reaction) Serious() bool {
	for _, b := range []*bool{r.ResultsInDeath, r.LifeThreatening, r.Hospitalization,
		r.Disabling, r.CongenitalAnomaly, r.OtherMedicallyImportant} {
		if b != nil && *b {
			return true
		}
	}
	return false
}

// TestResult is one test or procedure result (F.r).
type TestResult struct {
	TestDate        time.Time `json:"testDate,omitzero" yaml:"testDate,omitempty"`
	TestName        string    `json:"testName,omitempty" yaml:"testName,omitempty"`
	TestMeddraCode  string    `json:"testMeddraCode,omitempty" yaml:"testMeddraCode,omitempty"`
	ResultCode      string    `json:"resultCode,omitempty" yaml:"resultCode,omitempty"`
	ResultValue     string    `json:"resultValue,omitempty" yaml:"resultValue,omitempty"`
	ResultUnit      string    `json:"resultUnit,omitempty" yaml:"resultUnit,omitempty"`
	LowRange        string    `json:"lowRange,omitempty" yaml:"lowRange,omitempty"`
	HighRange       string    `json:"highRange,omitempty" yaml:"highRange,omitempty"`
	Comments        string    `json:"comments,omitempty" yaml:"comments,omitempty"`
	MoreInformation *bool     `json:"moreInformation,omitempty" yaml:"moreInformation,omitempty"`
}

func (*TestResult) Section() Section { return SectionTestResult }

func (t *TestResult) Values() Values {
	v := Values{}
	v.set(FieldTestDate, FormatDate(t.TestDate))
	v.set(FieldTestName, t.TestName)
	v.set(FieldTestMeddraCode, t.TestMeddraCode)
	v.set(FieldResultCode, t.ResultCode)
	v.set(FieldResultValue, t.ResultValue)
	v.set(FieldResultUnit, t.ResultUnit)
	v.set(FieldLowRange, t.LowRange)
	v.set(FieldHighRange, t.HighRange)
	v.set(FieldComments, t.Comments)
	v.set(FieldMoreInformation, FormatBool(t.MoreInformation))
	return v
}

func (t *TestResult) Assign(v Values) error {
	r := valueReader{v: v}
	*t = TestResult{
		TestDate:        r.date(FieldTestDate),
		TestName:        r.str(FieldTestName),
		TestMeddraCode:  r.str(FieldTestMeddraCode),
		ResultCode:      r.str(FieldResultCode),
		ResultValue:     r.str(FieldResultValue),
		ResultUnit:      r.str(FieldResultUnit),
		LowRange:        r.str(FieldLowRange),
		HighRange:       r.str(FieldHighRange),
		Comments:        r.str(FieldComments),
		MoreInformation: r.bool(FieldMoreInformation),
	}
	return r.err
}

// Drug is one drug information block (G.k).
type Drug struct {
	ID               string    `json:"id,omitempty" yaml:"id,omitempty"`
	ProductName      string    `json:"productName,omitempty" yaml:"productName,omitempty"`
	MPID             string    `json:"mpid,omitempty" yaml:"mpid,omitempty"`
	DosageText       string    `json:"dosageText,omitempty" yaml:"dosageText,omitempty"`
	DoseValue        string    `json:"doseValue,omitempty" yaml:"doseValue,omitempty"`
	DoseUnit         string    `json:"doseUnit,omitempty" yaml:"doseUnit,omitempty"`
	Route            string    `json:"route,omitempty" yaml:"route,omitempty"`
	StartDate        time.Time `json:"startDate,omitzero" yaml:"startDate,omitempty"`
	EndDate          time.Time `json:"endDate,omitzero" yaml:"endDate,omitempty"`
	LotNumber        string    `json:"lotNumber,omitempty" yaml:"lotNumber,omitempty"`
	ActionTaken      string    `json:"actionTaken,omitempty" yaml:"actionTaken,omitempty"`
	IndicationCode   string    `json:"indicationCode,omitempty" yaml:"indicationCode,omitempty"`
	IngredientCodeKR string    `json:"ingredientCodeKr,omitempty" yaml:"ingredientCodeKr,omitempty"`
}

func (*Drug) Section() Section { return SectionDrug }

func (d *Drug) Values() Values {
	v := Values{}
	v.set(FieldID, d.ID)
	v.set(FieldProductName, d.ProductName)
	v.set(FieldMPID, d.MPID)
	v.set(FieldDosageText, d.DosageText)
	v.set(FieldDoseValue, d.DoseValue)
	v.set(FieldDoseUnit, d.DoseUnit)
	v.set(FieldRoute, d.Route)
	v.set(FieldStartDate, FormatDate(d.StartDate))
	v.set(FieldEndDate, FormatDate(d.EndDate))
	v.set(FieldLotNumber, d.LotNumber)
	v.set(FieldActionTaken, d.ActionTaken)
	v.set(FieldIndicationCode, d.IndicationCode)
	v.set(FieldIngredientCodeKR, d.IngredientCodeKR)
	return v
}

func (d *Drug) Assign(v Values) error {
	r := valueReader{v: v}
	*d = Drug{
		ID:               r.str(FieldID),
		ProductName:      r.str(FieldProductName),
		MPID:             r.str(FieldMPID),
		DosageText:       r.str(FieldDosageText),
		DoseValue:        r.str(FieldDoseValue),
		DoseUnit:         r.str(FieldDoseUnit),
		Route:            r.str(FieldRoute),
		StartDate:        r.date(FieldStartDate),
		EndDate:          r.date(FieldEndDate),
		LotNumber:        r.str(FieldLotNumber),
		ActionTaken:      r.str(FieldActionTaken),
		IndicationCode:   r.str(FieldIndicationCode),
		IngredientCodeKR: r.str(FieldIngredientCodeKR),
	}
	return r.err
}

// Narrative is the case narrative and sender comments (H).
type Narrative struct {
	CaseNarrative    string `json:"caseNarrative,omitempty" yaml:"caseNarrative,omitempty"`
	ReporterComments string `json:"reporterComments,omitempty" yaml:"reporterComments,omitempty"`
	SenderDiagnosis  string `json:"senderDiagnosis,omitempty" yaml:"senderDiagnosis,omitempty"`
	SenderComments   string `json:"senderComments,omitempty" yaml:"senderComments,omitempty"`
}

func (*Narrative) Section() Section { return SectionNarrative }

func (n *Narrative) Values() Values {
	v := Values{}
	v.set(FieldCaseNarrative, n.CaseNarrative)
	v.set(FieldReporterComments, n.ReporterComments)
	v.set(FieldSenderDiagnosis, n.SenderDiagnosis)
	v.set(FieldSenderComments, n.SenderComments)
	return v
}

func (n *Narrative) Assign(v Values) error {
	r := valueReader{v: v}
	*n = Narrative{
		CaseNarrative:    r.str(FieldCaseNarrative),
		ReporterComments: r.str(FieldReporterComments),
		SenderDiagnosis:  r.str(FieldSenderDiagnosis),
		SenderComments:   r.str(FieldSenderComments),
	}
	return r.err
}
