package catalog

import "github.com/solatis/casekeeper/internal/types"

const (
	batchPrefix   = "/hl7:" + RootBatch + "/hl7:" + RootMessage
	messagePrefix = "/hl7:" + RootMessage

	controlActRel  = "hl7:controlActProcess"
	investigation  = "hl7:subject/hl7:investigationEvent"
	primaryRoleRel = "hl7:component/hl7:adverseEventAssessment/hl7:subject1/hl7:primaryRole"

	// primary source author, relative to the SPRT outboundRelationship
	sourceAuthor = "hl7:relatedInvestigation/hl7:subjectOf2/hl7:controlActEvent/hl7:author/hl7:assignedEntity/"

	// dosage regimen, relative to the drug substanceAdministration
	dosage = "hl7:outboundRelationship2[@typeCode='COMP']/hl7:substanceAdministration/"

	// medicinal product, relative to the drug substanceAdministration
	product = "hl7:consumable/hl7:instanceOfKind/hl7:kindOfProduct/"
)

// anchored returns rel under the batch-wrapped message, then under a bare
// message.
func anchored(rel string) []string {
	return []string{batchPrefix + "/" + rel, messagePrefix + "/" + rel}
}

// coded is a predicate selecting a node by its code and code system.
func coded(code, system string) string {
	return "[hl7:code/@code='" + code + "'][hl7:code/@codeSystem='" + system + "']"
}

func obs(code string) string {
	return "hl7:observation" + coded(code, OIDObservationCode)
}

func field(f types.Field, paths ...string) fieldDef {
	return fieldDef{field: f, paths: paths}
}

func typed(xsi string, f types.Field, paths ...string) fieldDef {
	return fieldDef{field: f, paths: paths, xsi: xsi}
}

var (
	investigationRel = controlActRel + "/" + investigation
	primaryRole      = investigationRel + "/" + primaryRoleRel

	characteristic = func(code, system string) string {
		return investigation + "/hl7:subjectOf2/hl7:investigationCharacteristic" + coded(code, system)
	}
	reportObservation = func(code string) string {
		return investigation + "/hl7:component/hl7:observationEvent" + coded(code, OIDObservationCode)
	}
	seriousness = func(code string) []string {
		return []string{
			"hl7:outboundRelationship2[@typeCode='PERT']/" + obs(code) + "/hl7:value/@value",
			"hl7:outboundRelationship2/hl7:observation[hl7:code/@code='" + code + "']/hl7:value/@value",
		}
	}
)

var core = map[types.Section]sectionDef{
	types.SectionMessageHeader: {
		anchor: []string{"/hl7:" + RootBatch, messagePrefix},
		fields: []fieldDef{
			field(types.FieldBatchNumber, "/hl7:"+RootBatch+"/hl7:id[@root='"+OIDBatchID+"']/@extension"),
			field(types.FieldBatchSenderIdentifier, "/hl7:"+RootBatch+"/hl7:sender/hl7:device/hl7:id/@extension"),
			field(types.FieldBatchReceiverIdentifier, "/hl7:"+RootBatch+"/hl7:receiver/hl7:device/hl7:id/@extension"),
			field(types.FieldBatchTransmissionDate, "/hl7:"+RootBatch+"/hl7:creationTime/@value"),
			field(types.FieldMessageIdentifier,
				batchPrefix+"/hl7:id[@root='"+OIDMessageID+"']/@extension",
				messagePrefix+"/hl7:id[@root='"+OIDMessageID+"']/@extension",
				messagePrefix+"/hl7:id/@extension"),
			field(types.FieldMessageSenderIdentifier,
				batchPrefix+"/hl7:sender/hl7:device/hl7:id/@extension",
				messagePrefix+"/hl7:sender/hl7:device/hl7:id/@extension"),
			field(types.FieldMessageReceiverIdentifier,
				batchPrefix+"/hl7:receiver/hl7:device/hl7:id/@extension",
				messagePrefix+"/hl7:receiver/hl7:device/hl7:id/@extension"),
			field(types.FieldMessageDate,
				batchPrefix+"/hl7:creationTime/@value",
				messagePrefix+"/hl7:creationTime/@value"),
		},
	},

	types.SectionSafetyReport: {
		anchor: anchored(controlActRel),
		fields: []fieldDef{
			field(types.FieldSenderSafetyReportID, investigation+"/hl7:id[@root='"+OIDReportID+"']/@extension"),
			field(types.FieldCreationDate, "hl7:effectiveTime/@value"),
			typed("CE", types.FieldReportType, characteristic("1", OIDReportCharacter)+"/hl7:value/@code"),
			field(types.FieldDateFirstReceived, investigation+"/hl7:effectiveTime/hl7:low/@value"),
			field(types.FieldDateMostRecent, investigation+"/hl7:availabilityTime/@value"),
			typed("BL", types.FieldAdditionalDocuments, reportObservation("1")+"/hl7:value/@value"),
			typed("BL", types.FieldFulfilExpeditedCriteria, reportObservation("23")+"/hl7:value/@value"),
			field(types.FieldWorldwideUniqueID, investigation+"/hl7:id[@root='"+OIDWorldwideID+"']/@extension"),
			typed("CE", types.FieldNullificationCode, characteristic("3", OIDReportCharacter)+"/hl7:value/@code"),
			field(types.FieldNullificationReason, characteristic("4", OIDReportCharacter)+"/hl7:value/hl7:originalText"),
		},
	},

	types.SectionPrimarySource: {
		anchor: anchored(investigationRel),
		item: "hl7:outboundRelationship[@typeCode='SPRT']" +
			"[hl7:relatedInvestigation/hl7:code/@code='2']" +
			"[hl7:relatedInvestigation/hl7:code/@codeSystem='" + OIDSourceReport + "']",
		fields: []fieldDef{
			field(types.FieldGivenName, sourceAuthor+"hl7:assignedPerson/hl7:name/hl7:given"),
			field(types.FieldFamilyName, sourceAuthor+"hl7:assignedPerson/hl7:name/hl7:family"),
			field(types.FieldOrganization, sourceAuthor+"hl7:representedOrganization/hl7:name"),
			field(types.FieldCountry, sourceAuthor+"hl7:assignedPerson/hl7:asLocatedEntity/hl7:location/hl7:code/@code"),
			field(types.FieldQualification, sourceAuthor+"hl7:code/@code"),
			field(types.FieldPrimaryForRegulatory, "hl7:priorityNumber/@value"),
		},
	},

	types.SectionPatient: {
		anchor: anchored(primaryRole),
		fields: []fieldDef{
			field(types.FieldInitials, "hl7:player1/hl7:name", "hl7:player1/hl7:name/hl7:given"),
			field(types.FieldSex, "hl7:player1/hl7:administrativeGenderCode/@code"),
			field(types.FieldBirthDate, "hl7:player1/hl7:birthTime/@value"),
			typed("PQ", types.FieldAge, "hl7:subjectOf2/"+obs("3")+"/hl7:value/@value"),
			typed("PQ", types.FieldAgeUnit, "hl7:subjectOf2/"+obs("3")+"/hl7:value/@unit"),
			typed("CE", types.FieldAgeGroup, "hl7:subjectOf2/"+obs("4")+"/hl7:value/@code"),
			typed("PQ", types.FieldWeight,
				"hl7:subjectOf2/"+obs("7")+"/hl7:value[@unit='kg']/@value",
				"hl7:subjectOf2/"+obs("7")+"/hl7:value/@value"),
			typed("PQ", types.FieldHeight,
				"hl7:subjectOf2/"+obs("17")+"/hl7:value[@unit='cm']/@value",
				"hl7:subjectOf2/"+obs("17")+"/hl7:value/@value"),
			typed("TS", types.FieldLastMenstrualPeriod, "hl7:subjectOf2/"+obs("22")+"/hl7:value/@value"),
			field(types.FieldDeathDate, "hl7:player1/hl7:deceasedTime/@value"),
			field(types.FieldMedicalHistory,
				"hl7:subjectOf2/hl7:organizer"+coded("1", OIDOrganizerCategory)+"/hl7:component/"+obs("18")+"/hl7:value"),
		},
	},

	types.SectionReaction: {
		anchor: anchored(primaryRole),
		item:   "hl7:subjectOf2/" + obs("29"),
		fields: []fieldDef{
			field(types.FieldID, "hl7:id/@root"),
			field(types.FieldPrimarySourceReaction, "hl7:value/hl7:originalText"),
			field(types.FieldMeddraVersion, "hl7:value/@codeSystemVersion"),
			typed("CE", types.FieldMeddraCode, "hl7:value/@code"),
			field(types.FieldStartDate, "hl7:effectiveTime/hl7:low/@value"),
			field(types.FieldEndDate, "hl7:effectiveTime/hl7:high/@value"),
			typed("BL", types.FieldResultsInDeath, seriousness("34")...),
			typed("BL", types.FieldLifeThreatening, seriousness("21")...),
			typed("BL", types.FieldHospitalization, seriousness("33")...),
			typed("BL", types.FieldDisabling, seriousness("35")...),
			typed("BL", types.FieldCongenitalAnomaly, seriousness("12")...),
			typed("BL", types.FieldOtherMedicallyImportant, seriousness("26")...),
			typed("CE", types.FieldOutcome, "hl7:outboundRelationship2[@typeCode='PERT']/"+obs("27")+"/hl7:value/@code"),
			field(types.FieldCountry, "hl7:location/hl7:locatedEntity/hl7:locatedPlace/hl7:code/@code"),
		},
	},

	types.SectionTestResult: {
		anchor:    anchored(primaryRole),
		container: "hl7:subjectOf2/hl7:organizer" + coded("3", OIDOrganizerCategory),
		item:      "hl7:component/hl7:observation",
		fields: []fieldDef{
			field(types.FieldTestDate, "hl7:effectiveTime/@value"),
			field(types.FieldTestName, "hl7:code/hl7:originalText"),
			field(types.FieldTestMeddraCode, "hl7:code/@code"),
			field(types.FieldResultCode, "hl7:interpretationCode/@code"),
			field(types.FieldResultValue, "hl7:value/hl7:center/@value", "hl7:value/@value"),
			field(types.FieldResultUnit, "hl7:value/hl7:center/@unit", "hl7:value/@unit"),
			field(types.FieldLowRange, "hl7:referenceRange/hl7:observationRange[hl7:interpretationCode/@code='L']/hl7:value/@value"),
			field(types.FieldHighRange, "hl7:referenceRange/hl7:observationRange[hl7:interpretationCode/@code='H']/hl7:value/@value"),
			field(types.FieldComments, "hl7:outboundRelationship2/"+obs("10")+"/hl7:value"),
			typed("BL", types.FieldMoreInformation, "hl7:outboundRelationship2/"+obs("25")+"/hl7:value/@value"),
		},
	},

	types.SectionDrug: {
		anchor:    anchored(primaryRole),
		container: "hl7:subjectOf2/hl7:organizer" + coded("4", OIDOrganizerCategory),
		item:      "hl7:component/hl7:substanceAdministration",
		fields: []fieldDef{
			field(types.FieldID, "hl7:id/@root"),
			field(types.FieldProductName, product+"hl7:name"),
			field(types.FieldMPID, product+"hl7:code/@code"),
			field(types.FieldDosageText, dosage+"hl7:text"),
			field(types.FieldDoseValue, dosage+"hl7:doseQuantity/@value"),
			field(types.FieldDoseUnit, dosage+"hl7:doseQuantity/@unit"),
			field(types.FieldRoute, dosage+"hl7:routeCode/@code"),
			field(types.FieldStartDate, dosage+"hl7:effectiveTime/hl7:low/@value"),
			field(types.FieldEndDate, dosage+"hl7:effectiveTime/hl7:high/@value"),
			field(types.FieldLotNumber, "hl7:consumable/hl7:instanceOfKind/hl7:productInstanceInstance/hl7:lotNumberText"),
			field(types.FieldActionTaken, "hl7:inboundRelationship[@typeCode='CAUS']/hl7:act/hl7:code/@code"),
			typed("CE", types.FieldIndicationCode, "hl7:inboundRelationship[@typeCode='RSON']/"+obs("19")+"/hl7:value/@code"),
		},
	},

	types.SectionNarrative: {
		anchor: anchored(investigationRel),
		fields: []fieldDef{
			field(types.FieldCaseNarrative, "hl7:text"),
			typed("ED", types.FieldReporterComments,
				"hl7:component1/hl7:observationEvent"+coded("10", OIDObservationCode)+"/hl7:value",
				"hl7:component1/hl7:observationEvent[hl7:code/@code='10']/hl7:value"),
			typed("CE", types.FieldSenderDiagnosis,
				"hl7:component/hl7:adverseEventAssessment/hl7:component1/hl7:observationEvent"+coded("15", OIDObservationCode)+"/hl7:value/@code"),
			typed("ED", types.FieldSenderComments,
				"hl7:component/hl7:adverseEventAssessment/hl7:component1/hl7:observationEvent"+coded("11", OIDObservationCode)+"/hl7:value"),
		},
	},
}
