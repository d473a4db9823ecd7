package catalog

import "github.com/solatis/casekeeper/internal/types"

// overlays holds regional additions and overrides on top of core. An
// override lists the regional expression first and keeps the core
// encoding as fallback.
var overlays = map[types.Profile]map[types.Section][]fieldDef{
	types.ProfileFDA: {
		types.SectionSafetyReport: {
			typed("CE", types.FieldLocalCriteriaReportType, characteristic("1", OIDFDARegional)+"/hl7:value/@code"),
			typed("BL", types.FieldCombinationProductReport, characteristic("2", OIDFDARegional)+"/hl7:value/@value"),
		},
		types.SectionPatient: {
			typed("CE", types.FieldRace, "hl7:subjectOf2/hl7:observation"+coded("C17049", OIDNCIThesaurus)+"/hl7:value/@code"),
			typed("CE", types.FieldEthnicity, "hl7:subjectOf2/hl7:observation"+coded("C16564", OIDNCIThesaurus)+"/hl7:value/@code"),
		},
		types.SectionReaction: {
			typed("BL", types.FieldRequiredIntervention,
				"hl7:outboundRelationship2[@typeCode='PERT']/hl7:observation"+coded("7", OIDFDARegional)+"/hl7:value/@value"),
		},
	},

	types.ProfileMFDS: {
		types.SectionSafetyReport: {
			typed("CE", types.FieldReportCategoryKR, characteristic("KR.1", OIDMFDSRegional)+"/hl7:value/@code"),
		},
		types.SectionPrimarySource: {
			field(types.FieldQualification,
				sourceAuthor+"hl7:code[@codeSystem='"+OIDMFDSRegional+"']/@code",
				sourceAuthor+"hl7:code/@code"),
		},
		types.SectionDrug: {
			field(types.FieldMPID,
				product+"hl7:code[@codeSystem='"+OIDMFDSRegional+"']/@code",
				product+"hl7:code/@code"),
			field(types.FieldIngredientCodeKR,
				product+"hl7:ingredient/hl7:ingredientSubstance/hl7:code[@codeSystem='"+OIDMFDSRegional+"']/@code"),
		},
	},
}
