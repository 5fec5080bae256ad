package registry

import "github.com/clearchart/abstraction-cli/internal/model"

// Default returns the built-in registry covering the supported gap types.
func Default() *Registry {
	r := &Registry{
		specs: map[model.GapType]*Spec{
			model.GapOperativeOutcome: {
				Type:          model.GapOperativeOutcome,
				EventType:     model.EventSurgery,
				Priority:      model.PriorityHighest,
				RequiredFacts: []string{"extent_of_resection", "surgeon_assessment"},
				Tiers: [][]model.DocCategory{
					{model.DocOperativeRecord},
					{model.DocDischargeSummary},
					{model.DocProgressNote, model.DocPathologyReport},
					{model.DocImagingReport},
				},
				Vocabulary: []string{
					"resection", "craniotomy", "operative", "surgeon",
					"gross total", "subtotal", "debulking", "excision",
				},
				MinVocabMatches: 2,
				Hints: map[string]string{
					"extent_of_resection": "the completeness of tumor removal, e.g. gross total, near total, subtotal, partial, or biopsy only",
					"surgeon_assessment":  "the operating surgeon's own impression of the result, quoted or paraphrased from the note",
				},
				Topics: []string{"neurosurgery", "resection_grading"},
			},
			model.GapRadiationCourse: {
				Type:          model.GapRadiationCourse,
				EventType:     model.EventRadiationCourse,
				Priority:      model.PriorityHigh,
				RequiredFacts: []string{"start_date", "stop_date", "total_dose", "course_type"},
				Tiers: [][]model.DocCategory{
					{model.DocTreatmentPlan},
					{model.DocDischargeSummary},
					{model.DocProgressNote},
					{model.DocOther},
				},
				Vocabulary: []string{
					"radiation", "radiotherapy", "gy", "gray", "fraction",
					"dose", "beam", "proton", "photon", "imrt",
				},
				MinVocabMatches: 2,
				Hints: map[string]string{
					"start_date":  "the first treatment date of the course, as YYYY-MM-DD",
					"stop_date":   "the last treatment date of the course, as YYYY-MM-DD",
					"total_dose":  "the cumulative delivered dose in Gy, a number",
					"course_type": "the modality or intent, e.g. focal, craniospinal, proton, photon",
				},
				Interval:   true,
				StartField: "start_date",
				Topics:     []string{"radiation_oncology"},
			},
			model.GapSystemicTherapy: {
				Type:          model.GapSystemicTherapy,
				EventType:     model.EventSystemicTherapy,
				Priority:      model.PriorityMedium,
				RequiredFacts: []string{"start_date", "stop_date", "agents"},
				Tiers: [][]model.DocCategory{
					{model.DocTreatmentPlan},
					{model.DocProgressNote, model.DocDischargeSummary},
					{model.DocOther},
				},
				Vocabulary: []string{
					"chemotherapy", "cycle", "regimen", "agent", "infusion",
					"carboplatin", "vincristine", "temozolomide", "protocol",
				},
				MinVocabMatches: 2,
				Hints: map[string]string{
					"start_date": "the date the first cycle began, as YYYY-MM-DD",
					"stop_date":  "the date the final cycle ended, as YYYY-MM-DD",
					"agents":     "the list of drug names given in this course",
				},
				Interval:   true,
				StartField: "start_date",
				Topics:     []string{"systemic_therapy"},
			},
			model.GapImagingResponse: {
				Type:          model.GapImagingResponse,
				EventType:     model.EventImaging,
				Priority:      model.PriorityLow,
				RequiredFacts: []string{"response_assessment"},
				Tiers: [][]model.DocCategory{
					{model.DocImagingReport},
					{model.DocProgressNote},
				},
				Vocabulary: []string{
					"mri", "impression", "enhancement", "stable", "progression",
					"response", "interval", "lesion",
				},
				MinVocabMatches: 2,
				Hints: map[string]string{
					"response_assessment": "the radiologist's overall impression, e.g. stable disease, partial response, progression",
				},
				Topics: []string{"neuro_imaging", "response_criteria"},
			},
		},
		aliases: map[string][]string{
			"extent_of_resection": {"resection_extent", "eor", "extent"},
			"surgeon_assessment":  {"surgeon_impression", "operative_assessment"},
			"start_date":          {"course_start", "begin_date", "started"},
			"stop_date":           {"course_stop", "end_date", "completed"},
			"total_dose":          {"cumulative_dose", "dose_gy", "dose"},
			"course_type":         {"modality", "radiation_type"},
			"agents":              {"drugs", "regimen", "chemotherapy_agents"},
			"response_assessment": {"response", "impression"},
		},
		scales: map[string][]string{
			"extent_of_resection": {"biopsy", "partial", "str", "ntr", "gtr"},
			"response_assessment": {"progression", "stable", "partial response", "complete response"},
		},
		synonyms: map[string]map[string]string{
			"extent_of_resection": {
				"gross total resection": "gtr",
				"gross total":           "gtr",
				"complete resection":    "gtr",
				"near total resection":  "ntr",
				"near total":            "ntr",
				"subtotal resection":    "str",
				"subtotal":              "str",
				"partial resection":     "partial",
				"debulking":             "partial",
				"biopsy only":           "biopsy",
			},
			"response_assessment": {
				"progressive disease": "progression",
				"stable disease":      "stable",
				"no interval change":  "stable",
				"pr":                  "partial response",
				"cr":                  "complete response",
			},
		},
		trust: map[string][]model.DocCategory{
			// Direct operative observation outranks anything inferred
			// from imaging.
			"extent_of_resection": {
				model.DocOperativeRecord, model.DocDischargeSummary,
				model.DocProgressNote, model.DocImagingReport,
			},
			"surgeon_assessment": {
				model.DocOperativeRecord, model.DocDischargeSummary, model.DocProgressNote,
			},
			"start_date":  {model.DocTreatmentPlan, model.DocDischargeSummary, model.DocProgressNote},
			"stop_date":   {model.DocTreatmentPlan, model.DocDischargeSummary, model.DocProgressNote},
			"total_dose":  {model.DocTreatmentPlan, model.DocDischargeSummary, model.DocProgressNote},
			"course_type": {model.DocTreatmentPlan, model.DocDischargeSummary, model.DocProgressNote},
			"response_assessment": {
				model.DocImagingReport, model.DocProgressNote,
			},
		},
	}
	r.index()
	return r
}
