package model

import "time"

// DocCategory buckets documents by clinical document type.
type DocCategory string

const (
	DocOperativeRecord  DocCategory = "operative_record"
	DocDischargeSummary DocCategory = "discharge_summary"
	DocProgressNote     DocCategory = "progress_note"
	DocImagingReport    DocCategory = "imaging_report"
	DocTreatmentPlan    DocCategory = "treatment_plan"
	DocPathologyReport  DocCategory = "pathology_report"
	DocOther            DocCategory = "other"
)

// CandidateDocument is a document reference plus the metadata the ranker
// needs. Immutable once produced by the inventory.
type CandidateDocument struct {
	ID          string      `json:"id"`
	PatientID   string      `json:"patient_id"`
	Category    DocCategory `json:"category"`
	Date        *time.Time  `json:"date,omitempty"`
	Description string      `json:"description,omitempty"`
	// ContentRef is an opaque handle resolved by the content fetcher
	// (a path or object key).
	ContentRef string `json:"content_ref"`
	// ImageOnly marks scans with no text layer; fetching them requires
	// the OCR path, the most expensive conversion.
	ImageOnly bool `json:"image_only,omitempty"`
}

// DaysFrom returns the absolute distance in days between the document's
// date and the given anchor. Undated documents report -1.
func (d CandidateDocument) DaysFrom(anchor time.Time) int {
	if d.Date == nil {
		return -1
	}
	delta := d.Date.Sub(anchor)
	if delta < 0 {
		delta = -delta
	}
	return int(delta.Hours() / 24)
}
