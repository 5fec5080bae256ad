// Package inventory catalogs a patient's documents into category buckets
// and ranks candidates for a gap by tiered document-type priority combined
// with temporal proximity.
package inventory

import (
	"strings"

	"github.com/clearchart/abstraction-cli/internal/model"
)

// Inventory buckets every document for a patient by category. Built once
// per run; read-only afterward.
type Inventory struct {
	PatientID string
	buckets   map[model.DocCategory][]model.CandidateDocument
	total     int
}

// categoryPatterns maps substrings found in a document's type or
// description to a category. First match wins; matching is deliberately
// broad — recall over precision, content relevance is checked later.
var categoryPatterns = []struct {
	category model.DocCategory
	terms    []string
}{
	{model.DocOperativeRecord, []string{"operative", "op note", "surgery report", "procedure note"}},
	{model.DocDischargeSummary, []string{"discharge"}},
	{model.DocTreatmentPlan, []string{"treatment plan", "radiation plan", "rt summary", "therapy plan", "protocol"}},
	{model.DocImagingReport, []string{"imaging", "mri", "radiology", "ct ", "scan"}},
	{model.DocPathologyReport, []string{"pathology", "histology", "biopsy report"}},
	{model.DocProgressNote, []string{"progress", "clinic note", "follow-up", "followup", "consult"}},
}

// Classify assigns a document category from its type label and free-text
// description. Documents matching nothing go to the "other" bucket.
func Classify(docType, description string) model.DocCategory {
	haystack := strings.ToLower(docType + " " + description)
	for _, p := range categoryPatterns {
		for _, term := range p.terms {
			if strings.Contains(haystack, term) {
				return p.category
			}
		}
	}
	return model.DocOther
}

// Build catalogs documents into an Inventory in one pass. Documents with
// an empty category are classified from their description; no content
// inspection happens here.
func Build(patientID string, docs []model.CandidateDocument) *Inventory {
	inv := &Inventory{
		PatientID: patientID,
		buckets:   make(map[model.DocCategory][]model.CandidateDocument),
	}
	for _, d := range docs {
		if d.Category == "" {
			d.Category = Classify("", d.Description)
		}
		inv.buckets[d.Category] = append(inv.buckets[d.Category], d)
		inv.total++
	}
	return inv
}

// Bucket returns the documents in a category.
func (inv *Inventory) Bucket(cat model.DocCategory) []model.CandidateDocument {
	return inv.buckets[cat]
}

// Len returns the total number of cataloged documents.
func (inv *Inventory) Len() int {
	return inv.total
}
