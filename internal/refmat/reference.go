// Package refmat holds the built-in reference notes injected into
// extraction prompts: short domain primers on grading vocabularies and
// response criteria that keep the oracle's output aligned with the
// canonical scales.
package refmat

import (
	"sort"
	"strings"
)

// snippets maps a topic tag to its reference note. Notes are short on
// purpose; they prime vocabulary, they do not teach medicine.
var snippets = map[string]string{
	"resection_grading": "Extent of resection is graded on an ordinal scale: biopsy only, partial resection, subtotal resection (STR), near total resection (NTR), gross total resection (GTR). GTR means no visible residual tumor.",
	"neurosurgery":      "Operative notes state the procedure performed and the surgeon's intraoperative impression. The stated extent of resection may differ from later imaging.",
	"radiation_oncology": "A radiation course is described by its start and stop dates, cumulative dose in Gy, fractionation, and modality (photon, proton, focal, craniospinal). Treatment summaries usually state the delivered total dose.",
	"systemic_therapy":   "Systemic therapy courses are described by regimen or protocol name, the agents given, and cycle start and end dates. Agents may appear under trade or generic names.",
	"neuro_imaging":      "Neuro-oncology imaging reports end with an impression comparing against the prior study.",
	"response_criteria":  "Response is categorized as complete response, partial response, stable disease, or progression. Phrases like 'no interval change' mean stable disease.",
}

// Select returns the concatenated reference notes for the given topic
// tags. Unknown tags are skipped; output order is sorted by tag so the
// same tags always produce the same prompt text.
func Select(topics []string) string {
	seen := make(map[string]bool, len(topics))
	var tags []string
	for _, t := range topics {
		if snippets[t] != "" && !seen[t] {
			seen[t] = true
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)

	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		parts = append(parts, snippets[t])
	}
	return strings.Join(parts, "\n")
}
