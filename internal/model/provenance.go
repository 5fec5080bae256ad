package model

import "time"

// Confidence is the oracle's self-reported confidence label.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// confidenceRank maps labels to numeric ranks for comparison.
var confidenceRank = map[Confidence]int{
	ConfidenceLow:    0,
	ConfidenceMedium: 1,
	ConfidenceHigh:   2,
}

// Rank returns the numeric rank of the confidence label. Unknown labels
// rank below low.
func (c Confidence) Rank() int {
	r, ok := confidenceRank[c]
	if !ok {
		return -1
	}
	return r
}

// SourceRecord is the durable distillate of one extraction attempt that
// contributed a value for a fact. Immutable once appended.
type SourceRecord struct {
	SourceCategory DocCategory `json:"source_category"`
	Value          any         `json:"value"`
	Method         string      `json:"method"`
	Confidence     Confidence  `json:"confidence"`
	DocumentID     string      `json:"document_id"`
	Excerpt        string      `json:"excerpt,omitempty"`
	ExtractedAt    time.Time   `json:"extracted_at"`
}

// Extraction method tags recorded on SourceRecords.
const (
	MethodExtraction      = "llm_extraction"
	MethodExtractionRetry = "llm_extraction_retry"
	MethodStructured      = "structured_record"
)

// AdjudicationRecord is the outcome of reconciling conflicting sources.
// Immutable once created; a later source produces a replacement record,
// never a mutation.
type AdjudicationRecord struct {
	FinalValue           any       `json:"final_value"`
	Method               string    `json:"method"`
	Rationale            string    `json:"rationale"`
	RequiresManualReview bool      `json:"requires_manual_review"`
	DecidedAt            time.Time `json:"decided_at"`
}

// ProvenanceRecord tracks every source that contributed to one fact on one
// event, plus the adjudication outcome when sources disagreed. The sources
// list is append-only within a run; insertion order is discovery order.
type ProvenanceRecord struct {
	Value        any                 `json:"value"`
	Sources      []SourceRecord      `json:"sources"`
	Adjudication *AdjudicationRecord `json:"adjudication,omitempty"`
}

// AppendSource adds a contributing source. Sources are never removed or
// reordered.
func (p *ProvenanceRecord) AppendSource(sr SourceRecord) {
	p.Sources = append(p.Sources, sr)
}

// Final returns the value the integrator should write back: the
// adjudicated value when an adjudication exists, otherwise the single
// resolved value.
func (p *ProvenanceRecord) Final() any {
	if p.Adjudication != nil {
		return p.Adjudication.FinalValue
	}
	return p.Value
}
