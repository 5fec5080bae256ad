package adjudicate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearchart/abstraction-cli/internal/model"
	"github.com/clearchart/abstraction-cli/internal/registry"
)

var decidedAt = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func src(cat model.DocCategory, value any, conf model.Confidence) model.SourceRecord {
	return model.SourceRecord{
		SourceCategory: cat,
		Value:          value,
		Method:         model.MethodExtraction,
		Confidence:     conf,
	}
}

func TestDecide_ConcordantSurfaceForms(t *testing.T) {
	reg := registry.Default()

	rec := Decide(reg, "extent_of_resection",
		src(model.DocOperativeRecord, "Gross Total Resection", model.ConfidenceHigh),
		src(model.DocDischargeSummary, "GTR", model.ConfidenceMedium),
		decidedAt)

	assert.Equal(t, MethodConcordant, rec.Method)
	assert.Equal(t, "gtr", rec.FinalValue)
	assert.False(t, rec.RequiresManualReview)
	assert.NotEmpty(t, rec.Rationale)
}

func TestDecide_ClearOverUnclear(t *testing.T) {
	reg := registry.Default()

	rec := Decide(reg, "surgeon_assessment",
		src(model.DocOperativeRecord, "unclear", model.ConfidenceLow),
		src(model.DocProgressNote, "no residual tumor", model.ConfidenceMedium),
		decidedAt)

	assert.Equal(t, MethodClearOverUnclear, rec.Method)
	assert.Equal(t, "no residual tumor", rec.FinalValue)
	assert.False(t, rec.RequiresManualReview)
}

func TestDecide_BothUnclear(t *testing.T) {
	reg := registry.Default()

	rec := Decide(reg, "surgeon_assessment",
		src(model.DocOperativeRecord, "not reported", model.ConfidenceLow),
		src(model.DocProgressNote, "unknown", model.ConfidenceLow),
		decidedAt)

	assert.Equal(t, MethodClearOverUnclear, rec.Method)
	assert.True(t, rec.RequiresManualReview)
}

func TestDecide_OrdinalAdjacentNoReview(t *testing.T) {
	reg := registry.Default()

	// GTR vs NTR are one scale step apart: reporting variation, the
	// more trusted operative record wins quietly.
	rec := Decide(reg, "extent_of_resection",
		src(model.DocOperativeRecord, "gtr", model.ConfidenceHigh),
		src(model.DocProgressNote, "near total resection", model.ConfidenceMedium),
		decidedAt)

	assert.Equal(t, MethodOrdinalScale, rec.Method)
	assert.Equal(t, "gtr", rec.FinalValue)
	assert.False(t, rec.RequiresManualReview)
}

func TestDecide_OrdinalMaterialConflictFlagsReview(t *testing.T) {
	reg := registry.Default()

	// Operative note says GTR, imaging says subtotal: two scale steps
	// apart. The operative record wins on trust but a human must see it.
	rec := Decide(reg, "extent_of_resection",
		src(model.DocOperativeRecord, "gross total resection", model.ConfidenceHigh),
		src(model.DocImagingReport, "subtotal resection", model.ConfidenceHigh),
		decidedAt)

	assert.Equal(t, MethodOrdinalScale, rec.Method)
	assert.Equal(t, "gtr", rec.FinalValue)
	assert.True(t, rec.RequiresManualReview)
	assert.Contains(t, rec.Rationale, "gtr")
	assert.Contains(t, rec.Rationale, "str")
	assert.Contains(t, rec.Rationale, string(model.DocOperativeRecord))
}

func TestDecide_ConfidenceInversionFlagsReview(t *testing.T) {
	reg := registry.Default()

	// Adjacent values, but the less trusted source was more confident.
	// The value still follows trust; the inversion goes to review.
	rec := Decide(reg, "extent_of_resection",
		src(model.DocOperativeRecord, "ntr", model.ConfidenceLow),
		src(model.DocProgressNote, "gtr", model.ConfidenceHigh),
		decidedAt)

	assert.Equal(t, "ntr", rec.FinalValue)
	assert.True(t, rec.RequiresManualReview)
}

func TestDecide_NonOrdinalFallsBackToTrust(t *testing.T) {
	reg := registry.Default()

	rec := Decide(reg, "course_type",
		src(model.DocProgressNote, "photon", model.ConfidenceMedium),
		src(model.DocTreatmentPlan, "proton", model.ConfidenceMedium),
		decidedAt)

	assert.Equal(t, MethodTrustOrder, rec.Method)
	// The treatment plan outranks a progress note for course facts.
	assert.Equal(t, "proton", rec.FinalValue)
	assert.True(t, rec.RequiresManualReview)
	assert.Contains(t, rec.Rationale, "photon")
	assert.Contains(t, rec.Rationale, "proton")
}

func TestDecide_EqualTrustUsesConfidence(t *testing.T) {
	reg := registry.Default()

	rec := Decide(reg, "course_type",
		src(model.DocProgressNote, "photon", model.ConfidenceLow),
		src(model.DocProgressNote, "proton", model.ConfidenceHigh),
		decidedAt)

	assert.Equal(t, "proton", rec.FinalValue)
}

func TestDecide_FullTieKeepsExisting(t *testing.T) {
	reg := registry.Default()

	rec := Decide(reg, "course_type",
		src(model.DocProgressNote, "photon", model.ConfidenceMedium),
		src(model.DocProgressNote, "proton", model.ConfidenceMedium),
		decidedAt)

	assert.Equal(t, "photon", rec.FinalValue)
	assert.True(t, rec.RequiresManualReview)
}

func TestDecide_NumericConcordance(t *testing.T) {
	reg := registry.Default()

	rec := Decide(reg, "total_dose",
		src(model.DocTreatmentPlan, 54.0, model.ConfidenceHigh),
		src(model.DocDischargeSummary, "54", model.ConfidenceMedium),
		decidedAt)

	require.Equal(t, MethodConcordant, rec.Method)
	assert.False(t, rec.RequiresManualReview)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "gross total resection", Normalize("  Gross  Total   Resection. "))
	assert.Equal(t, "54", Normalize(54.0))
	assert.Equal(t, "54.5", Normalize(54.5))
	assert.Equal(t, "", Normalize(nil))
	assert.Equal(t, "true", Normalize(true))
}
