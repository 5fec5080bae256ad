package provenance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearchart/abstraction-cli/internal/adjudicate"
	"github.com/clearchart/abstraction-cli/internal/model"
	"github.com/clearchart/abstraction-cli/internal/registry"
)

func newEvent() *model.Event {
	return &model.Event{ID: "ev-1", Type: model.EventSurgery, Facts: map[string]any{}}
}

func source(cat model.DocCategory, value any, conf model.Confidence) model.SourceRecord {
	return model.SourceRecord{
		SourceCategory: cat,
		Value:          value,
		Method:         model.MethodExtraction,
		Confidence:     conf,
		DocumentID:     "doc-" + string(cat),
	}
}

func TestRecord_FirstSourceStandsUnadjudicated(t *testing.T) {
	tr := NewTracker(registry.Default())
	ev := newEvent()

	tr.Record(ev, "extent_of_resection", source(model.DocOperativeRecord, "gtr", model.ConfidenceHigh))

	rec := ev.Provenance["extent_of_resection"]
	require.NotNil(t, rec)
	assert.Equal(t, "gtr", rec.Value)
	assert.Nil(t, rec.Adjudication)
	assert.Len(t, rec.Sources, 1)
	assert.Equal(t, "gtr", rec.Final())
}

func TestRecord_ConcordantSecondSource(t *testing.T) {
	tr := NewTracker(registry.Default())
	ev := newEvent()

	tr.Record(ev, "extent_of_resection", source(model.DocOperativeRecord, "gross total resection", model.ConfidenceHigh))
	tr.Record(ev, "extent_of_resection", source(model.DocDischargeSummary, "GTR", model.ConfidenceMedium))

	rec := ev.Provenance["extent_of_resection"]
	require.NotNil(t, rec.Adjudication)
	assert.Equal(t, adjudicate.MethodConcordant, rec.Adjudication.Method)
	assert.Equal(t, "gtr", rec.Final())
	assert.False(t, RequiresReview(ev))
	assert.Len(t, rec.Sources, 2)
}

func TestRecord_ConflictAdjudicatedAndFlagged(t *testing.T) {
	tr := NewTracker(registry.Default())
	ev := newEvent()

	tr.Record(ev, "extent_of_resection", source(model.DocOperativeRecord, "gross total resection", model.ConfidenceHigh))
	tr.Record(ev, "extent_of_resection", source(model.DocImagingReport, "subtotal resection", model.ConfidenceHigh))

	rec := ev.Provenance["extent_of_resection"]
	require.NotNil(t, rec.Adjudication)
	assert.Equal(t, "gtr", rec.Final())
	assert.True(t, rec.Adjudication.RequiresManualReview)
	assert.True(t, RequiresReview(ev))
}

func TestRecord_ReviewFlagSticky(t *testing.T) {
	tr := NewTracker(registry.Default())
	ev := newEvent()

	tr.Record(ev, "extent_of_resection", source(model.DocOperativeRecord, "gtr", model.ConfidenceHigh))
	tr.Record(ev, "extent_of_resection", source(model.DocImagingReport, "subtotal resection", model.ConfidenceHigh))
	require.True(t, RequiresReview(ev))

	// A third source agreeing with the winner does not clear the flag.
	tr.Record(ev, "extent_of_resection", source(model.DocDischargeSummary, "gross total resection", model.ConfidenceMedium))

	rec := ev.Provenance["extent_of_resection"]
	assert.Equal(t, "gtr", rec.Final())
	assert.True(t, rec.Adjudication.RequiresManualReview)
	assert.Contains(t, rec.Adjudication.Rationale, "still requires review")
	assert.Len(t, rec.Sources, 3)
}

func TestRecord_SourcesAppendOnlyInDiscoveryOrder(t *testing.T) {
	tr := NewTracker(registry.Default())
	ev := newEvent()

	tr.Record(ev, "surgeon_assessment", source(model.DocOperativeRecord, "clean margins", model.ConfidenceHigh))
	tr.Record(ev, "surgeon_assessment", source(model.DocProgressNote, "residual noted", model.ConfidenceLow))
	tr.Record(ev, "surgeon_assessment", source(model.DocDischargeSummary, "clean margins", model.ConfidenceMedium))

	rec := ev.Provenance["surgeon_assessment"]
	require.Len(t, rec.Sources, 3)
	assert.Equal(t, model.DocOperativeRecord, rec.Sources[0].SourceCategory)
	assert.Equal(t, model.DocProgressNote, rec.Sources[1].SourceCategory)
	assert.Equal(t, model.DocDischargeSummary, rec.Sources[2].SourceCategory)
}

func TestRecord_IndependentFacts(t *testing.T) {
	tr := NewTracker(registry.Default())
	ev := newEvent()

	tr.Record(ev, "extent_of_resection", source(model.DocOperativeRecord, "gtr", model.ConfidenceHigh))
	tr.Record(ev, "surgeon_assessment", source(model.DocOperativeRecord, "complete", model.ConfidenceHigh))

	assert.Len(t, ev.Provenance, 2)
	assert.Nil(t, ev.Provenance["extent_of_resection"].Adjudication)
	assert.Nil(t, ev.Provenance["surgeon_assessment"].Adjudication)
}
