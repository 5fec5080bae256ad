package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearchart/abstraction-cli/internal/model"
)

func timelineFixture() *model.Timeline {
	anchor := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	return &model.Timeline{
		PatientID: "pt-1",
		Events: []*model.Event{
			{
				ID:         "ev-1",
				PatientID:  "pt-1",
				Type:       model.EventSurgery,
				AnchorDate: &anchor,
				Facts:      map[string]any{"procedure": "craniotomy"},
				Provenance: map[string]*model.ProvenanceRecord{
					"extent_of_resection": {
						Value: "gtr",
						Sources: []model.SourceRecord{
							{SourceCategory: model.DocOperativeRecord, Value: "gtr", Method: model.MethodExtraction, Confidence: model.ConfidenceHigh},
						},
					},
				},
			},
		},
	}
}

func TestIntegrate_WritesFinalValues(t *testing.T) {
	tl := timelineFixture()

	Integrate(tl)

	ev := tl.Events[0]
	assert.Equal(t, "gtr", ev.Facts["extent_of_resection"])
	// Pre-existing structured facts survive.
	assert.Equal(t, "craniotomy", ev.Facts["procedure"])
}

func TestIntegrate_PrefersAdjudicatedValue(t *testing.T) {
	tl := timelineFixture()
	tl.Events[0].Provenance["extent_of_resection"].Adjudication = &model.AdjudicationRecord{
		FinalValue: "str",
		Method:     "ordinal_scale",
		Rationale:  "test",
	}

	Integrate(tl)

	assert.Equal(t, "str", tl.Events[0].Facts["extent_of_resection"])
}

func TestIntegrate_SkipsEmptyFinals(t *testing.T) {
	tl := timelineFixture()
	tl.Events[0].Provenance["surgeon_assessment"] = &model.ProvenanceRecord{Value: nil}
	tl.Events[0].Provenance["course_type"] = &model.ProvenanceRecord{Value: ""}

	Integrate(tl)

	_, hasAssessment := tl.Events[0].Facts["surgeon_assessment"]
	_, hasCourse := tl.Events[0].Facts["course_type"]
	assert.False(t, hasAssessment)
	assert.False(t, hasCourse)
}

func TestIntegrate_Idempotent(t *testing.T) {
	tl := timelineFixture()

	Integrate(tl)
	first, err := EncodeArtifact(BuildArtifact("run-1", tl, nil, time.Unix(0, 0)))
	require.NoError(t, err)

	Integrate(tl)
	second, err := EncodeArtifact(BuildArtifact("run-1", tl, nil, time.Unix(0, 0)))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAddSynthesized(t *testing.T) {
	tl := timelineFixture()
	d := time.Date(2024, 9, 10, 0, 0, 0, 0, time.UTC)
	syn := &model.Event{ID: "ev-syn", Type: model.EventRadiationCourse, AnchorDate: &d, Synthesized: true}

	AddSynthesized(tl, []*model.Event{syn})
	require.Len(t, tl.Events, 2)
	assert.Equal(t, "pt-1", tl.EventByID("ev-syn").PatientID)

	// Re-adding the same event is a no-op.
	AddSynthesized(tl, []*model.Event{syn})
	assert.Len(t, tl.Events, 2)
}
