package gaps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearchart/abstraction-cli/internal/model"
	"github.com/clearchart/abstraction-cli/internal/registry"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestIdentify_MissingFacts(t *testing.T) {
	tl := &model.Timeline{
		PatientID: "p1",
		Events: []*model.Event{
			{
				ID:         "ev-surg",
				Type:       model.EventSurgery,
				AnchorDate: date(2018, 4, 25),
				Facts:      map[string]any{"extent_of_resection": "GTR"},
			},
			{
				ID:         "ev-rt",
				Type:       model.EventRadiationCourse,
				AnchorDate: date(2018, 6, 1),
				Facts:      map[string]any{},
			},
		},
	}

	got := Identify(tl, registry.Default())
	require.Len(t, got, 2)

	// Operative gap has highest priority so it comes first, and it only
	// lists the facts actually missing.
	assert.Equal(t, model.GapOperativeOutcome, got[0].Type)
	assert.Equal(t, []string{"surgeon_assessment"}, got[0].RequiredFacts)
	assert.Equal(t, model.StatusPending, got[0].Status)

	assert.Equal(t, model.GapRadiationCourse, got[1].Type)
	assert.ElementsMatch(t,
		[]string{"start_date", "stop_date", "total_dose", "course_type"},
		got[1].RequiredFacts)
}

func TestIdentify_CompleteEventProducesNoGap(t *testing.T) {
	tl := &model.Timeline{Events: []*model.Event{{
		ID:   "ev1",
		Type: model.EventSurgery,
		Facts: map[string]any{
			"extent_of_resection": "GTR",
			"surgeon_assessment":  "complete removal",
		},
	}}}

	assert.Empty(t, Identify(tl, registry.Default()))
}

func TestIdentify_NullAndEmptyCountAsMissing(t *testing.T) {
	tl := &model.Timeline{Events: []*model.Event{{
		ID:   "ev1",
		Type: model.EventSurgery,
		Facts: map[string]any{
			"extent_of_resection": nil,
			"surgeon_assessment":  "",
		},
	}}}

	got := Identify(tl, registry.Default())
	require.Len(t, got, 1)
	assert.ElementsMatch(t,
		[]string{"extent_of_resection", "surgeon_assessment"},
		got[0].RequiredFacts)
}

func TestIdentify_UnknownEventTypeSkipped(t *testing.T) {
	tl := &model.Timeline{Events: []*model.Event{{
		ID:   "ev1",
		Type: model.EventType("clinic_visit"),
	}}}

	assert.Empty(t, Identify(tl, registry.Default()))
}

func TestSortByPriority_TiesBrokenByDateThenID(t *testing.T) {
	gaps := []*model.Gap{
		{ID: "b", Priority: model.PriorityHigh, AnchorDate: date(2019, 1, 1)},
		{ID: "a", Priority: model.PriorityHigh, AnchorDate: date(2018, 1, 1)},
		{ID: "c", Priority: model.PriorityHighest},
		{ID: "d", Priority: model.PriorityHigh},
	}
	SortByPriority(gaps)

	assert.Equal(t, []string{"c", "a", "b", "d"},
		[]string{gaps[0].ID, gaps[1].ID, gaps[2].ID, gaps[3].ID})
}
