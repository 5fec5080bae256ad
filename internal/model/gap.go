package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// GapType identifies the category of missing fact a Gap represents.
type GapType string

const (
	GapOperativeOutcome GapType = "operative_outcome"
	GapRadiationCourse  GapType = "radiation_course_details"
	GapSystemicTherapy  GapType = "systemic_therapy_details"
	GapImagingResponse  GapType = "imaging_response"
)

// Priority classes for gap resolution ordering.
type Priority string

const (
	PriorityHighest Priority = "highest"
	PriorityHigh    Priority = "high"
	PriorityMedium  Priority = "medium"
	PriorityLow     Priority = "low"
)

// priorityRank maps priority classes to numeric ranks. Lower rank means
// higher priority.
var priorityRank = map[Priority]int{
	PriorityHighest: 0,
	PriorityHigh:    1,
	PriorityMedium:  2,
	PriorityLow:     3,
}

// Rank returns the numeric rank of the priority. Unknown priorities rank
// after all known ones.
func (p Priority) Rank() int {
	r, ok := priorityRank[p]
	if !ok {
		return len(priorityRank)
	}
	return r
}

// GapStatus tracks a Gap through the escalation lifecycle.
type GapStatus string

const (
	StatusPending               GapStatus = "pending"
	StatusContentInvalid        GapStatus = "content_invalid"
	StatusOracleCalled          GapStatus = "oracle_called"
	StatusExtractionIncomplete  GapStatus = "extraction_incomplete"
	StatusRetried               GapStatus = "retried"
	StatusStillIncomplete       GapStatus = "still_incomplete"
	StatusResolved              GapStatus = "resolved"
	StatusExhausted             GapStatus = "exhausted"
)

// statusRank defines the monotone ordering of statuses within one
// candidate episode. Transitions may only move forward; starting a new
// candidate resets the episode via NextCandidate.
var statusRank = map[GapStatus]int{
	StatusPending:              0,
	StatusContentInvalid:       1,
	StatusOracleCalled:         2,
	StatusExtractionIncomplete: 3,
	StatusRetried:              4,
	StatusStillIncomplete:      5,
	StatusResolved:             6,
	StatusExhausted:            7,
}

// Terminal reports whether the status ends escalation for the gap.
func (s GapStatus) Terminal() bool {
	return s == StatusResolved || s == StatusExhausted
}

// Exhaustion reason codes recorded on the gap manifest.
const (
	ReasonNoCandidates      = "no_candidate_documents"
	ReasonNoSourceFound     = "no_source_found"
	ReasonBudgetExhausted   = "oracle_budget_exhausted"
	ReasonOracleUnavailable = "oracle_unavailable"
)

// Gap is one missing-or-incomplete fact set on one Event. Gaps exist only
// for the duration of a run; only their resolution is persisted.
type Gap struct {
	ID              string     `json:"id"`
	Type            GapType    `json:"type"`
	EventID         string     `json:"event_id"`
	Priority        Priority   `json:"priority"`
	AnchorDate      *time.Time `json:"anchor_date,omitempty"`
	RequiredFacts   []string   `json:"required_facts"`
	Status          GapStatus  `json:"status"`
	Reason          string     `json:"reason,omitempty"`
	CandidatesTried int        `json:"candidates_tried"`
	OracleCalls     int        `json:"oracle_calls"`
}

// Transition advances the gap's status. Moving backward within a candidate
// episode is an error; use NextCandidate to begin a fresh episode.
func (g *Gap) Transition(to GapStatus) error {
	if g.Status.Terminal() {
		return eris.Errorf("gap %s: transition from terminal status %s", g.ID, g.Status)
	}
	if statusRank[to] < statusRank[g.Status] {
		return eris.Errorf("gap %s: backward transition %s -> %s", g.ID, g.Status, to)
	}
	g.Status = to
	return nil
}

// NextCandidate begins an escalation episode against the next ranked
// candidate and counts it toward CandidatesTried. The first call opens
// the first episode; later calls are allowed only from a failed
// non-terminal episode state.
func (g *Gap) NextCandidate() error {
	switch g.Status {
	case StatusPending, StatusContentInvalid, StatusStillIncomplete:
		g.Status = StatusPending
		g.CandidatesTried++
		return nil
	default:
		return eris.Errorf("gap %s: next candidate from status %s", g.ID, g.Status)
	}
}

// Exhaust marks the gap terminally unresolved with a reason code.
func (g *Gap) Exhaust(reason string) {
	g.Status = StatusExhausted
	g.Reason = reason
}
