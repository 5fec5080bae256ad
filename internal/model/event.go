package model

import (
	"sort"
	"time"
)

// EventType classifies a timeline event.
type EventType string

const (
	EventSurgery         EventType = "surgery"
	EventRadiationCourse EventType = "radiation_course"
	EventSystemicTherapy EventType = "systemic_therapy"
	EventImaging         EventType = "imaging"
)

// Event is one point or interval on a patient's treatment timeline.
// Events are owned by the Timeline; only the integrator mutates Facts
// and Provenance.
type Event struct {
	ID          string                       `json:"id"`
	PatientID   string                       `json:"patient_id"`
	Type        EventType                    `json:"type"`
	AnchorDate  *time.Time                   `json:"anchor_date,omitempty"`
	Facts       map[string]any               `json:"facts"`
	Provenance  map[string]*ProvenanceRecord `json:"provenance,omitempty"`
	Synthesized bool                         `json:"synthesized,omitempty"`
}

// HasFact reports whether the named fact is present with a usable value.
// Null and empty-string values count as absent.
func (e *Event) HasFact(name string) bool {
	if e.Facts == nil {
		return false
	}
	v, ok := e.Facts[name]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr && s == "" {
		return false
	}
	return true
}

// Timeline is a patient's chronological event record.
type Timeline struct {
	PatientID string   `json:"patient_id"`
	Events    []*Event `json:"events"`
}

// EventByID returns the event with the given id, or nil.
func (t *Timeline) EventByID(id string) *Event {
	for _, e := range t.Events {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Append adds an event to the timeline and re-sorts.
func (t *Timeline) Append(e *Event) {
	t.Events = append(t.Events, e)
	t.Sort()
}

// Sort orders events chronologically by anchor date. Undated events sort
// last, then by id for a stable order.
func (t *Timeline) Sort() {
	sort.SliceStable(t.Events, func(i, j int) bool {
		a, b := t.Events[i], t.Events[j]
		switch {
		case a.AnchorDate == nil && b.AnchorDate == nil:
			return a.ID < b.ID
		case a.AnchorDate == nil:
			return false
		case b.AnchorDate == nil:
			return true
		case a.AnchorDate.Equal(*b.AnchorDate):
			return a.ID < b.ID
		default:
			return a.AnchorDate.Before(*b.AnchorDate)
		}
	})
}

// NearestDatedEvent returns the anchor date of the dated event closest to
// ref, or nil if no event has a date. Used as a proxy anchor for undated
// gaps during candidate ranking.
func (t *Timeline) NearestDatedEvent(ref time.Time) *time.Time {
	var best *time.Time
	var bestDelta time.Duration
	for _, e := range t.Events {
		if e.AnchorDate == nil {
			continue
		}
		delta := ref.Sub(*e.AnchorDate)
		if delta < 0 {
			delta = -delta
		}
		if best == nil || delta < bestDelta {
			d := *e.AnchorDate
			best = &d
			bestDelta = delta
		}
	}
	return best
}
