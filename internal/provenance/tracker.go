// Package provenance maintains the per-fact audit trail on timeline
// events: every contributing source is appended in discovery order, and
// the moment a second source disagrees the adjudicator decides which
// value stands. Source lists are append-only; adjudication decisions are
// replaced whole, never edited.
package provenance

import (
	"time"

	"go.uber.org/zap"

	"github.com/clearchart/abstraction-cli/internal/adjudicate"
	"github.com/clearchart/abstraction-cli/internal/model"
	"github.com/clearchart/abstraction-cli/internal/registry"
)

// Tracker records extraction sources onto events and invokes
// adjudication when sources disagree.
type Tracker struct {
	reg     *registry.Registry
	nowFunc func() time.Time
}

// NewTracker creates a Tracker.
func NewTracker(reg *registry.Registry) *Tracker {
	return &Tracker{reg: reg, nowFunc: time.Now}
}

// Record appends one source for one fact on an event and settles the
// standing value. The first source for a fact stands unadjudicated;
// every later source triggers a fresh decision against the source whose
// value currently stands.
func (t *Tracker) Record(ev *model.Event, fact string, sr model.SourceRecord) {
	if ev.Provenance == nil {
		ev.Provenance = make(map[string]*model.ProvenanceRecord)
	}
	rec, ok := ev.Provenance[fact]
	if !ok {
		rec = &model.ProvenanceRecord{}
		ev.Provenance[fact] = rec
	}

	prior := rec.Adjudication
	standing := t.standingSource(fact, rec)
	rec.AppendSource(sr)

	if standing == nil {
		rec.Value = sr.Value
		return
	}

	decision := adjudicate.Decide(t.reg, fact, *standing, sr, t.nowFunc())

	// A review flag raised by an earlier conflict survives later
	// decisions; agreement with the winner does not unsee the conflict.
	if prior != nil && prior.RequiresManualReview && !decision.RequiresManualReview {
		decision.RequiresManualReview = true
		decision.Rationale += "; earlier conflict still requires review"
	}

	rec.Adjudication = decision
	rec.Value = decision.FinalValue

	if decision.RequiresManualReview {
		zap.L().Info("fact flagged for manual review",
			zap.String("event_id", ev.ID),
			zap.String("fact", fact),
			zap.String("method", decision.Method),
			zap.String("rationale", decision.Rationale),
		)
	}
}

// RequiresReview reports whether any fact on the event carries an
// unresolved manual-review flag.
func RequiresReview(ev *model.Event) bool {
	for _, rec := range ev.Provenance {
		if rec.Adjudication != nil && rec.Adjudication.RequiresManualReview {
			return true
		}
	}
	return false
}

// standingSource returns the source whose value currently stands on the
// record, or nil when the record has no sources yet. The standing value
// is Final(); the first source that reported it is the comparison
// baseline for the next adjudication.
func (t *Tracker) standingSource(fact string, rec *model.ProvenanceRecord) *model.SourceRecord {
	if len(rec.Sources) == 0 {
		return nil
	}
	final := t.reg.Canonical(fact, adjudicate.Normalize(rec.Final()))
	for i := range rec.Sources {
		if t.reg.Canonical(fact, adjudicate.Normalize(rec.Sources[i].Value)) == final {
			return &rec.Sources[i]
		}
	}
	return &rec.Sources[0]
}
