// Package adjudicate reconciles conflicting fact values extracted from
// different sources. The rules run in a fixed order: concordance, clear
// over unclear, ordinal-scale distance, then source trust. Every
// decision yields a rationale a reviewer can audit; close calls keep the
// winning value but flag the event for manual review rather than hiding
// the disagreement.
package adjudicate

import (
	"fmt"
	"time"

	"github.com/clearchart/abstraction-cli/internal/model"
	"github.com/clearchart/abstraction-cli/internal/registry"
)

// Adjudication methods recorded on the decision.
const (
	MethodConcordant       = "concordant"
	MethodClearOverUnclear = "clear_over_unclear"
	MethodOrdinalScale     = "ordinal_scale"
	MethodTrustOrder       = "trust_order"
)

// Decide reconciles an existing source against an incoming one for a
// single fact and returns the decision. The existing source is the one
// whose value currently stands on the event.
func Decide(reg *registry.Registry, fact string, existing, incoming model.SourceRecord, now time.Time) *model.AdjudicationRecord {
	ce := canonical(reg, fact, existing.Value)
	ci := canonical(reg, fact, incoming.Value)

	// Rule 1: concordance. Different surface forms of the same canonical
	// value are agreement, not conflict.
	if ce == ci && !unclear(ce) {
		return &model.AdjudicationRecord{
			FinalValue:           finalValue(reg, fact, existing, ce),
			Method:               MethodConcordant,
			Rationale:            fmt.Sprintf("sources agree on %q", ce),
			RequiresManualReview: false,
			DecidedAt:            now,
		}
	}

	// Rule 2: a definite value beats an uninformative one.
	switch {
	case unclear(ce) && !unclear(ci):
		return &model.AdjudicationRecord{
			FinalValue:           finalValue(reg, fact, incoming, ci),
			Method:               MethodClearOverUnclear,
			Rationale:            fmt.Sprintf("%s reported %q where %s was unclear", incoming.SourceCategory, ci, existing.SourceCategory),
			RequiresManualReview: false,
			DecidedAt:            now,
		}
	case unclear(ci) && !unclear(ce):
		return &model.AdjudicationRecord{
			FinalValue:           finalValue(reg, fact, existing, ce),
			Method:               MethodClearOverUnclear,
			Rationale:            fmt.Sprintf("%s reported %q where %s was unclear", existing.SourceCategory, ce, incoming.SourceCategory),
			RequiresManualReview: false,
			DecidedAt:            now,
		}
	case unclear(ce) && unclear(ci):
		return &model.AdjudicationRecord{
			FinalValue:           existing.Value,
			Method:               MethodClearOverUnclear,
			Rationale:            "no source reported a definite value",
			RequiresManualReview: true,
			DecidedAt:            now,
		}
	}

	winner, loser, wc := pickByTrust(reg, fact, existing, incoming, ce, ci)

	// Rule 3: ordinal scales. Adjacent values are plausible reporting
	// variation; a two-step spread is a material conflict a human should
	// see even though the more trusted source still wins.
	if scale := reg.Scale(fact); scale != nil {
		ie, oke := scaleIndex(scale, ce)
		ii, oki := scaleIndex(scale, ci)
		if oke && oki {
			dist := ie - ii
			if dist < 0 {
				dist = -dist
			}
			review := dist >= 2
			if loser.Confidence.Rank() > winner.Confidence.Rank() {
				// Confidence inversion: the losing source was more sure
				// of itself. The trust order still decides the value.
				review = true
			}
			return &model.AdjudicationRecord{
				FinalValue: finalValue(reg, fact, winner, wc),
				Method:     MethodOrdinalScale,
				Rationale: fmt.Sprintf("%q (%s) vs %q (%s), scale distance %d; favored %s by source trust",
					ce, existing.SourceCategory, ci, incoming.SourceCategory, dist, winner.SourceCategory),
				RequiresManualReview: review,
				DecidedAt:            now,
			}
		}
	}

	// Rule 4: no scale to measure the disagreement on. The trust order
	// picks a value but the conflict always goes to review.
	return &model.AdjudicationRecord{
		FinalValue: finalValue(reg, fact, winner, wc),
		Method:     MethodTrustOrder,
		Rationale: fmt.Sprintf("%q (%s) vs %q (%s); favored %s by source trust",
			ce, existing.SourceCategory, ci, incoming.SourceCategory, winner.SourceCategory),
		RequiresManualReview: true,
		DecidedAt:            now,
	}
}

// pickByTrust chooses between two disagreeing sources: trust order
// first, oracle confidence as tiebreak, the existing source on a full
// tie. Returns winner, loser, and the winner's canonical value.
func pickByTrust(reg *registry.Registry, fact string, existing, incoming model.SourceRecord, ce, ci string) (model.SourceRecord, model.SourceRecord, string) {
	te := reg.TrustRank(fact, existing.SourceCategory)
	ti := reg.TrustRank(fact, incoming.SourceCategory)
	switch {
	case ti < te:
		return incoming, existing, ci
	case te < ti:
		return existing, incoming, ce
	case incoming.Confidence.Rank() > existing.Confidence.Rank():
		return incoming, existing, ci
	default:
		return existing, incoming, ce
	}
}

// finalValue prefers the canonical form for facts with a defined scale
// so downstream consumers see one vocabulary; other facts keep the
// source's original value.
func finalValue(reg *registry.Registry, fact string, src model.SourceRecord, canon string) any {
	if scale := reg.Scale(fact); scale != nil {
		if _, ok := scaleIndex(scale, canon); ok {
			return canon
		}
	}
	return src.Value
}

func scaleIndex(scale []string, v string) (int, bool) {
	for i, s := range scale {
		if s == v {
			return i, true
		}
	}
	return 0, false
}
