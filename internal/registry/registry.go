// Package registry holds the static per-gap-type tables that drive gap
// identification, candidate ranking, content validation, prompt building,
// and adjudication: required-fact sets, priorities, document-tier tables,
// relevance vocabularies, field-name aliases, ordinal scales, and source
// trust orderings.
package registry

import (
	"github.com/clearchart/abstraction-cli/internal/model"
)

// Spec is the static definition of one gap type.
type Spec struct {
	Type          model.GapType       `yaml:"type"`
	EventType     model.EventType     `yaml:"event_type"`
	Priority      model.Priority      `yaml:"priority"`
	RequiredFacts []string            `yaml:"required_facts"`
	// Tiers lists document categories by trust for this gap type; tier 1
	// first. The ranker concatenates tiers in order.
	Tiers [][]model.DocCategory `yaml:"tiers"`
	// Vocabulary terms are matched case-insensitively during content
	// validation; a document must match at least MinVocabMatches of them.
	Vocabulary      []string `yaml:"vocabulary"`
	MinVocabMatches int      `yaml:"min_vocab_matches"`
	// Hints are one-line per-field extraction hints used by the
	// retry-with-clarification prompt.
	Hints map[string]string `yaml:"hints"`
	// Interval marks gap types whose facts describe a date interval;
	// these get the date-mismatch short-circuit.
	Interval bool `yaml:"interval"`
	// StartField names the extracted field holding the interval start
	// date, compared against the gap anchor.
	StartField string `yaml:"start_field"`
	// Topics tag the gap type for reference-context selection.
	Topics []string `yaml:"topics"`
}

// Registry indexes gap specs plus the cross-cutting fact tables.
type Registry struct {
	specs   map[model.GapType]*Spec
	byEvent map[model.EventType]*Spec

	// aliases maps a canonical fact name to the output keys the oracle
	// may use for it. Consulted by result validation and the merge step.
	aliases map[string][]string
	// scales maps a fact name to its ordered severity/extent scale,
	// lowest first, canonical lower-case values.
	scales map[string][]string
	// synonyms maps a fact name to normalized-value -> canonical scale
	// value mappings.
	synonyms map[string]map[string]string
	// trust maps a fact name to document categories ordered from most to
	// least trusted.
	trust map[string][]model.DocCategory
}

// SpecFor returns the spec for a gap type, or nil.
func (r *Registry) SpecFor(t model.GapType) *Spec {
	return r.specs[t]
}

// SpecForEvent returns the spec covering an event type, or nil for event
// types with no required facts.
func (r *Registry) SpecForEvent(t model.EventType) *Spec {
	return r.byEvent[t]
}

// Types returns all registered gap types.
func (r *Registry) Types() []model.GapType {
	out := make([]model.GapType, 0, len(r.specs))
	for t := range r.specs {
		out = append(out, t)
	}
	return out
}

// Aliases returns the acceptable oracle output keys for a fact, always
// including the canonical name itself first.
func (r *Registry) Aliases(fact string) []string {
	out := []string{fact}
	out = append(out, r.aliases[fact]...)
	return out
}

// Scale returns the ordered value scale for a fact, or nil when the fact
// has no defined ordering.
func (r *Registry) Scale(fact string) []string {
	return r.scales[fact]
}

// Canonical maps a normalized value onto its canonical scale value.
// Returns the input unchanged when no synonym applies.
func (r *Registry) Canonical(fact, normalized string) string {
	if m, ok := r.synonyms[fact]; ok {
		if c, ok := m[normalized]; ok {
			return c
		}
	}
	return normalized
}

// TrustRank returns the trust position of a document category for a fact;
// 0 is most trusted. Categories outside the fact's trust order rank last.
func (r *Registry) TrustRank(fact string, cat model.DocCategory) int {
	order, ok := r.trust[fact]
	if !ok {
		return 0
	}
	for i, c := range order {
		if c == cat {
			return i
		}
	}
	return len(order)
}

func (r *Registry) index() {
	r.byEvent = make(map[model.EventType]*Spec, len(r.specs))
	for _, s := range r.specs {
		r.byEvent[s.EventType] = s
	}
}
