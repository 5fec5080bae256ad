package orchestrate

import (
	"strings"

	"github.com/clearchart/abstraction-cli/internal/registry"
)

// ValidateContent is the cheap pre-oracle relevance gate: the fetched
// text must contain at least the gap type's minimum number of vocabulary
// terms, matched case-insensitively. Specs without a vocabulary accept
// any non-empty text.
func ValidateContent(spec *registry.Spec, text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	if len(spec.Vocabulary) == 0 {
		return true
	}

	min := spec.MinVocabMatches
	if min <= 0 {
		min = 2
	}

	lower := strings.ToLower(text)
	matches := 0
	for _, term := range spec.Vocabulary {
		if strings.Contains(lower, strings.ToLower(term)) {
			matches++
			if matches >= min {
				return true
			}
		}
	}
	return false
}

// canonicalFields maps the oracle's output keys onto canonical fact
// names using the registry alias table, keeping only the facts asked
// for. When several aliases carry a value, the canonical key wins, then
// alias order.
func canonicalFields(reg *registry.Registry, required []string, raw map[string]any) map[string]any {
	out := make(map[string]any, len(required))
	for _, fact := range required {
		for _, key := range reg.Aliases(fact) {
			if v, ok := raw[key]; ok && usable(v) {
				out[fact] = v
				break
			}
		}
	}
	return out
}

// missingFacts returns the required facts with no usable value in the
// accumulated canonical field set, in required order.
func missingFacts(required []string, fields map[string]any) []string {
	var missing []string
	for _, fact := range required {
		if !usable(fields[fact]) {
			missing = append(missing, fact)
		}
	}
	return missing
}

// usable reports whether an extracted value counts as present. Nulls,
// empty strings, and the oracle's explicit unknown markers do not.
func usable(v any) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "", "null", "unknown", "not reported", "not stated":
			return false
		}
	}
	return true
}
