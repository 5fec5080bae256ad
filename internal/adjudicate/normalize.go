package adjudicate

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/clearchart/abstraction-cli/internal/registry"
)

var foldCaser = cases.Fold()

// Normalize reduces a raw extracted value to comparison form: case
// folded, whitespace collapsed, trailing punctuation dropped. Non-string
// values go through their default formatting so numeric doses compare
// stably.
func Normalize(v any) string {
	var s string
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s = t
	case float64:
		// Trim the ".0" so 54 and 54.0 compare equal.
		s = strings.TrimSuffix(fmt.Sprintf("%v", t), ".0")
	default:
		s = fmt.Sprintf("%v", t)
	}
	s = foldCaser.String(s)
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Trim(s, ".,;: ")
	return s
}

// canonical normalizes a value and maps it through the fact's synonym
// table onto its canonical scale value.
func canonical(reg *registry.Registry, fact string, v any) string {
	return reg.Canonical(fact, Normalize(v))
}

// unclearMarkers are value forms that carry no information; a source
// reporting one loses to any source reporting a definite value.
var unclearMarkers = map[string]bool{
	"":              true,
	"unclear":       true,
	"unknown":       true,
	"indeterminate": true,
	"not reported":  true,
	"not stated":    true,
	"n/a":           true,
	"none":          true,
}

func unclear(normalized string) bool {
	return unclearMarkers[normalized]
}
