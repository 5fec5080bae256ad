package orchestrate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/clearchart/abstraction-cli/internal/model"
	"github.com/clearchart/abstraction-cli/internal/registry"
)

// gapTaskLines describes the abstraction task per gap type, in terms a
// chart abstractor would use.
var gapTaskLines = map[model.GapType]string{
	model.GapOperativeOutcome: "Determine the surgical outcome of this operation.",
	model.GapRadiationCourse:  "Determine the details of this radiation course.",
	model.GapSystemicTherapy:  "Determine the details of this systemic therapy course.",
	model.GapImagingResponse:  "Determine the treatment response assessment from this imaging study.",
}

// buildPrompt composes the initial extraction prompt: the task, the
// timeline context the document must be read against, the fields to
// extract with their hints, and any reference context for the gap's
// topics.
func buildPrompt(spec *registry.Spec, gap *model.Gap, ev *model.Event, refContext string) string {
	var b strings.Builder

	if task, ok := gapTaskLines[gap.Type]; ok {
		b.WriteString(task)
		b.WriteString("\n\n")
	}

	b.WriteString("Timeline context:\n")
	fmt.Fprintf(&b, "- event type: %s\n", ev.Type)
	if gap.AnchorDate != nil {
		fmt.Fprintf(&b, "- event date: %s\n", gap.AnchorDate.Format("2006-01-02"))
	} else {
		b.WriteString("- event date: unknown\n")
	}
	for _, k := range sortedFactKeys(ev) {
		fmt.Fprintf(&b, "- known %s: %v\n", k, ev.Facts[k])
	}

	b.WriteString("\nExtract these fields:\n")
	writeFieldList(&b, spec, gap.RequiredFacts)

	if refContext != "" {
		b.WriteString("\nReference notes:\n")
		b.WriteString(refContext)
		b.WriteString("\n")
	}

	return b.String()
}

// buildClarificationPrompt composes the retry prompt for a partially
// successful extraction: it names only the fields still missing and
// leans harder on the per-field hints.
func buildClarificationPrompt(spec *registry.Spec, gap *model.Gap, ev *model.Event, missing []string, refContext string) string {
	var b strings.Builder

	b.WriteString("A previous pass over this document extracted some fields but missed others. ")
	b.WriteString("Re-read the document carefully and extract ONLY the fields listed below. ")
	b.WriteString("If the document genuinely does not state a field, use null.\n")

	if gap.AnchorDate != nil {
		fmt.Fprintf(&b, "\nThe document should describe the %s around %s.\n", ev.Type, gap.AnchorDate.Format("2006-01-02"))
	}

	b.WriteString("\nMissing fields:\n")
	writeFieldList(&b, spec, missing)

	if refContext != "" {
		b.WriteString("\nReference notes:\n")
		b.WriteString(refContext)
		b.WriteString("\n")
	}

	return b.String()
}

func writeFieldList(b *strings.Builder, spec *registry.Spec, facts []string) {
	for _, f := range facts {
		if hint := spec.Hints[f]; hint != "" {
			fmt.Fprintf(b, "- %s: %s\n", f, hint)
		} else {
			fmt.Fprintf(b, "- %s\n", f)
		}
	}
}

func sortedFactKeys(ev *model.Event) []string {
	keys := make([]string, 0, len(ev.Facts))
	for k := range ev.Facts {
		if ev.HasFact(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
