// Package gaps scans a patient timeline for events missing required facts
// and emits the Gap set that drives the extraction run.
package gaps

import (
	"fmt"
	"sort"

	"github.com/clearchart/abstraction-cli/internal/model"
	"github.com/clearchart/abstraction-cli/internal/registry"
)

// Identify returns the gaps present on the timeline: one Gap per event
// whose required-fact set (per the registry) is not fully populated.
// Pure function of the record; priority comes from the static per-type
// table, never computed.
func Identify(tl *model.Timeline, reg *registry.Registry) []*model.Gap {
	var out []*model.Gap
	for _, ev := range tl.Events {
		spec := reg.SpecForEvent(ev.Type)
		if spec == nil {
			continue
		}

		var missing []string
		for _, fact := range spec.RequiredFacts {
			if !ev.HasFact(fact) {
				missing = append(missing, fact)
			}
		}
		if len(missing) == 0 {
			continue
		}

		out = append(out, &model.Gap{
			ID:            fmt.Sprintf("%s:%s", ev.ID, spec.Type),
			Type:          spec.Type,
			EventID:       ev.ID,
			Priority:      spec.Priority,
			AnchorDate:    ev.AnchorDate,
			RequiredFacts: missing,
			Status:        model.StatusPending,
		})
	}

	SortByPriority(out)
	return out
}

// SortByPriority orders gaps by priority class, then anchor date, then id
// for a deterministic processing order.
func SortByPriority(gaps []*model.Gap) {
	sort.SliceStable(gaps, func(i, j int) bool {
		a, b := gaps[i], gaps[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		switch {
		case a.AnchorDate == nil && b.AnchorDate == nil:
			return a.ID < b.ID
		case a.AnchorDate == nil:
			return false
		case b.AnchorDate == nil:
			return true
		case !a.AnchorDate.Equal(*b.AnchorDate):
			return a.AnchorDate.Before(*b.AnchorDate)
		default:
			return a.ID < b.ID
		}
	})
}
