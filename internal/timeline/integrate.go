// Package timeline applies run results back onto the patient timeline
// and renders the run artifact. Integration is idempotent: applying the
// same results twice leaves the timeline byte-identical, which keeps
// reruns and resumed runs safe.
package timeline

import (
	"go.uber.org/zap"

	"github.com/clearchart/abstraction-cli/internal/model"
)

// Integrate writes each event's adjudicated fact values from its
// provenance records into its fact map. Facts with no usable final value
// are left untouched so a failed extraction never erases structured
// data.
func Integrate(tl *model.Timeline) {
	for _, ev := range tl.Events {
		for fact, rec := range ev.Provenance {
			final := rec.Final()
			if final == nil {
				continue
			}
			if s, ok := final.(string); ok && s == "" {
				continue
			}
			if ev.Facts == nil {
				ev.Facts = make(map[string]any)
			}
			ev.Facts[fact] = final
		}
	}
}

// AddSynthesized appends newly synthesized events to the timeline,
// skipping any whose id is already present. The timeline re-sorts after
// insertion.
func AddSynthesized(tl *model.Timeline, events []*model.Event) {
	added := 0
	for _, ev := range events {
		if tl.EventByID(ev.ID) != nil {
			continue
		}
		ev.PatientID = tl.PatientID
		tl.Append(ev)
		added++
	}
	if added > 0 {
		zap.L().Info("synthesized events added to timeline",
			zap.String("patient_id", tl.PatientID),
			zap.Int("count", added),
		)
	}
}
