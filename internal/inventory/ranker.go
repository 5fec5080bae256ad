package inventory

import (
	"sort"

	"github.com/clearchart/abstraction-cli/internal/model"
	"github.com/clearchart/abstraction-cli/internal/registry"
)

// DefaultMaxCandidates caps the ranked list after the primary target.
const DefaultMaxCandidates = 5

// Rank returns the ordered candidate list for a gap: tiers from the gap
// type's static table, sorted within each tier by temporal proximity to
// the anchor date. Image-only documents order after every text-bearing
// document in the same tier because their fetch path is the most
// expensive; undated documents rank last within their cost class rather
// than being excluded. No keyword filtering happens here — relevance is
// deferred to content validation so ranking never discards a true match
// over vocabulary.
//
// Pure function: identical inputs produce an identical order.
func Rank(gap *model.Gap, inv *Inventory, reg *registry.Registry, maxCandidates int) []model.CandidateDocument {
	spec := reg.SpecFor(gap.Type)
	if spec == nil {
		return nil
	}
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}

	// Null anchor: recall-preserving fallback — an unordered tier-1/2
	// sweep, stable by document id.
	if gap.AnchorDate == nil {
		var out []model.CandidateDocument
		for i, tier := range spec.Tiers {
			if i >= 2 {
				break
			}
			for _, cat := range tier {
				out = append(out, inv.Bucket(cat)...)
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i], out[j]
			if a.ImageOnly != b.ImageOnly {
				return !a.ImageOnly
			}
			return a.ID < b.ID
		})
		return cap1(out, maxCandidates+1)
	}

	anchor := *gap.AnchorDate
	var out []model.CandidateDocument
	for _, tier := range spec.Tiers {
		var pool []model.CandidateDocument
		for _, cat := range tier {
			pool = append(pool, inv.Bucket(cat)...)
		}
		sort.SliceStable(pool, func(i, j int) bool {
			a, b := pool[i], pool[j]
			if a.ImageOnly != b.ImageOnly {
				return !a.ImageOnly
			}
			da, db := a.DaysFrom(anchor), b.DaysFrom(anchor)
			switch {
			case da < 0 && db < 0:
				return a.ID < b.ID
			case da < 0:
				return false
			case db < 0:
				return true
			case da != db:
				return da < db
			default:
				return a.ID < b.ID
			}
		})
		out = append(out, pool...)
	}
	return cap1(out, maxCandidates+1)
}

// cap1 truncates the list to n entries (primary target plus escalation
// alternates).
func cap1(docs []model.CandidateDocument, n int) []model.CandidateDocument {
	if len(docs) > n {
		return docs[:n]
	}
	return docs
}
