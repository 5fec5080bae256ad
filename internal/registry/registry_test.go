package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearchart/abstraction-cli/internal/model"
)

func TestDefault_SpecLookup(t *testing.T) {
	r := Default()

	spec := r.SpecFor(model.GapOperativeOutcome)
	require.NotNil(t, spec)
	assert.Equal(t, model.PriorityHighest, spec.Priority)
	assert.Equal(t, []string{"extent_of_resection", "surgeon_assessment"}, spec.RequiredFacts)
	assert.Equal(t, model.DocOperativeRecord, spec.Tiers[0][0])

	assert.Nil(t, r.SpecFor(model.GapType("bogus")))
}

func TestDefault_SpecForEvent(t *testing.T) {
	r := Default()

	spec := r.SpecForEvent(model.EventRadiationCourse)
	require.NotNil(t, spec)
	assert.True(t, spec.Interval)
	assert.Equal(t, "start_date", spec.StartField)

	assert.Nil(t, r.SpecForEvent(model.EventType("clinic_visit")))
}

func TestAliases_IncludeCanonicalFirst(t *testing.T) {
	r := Default()

	got := r.Aliases("total_dose")
	require.NotEmpty(t, got)
	assert.Equal(t, "total_dose", got[0])
	assert.Contains(t, got, "dose_gy")
}

func TestCanonical_Synonyms(t *testing.T) {
	r := Default()

	assert.Equal(t, "gtr", r.Canonical("extent_of_resection", "gross total resection"))
	assert.Equal(t, "str", r.Canonical("extent_of_resection", "subtotal"))
	assert.Equal(t, "verbatim", r.Canonical("extent_of_resection", "verbatim"))
	assert.Equal(t, "anything", r.Canonical("unknown_fact", "anything"))
}

func TestTrustRank(t *testing.T) {
	r := Default()

	opRank := r.TrustRank("extent_of_resection", model.DocOperativeRecord)
	imgRank := r.TrustRank("extent_of_resection", model.DocImagingReport)
	assert.Less(t, opRank, imgRank)

	// Categories outside the order rank after everything in it.
	assert.Greater(t, r.TrustRank("extent_of_resection", model.DocOther), imgRank)
}

func TestLoadOverlay(t *testing.T) {
	overlay := `
gap_types:
  operative_outcome:
    vocabulary: ["laminectomy", "resection"]
    min_vocab_matches: 1
aliases:
  total_dose: ["delivered_dose"]
`
	path := filepath.Join(t.TempDir(), "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(overlay), 0o644))

	r := Default()
	require.NoError(t, LoadOverlay(r, path))

	spec := r.SpecFor(model.GapOperativeOutcome)
	assert.Equal(t, []string{"laminectomy", "resection"}, spec.Vocabulary)
	assert.Equal(t, 1, spec.MinVocabMatches)
	assert.Contains(t, r.Aliases("total_dose"), "delivered_dose")
}

func TestLoadOverlay_UnknownGapType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gap_types:\n  nope:\n    min_vocab_matches: 1\n"), 0o644))

	assert.Error(t, LoadOverlay(Default(), path))
}
