package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProvenanceFinal_SingleSource(t *testing.T) {
	pr := &ProvenanceRecord{Value: "GTR"}
	pr.AppendSource(SourceRecord{Value: "GTR", DocumentID: "d1"})

	assert.Equal(t, "GTR", pr.Final())
}

func TestProvenanceFinal_Adjudicated(t *testing.T) {
	pr := &ProvenanceRecord{
		Value: "STR",
		Adjudication: &AdjudicationRecord{
			FinalValue: "GTR",
			Method:     "ordinal_trust",
			Rationale:  "operative record outranks imaging",
			DecidedAt:  time.Now(),
		},
	}

	assert.Equal(t, "GTR", pr.Final())
}

func TestProvenanceAppendOnly(t *testing.T) {
	pr := &ProvenanceRecord{}
	pr.AppendSource(SourceRecord{DocumentID: "d1"})
	pr.AppendSource(SourceRecord{DocumentID: "d2"})

	assert.Len(t, pr.Sources, 2)
	assert.Equal(t, "d1", pr.Sources[0].DocumentID, "insertion order is discovery order")
}

func TestConfidenceRank(t *testing.T) {
	assert.Greater(t, ConfidenceHigh.Rank(), ConfidenceMedium.Rank())
	assert.Greater(t, ConfidenceMedium.Rank(), ConfidenceLow.Rank())
	assert.Equal(t, -1, Confidence("").Rank())
}
