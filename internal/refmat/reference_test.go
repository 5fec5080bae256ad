package refmat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelect(t *testing.T) {
	got := Select([]string{"neurosurgery", "resection_grading"})
	assert.Contains(t, got, "gross total resection")
	assert.Contains(t, got, "Operative notes")
}

func TestSelect_DeterministicOrder(t *testing.T) {
	a := Select([]string{"resection_grading", "neurosurgery"})
	b := Select([]string{"neurosurgery", "resection_grading", "neurosurgery"})
	assert.Equal(t, a, b)
}

func TestSelect_UnknownTags(t *testing.T) {
	assert.Empty(t, Select([]string{"cardiology"}))
	assert.Empty(t, Select(nil))
}
