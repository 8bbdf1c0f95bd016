package uihost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickerEmptyQueryReturnsAllInOrder(t *testing.T) {
	p := NewPicker([]string{"work", "personal", "scratch"})
	results := p.Search("", 0)
	require.Len(t, results, 3)
	assert.Equal(t, "work", results[0].Name)
}

func TestPickerFuzzyMatchRanksBestFirst(t *testing.T) {
	p := NewPicker([]string{"personal-notes", "work-project", "workshop"})
	results := p.Search("wrk", 0)
	require.NotEmpty(t, results)
	assert.Contains(t, []string{"work-project", "workshop"}, results[0].Name)
}

func TestPickerLimit(t *testing.T) {
	p := NewPicker([]string{"a1", "a2", "a3", "a4"})
	results := p.Search("a", 2)
	assert.Len(t, results, 2)
}
