package uihost

import "github.com/sahilm/fuzzy"

// PickerResult is one fuzzy-matched session name.
type PickerResult struct {
	Name       string
	Score      int
	MatchedIdx []int
}

// Picker implements the `switch_session`/`list_sessions` primitives' fuzzy
// filter (§4.7), grounded on elleryfamilia-thicc's
// internal/filemanager.FileIndex.Search: fuzzy.Find over a flat string
// slice, converted back to tagged results by index.
type Picker struct {
	names []string
}

// NewPicker builds a picker over the given session names (as returned by
// Effects.ListSessions).
func NewPicker(names []string) *Picker {
	return &Picker{names: names}
}

// Search ranks names against query, best match first, capped at limit (0
// means unlimited). An empty query returns the names in their given order.
func (p *Picker) Search(query string, limit int) []PickerResult {
	if query == "" {
		results := make([]PickerResult, 0, len(p.names))
		for _, n := range p.names {
			results = append(results, PickerResult{Name: n})
			if limit > 0 && len(results) >= limit {
				break
			}
		}
		return results
	}

	matches := fuzzy.Find(query, p.names)
	n := len(matches)
	if limit > 0 && n > limit {
		n = limit
	}
	results := make([]PickerResult, 0, n)
	for i := 0; i < n; i++ {
		m := matches[i]
		results = append(results, PickerResult{
			Name:       p.names[m.Index],
			Score:      m.Score,
			MatchedIdx: m.MatchedIndexes,
		})
	}
	return results
}
