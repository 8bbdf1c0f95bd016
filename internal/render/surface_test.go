package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rockorager/prise/internal/proto"
)

func TestSurfaceApplyRowWithStyle(t *testing.T) {
	s := NewSurface(10, 2)
	events := []proto.RedrawEvent{
		{Kind: proto.EventStyle, Style: &proto.StyleEvent{Styles: map[int]proto.SGR{0: {FG: -1, BG: -1, Bold: true}}}},
		{Kind: proto.EventRow, Row: &proto.RowEvent{Row: 0, Runs: []proto.StyleRun{{StyleID: 0, Text: "hi"}}}},
		{Kind: proto.EventFlush},
	}
	s.Apply(events, nil)

	assert.Equal(t, 'h', s.Cell(0, 0).Ch)
	assert.True(t, s.Cell(0, 0).Style.Bold)
	assert.Equal(t, 'i', s.Cell(1, 0).Ch)
	assert.Equal(t, ' ', s.Cell(2, 0).Ch)
	assert.True(t, s.TakeDirty())
	assert.False(t, s.TakeDirty())
}

func TestSurfaceApplyCursorTitleCWD(t *testing.T) {
	s := NewSurface(10, 2)
	events := []proto.RedrawEvent{
		{Kind: proto.EventCursor, Cursor: &proto.CursorEvent{Row: 1, Col: 3, Visible: true, Style: "block"}},
		{Kind: proto.EventTitle, Title: "my shell"},
		{Kind: proto.EventCWD, CWD: "/tmp"},
		{Kind: proto.EventFlush},
	}
	s.Apply(events, nil)

	cur, ok := s.Cursor()
	require.True(t, ok)
	assert.Equal(t, 1, cur.Row)
	assert.Equal(t, 3, cur.Col)
	assert.Equal(t, "my shell", s.Title())
	assert.Equal(t, "/tmp", s.CWD())
}

func TestSurfaceApplyDiscardsOutOfRangeStyleID(t *testing.T) {
	s := NewSurface(5, 1)
	var logged []string
	events := []proto.RedrawEvent{
		{Kind: proto.EventRow, Row: &proto.RowEvent{Row: 0, Runs: []proto.StyleRun{{StyleID: 99, Text: "x"}}}},
		{Kind: proto.EventFlush},
	}
	s.Apply(events, func(msg string) { logged = append(logged, msg) })
	assert.NotEmpty(t, logged)
}

func TestSurfaceResizePreservesOverlap(t *testing.T) {
	s := NewSurface(4, 2)
	s.Apply([]proto.RedrawEvent{
		{Kind: proto.EventStyle, Style: &proto.StyleEvent{Styles: map[int]proto.SGR{0: {FG: -1, BG: -1}}}},
		{Kind: proto.EventRow, Row: &proto.RowEvent{Row: 0, Runs: []proto.StyleRun{{StyleID: 0, Text: "abcd"}}}},
		{Kind: proto.EventFlush},
	}, nil)

	s.Resize(2, 2)
	assert.Equal(t, 'a', s.Cell(0, 0).Ch)
	assert.Equal(t, 'b', s.Cell(1, 0).Ch)
	cols, rows := s.Size()
	assert.Equal(t, 2, cols)
	assert.Equal(t, 2, rows)
}
