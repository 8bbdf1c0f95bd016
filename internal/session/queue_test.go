package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rockorager/prise/internal/proto"
)

func TestMergeReplacesRowByIndex(t *testing.T) {
	q := newPendingQueue()
	q.merge([]proto.RedrawEvent{
		{Kind: proto.EventRow, Row: &proto.RowEvent{Row: 2, Runs: []proto.StyleRun{{StyleID: 0, Text: "old"}}}},
		{Kind: proto.EventFlush},
	})
	q.merge([]proto.RedrawEvent{
		{Kind: proto.EventRow, Row: &proto.RowEvent{Row: 2, Runs: []proto.StyleRun{{StyleID: 0, Text: "new"}}}},
		{Kind: proto.EventFlush},
	})

	out := q.drain()
	rowCount := 0
	for _, ev := range out {
		if ev.Kind == proto.EventRow {
			rowCount++
			require.Equal(t, "new", ev.Row.Runs[0].Text)
		}
	}
	assert.Equal(t, 1, rowCount)
}

func TestMergeAccumulatesStyles(t *testing.T) {
	q := newPendingQueue()
	q.merge([]proto.RedrawEvent{
		{Kind: proto.EventStyle, Style: &proto.StyleEvent{Styles: map[int]proto.SGR{0: {Bold: true}}}},
		{Kind: proto.EventFlush},
	})
	q.merge([]proto.RedrawEvent{
		{Kind: proto.EventStyle, Style: &proto.StyleEvent{Styles: map[int]proto.SGR{1: {Underline: true}}}},
		{Kind: proto.EventFlush},
	})

	out := q.drain()
	style := findEventQ(out, proto.EventStyle)
	require.NotNil(t, style)
	assert.Len(t, style.Style.Styles, 2)
}

func TestFlushAlwaysLastAfterMerge(t *testing.T) {
	q := newPendingQueue()
	q.merge([]proto.RedrawEvent{
		{Kind: proto.EventFlush},
	})
	q.merge([]proto.RedrawEvent{
		{Kind: proto.EventRow, Row: &proto.RowEvent{Row: 0}},
		{Kind: proto.EventFlush},
	})
	out := q.drain()
	require.NotEmpty(t, out)
	assert.Equal(t, proto.EventFlush, out[len(out)-1].Kind)
}

func TestDrainResetsQueue(t *testing.T) {
	q := newPendingQueue()
	q.merge([]proto.RedrawEvent{{Kind: proto.EventFlush}})
	first := q.drain()
	require.NotEmpty(t, first)
	second := q.drain()
	assert.Empty(t, second)
}

func findEventQ(events []proto.RedrawEvent, kind proto.EventKind) *proto.RedrawEvent {
	for i := range events {
		if events[i].Kind == kind {
			return &events[i]
		}
	}
	return nil
}
