package session

import "github.com/rockorager/prise/internal/proto"

// pendingQueue coalesces redraw events for one (pty, client) pair per
// §4.5's merge rule: a new row event replaces any pending row event at the
// same index, style events accumulate, and flush is always placed last
// regardless of arrival order. The Session Manager drains it after every
// merge (see Manager.deliver).
type pendingQueue struct {
	styles   map[int]proto.SGR
	rowByIdx map[int]int // row index -> position in rows
	rows     []proto.RowEvent
	cursor   *proto.CursorEvent
	title    *string
	cwd      *string
	mouse    *string
	hasFlush bool
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{
		styles:   make(map[int]proto.SGR),
		rowByIdx: make(map[int]int),
	}
}

// merge folds a freshly emitted event sequence into the pending queue.
func (q *pendingQueue) merge(events []proto.RedrawEvent) {
	for _, ev := range events {
		switch ev.Kind {
		case proto.EventStyle:
			for id, sgr := range ev.Style.Styles {
				q.styles[id] = sgr
			}
		case proto.EventRow:
			if idx, ok := q.rowByIdx[ev.Row.Row]; ok {
				q.rows[idx] = *ev.Row
			} else {
				q.rowByIdx[ev.Row.Row] = len(q.rows)
				q.rows = append(q.rows, *ev.Row)
			}
		case proto.EventCursor:
			c := *ev.Cursor
			q.cursor = &c
		case proto.EventTitle:
			t := ev.Title
			q.title = &t
		case proto.EventCWD:
			c := ev.CWD
			q.cwd = &c
		case proto.EventMouseShape:
			m := ev.MouseShape
			q.mouse = &m
		case proto.EventFlush:
			q.hasFlush = true
		}
	}
}

// empty reports whether there is nothing to send.
func (q *pendingQueue) empty() bool {
	return len(q.styles) == 0 && len(q.rows) == 0 && q.cursor == nil &&
		q.title == nil && q.cwd == nil && q.mouse == nil && !q.hasFlush
}

// drain returns the accumulated events in emission order (style, rows,
// cursor, title, cwd, mouse_shape, flush) and resets the queue.
func (q *pendingQueue) drain() []proto.RedrawEvent {
	if q.empty() {
		return nil
	}
	var out []proto.RedrawEvent
	if len(q.styles) > 0 {
		styles := make(map[int]proto.SGR, len(q.styles))
		for k, v := range q.styles {
			styles[k] = v
		}
		out = append(out, proto.RedrawEvent{Kind: proto.EventStyle, Style: &proto.StyleEvent{Styles: styles}})
	}
	for i := range q.rows {
		row := q.rows[i]
		out = append(out, proto.RedrawEvent{Kind: proto.EventRow, Row: &row})
	}
	if q.cursor != nil {
		out = append(out, proto.RedrawEvent{Kind: proto.EventCursor, Cursor: q.cursor})
	}
	if q.title != nil {
		out = append(out, proto.RedrawEvent{Kind: proto.EventTitle, Title: *q.title})
	}
	if q.cwd != nil {
		out = append(out, proto.RedrawEvent{Kind: proto.EventCWD, CWD: *q.cwd})
	}
	if q.mouse != nil {
		out = append(out, proto.RedrawEvent{Kind: proto.EventMouseShape, MouseShape: *q.mouse})
	}
	if q.hasFlush {
		out = append(out, proto.RedrawEvent{Kind: proto.EventFlush})
	}

	q.styles = make(map[int]proto.SGR)
	q.rowByIdx = make(map[int]int)
	q.rows = nil
	q.cursor = nil
	q.title = nil
	q.cwd = nil
	q.mouse = nil
	q.hasFlush = false
	return out
}
