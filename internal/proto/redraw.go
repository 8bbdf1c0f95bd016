package proto

// Redraw event shapes (§4.4). A redraw notification's params is a
// RedrawEvents slice. Style IDs referenced by RowEvent are valid only
// within the notification that defines them in its StyleEvent — the style
// table's lifetime is per-redraw-notification, not per-connection or
// per-PTY. A client must not cache style IDs across notifications.
//
// Events within one notification arrive in emission order and the
// terminating FlushEvent is always last; a notification with no FlushEvent
// is a protocol violation the emitting side must never produce.

// EventKind discriminates RedrawEvent.Kind.
type EventKind string

const (
	EventStyle  EventKind = "style"
	EventRow    EventKind = "row"
	EventCursor EventKind = "cursor"
	EventTitle  EventKind = "title"
	EventCWD    EventKind = "cwd"
	EventMouseShape EventKind = "mouse_shape"
	EventFlush  EventKind = "flush"
)

// StyleRun is one run-length-encoded span of a row: style_id applies to
// Text.
type StyleRun struct {
	StyleID int    `cbor:"style_id"`
	Text    string `cbor:"text"`
}

// SGR is a fully resolved style: foreground/background color (palette
// index or -1 for default/true-color packed into FG/BG) plus attribute
// flags.
type SGR struct {
	FG        int32 `cbor:"fg"`
	BG        int32 `cbor:"bg"`
	Bold      bool  `cbor:"bold,omitempty"`
	Italic    bool  `cbor:"italic,omitempty"`
	Underline bool  `cbor:"underline,omitempty"`
	Reverse   bool  `cbor:"reverse,omitempty"`
	Dim       bool  `cbor:"dim,omitempty"`
	Strike    bool  `cbor:"strike,omitempty"`
}

// StyleEvent introduces newly observed SGR combinations for this
// notification, keyed by a small integer assigned by the emitting Screen
// Engine. IDs are only unique within the notification that defines them.
type StyleEvent struct {
	Styles map[int]SGR `cbor:"styles"`
}

// RowEvent describes one dirty row as a run-length-encoded sequence of
// (style_id, text) spans.
type RowEvent struct {
	Row  int        `cbor:"row"`
	Runs []StyleRun `cbor:"runs"`
}

// CursorEvent carries the cursor's position/visibility/style.
type CursorEvent struct {
	Row     int    `cbor:"row"`
	Col     int    `cbor:"col"`
	Visible bool   `cbor:"visible"`
	Style   string `cbor:"style"` // "block", "underline", "bar"
	Blink   bool   `cbor:"blink"`
}

// RedrawEvent is a tagged union over the event kinds above; exactly one of
// the typed fields is populated, matching Kind.
type RedrawEvent struct {
	Kind   EventKind    `cbor:"kind"`
	Style  *StyleEvent  `cbor:"style,omitempty"`
	Row    *RowEvent    `cbor:"row_event,omitempty"`
	Cursor *CursorEvent `cbor:"cursor,omitempty"`
	Title  string       `cbor:"title,omitempty"`
	CWD    string       `cbor:"cwd,omitempty"`
	MouseShape string   `cbor:"mouse_shape,omitempty"`
}

// RedrawParams is the params payload of a redraw notification: `[pty_id,
// events...]`.
type RedrawParams struct {
	PTYID  int           `cbor:"pty_id"`
	Events []RedrawEvent `cbor:"events"`
}
