// Package screen implements the Screen Engine & Redraw Pipeline of spec
// §4.4: it wraps a third-party VT interpreter (hinshun/vt10x), tracks which
// rows a write touched, and emits a RedrawParams event sequence terminated
// by a flush sentinel.
//
// vt10x mutates an internal grid on Write and exposes no per-write dirty
// callback (confirmed against every example in the retrieval pack that
// uses it) — dirty tracking here is a before/after row-snapshot diff, the
// same technique elleryfamilia-thicc's Panel uses for its own scroll
// detection, generalized from "did this row scroll" to "did this row
// change at all".
package screen

import (
	"sync"

	"github.com/hinshun/vt10x"

	"github.com/rockorager/prise/internal/proto"
)

// Engine owns one VT interpreter instance for one PTY.
type Engine struct {
	mu sync.Mutex

	vt   vt10x.Terminal
	cols int
	rows int

	prev        [][]vt10x.Glyph
	prevAlt     bool
	prevCursor  vt10x.Cursor
	prevVisible bool
	dirtyRows   map[int]bool
	globalDirty bool

	title string
	cwd   string

	titleChanged bool
	cwdChanged   bool

	modes modeState
}

// New creates a Screen Engine sized cols x rows. w receives bytes the VT
// interpreter writes back to the child (DSR/CPR query responses, §4.4
// "OSC query handling").
func New(cols, rows int, w interface {
	Write(p []byte) (int, error)
}) *Engine {
	vt := vt10x.New(vt10x.WithSize(cols, rows), vt10x.WithWriter(w))
	e := &Engine{
		vt:        vt,
		cols:      cols,
		rows:      rows,
		dirtyRows: make(map[int]bool),
	}
	e.snapshotPrev()
	e.prevCursor = vt.Cursor()
	e.prevVisible = vt.CursorVisible()
	return e
}

func (e *Engine) snapshotPrev() {
	cols, rows := e.vt.Size()
	e.prev = make([][]vt10x.Glyph, rows)
	for y := 0; y < rows; y++ {
		row := make([]vt10x.Glyph, cols)
		for x := 0; x < cols; x++ {
			row[x] = e.vt.Cell(x, y)
		}
		e.prev[y] = row
	}
}

// Feed writes PTY output into the interpreter and returns the redraw
// events produced, terminated by a flush event. The end of one Feed call
// is treated as the flush boundary (§4.4: "end-of-input-chunk if
// interpreter doesn't signal flush" — vt10x signals no flush of its own).
func (e *Engine) Feed(data []byte) []proto.RedrawEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	scanShellIntegration(data, &e.title, &e.cwd, &e.titleChanged, &e.cwdChanged)
	scanModes(data, &e.modes)

	before := e.prev
	altBefore := e.vt.Mode()&vt10x.ModeAltScreen != 0

	e.vt.Write(data)

	altAfter := e.vt.Mode()&vt10x.ModeAltScreen != 0
	if altAfter != altBefore {
		// Switching screens changes everything on display.
		e.globalDirty = true
	}

	cols, rows := e.vt.Size()
	for y := 0; y < rows; y++ {
		var oldRow []vt10x.Glyph
		if y < len(before) {
			oldRow = before[y]
		}
		if !rowsEqual(oldRow, e.vt, y, cols) {
			e.dirtyRows[y] = true
		}
	}
	e.snapshotPrev()

	return e.flush()
}

func rowsEqual(old []vt10x.Glyph, vt vt10x.Terminal, y, cols int) bool {
	if len(old) != cols {
		return false
	}
	for x := 0; x < cols; x++ {
		g := vt.Cell(x, y)
		o := old[x]
		if g.Char != o.Char || g.Mode != o.Mode || g.FG != o.FG || g.BG != o.BG {
			return false
		}
	}
	return true
}

// Resize changes the interpreter's dimensions and forces a full redraw.
func (e *Engine) Resize(cols, rows int) []proto.RedrawEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.vt.Resize(cols, rows)
	e.cols, e.rows = cols, rows
	e.globalDirty = true
	e.snapshotPrev()
	return e.flush()
}

// FullRedraw forces every row to be considered dirty, used when a new
// client attaches to an already-running PTY (§4.5 attach_pty).
func (e *Engine) FullRedraw() []proto.RedrawEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.globalDirty = true
	return e.flush()
}

// Size returns the interpreter's current dimensions.
func (e *Engine) Size() (cols, rows int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vt.Size()
}

// MouseMode reports the currently active mouse report mode/format.
func (e *Engine) MouseMode() (MouseReportMode, MouseReportFormat) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.modes.mouseMode, e.modes.mouseFormat
}

// BracketedPaste reports whether bracketed-paste mode is active.
func (e *Engine) BracketedPaste() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.modes.bracketed
}

// KittyFlags reports the top of the kitty keyboard protocol's flag stack,
// or 0 if the stack is empty (legacy keyboard mode).
func (e *Engine) KittyFlags() KittyFlags {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.modes.currentKitty()
}

// flush assembles pending dirty state into the ordered event sequence
// (style, rows, cursor, title/cwd, flush) and clears it. Caller holds mu.
func (e *Engine) flush() []proto.RedrawEvent {
	cols, rows := e.vt.Size()

	dirty := e.dirtyRows
	if e.globalDirty {
		dirty = make(map[int]bool, rows)
		for y := 0; y < rows; y++ {
			dirty[y] = true
		}
	}
	e.dirtyRows = make(map[int]bool)
	e.globalDirty = false

	var events []proto.RedrawEvent

	styles := make(map[sgrKey]int)
	var nextID int
	assignStyle := func(g vt10x.Glyph) int {
		k := sgrKeyOf(g)
		if id, ok := styles[k]; ok {
			return id
		}
		id := nextID
		nextID++
		styles[k] = id
		return id
	}

	rowEvents := make([]proto.RowEvent, 0, len(dirty))
	for y := 0; y < rows; y++ {
		if !dirty[y] {
			continue
		}
		runs := rowToRuns(e.vt, y, cols, assignStyle)
		rowEvents = append(rowEvents, proto.RowEvent{Row: y, Runs: runs})
	}

	if len(styles) > 0 {
		sgrByID := make(map[int]proto.SGR, len(styles))
		for k, id := range styles {
			sgrByID[id] = k.toSGR()
		}
		events = append(events, proto.RedrawEvent{Kind: proto.EventStyle, Style: &proto.StyleEvent{Styles: sgrByID}})
	}

	for _, re := range rowEvents {
		row := re
		events = append(events, proto.RedrawEvent{Kind: proto.EventRow, Row: &row})
	}

	cur := e.vt.Cursor()
	vis := e.vt.CursorVisible()
	if cur != e.prevCursor || vis != e.prevVisible || len(rowEvents) > 0 {
		e.prevCursor = cur
		e.prevVisible = vis
		events = append(events, proto.RedrawEvent{
			Kind: proto.EventCursor,
			Cursor: &proto.CursorEvent{
				Row:     cur.Y,
				Col:     cur.X,
				Visible: vis,
				Style:   "block",
			},
		})
	}

	if e.titleChanged {
		e.titleChanged = false
		events = append(events, proto.RedrawEvent{Kind: proto.EventTitle, Title: e.title})
	}
	if e.cwdChanged {
		e.cwdChanged = false
		events = append(events, proto.RedrawEvent{Kind: proto.EventCWD, CWD: e.cwd})
	}

	events = append(events, proto.RedrawEvent{Kind: proto.EventFlush})
	return events
}

func rowToRuns(vt vt10x.Terminal, y, cols int, assignStyle func(vt10x.Glyph) int) []proto.StyleRun {
	var runs []proto.StyleRun
	var curID = -1
	var text []rune
	flush := func() {
		if curID >= 0 {
			runs = append(runs, proto.StyleRun{StyleID: curID, Text: string(text)})
		}
		text = text[:0]
	}
	for x := 0; x < cols; x++ {
		g := vt.Cell(x, y)
		id := assignStyle(g)
		if id != curID {
			flush()
			curID = id
		}
		ch := g.Char
		if ch == 0 {
			ch = ' '
		}
		text = append(text, ch)
	}
	flush()
	return runs
}
