// Package render implements the client side of spec §4.6: a per-PTY
// Surface that mirrors the server's Screen Engine by replaying
// proto.RedrawEvent notifications into a local grid, a frame-rate-capped
// paint loop that walks a uihost.LaidOut tree and draws cells into a
// terminal, and the dim-for-focus color math used to de-emphasize
// unfocused surfaces.
//
// Grounded on elleryfamilia-thicc's internal/terminal/vt_render.go (the
// only pack example that paints a VT-derived grid into a real terminal
// screen): its glyphToTcellStyle attribute-bit convention, its
// full-content-area-every-frame redraw discipline (avoids stale-cell
// artifacts from partial repaints), and its rgbTo256Color fallback for
// non-true-color terminals.
package render

import "github.com/rockorager/prise/internal/proto"

// Cell is one paintable grid cell.
type Cell struct {
	Ch    rune
	Style proto.SGR
}

var blankCell = Cell{Ch: ' '}

// Surface mirrors one PTY's on-screen grid, kept current by replaying the
// redraw notifications the daemon emits for it (§4.4/§4.6). It holds no
// RPC or widget-tree knowledge; the render Painter reads it by (x, y).
type Surface struct {
	cols, rows int
	grid       [][]Cell

	cursor    proto.CursorEvent
	cursorSet bool
	title     string
	cwd       string
	mouseShape string

	dirty bool
}

// NewSurface allocates a blank cols x rows surface.
func NewSurface(cols, rows int) *Surface {
	s := &Surface{}
	s.Resize(cols, rows)
	return s
}

// Resize changes the surface's dimensions, preserving overlapping cell
// content and blanking anything newly exposed. A full server-side resize
// is always followed by a full-row redraw (Screen Engine's FullRedraw), so
// preservation here is just to avoid a visibly blank frame in the gap.
func (s *Surface) Resize(cols, rows int) {
	grid := make([][]Cell, rows)
	for y := 0; y < rows; y++ {
		row := make([]Cell, cols)
		for x := range row {
			row[x] = blankCell
		}
		if y < len(s.grid) {
			old := s.grid[y]
			for x := 0; x < cols && x < len(old); x++ {
				row[x] = old[x]
			}
		}
		grid[y] = row
	}
	s.grid = grid
	s.cols, s.rows = cols, rows
	s.dirty = true
}

// Size reports the surface's current dimensions.
func (s *Surface) Size() (cols, rows int) {
	return s.cols, s.rows
}

// Cell returns the glyph at (x, y), or a blank cell if out of range.
func (s *Surface) Cell(x, y int) Cell {
	if y < 0 || y >= len(s.grid) || x < 0 || x >= s.cols {
		return blankCell
	}
	return s.grid[y][x]
}

// Cursor reports the last-known cursor state and whether one has ever
// been reported for this surface.
func (s *Surface) Cursor() (proto.CursorEvent, bool) {
	return s.cursor, s.cursorSet
}

// Title reports the last OSC-reported title.
func (s *Surface) Title() string { return s.title }

// CWD reports the last shell-integration-reported working directory.
func (s *Surface) CWD() string { return s.cwd }

// MouseShape reports the last requested mouse pointer shape.
func (s *Surface) MouseShape() string { return s.mouseShape }

// TakeDirty reports whether the surface changed since the last call and
// clears the flag, for the paint loop's "did anything change" check.
func (s *Surface) TakeDirty() bool {
	d := s.dirty
	s.dirty = false
	return d
}

// Apply replays one redraw notification's events against the grid, in
// order, per §4.4's event sequence (style table, then rows, then
// cursor/title/cwd/mouse-shape, terminated by flush). Style IDs are local
// to this call: a RowEvent referencing an ID not introduced by a preceding
// StyleEvent in this same slice is a protocol violation (§7 "Redraw
// application fails (style ID out of range) -> discard the offending
// event, continue frame, log") handled by logFn, which may be nil.
func (s *Surface) Apply(events []proto.RedrawEvent, logFn func(string)) {
	styles := make(map[int]proto.SGR)
	for _, ev := range events {
		switch ev.Kind {
		case proto.EventStyle:
			if ev.Style == nil {
				continue
			}
			for id, sgr := range ev.Style.Styles {
				styles[id] = sgr
			}
		case proto.EventRow:
			if ev.Row == nil {
				continue
			}
			s.applyRow(*ev.Row, styles, logFn)
		case proto.EventCursor:
			if ev.Cursor == nil {
				continue
			}
			s.cursor = *ev.Cursor
			s.cursorSet = true
			s.dirty = true
		case proto.EventTitle:
			s.title = ev.Title
			s.dirty = true
		case proto.EventCWD:
			s.cwd = ev.CWD
			s.dirty = true
		case proto.EventMouseShape:
			s.mouseShape = ev.MouseShape
			s.dirty = true
		case proto.EventFlush:
			// Boundary marker only; nothing to apply.
		default:
			if logFn != nil {
				logFn("render: unknown redraw event kind " + string(ev.Kind))
			}
		}
	}
}

func (s *Surface) applyRow(re proto.RowEvent, styles map[int]proto.SGR, logFn func(string)) {
	if re.Row < 0 || re.Row >= len(s.grid) {
		if logFn != nil {
			logFn("render: row event out of range, discarded")
		}
		return
	}
	for _, run := range re.Runs {
		if _, ok := styles[run.StyleID]; !ok {
			if logFn != nil {
				logFn("render: style id out of range, row event discarded")
			}
			return
		}
	}
	row := s.grid[re.Row]
	x := 0
	for _, run := range re.Runs {
		sgr := styles[run.StyleID]
		for _, r := range run.Text {
			if x >= len(row) {
				break
			}
			row[x] = Cell{Ch: r, Style: sgr}
			x++
		}
	}
	for ; x < len(row); x++ {
		row[x] = blankCell
	}
	s.dirty = true
}
