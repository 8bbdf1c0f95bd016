// Package input implements the Client Input Router of spec §4.7: it turns
// parsed keyboard/mouse/winsize events into either a call into the UI's
// update(event) function, an RPC notification targeting a PTY, or (for a
// split-handle drag) a local ratio edit that triggers a relayout.
//
// Grounded on GandalftheGUI-grove's cmd/grove/main.go doAttach, the
// teacher's only input-routing code: a raw-mode stdin reader forwarding
// bytes to the daemon, a SIGWINCH handler resubmitting the terminal size,
// and a dedicated detach sentinel byte. This package generalizes that
// single-PTY byte-forwarding loop into event-typed, hit-tested,
// multi-surface routing, since prise's client can have many PTYs on
// screen at once where grove's attach loop only ever had one.
package input

import (
	"context"
	"math"

	"github.com/rockorager/prise/internal/proto"
	"github.com/rockorager/prise/internal/uihost"
)

// RPC is the slice of rpcclient.Client's typed methods the Router and
// ClientEffects need. Declared here, as an interface, rather than naming
// *rpcclient.Client directly, so tests can supply a fake without a real
// socket/daemon pair — *rpcclient.Client satisfies it structurally.
type RPC interface {
	KeyInput(ctx context.Context, ptyID int, key proto.KeyDescriptor) error
	MouseInput(ctx context.Context, ptyID int, mouse proto.MouseDescriptor) error
	ResizePTY(ctx context.Context, ptyID, rows, cols int) error
	SpawnPTY(ctx context.Context, rows, cols int, cwd string, attach bool) (int, error)
	AttachPTY(ctx context.Context, ptyID int) error
	DetachPTYs(ctx context.Context, ptyIDs []int) error
}

// RawMouseEvent is a mouse event in device pixels, as the terminal-input
// library/terminal protocol reports it, before the router's pixel-to-cell
// conversion (§4.7 "converts pixel mouse coordinates to fractional cell
// coordinates using the declared cell size").
type RawMouseEvent struct {
	PixelX, PixelY float64
	Button         int
	EventType      string // "down", "up", "move", "wheel"
	Shift, Ctrl, Alt bool
}

// Applier receives a freshly produced widget tree (from a UI update() call
// or a local split-handle drag) and is responsible for laying it out,
// painting it, and handing the new uihost.LaidOut back via SetLayout.
// Supplied by the client's main loop, which owns the terminal screen the
// Router has no reference to.
type Applier interface {
	Apply(tree *uihost.Widget)
}

// dragState tracks an in-progress split-handle drag (§4.7 "starts a drag —
// updates the parent row/column ratio on mouse.drag until mouse.up").
type dragState struct {
	handle     uihost.SplitHandle
	container  *uihost.Widget // the row/column widget owning the two children
	leftIdx    int
	rightIdx   int
	mainExtent int // total main-axis cells available to container, for delta->ratio conversion
	startPos   int // the handle's segment start, along its axis, when the drag began
	leftStart  float64
	rightStart float64
}

// Router is the client-side input dispatcher. It holds no terminal or
// socket of its own; callers feed it parsed events and it drives Client
// RPC calls and the UI Host.
type Router struct {
	client RPC
	host   *uihost.Host
	apply  Applier

	reserved map[string]bool

	tree    *uihost.Widget
	laidOut *uihost.LaidOut
	regions []uihost.HitRegion
	handles []uihost.SplitHandle

	cellPxW, cellPxH float64
	focusedPTY       int

	drag *dragState

	lastSize map[int]uihost.Size
}

// NewRouter builds a Router wired to client (for emitting notifications)
// and host (the UI's update(event) function), reporting to apply whenever
// a new widget tree is produced.
func NewRouter(client RPC, host *uihost.Host, apply Applier) *Router {
	r := &Router{
		client:   client,
		host:     host,
		apply:    apply,
		cellPxW:  8,
		cellPxH:  16,
		lastSize: make(map[int]uihost.Size),
	}
	r.refreshReserved()
	return r
}

func (r *Router) refreshReserved() {
	r.reserved = make(map[string]bool)
	for _, k := range r.host.ReservedKeys() {
		r.reserved[k] = true
	}
}

// SetLayout updates the router's view of the current widget tree and its
// laid-out hit regions/split handles, called by the client's main loop
// after every relayout (including the one Router itself triggers).
func (r *Router) SetLayout(tree *uihost.Widget, lo *uihost.LaidOut) {
	r.tree = tree
	r.laidOut = lo
	r.regions, r.handles = uihost.Collect(lo)
}

// SetFocus changes which PTY receives pass-through key input.
func (r *Router) SetFocus(ptyID int) {
	r.focusedPTY = ptyID
}

// Focused reports the currently focused PTY ID.
func (r *Router) Focused() int {
	return r.focusedPTY
}

// SetCellPixelSize records the terminal's current cell size in device
// pixels, used to convert mouse pixel coordinates to cell coordinates.
func (r *Router) SetCellPixelSize(w, h float64) {
	if w > 0 {
		r.cellPxW = w
	}
	if h > 0 {
		r.cellPxH = h
	}
}

func cellOf(px, cellPx float64) float64 {
	if cellPx <= 0 {
		return px
	}
	return px / cellPx
}

func floorInt(f float64) int {
	return int(math.Floor(f))
}
