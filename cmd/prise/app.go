package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/micro-editor/tcell/v2"

	"github.com/rockorager/prise/internal/clipboard"
	"github.com/rockorager/prise/internal/config"
	"github.com/rockorager/prise/internal/input"
	"github.com/rockorager/prise/internal/persistence"
	"github.com/rockorager/prise/internal/proto"
	"github.com/rockorager/prise/internal/render"
	"github.com/rockorager/prise/internal/rpcclient"
	"github.com/rockorager/prise/internal/uihost"
)

// cellPxW/cellPxH stand in for the device-pixel cell size §4.7's mouse
// path expects; tcell only reports cell coordinates, so the app fabricates
// pixel coordinates at these nominal dimensions and the Router immediately
// divides back by the same numbers (see internal/input/router.go's
// default cellPxW/cellPxH, which this matches).
const cellPxW, cellPxH = 8, 16

// effectsShim breaks the construction cycle between uihost.Host (which
// needs an Effects at construction), input.Router (which needs the Host),
// and input.ClientEffects (which needs the Router): the shim is handed to
// NewHost first, empty, and wired to a real *ClientEffects once the
// Router exists. Lua only ever sees the shim's interface value, so the
// late assignment is invisible to the script.
type effectsShim struct {
	ce *input.ClientEffects
}

func (s *effectsShim) RequestFrame()                                { s.ce.RequestFrame() }
func (s *effectsShim) Spawn(rows, cols int, cwd string) (int, error) { return s.ce.Spawn(rows, cols, cwd) }
func (s *effectsShim) Detach(name string) error                      { return s.ce.Detach(name) }
func (s *effectsShim) Save(name string) error                        { return s.ce.Save(name) }
func (s *effectsShim) RenameSession(old, new string) error           { return s.ce.RenameSession(old, new) }
func (s *effectsShim) SwitchSession(name string) error                { return s.ce.SwitchSession(name) }
func (s *effectsShim) ListSessions() ([]string, error)                { return s.ce.ListSessions() }
func (s *effectsShim) Exit(code int)                                  { s.ce.Exit(code) }
func (s *effectsShim) SetTimeout(d time.Duration, id int) func()      { return s.ce.SetTimeout(d, id) }
func (s *effectsShim) CreateTextInput() string                        { return s.ce.CreateTextInput() }
func (s *effectsShim) Log(msg string)                                 { s.ce.Log(msg) }

var _ uihost.Effects = (*effectsShim)(nil)

// app is the client's runtime: a tcell screen, an RPC connection, the
// input Router/UI Host stack, and the per-PTY Surfaces the Painter reads
// from. It implements rpcclient.Handler (redraw/pty_exited notifications)
// and input.Applier (a freshly produced widget tree from the UI).
type app struct {
	screen tcell.Screen
	client *rpcclient.Client
	router *input.Router
	host   *uihost.Host
	ce     *input.ClientEffects
	clip   *clipboard.System

	painter  *render.Painter
	surfaces map[int]*render.Surface

	clock *render.FrameClock

	tree    *uihost.Widget
	laidOut *uihost.LaidOut

	exitCode chan int
}

func newApp(screen tcell.Screen, client *rpcclient.Client, script string, store *persistence.Store, clip *clipboard.System, cfg config.Config) (*app, error) {
	a := &app{
		screen:   screen,
		client:   client,
		clip:     clip,
		surfaces: make(map[int]*render.Surface),
		clock:    render.NewFrameClock(cfg.MinFrameInterval()),
		exitCode: make(chan int, 1),
	}
	a.painter = &render.Painter{Surfaces: a.surfaces, DimFactor: 0.4}

	shim := &effectsShim{}
	host, err := uihost.NewHost(script, shim)
	if err != nil {
		return nil, fmt.Errorf("cmd/prise: loading UI script: %w", err)
	}
	a.host = host

	router := input.NewRouter(client, host, a)
	ce := input.NewClientEffects(router, store)
	ce.OnExit = func(code int) {
		select {
		case a.exitCode <- code:
		default:
		}
	}
	ce.OnLog = func(msg string) { log.Println("ui:", msg) }
	ce.OnTimeout = func(id int) {
		if err := router.HandleTick(id); err != nil {
			log.Printf("prise: tick %d: %v", id, err)
		}
	}
	shim.ce = ce
	a.router = router
	a.ce = ce

	return a, nil
}

// switchSession restores a persisted session in place of whatever the UI
// script's own bootstrap produced (§4.8's reattach path).
func (a *app) switchSession(name string) error {
	return a.ce.SwitchSession(name)
}

// Apply implements input.Applier: stash the tree, relayout against the
// current screen size, and paint.
func (a *app) Apply(tree *uihost.Widget) {
	a.tree = tree
	a.relayout()
}

func (a *app) relayout() *uihost.LaidOut {
	if a.tree == nil {
		return nil
	}
	w, h := a.screen.Size()
	lo := uihost.Layout(a.tree, uihost.Constraints{MinW: w, MaxW: w, MinH: h, MaxH: h})
	a.laidOut = lo
	a.router.SetLayout(a.tree, lo)
	a.syncSurfaces(lo)
	a.clock.RequestFrame(a.paint)
	return lo
}

// syncSurfaces keeps a.surfaces sized to whatever the layout currently
// allocates each PTY, independent of the RPC resize_pty the Router itself
// sends — the local Surface mirrors the server's idea of the PTY's size,
// which only changes once resize_pty round-trips, but must never be
// smaller than what the Painter is about to draw into.
func (a *app) syncSurfaces(lo *uihost.LaidOut) {
	regions, _ := uihost.Collect(lo)
	for _, r := range regions {
		if !r.Surface || r.Rect.W <= 0 || r.Rect.H <= 0 {
			continue
		}
		surf, ok := a.surfaces[r.PTYID]
		if !ok {
			surf = render.NewSurface(r.Rect.W, r.Rect.H)
			a.surfaces[r.PTYID] = surf
			continue
		}
		if cols, rows := surf.Size(); cols != r.Rect.W || rows != r.Rect.H {
			surf.Resize(r.Rect.W, r.Rect.H)
		}
	}
}

func (a *app) paint() {
	a.painter.FocusedPTY = a.router.Focused()
	a.screen.Clear()
	if a.laidOut != nil {
		a.painter.Paint(a.screen, a.laidOut)
	}
	a.screen.Show()
}

// HandleNotification implements rpcclient.Handler for the two S->C
// methods of §6: redraw applies to the addressed Surface, pty_exited
// just logs (the widget tree still shows the pane; §7 leaves exit
// presentation to the UI, which this minimal default script doesn't act
// on beyond what the next redraw/key event already does).
func (a *app) HandleNotification(method string, params []byte) {
	switch method {
	case proto.MethodRedraw:
		var p proto.RedrawParams
		if err := cbor.Unmarshal(params, &p); err != nil {
			log.Printf("prise: decode redraw: %v", err)
			return
		}
		surf, ok := a.surfaces[p.PTYID]
		if !ok {
			return
		}
		surf.Apply(p.Events, func(msg string) { log.Println("render:", msg) })
		a.clock.RequestFrame(a.paint)
	case proto.MethodPTYExited:
		var p proto.PTYExitedParams
		if err := cbor.Unmarshal(params, &p); err != nil {
			log.Printf("prise: decode pty_exited: %v", err)
			return
		}
		log.Printf("prise: pty %d exited (status %d)", p.PTYID, p.Status)
	}
}

// bootstrap fires a synthetic tick so the UI script's update() runs once
// before any real input arrives, establishing the first widget tree (and,
// per the default script, spawning its first PTY) the way a live key or
// resize event would have.
func (a *app) bootstrap(ctx context.Context) error {
	return a.router.HandleTick(0)
}

func (a *app) handleResize(w, h int) error {
	relayout := func(rows, cols int) *uihost.LaidOut {
		lo := uihost.Layout(a.tree, uihost.Constraints{MinW: cols, MaxW: cols, MinH: rows, MaxH: rows})
		a.laidOut = lo
		a.syncSurfaces(lo)
		return lo
	}
	err := a.router.HandleWinsize(context.Background(), h, w, cellPxW, cellPxH, relayout)
	a.clock.RequestFrame(a.paint)
	return err
}

func (a *app) pasteFromClipboard(ctx context.Context) {
	if a.clip == nil {
		return
	}
	text, err := a.clip.Paste(clipboard.DefaultRegister)
	if err != nil {
		log.Printf("prise: clipboard paste: %v", err)
		return
	}
	if text == "" || a.router.Focused() == 0 {
		return
	}
	if err := a.client.Paste(ctx, a.router.Focused(), []byte(text)); err != nil {
		log.Printf("prise: paste: %v", err)
	}
}
