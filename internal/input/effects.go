package input

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/rockorager/prise/internal/uihost"
)

// SessionStore is the persistence surface ClientEffects needs (§4.8):
// serialize/deserialize a named session's widget tree and PTY ID list.
// internal/persistence implements this; declared here (rather than
// imported from there) so internal/input has no dependency on it — the
// caller that assembles a ClientEffects supplies whichever store it
// likes.
type SessionStore interface {
	Save(name string, tree *uihost.Widget, ptyIDs []int) error
	Load(name string) (tree *uihost.Widget, ptyIDs []int, err error)
	Rename(oldName, newName string) error
	List() ([]string, error)
}

// ClientEffects implements uihost.Effects by driving an rpcclient.Client
// and a SessionStore — the concrete bridge between the UI's pure
// update(event) world and the RPC/filesystem world it is never allowed to
// touch directly (§1, §9).
type ClientEffects struct {
	router *Router
	store  SessionStore

	mu     sync.Mutex
	timers map[int]*time.Timer
	nextID int

	// OnExit is called by Exit; the default os.Exit behavior lives in
	// cmd/prise, not here, so tests can observe it without killing the
	// test process.
	OnExit func(code int)
	// OnLog is called by Log; defaults to the standard logger.
	OnLog func(msg string)
	// OnTimeout is called when a SetTimeout duration elapses, carrying the
	// id the UI script gave it; the caller is responsible for turning this
	// into an EventTick delivered through Router.HandleTick.
	OnTimeout func(id int)
}

// NewClientEffects builds a ClientEffects bound to router (for Spawn/
// Detach's PTY calls and the current tree) and store (for named session
// persistence).
func NewClientEffects(router *Router, store SessionStore) *ClientEffects {
	return &ClientEffects{router: router, store: store, timers: make(map[int]*time.Timer)}
}

func (e *ClientEffects) RequestFrame() {
	if e.router.tree != nil {
		e.router.apply.Apply(e.router.tree)
	}
}

func (e *ClientEffects) Spawn(rows, cols int, cwd string) (int, error) {
	return e.router.client.SpawnPTY(context.Background(), rows, cols, cwd, true)
}

func (e *ClientEffects) Detach(name string) error {
	ids := extractPTYIDs(e.router.tree)
	if err := e.store.Save(name, e.router.tree, ids); err != nil {
		return err
	}
	return e.router.client.DetachPTYs(context.Background(), ids)
}

func (e *ClientEffects) Save(name string) error {
	return e.store.Save(name, e.router.tree, extractPTYIDs(e.router.tree))
}

func (e *ClientEffects) RenameSession(oldName, newName string) error {
	return e.store.Rename(oldName, newName)
}

// SwitchSession loads name's persisted tree, re-attaches every PTY it
// references (skipping and logging any the daemon no longer has, per
// §4.8's "referenced PTY no longer exists -> skipped with a warning"), and
// applies the restored tree directly — the persisted JSON is the source
// of truth for the restored layout, not another round through update().
func (e *ClientEffects) SwitchSession(name string) error {
	tree, ids, err := e.store.Load(name)
	if err != nil {
		return err
	}
	ctx := context.Background()
	for _, id := range ids {
		if err := e.router.client.AttachPTY(ctx, id); err != nil {
			e.Log(fmt.Sprintf("switch_session %s: pty %d: %v", name, id, err))
		}
	}
	e.router.tree = tree
	e.router.apply.Apply(tree)
	return nil
}

func (e *ClientEffects) ListSessions() ([]string, error) {
	return e.store.List()
}

func (e *ClientEffects) Exit(code int) {
	if e.OnExit != nil {
		e.OnExit(code)
	}
}

// SetTimeout arms a one-shot timer; cancel stops it if it hasn't fired
// yet. Firing calls OnTimeout(id), if set.
func (e *ClientEffects) SetTimeout(d time.Duration, id int) func() {
	t := time.AfterFunc(d, func() {
		e.mu.Lock()
		delete(e.timers, id)
		e.mu.Unlock()
		if e.OnTimeout != nil {
			e.OnTimeout(id)
		}
	})
	e.mu.Lock()
	e.timers[id] = t
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		if existing, ok := e.timers[id]; ok {
			existing.Stop()
			delete(e.timers, id)
		}
		e.mu.Unlock()
	}
}

func (e *ClientEffects) CreateTextInput() string {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.mu.Unlock()
	return fmt.Sprintf("input-%d", id)
}

func (e *ClientEffects) Log(msg string) {
	if e.OnLog != nil {
		e.OnLog(msg)
		return
	}
	log.Println("ui:", msg)
}

// extractPTYIDs walks tree for every surface widget's PTY ID, the
// client-side half of §4.8's "the JSON MUST contain every pane node with
// its pty_id" — here read back off the live tree instead of parsed out
// of the JSON the UI itself serializes.
func extractPTYIDs(w *uihost.Widget) []int {
	if w == nil {
		return nil
	}
	var ids []int
	var walk func(*uihost.Widget)
	walk = func(w *uihost.Widget) {
		if w.Kind == uihost.KindSurface {
			ids = append(ids, w.PTYID)
		}
		for _, c := range w.Children {
			walk(c)
		}
	}
	walk(w)
	return ids
}
