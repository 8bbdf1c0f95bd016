// Package session implements the Session Manager of spec §4.5: the
// pty_id → PTY Worker table, per-PTY attach sets, redraw fan-out through
// per-client merge queues, and backpressure.
//
// Grounded on GandalftheGUI-grove's daemon.go (mutex-protected map keyed by
// ID, a getInstance lookup helper, request handlers that validate state
// before acting) generalized from grove's single-attached-client model to
// the spec's multi-client attach sets, and from grove's reused small-ID
// allocator to a monotonically increasing counter — spec §3 requires PTY
// IDs never be reused within the server's lifetime, a stronger guarantee
// than grove needs for its own short-lived instance IDs.
package session

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/rockorager/prise/internal/ioloop"
	"github.com/rockorager/prise/internal/proto"
	"github.com/rockorager/prise/internal/ptyworker"
	"github.com/rockorager/prise/internal/screen"
)

// ClientID identifies one attached client connection.
type ClientID uint64

// Sink is how the Session Manager hands events back out to a client's
// transport connection. Implemented by the rpcserver connection type.
type Sink interface {
	// QueueRedraw is called with newly merged-in events for ptyID; the
	// sink decides when to actually write them (its own socket-writable
	// scheduling), which is also where it tracks queued-byte backpressure.
	QueueRedraw(ptyID ptyworker.ID, events []proto.RedrawEvent)
	// Notify delivers a bare notification (e.g. pty_exited) to the client.
	Notify(method string, params any)
}

// Config tunes the manager's defaults, overridable via internal/config.
type Config struct {
	Shell           string
	DefaultRows     int
	DefaultCols     int
	HighWaterBytes  int
	LowWaterBytes   int
	ReapTimeout     time.Duration
	DisconnectAfter time.Duration
}

func (c Config) withDefaults() Config {
	if c.Shell == "" {
		c.Shell = "/bin/sh"
	}
	if c.DefaultRows == 0 {
		c.DefaultRows = 24
	}
	if c.DefaultCols == 0 {
		c.DefaultCols = 80
	}
	if c.HighWaterBytes == 0 {
		c.HighWaterBytes = 1 << 20
	}
	if c.LowWaterBytes == 0 {
		c.LowWaterBytes = c.HighWaterBytes / 4
	}
	if c.ReapTimeout == 0 {
		c.ReapTimeout = 30 * time.Second
	}
	if c.DisconnectAfter == 0 {
		c.DisconnectAfter = 5 * time.Second
	}
	return c
}

type clientAttach struct {
	sink    Sink
	pending *pendingQueue
	paused  bool
}

type ptyEntry struct {
	id     ptyworker.ID
	worker *ptyworker.Worker
	engine *screen.Engine

	mu        sync.Mutex
	attached  map[ClientID]*clientAttach
	exited    bool
	status    ptyworker.ExitStatus
	reapTimer *time.Timer
}

// Manager is the Session Manager: the single owner of every PTY's
// lifecycle and attach bookkeeping for one daemon process.
type Manager struct {
	loop *ioloop.Loop
	cfg  Config

	mu     sync.Mutex
	nextID ptyworker.ID
	ptys   map[ptyworker.ID]*ptyEntry
}

// New creates a Manager driving PTY I/O through loop.
func New(loop *ioloop.Loop, cfg Config) *Manager {
	return &Manager{
		loop: loop,
		cfg:  cfg.withDefaults(),
		ptys: make(map[ptyworker.ID]*ptyEntry),
	}
}

// SpawnPTY implements spawn_pty (§4.5): opens a PTY, starts the configured
// shell, allocates the next ID, and optionally attaches requester.
func (m *Manager) SpawnPTY(requester ClientID, sink Sink, rows, cols int, cwd string, attach bool) (ptyworker.ID, error) {
	if rows <= 0 {
		rows = m.cfg.DefaultRows
	}
	if cols <= 0 {
		cols = m.cfg.DefaultCols
	}

	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.mu.Unlock()

	entry := &ptyEntry{id: id, attached: make(map[ClientID]*clientAttach)}

	worker, err := ptyworker.Spawn(m.loop, id, ptyworker.Config{
		Shell: m.cfg.Shell,
		CWD:   cwd,
		Rows:  uint16(rows),
		Cols:  uint16(cols),
	}, func(chunk []byte) {
		m.onOutput(entry, chunk)
	}, func(status ptyworker.ExitStatus) {
		m.onExit(entry, status)
	})
	if err != nil {
		return 0, err
	}
	entry.worker = worker
	entry.engine = screen.New(cols, rows, writerFunc(func(p []byte) (int, error) {
		worker.Write(p)
		return len(p), nil
	}))

	m.mu.Lock()
	m.ptys[id] = entry
	m.mu.Unlock()

	if attach {
		m.attachLocked(entry, requester, sink)
	}

	return id, nil
}

type writerFunc func([]byte) (int, error)

func (w writerFunc) Write(p []byte) (int, error) { return w(p) }

// AttachPTY implements attach_pty (§4.5): adds the client to the attach set
// and schedules a full redraw so the new client sees the current screen.
func (m *Manager) AttachPTY(id ptyworker.ID, client ClientID, sink Sink) error {
	entry := m.lookup(id)
	if entry == nil {
		return unknownPTY(id)
	}
	m.attachLocked(entry, client, sink)
	return nil
}

func (m *Manager) attachLocked(entry *ptyEntry, client ClientID, sink Sink) {
	entry.mu.Lock()
	entry.attached[client] = &clientAttach{sink: sink, pending: newPendingQueue()}
	events := entry.engine.FullRedraw()
	entry.mu.Unlock()

	m.deliver(entry, client, events)
}

// DetachPTYs implements detach_ptys (§4.5): idempotent, unknown PTYs
// silently skipped.
func (m *Manager) DetachPTYs(ids []ptyworker.ID, client ClientID) {
	for _, id := range ids {
		entry := m.lookup(id)
		if entry == nil {
			continue
		}
		entry.mu.Lock()
		delete(entry.attached, client)
		empty := len(entry.attached) == 0
		entry.mu.Unlock()
		if empty {
			m.maybeArmReap(entry)
		}
	}
}

// DisconnectClient removes client from every PTY's attach set, as if it had
// sent detach_ptys for all of them (§4.5 "client disconnect").
func (m *Manager) DisconnectClient(client ClientID) {
	m.mu.Lock()
	ids := make([]ptyworker.ID, 0, len(m.ptys))
	for id := range m.ptys {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	m.DetachPTYs(ids, client)
}

// ResizePTY implements resize_pty (§4.5 and the resize policy decision in
// DESIGN.md): rows/cols here are already the caller's chosen target (the rpcserver computes the smallest-common-rectangle
// across attached clients before calling this).
func (m *Manager) ResizePTY(id ptyworker.ID, rows, cols int) error {
	entry := m.lookup(id)
	if entry == nil {
		return unknownPTY(id)
	}
	if err := entry.worker.Resize(uint16(rows), uint16(cols)); err != nil {
		return proto.NewErrnoError(proto.ErrKindWriteFailed, "resize failed", 0)
	}
	entry.mu.Lock()
	events := entry.engine.Resize(cols, rows)
	clients := make([]ClientID, 0, len(entry.attached))
	for c := range entry.attached {
		clients = append(clients, c)
	}
	entry.mu.Unlock()

	for _, c := range clients {
		m.deliver(entry, c, events)
	}
	return nil
}

// ClosePTY implements close_pty (§4.5) through ptyworker.Worker.Close:
// SIGHUP then SIGKILL to the child's process group, and the master is
// closed at once. Output still unread in the master is not drained.
func (m *Manager) ClosePTY(id ptyworker.ID) error {
	entry := m.lookup(id)
	if entry == nil {
		return unknownPTY(id)
	}
	return entry.worker.Close()
}

// KeyInput implements key_input (§4.5): translates the key descriptor using
// the PTY's current keyboard mode and writes it to the master.
func (m *Manager) KeyInput(id ptyworker.ID, key proto.KeyDescriptor) error {
	entry := m.lookup(id)
	if entry == nil {
		return unknownPTY(id)
	}
	seq := encodeKey(key, entry.engine.KittyFlags())
	if len(seq) > 0 {
		entry.worker.Write(seq)
	}
	return nil
}

// MouseInput implements mouse_input (§4.5).
func (m *Manager) MouseInput(id ptyworker.ID, md proto.MouseDescriptor) error {
	entry := m.lookup(id)
	if entry == nil {
		return unknownPTY(id)
	}
	mode, format := entry.engine.MouseMode()
	seq := encodeMouse(md, mode, format)
	if len(seq) > 0 {
		entry.worker.Write(seq)
	}
	return nil
}

// Paste implements paste (§4.5): wraps bytes in bracketed-paste markers if
// the mode is set.
func (m *Manager) Paste(id ptyworker.ID, data []byte) error {
	entry := m.lookup(id)
	if entry == nil {
		return unknownPTY(id)
	}
	entry.worker.Write(bracketPaste(data, entry.engine.BracketedPaste()))
	return nil
}

// Throttle and Unthrottle implement the backpressure policy of §4.5: a
// transport calls Throttle once a client's queued output crosses the high
// water mark, which pauses every PTY worker that client is attached to.
func (m *Manager) Throttle(client ClientID) {
	m.forEachAttached(client, func(e *ptyEntry) { e.worker.Pause() })
}

func (m *Manager) Unthrottle(client ClientID) {
	m.forEachAttached(client, func(e *ptyEntry) { e.worker.Resume() })
}

func (m *Manager) forEachAttached(client ClientID, fn func(*ptyEntry)) {
	m.mu.Lock()
	entries := make([]*ptyEntry, 0, len(m.ptys))
	for _, e := range m.ptys {
		entries = append(entries, e)
	}
	m.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		_, ok := e.attached[client]
		e.mu.Unlock()
		if ok {
			fn(e)
		}
	}
}

func (m *Manager) lookup(id ptyworker.ID) *ptyEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ptys[id]
}

func (m *Manager) onOutput(entry *ptyEntry, chunk []byte) {
	entry.mu.Lock()
	events := entry.engine.Feed(chunk)
	clients := make([]ClientID, 0, len(entry.attached))
	for c := range entry.attached {
		clients = append(clients, c)
	}
	entry.mu.Unlock()

	for _, c := range clients {
		m.deliver(entry, c, events)
	}
}

// deliver merges events into client's pending queue and hands the merged
// result to its sink (§4.5 "Redraw fan-out with coalescing"). The queue is
// drained on every call, so each call's events go to the sink at once as
// one batch; events are not held back and merged while a client's socket
// is busy.
func (m *Manager) deliver(entry *ptyEntry, client ClientID, events []proto.RedrawEvent) {
	entry.mu.Lock()
	ca, ok := entry.attached[client]
	if !ok {
		entry.mu.Unlock()
		return
	}
	ca.pending.merge(events)
	drained := ca.pending.drain()
	sink := ca.sink
	entry.mu.Unlock()

	if len(drained) > 0 {
		sink.QueueRedraw(entry.id, drained)
	}
}

func (m *Manager) onExit(entry *ptyEntry, status ptyworker.ExitStatus) {
	entry.mu.Lock()
	entry.exited = true
	entry.status = status
	clients := make([]ClientID, 0, len(entry.attached))
	for c := range entry.attached {
		clients = append(clients, c)
	}
	entry.mu.Unlock()

	exitCode := status.Code
	for _, c := range clients {
		entry.mu.Lock()
		sink := entry.attached[c].sink
		entry.mu.Unlock()
		sink.Notify(proto.MethodPTYExited, proto.PTYExitedParams{PTYID: int(entry.id), Status: exitCode})
	}

	m.maybeArmReap(entry)
}

// maybeArmReap starts (or restarts) the reap-timeout grace period once a
// PTY has no attached clients, per §4.3/§8: "keep PTY entry alive until
// reap timeout... to allow late reattach to see final output."
func (m *Manager) maybeArmReap(entry *ptyEntry) {
	entry.mu.Lock()
	empty := len(entry.attached) == 0
	exited := entry.exited
	if entry.reapTimer != nil {
		entry.reapTimer.Stop()
		entry.reapTimer = nil
	}
	if empty && exited {
		entry.reapTimer = time.AfterFunc(m.cfg.ReapTimeout, func() { m.reap(entry.id) })
	}
	entry.mu.Unlock()
}

func (m *Manager) reap(id ptyworker.ID) {
	m.mu.Lock()
	entry, ok := m.ptys[id]
	if ok {
		delete(m.ptys, id)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	if err := entry.worker.Close(); err != nil {
		log.Printf("session: reap pty %d: %v", id, err)
	}
}

func unknownPTY(id ptyworker.ID) error {
	return proto.NewError(proto.ErrKindUnknownPTY, fmt.Sprintf("no such pty: %d", id))
}
