// Package rpcserver implements the daemon side of the RPC wire protocol
// (§4.1, §6): one Conn per attached client, framed with
// internal/proto, dispatching requests/notifications to a Handler and
// applying the backpressure policy of §4.5.
//
// Socket I/O here deliberately does NOT go through internal/ioloop. A
// net.Conn's fd is already owned and scheduled by the Go runtime's netpoller
// (that's what makes net.Conn.Read/Write safe to call from any goroutine
// without blocking an OS thread); pulling its raw fd out to hand to our own
// epoll/kqueue backend would fight that registration rather than replace it.
// ioloop earns its keep on fds the runtime doesn't already manage — the PTY
// master in internal/ptyworker. This mirrors the teacher's own choice: grove
// uses a plain goroutine per accepted connection (daemon.go's handleConn)
// and a second goroutine for the long-lived Attach reader (instance.go), not
// a hand-rolled poller.
package rpcserver

import (
	"log"
	"net"
	"sync"
	"time"

	"github.com/rockorager/prise/internal/proto"
	"github.com/rockorager/prise/internal/ptyworker"
	"github.com/rockorager/prise/internal/session"
)

// Handler reacts to inbound requests and notifications.
type Handler interface {
	HandleRequest(c *Conn, req *proto.Request)
	HandleNotification(c *Conn, n *proto.Notification)
	OnDisconnect(c *Conn)
}

// Limits configures the backpressure policy (§4.5).
type Limits struct {
	HighWaterBytes  int
	LowWaterBytes   int
	DisconnectAfter time.Duration
}

func (l Limits) withDefaults() Limits {
	if l.HighWaterBytes == 0 {
		l.HighWaterBytes = 1 << 20
	}
	if l.LowWaterBytes == 0 {
		l.LowWaterBytes = l.HighWaterBytes / 4
	}
	if l.DisconnectAfter == 0 {
		l.DisconnectAfter = 5 * time.Second
	}
	return l
}

// Conn is one client connection.
type Conn struct {
	ID      session.ClientID
	nc      net.Conn
	handler Handler
	limits  Limits
	mgr     *session.Manager

	mu          sync.Mutex
	writeQ      [][]byte
	queuedBytes int
	throttled   bool
	overLimitAt time.Time
	closed      bool

	notifyID uint32
}

// Serve starts serving an accepted connection: it launches the connection's
// read loop in its own goroutine and returns the Conn at once. The
// connection is torn down when that read loop ends.
func Serve(nc net.Conn, id session.ClientID, handler Handler, mgr *session.Manager, limits Limits) *Conn {
	c := &Conn{
		ID:      id,
		nc:      nc,
		handler: handler,
		limits:  limits.withDefaults(),
		mgr:     mgr,
	}
	go c.readLoop()
	return c
}

// readLoop blocks reading frames until the connection closes or a malformed
// frame is seen (§7: a decode error closes the socket).
func (c *Conn) readLoop() {
	defer c.teardown()

	buf := make([]byte, 0, 64<<10)
	chunk := make([]byte, 32<<10)
	for {
		n, err := c.nc.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			for {
				msg, consumed, derr := proto.DecodeFrame(buf)
				if derr == proto.ErrIncomplete {
					break
				}
				if derr != nil {
					log.Printf("rpcserver: client %d: malformed frame: %v", c.ID, derr)
					return
				}
				buf = buf[consumed:]
				c.dispatch(msg)
			}
		}
		if err != nil {
			return
		}
	}
}

func (c *Conn) dispatch(msg *proto.Message) {
	switch {
	case msg.Request != nil:
		c.handler.HandleRequest(c, msg.Request)
	case msg.Notification != nil:
		c.handler.HandleNotification(c, msg.Notification)
	}
}

func (c *Conn) teardown() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.nc.Close()
	c.mgr.DisconnectClient(c.ID)
	c.handler.OnDisconnect(c)
}

// enqueue serializes a frame write and tracks queued bytes for the
// backpressure policy. Writes happen synchronously on the caller's
// goroutine. c.mu guards only the byte accounting and is released before
// the write; concurrent callers rely on net.Conn being safe for concurrent
// Write calls.
func (c *Conn) enqueue(frame []byte) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.queuedBytes += len(frame)
	over := c.queuedBytes >= c.limits.HighWaterBytes
	if over && !c.throttled {
		c.throttled = true
		c.overLimitAt = time.Now()
	}
	throttled := c.throttled
	overSince := c.overLimitAt
	c.mu.Unlock()

	if throttled {
		c.mgr.Throttle(c.ID)
		if time.Since(overSince) > c.limits.DisconnectAfter {
			log.Printf("rpcserver: client %d exceeded backpressure timeout, disconnecting", c.ID)
			c.nc.Close()
			return
		}
	}

	_, err := c.nc.Write(frame)

	c.mu.Lock()
	c.queuedBytes -= len(frame)
	if c.queuedBytes <= c.limits.LowWaterBytes && c.throttled {
		c.throttled = false
	}
	stillThrottled := c.throttled
	c.mu.Unlock()

	if !stillThrottled {
		c.mgr.Unthrottle(c.ID)
	}

	if err != nil && !c.closed {
		c.nc.Close()
	}
}

// Respond sends a response frame for a previously received request.
func (c *Conn) Respond(id uint32, wireErr *proto.WireError, result any) {
	frame, err := proto.EncodeResponse(id, wireErr, result)
	if err != nil {
		log.Printf("rpcserver: encode response %d: %v", id, err)
		return
	}
	c.enqueue(frame)
}

// Notify implements session.Sink.Notify: sends a bare notification.
func (c *Conn) Notify(method string, params any) {
	frame, err := proto.EncodeNotification(method, params)
	if err != nil {
		log.Printf("rpcserver: encode notification %s: %v", method, err)
		return
	}
	c.enqueue(frame)
}

// QueueRedraw implements session.Sink: sends a redraw notification for the
// given PTY. Per-client merge/coalescing already happened in the Session
// Manager (§4.5); by the time events reach here they are ready to ship as
// one frame.
func (c *Conn) QueueRedraw(ptyID ptyworker.ID, events []proto.RedrawEvent) {
	frame, err := proto.EncodeNotification(proto.MethodRedraw, proto.RedrawParams{PTYID: int(ptyID), Events: events})
	if err != nil {
		log.Printf("rpcserver: encode redraw: %v", err)
		return
	}
	c.enqueue(frame)
}
