package rpcserver

import (
	"context"
	"log"
	"net"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/rockorager/prise/internal/proto"
	"github.com/rockorager/prise/internal/ptyworker"
	"github.com/rockorager/prise/internal/session"
)

// size is one client's last-requested terminal size for a PTY.
type size struct{ rows, cols int }

// Server accepts client connections on a Unix socket and dispatches their
// requests/notifications into a session.Manager, generalizing grove's
// daemon.go handleConn switch from its single JSON-then-stream exchange to
// the spec's fully multiplexed request/response/notification protocol
// (§4.1, §6).
type Server struct {
	mgr    *session.Manager
	limits Limits

	mu           sync.Mutex
	nextClientID session.ClientID
	conns        map[session.ClientID]*Conn
	// sizes tracks each attached client's last requested size per PTY so a
	// resize_pty request can be resolved to the smallest common rectangle
	// across every client currently viewing that PTY (§4.5 resize policy).
	sizes map[ptyworker.ID]map[session.ClientID]size
}

// NewServer builds a Server bound to mgr.
func NewServer(mgr *session.Manager, limits Limits) *Server {
	return &Server{
		mgr:    mgr,
		limits: limits,
		conns:  make(map[session.ClientID]*Conn),
		sizes:  make(map[ptyworker.ID]map[session.ClientID]size),
	}
}

// Listen opens the Unix domain socket at path and accepts connections until
// ctx is cancelled. A stale socket file from a crashed prior run is removed
// before binding, mirroring grove's daemon startup.
func (s *Server) Listen(ctx context.Context, path string) error {
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		nc, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				log.Printf("rpcserver: accept: %v", err)
				return err
			}
		}
		s.handleConn(nc)
	}
}

func (s *Server) handleConn(nc net.Conn) {
	s.mu.Lock()
	s.nextClientID++
	id := s.nextClientID
	s.mu.Unlock()

	conn := Serve(nc, id, s, s.mgr, s.limits)

	s.mu.Lock()
	s.conns[id] = conn
	s.mu.Unlock()
}

// HandleRequest implements Handler.
func (s *Server) HandleRequest(c *Conn, req *proto.Request) {
	switch req.Method {
	case proto.MethodSpawnPTY:
		s.handleSpawn(c, req)
	case proto.MethodAttachPTY:
		s.handleAttach(c, req)
	case proto.MethodDetachPTYs:
		s.handleDetach(c, req)
	case proto.MethodResizePTY:
		s.handleResize(c, req)
	case proto.MethodClosePTY:
		s.handleClose(c, req)
	case proto.MethodKeyInput:
		s.handleKeyInput(c, req)
	case proto.MethodMouseInput:
		s.handleMouseInput(c, req)
	case proto.MethodPaste:
		s.handlePaste(c, req)
	case "send_attach":
		// Legacy grove-era fallback, deliberately not carried forward (see
		// the Open Question decision in DESIGN.md): every client speaks the
		// multiplexed protocol, so there is no single-shot attach message to
		// fall back to. Treat it as any other unknown method.
		c.Respond(req.ID, proto.NewError(proto.ErrKindUnknownMethod, "send_attach is not supported"), nil)
	default:
		c.Respond(req.ID, proto.NewError(proto.ErrKindUnknownMethod, "unknown method: "+req.Method), nil)
	}
}

// HandleNotification implements Handler. The protocol defines no inbound
// fire-and-forget client notifications today; unrecognized ones are logged
// and dropped rather than closing the connection, since a notification by
// definition expects no response.
func (s *Server) HandleNotification(c *Conn, n *proto.Notification) {
	log.Printf("rpcserver: client %d: unhandled notification %q", c.ID, n.Method)
}

// OnDisconnect implements Handler.
func (s *Server) OnDisconnect(c *Conn) {
	s.mu.Lock()
	delete(s.conns, c.ID)
	for _, clients := range s.sizes {
		delete(clients, c.ID)
	}
	s.mu.Unlock()
}

func decodeParams[T any](req *proto.Request) (T, error) {
	var p T
	err := cbor.Unmarshal(req.Params, &p)
	return p, err
}

func (s *Server) invalidParams(c *Conn, req *proto.Request, err error) {
	c.Respond(req.ID, proto.NewError(proto.ErrKindInvalidParams, err.Error()), nil)
}

func (s *Server) handleSpawn(c *Conn, req *proto.Request) {
	p, err := decodeParams[proto.SpawnPTYParams](req)
	if err != nil {
		s.invalidParams(c, req, err)
		return
	}
	id, err := s.mgr.SpawnPTY(c.ID, c, p.Rows, p.Cols, p.CWD, p.Attach)
	if err != nil {
		c.Respond(req.ID, proto.NewError(proto.ErrKindSpawnFailed, err.Error()), nil)
		return
	}
	if p.Attach {
		s.recordSize(id, c.ID, p.Rows, p.Cols)
	}
	c.Respond(req.ID, nil, proto.SpawnPTYResult{PTYID: int(id)})
}

func (s *Server) handleAttach(c *Conn, req *proto.Request) {
	p, err := decodeParams[proto.AttachPTYParams](req)
	if err != nil {
		s.invalidParams(c, req, err)
		return
	}
	id := ptyworker.ID(p.PTYID)
	if err := s.mgr.AttachPTY(id, c.ID, c); err != nil {
		s.respondErr(c, req, err)
		return
	}
	c.Respond(req.ID, nil, proto.OK{OK: true})
}

func (s *Server) handleDetach(c *Conn, req *proto.Request) {
	p, err := decodeParams[proto.DetachPTYsParams](req)
	if err != nil {
		s.invalidParams(c, req, err)
		return
	}
	ids := make([]ptyworker.ID, len(p.PTYIDs))
	for i, v := range p.PTYIDs {
		ids[i] = ptyworker.ID(v)
	}
	s.mgr.DetachPTYs(ids, c.ID)
	s.mu.Lock()
	for _, id := range ids {
		if clients, ok := s.sizes[id]; ok {
			delete(clients, c.ID)
		}
	}
	s.mu.Unlock()
	c.Respond(req.ID, nil, proto.OK{OK: true})
}

// handleResize implements the smallest-common-rectangle policy: a PTY's
// actual size is the minimum rows and minimum cols requested by any of its
// currently attached clients, so no client ever sees content clipped
// because another client's window is larger.
func (s *Server) handleResize(c *Conn, req *proto.Request) {
	p, err := decodeParams[proto.ResizePTYParams](req)
	if err != nil {
		s.invalidParams(c, req, err)
		return
	}
	id := ptyworker.ID(p.PTYID)
	s.recordSize(id, c.ID, p.Rows, p.Cols)
	rows, cols := s.commonSize(id)
	if err := s.mgr.ResizePTY(id, rows, cols); err != nil {
		s.respondErr(c, req, err)
		return
	}
	c.Respond(req.ID, nil, proto.OK{OK: true})
}

func (s *Server) recordSize(id ptyworker.ID, client session.ClientID, rows, cols int) {
	if rows <= 0 || cols <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clients, ok := s.sizes[id]
	if !ok {
		clients = make(map[session.ClientID]size)
		s.sizes[id] = clients
	}
	clients[client] = size{rows: rows, cols: cols}
}

func (s *Server) commonSize(id ptyworker.ID) (rows, cols int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sz := range s.sizes[id] {
		if rows == 0 || sz.rows < rows {
			rows = sz.rows
		}
		if cols == 0 || sz.cols < cols {
			cols = sz.cols
		}
	}
	return rows, cols
}

func (s *Server) handleClose(c *Conn, req *proto.Request) {
	p, err := decodeParams[proto.ClosePTYParams](req)
	if err != nil {
		s.invalidParams(c, req, err)
		return
	}
	id := ptyworker.ID(p.PTYID)
	if err := s.mgr.ClosePTY(id); err != nil {
		s.respondErr(c, req, err)
		return
	}
	s.mu.Lock()
	delete(s.sizes, id)
	s.mu.Unlock()
	c.Respond(req.ID, nil, proto.OK{OK: true})
}

func (s *Server) handleKeyInput(c *Conn, req *proto.Request) {
	p, err := decodeParams[proto.KeyInputParams](req)
	if err != nil {
		s.invalidParams(c, req, err)
		return
	}
	if err := s.mgr.KeyInput(ptyworker.ID(p.PTYID), p.Key); err != nil {
		s.respondErr(c, req, err)
		return
	}
	c.Respond(req.ID, nil, proto.OK{OK: true})
}

func (s *Server) handleMouseInput(c *Conn, req *proto.Request) {
	p, err := decodeParams[proto.MouseInputParams](req)
	if err != nil {
		s.invalidParams(c, req, err)
		return
	}
	if err := s.mgr.MouseInput(ptyworker.ID(p.PTYID), p.Mouse); err != nil {
		s.respondErr(c, req, err)
		return
	}
	c.Respond(req.ID, nil, proto.OK{OK: true})
}

func (s *Server) handlePaste(c *Conn, req *proto.Request) {
	p, err := decodeParams[proto.PasteParams](req)
	if err != nil {
		s.invalidParams(c, req, err)
		return
	}
	if err := s.mgr.Paste(ptyworker.ID(p.PTYID), p.Bytes); err != nil {
		s.respondErr(c, req, err)
		return
	}
	c.Respond(req.ID, nil, proto.OK{OK: true})
}

func (s *Server) respondErr(c *Conn, req *proto.Request, err error) {
	if werr, ok := err.(*proto.WireError); ok {
		c.Respond(req.ID, werr, nil)
		return
	}
	c.Respond(req.ID, proto.NewError(proto.ErrKindInternal, err.Error()), nil)
}
