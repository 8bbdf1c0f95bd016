// Package rpcclient implements the prise client side of the wire protocol:
// dialing prised's Unix socket, sending requests correlated by ID to their
// responses, and delivering notifications (redraw, pty_exited) to a
// Handler. Grounded on the same net.Conn-plus-goroutine shape as
// internal/rpcserver, generalizing grove's client (cmd/grove/main.go, which
// dials its daemon socket and exchanges one JSON object at a time) to the
// spec's framed, multiplexed, many-requests-in-flight protocol.
package rpcclient

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rockorager/prise/internal/proto"
)

// Handler receives notifications pushed by the server outside of any
// request/response exchange.
type Handler interface {
	HandleNotification(method string, params []byte)
}

// Client is one connection to prised.
type Client struct {
	nc      net.Conn
	handler Handler

	nextID uint32

	mu      sync.Mutex
	pending map[uint32]chan *proto.Response
	closed  bool
	closeErr error
}

// Dial connects to the daemon socket at path.
func Dial(path string, handler Handler) (*Client, error) {
	nc, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("rpcclient: dial %s: %w", path, err)
	}
	c := &Client{
		nc:      nc,
		handler: handler,
		pending: make(map[uint32]chan *proto.Response),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	defer c.teardown(fmt.Errorf("rpcclient: connection closed"))

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

func (c *Client) dispatch(msg *proto.Message) {
	switch {
	case msg.Response != nil:
		c.mu.Lock()
		ch, ok := c.pending[msg.Response.ID]
		if ok {
			delete(c.pending, msg.Response.ID)
		}
		c.mu.Unlock()
		if ok {
			ch <- msg.Response
		}
	case msg.Notification != nil:
		if c.handler != nil {
			c.handler.HandleNotification(msg.Notification.Method, msg.Notification.Params)
		}
	}
}

func (c *Client) teardown(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.closeErr = err
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, ch := range pending {
		close(ch)
	}
	c.nc.Close()
}

// Close shuts down the connection.
func (c *Client) Close() error {
	c.teardown(fmt.Errorf("rpcclient: closed by caller"))
	return nil
}

// Call sends a request and blocks until its response arrives, ctx is
// cancelled, or the connection closes.
func (c *Client) Call(ctx context.Context, method string, params, result any) error {
	id := atomic.AddUint32(&c.nextID, 1)

	ch := make(chan *proto.Response, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return c.closeErr
	}
	c.pending[id] = ch
	c.mu.Unlock()

	frame, err := proto.EncodeRequest(id, method, params)
	if err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return fmt.Errorf("rpcclient: encode %s: %w", method, err)
	}
	if _, err := c.nc.Write(frame); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return fmt.Errorf("rpcclient: write %s: %w", method, err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return fmt.Errorf("rpcclient: connection closed while waiting for %s", method)
		}
		if resp.Err != nil {
			return resp.Err
		}
		if result != nil {
			return decodeResult(resp.Result, result)
		}
		return nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return ctx.Err()
	}
}
