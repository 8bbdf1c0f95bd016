package rpcserver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"

	"github.com/rockorager/prise/internal/ioloop"
	"github.com/rockorager/prise/internal/proto"
	"github.com/rockorager/prise/internal/ptyworker"
	"github.com/rockorager/prise/internal/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	loop, err := ioloop.New()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(func() {
		cancel()
		_ = loop.Close()
	})
	mgr := session.New(loop, session.Config{Shell: "/bin/sh"})
	return NewServer(mgr, Limits{})
}

// dial wires a net.Pipe client/server pair through the Server's connection
// handling, returning the client end for the test to drive directly.
func dial(t *testing.T, s *Server) net.Conn {
	t.Helper()
	client, server := net.Pipe()
	s.handleConn(server)
	t.Cleanup(func() { client.Close() })
	return client
}

func sendRequest(t *testing.T, nc net.Conn, id uint32, method string, params any) {
	t.Helper()
	frame, err := proto.EncodeRequest(id, method, params)
	require.NoError(t, err)
	_, err = nc.Write(frame)
	require.NoError(t, err)
}

func readResponse(t *testing.T, nc net.Conn) *proto.Response {
	t.Helper()
	nc.SetReadDeadline(time.Now().Add(3 * time.Second))
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := nc.Read(chunk)
		require.NoError(t, err)
		buf = append(buf, chunk[:n]...)
		msg, _, derr := proto.DecodeFrame(buf)
		if derr == proto.ErrIncomplete {
			continue
		}
		require.NoError(t, derr)
		require.NotNil(t, msg.Response)
		return msg.Response
	}
}

func TestSpawnPTYRoundTrip(t *testing.T) {
	s := newTestServer(t)
	client := dial(t, s)

	sendRequest(t, client, 1, proto.MethodSpawnPTY, proto.SpawnPTYParams{Rows: 24, Cols: 80, Attach: true})
	resp := readResponse(t, client)
	require.Nil(t, resp.Err)
	var result proto.SpawnPTYResult
	require.NoError(t, cbor.Unmarshal(resp.Result, &result))
	require.NotZero(t, result.PTYID)
}

func TestUnknownMethodReturnsError(t *testing.T) {
	s := newTestServer(t)
	client := dial(t, s)

	sendRequest(t, client, 1, "frobnicate", nil)
	resp := readResponse(t, client)
	require.NotNil(t, resp.Err)
	require.Equal(t, proto.ErrKindUnknownMethod, resp.Err.Kind)
}

func TestSendAttachLegacyFallbackRejected(t *testing.T) {
	s := newTestServer(t)
	client := dial(t, s)

	sendRequest(t, client, 1, "send_attach", map[string]any{"pty_id": 1})
	resp := readResponse(t, client)
	require.NotNil(t, resp.Err)
	require.Equal(t, proto.ErrKindUnknownMethod, resp.Err.Kind)
}

func TestKeyInputUnknownPTYReturnsWireError(t *testing.T) {
	s := newTestServer(t)
	client := dial(t, s)

	sendRequest(t, client, 1, proto.MethodKeyInput, proto.KeyInputParams{PTYID: 999, Key: proto.KeyDescriptor{Key: "a"}})
	resp := readResponse(t, client)
	require.NotNil(t, resp.Err)
	require.Equal(t, proto.ErrKindUnknownPTY, resp.Err.Kind)
}

func TestResizeResolvesSmallestCommonRectangle(t *testing.T) {
	s := newTestServer(t)
	clientA := dial(t, s)
	clientB := dial(t, s)

	sendRequest(t, clientA, 1, proto.MethodSpawnPTY, proto.SpawnPTYParams{Rows: 24, Cols: 80, Attach: true})
	resp := readResponse(t, clientA)
	var result proto.SpawnPTYResult
	require.NoError(t, cbor.Unmarshal(resp.Result, &result))
	id := result.PTYID

	sendRequest(t, clientB, 1, proto.MethodAttachPTY, proto.AttachPTYParams{PTYID: id})
	readResponse(t, clientB)

	sendRequest(t, clientB, 2, proto.MethodResizePTY, proto.ResizePTYParams{PTYID: id, Rows: 10, Cols: 40})
	resp = readResponse(t, clientB)
	require.Nil(t, resp.Err)

	rows, cols := s.commonSize(ptyworker.ID(id))
	require.Equal(t, 10, rows)
	require.Equal(t, 40, cols)
}
