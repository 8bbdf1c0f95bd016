package rpcclient

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rockorager/prise/internal/ioloop"
	"github.com/rockorager/prise/internal/proto"
	"github.com/rockorager/prise/internal/rpcserver"
	"github.com/rockorager/prise/internal/session"
)

type recordingHandler struct {
	mu      sync.Mutex
	methods []string
	signal  chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{signal: make(chan struct{}, 64)}
}

func (h *recordingHandler) HandleNotification(method string, params []byte) {
	h.mu.Lock()
	h.methods = append(h.methods, method)
	h.mu.Unlock()
	select {
	case h.signal <- struct{}{}:
	default:
	}
}

func startTestDaemon(t *testing.T) string {
	t.Helper()
	loop, err := ioloop.New()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)

	mgr := session.New(loop, session.Config{Shell: "/bin/sh"})
	srv := rpcserver.NewServer(mgr, rpcserver.Limits{})

	sockPath := filepath.Join(t.TempDir(), "prise.sock")
	listenCtx, listenCancel := context.WithCancel(context.Background())
	go srv.Listen(listenCtx, sockPath)

	t.Cleanup(func() {
		listenCancel()
		cancel()
		_ = loop.Close()
	})

	// Give the listener goroutine a moment to bind before dialing.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c, err := Dial(sockPath, nil); err == nil {
			c.Close()
			return sockPath
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("daemon never started listening")
	return ""
}

func TestSpawnAttachAndReceiveRedraw(t *testing.T) {
	sock := startTestDaemon(t)
	handler := newRecordingHandler()
	client, err := Dial(sock, handler)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	ptyID, err := client.SpawnPTY(ctx, 24, 80, "", true)
	require.NoError(t, err)
	require.NotZero(t, ptyID)

	select {
	case <-handler.signal:
	case <-time.After(3 * time.Second):
		t.Fatal("never received a notification after spawn+attach")
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()
	require.Contains(t, handler.methods, proto.MethodRedraw)
}

func TestUnknownMethodSurfacesAsWireError(t *testing.T) {
	sock := startTestDaemon(t)
	client, err := Dial(sock, nil)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = client.Call(ctx, "frobnicate", nil, nil)
	require.Error(t, err)
	werr, ok := err.(*proto.WireError)
	require.True(t, ok)
	require.Equal(t, proto.ErrKindUnknownMethod, werr.Kind)
}

func TestKeyInputOnUnknownPTYReturnsWireError(t *testing.T) {
	sock := startTestDaemon(t)
	client, err := Dial(sock, nil)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = client.KeyInput(ctx, 999, proto.KeyDescriptor{Key: "a"})
	require.Error(t, err)
	werr, ok := err.(*proto.WireError)
	require.True(t, ok)
	require.Equal(t, proto.ErrKindUnknownPTY, werr.Kind)
}
