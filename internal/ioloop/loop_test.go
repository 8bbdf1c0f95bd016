package ioloop

import (
	"context"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	l, err := New()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(func() {
		cancel()
		_ = l.Close()
	})
	return l, cancel
}

func TestSubmitReadWriteRoundTrip(t *testing.T) {
	l, _ := runLoop(t)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	done := make(chan Completion, 1)
	buf := make([]byte, 16)
	l.SubmitRead(int(r.Fd()), buf, func(c Completion) { done <- c })

	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)

	select {
	case c := <-done:
		require.Equal(t, ResultOK, c.Kind)
		assert.Equal(t, "hello", string(buf[:c.N]))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for read completion")
	}
}

func TestSubmitTimeoutFires(t *testing.T) {
	l, _ := runLoop(t)

	done := make(chan Completion, 1)
	l.SubmitTimeout(10*time.Millisecond, func(c Completion) { done <- c })

	select {
	case c := <-done:
		assert.Equal(t, ResultTimer, c.Kind)
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
}

func TestSubmitWaitChildExitReportsCode(t *testing.T) {
	l, _ := runLoop(t)

	cmd := exec.Command("false")
	require.NoError(t, cmd.Start())

	done := make(chan Completion, 1)
	l.SubmitWaitChildExit(cmd, func(c Completion) { done <- c })

	select {
	case c := <-done:
		require.Equal(t, ResultChildExit, c.Kind)
		require.NotNil(t, c.Child)
		assert.Equal(t, 1, c.Child.ExitCode)
	case <-time.After(2 * time.Second):
		t.Fatal("child exit never delivered")
	}
}

func TestCancelBeforeDeliveryYieldsCancelled(t *testing.T) {
	l, _ := runLoop(t)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	done := make(chan Completion, 1)
	buf := make([]byte, 16)
	task := l.SubmitRead(int(r.Fd()), buf, func(c Completion) { done <- c })
	task.Cancel()

	_, err = w.Write([]byte("x"))
	require.NoError(t, err)

	select {
	case c := <-done:
		assert.Equal(t, ResultCancelled, c.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled completion never delivered")
	}
}
