package ptyworker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rockorager/prise/internal/ioloop"
)

func newTestLoop(t *testing.T) *ioloop.Loop {
	t.Helper()
	l, err := ioloop.New()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(func() {
		cancel()
		_ = l.Close()
	})
	return l
}

func TestSpawnEchoProducesOutput(t *testing.T) {
	loop := newTestLoop(t)

	var mu sync.Mutex
	var output []byte
	outC := make(chan struct{}, 1)

	w, err := Spawn(loop, 1, Config{
		Shell: "/bin/sh",
		Args:  []string{"-c", "echo hello-prise"},
		Rows:  24,
		Cols:  80,
	}, func(chunk []byte) {
		mu.Lock()
		output = append(output, chunk...)
		mu.Unlock()
		select {
		case outC <- struct{}{}:
		default:
		}
	}, func(ExitStatus) {})
	require.NoError(t, err)
	require.NotNil(t, w)

	deadline := time.After(3 * time.Second)
	for {
		mu.Lock()
		has := len(output) > 0 && contains(output, "hello-prise")
		mu.Unlock()
		if has {
			break
		}
		select {
		case <-outC:
		case <-deadline:
			t.Fatal("never observed expected pty output")
		}
	}
}

func TestSpawnReportsExitStatus(t *testing.T) {
	loop := newTestLoop(t)

	done := make(chan ExitStatus, 1)
	_, err := Spawn(loop, 2, Config{
		Shell: "/bin/sh",
		Args:  []string{"-c", "exit 3"},
		Rows:  24,
		Cols:  80,
	}, func([]byte) {}, func(status ExitStatus) {
		done <- status
	})
	require.NoError(t, err)

	select {
	case status := <-done:
		assert.Equal(t, 3, status.Code)
	case <-time.After(3 * time.Second):
		t.Fatal("exit status never delivered")
	}
}

func TestPauseResumeSuppressesReads(t *testing.T) {
	loop := newTestLoop(t)

	var mu sync.Mutex
	var n int
	w, err := Spawn(loop, 3, Config{
		Shell: "/bin/sh",
		Args:  []string{"-c", "sleep 0.2; echo one; sleep 0.2; echo two"},
		Rows:  24,
		Cols:  80,
	}, func(chunk []byte) {
		mu.Lock()
		n++
		mu.Unlock()
	}, func(ExitStatus) {})
	require.NoError(t, err)

	w.Pause()
	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	got := n
	mu.Unlock()
	assert.Equal(t, 0, got, "no output should be delivered while paused")

	w.Resume()
}

func contains(haystack []byte, needle string) bool {
	return len(haystack) >= len(needle) && indexOf(string(haystack), needle) >= 0
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
