// Package ioloop implements the single-threaded cooperative scheduler
// described in spec §4.2. Both prised and prise run one Loop per process;
// every submission (read/write/accept/connect/timeout/wait-child) returns a
// Task whose completion is delivered on the goroutine that calls Run.
// Completions for the same file descriptor are delivered in submission
// order; cancellation is best-effort (§5).
//
// The only thread that is not the loop's own goroutine is, on the client,
// the dedicated terminal-reader thread described in §4.2 and §9 — it never
// touches Loop state directly, it only writes into a pipe the loop polls
// like any other fd.
package ioloop

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// ResultKind tags the variant carried by a Completion.
type ResultKind int

const (
	ResultOK ResultKind = iota
	ResultError
	ResultCancelled
	ResultTimer
	ResultChildExit
)

// Completion is delivered to a Task's callback exactly once.
type Completion struct {
	Kind  ResultKind
	N     int    // bytes transferred, for read/write/accept/connect
	Addr  int    // accepted fd, for SubmitAccept
	Err   error  // non-nil when Kind == ResultError
	Child *ChildExit
}

// ChildExit carries the result of a wait_child_exit completion.
type ChildExit struct {
	ExitCode int
	Err      error
}

// TaskID identifies a submitted operation for cancellation.
type TaskID uint64

// Task is the handle returned by every Loop submission.
type Task struct {
	ID     TaskID
	cancel atomic.Bool
}

// Cancel requests best-effort cancellation (§5): if the completion has not
// yet been computed it will be delivered as ResultCancelled; if it is
// already queued for delivery it still fires with its real result — the
// caller must tolerate a late completion after Cancel.
func (t *Task) Cancel() {
	t.cancel.Store(true)
}

func (t *Task) cancelled() bool {
	return t.cancel.Load()
}

// Callback is invoked on the loop goroutine with the task's completion.
type Callback func(Completion)

// backend is the platform readiness multiplexer: epoll on Linux, kqueue on
// Darwin/BSD (see backend_linux.go / backend_kqueue.go). It knows nothing
// about Tasks; it just reports "fd became readable/writable" and the Loop
// turns that into a syscall + Completion.
type backend interface {
	// add registers fd for the given readiness event ("r" or "w"), one-shot:
	// the callback fires at most once per add call.
	add(fd int, event byte, onReady func()) error
	remove(fd int)
	// run blocks polling for readiness until ctx is done.
	run(ctx context.Context)
	close() error
}

// Loop is the cooperative single-threaded scheduler. All public Submit*
// methods are safe to call from any goroutine (they only enqueue work);
// actual callback execution happens on the goroutine that calls Run, one
// at a time, to completion — the invariant every component in §5 relies on.
type Loop struct {
	backend backend

	mu      sync.Mutex
	nextID  uint64
	pending map[TaskID]*Task

	completions chan readyCompletion
	closeOnce   sync.Once
	closed      chan struct{}
}

type readyCompletion struct {
	task *Task
	cb   Callback
	c    Completion
}

// New creates a Loop using the platform's readiness backend.
func New() (*Loop, error) {
	b, err := newBackend()
	if err != nil {
		return nil, fmt.Errorf("ioloop: backend init: %w", err)
	}
	return &Loop{
		backend:     b,
		pending:     make(map[TaskID]*Task),
		completions: make(chan readyCompletion, 256),
		closed:      make(chan struct{}),
	}, nil
}

func (l *Loop) newTask() *Task {
	id := TaskID(atomic.AddUint64(&l.nextID, 1))
	t := &Task{ID: id}
	l.mu.Lock()
	l.pending[id] = t
	l.mu.Unlock()
	return t
}

func (l *Loop) forget(t *Task) {
	l.mu.Lock()
	delete(l.pending, t.ID)
	l.mu.Unlock()
}

// deliver enqueues a completion for dispatch on the loop goroutine. Safe to
// call from any goroutine (backend readiness callbacks, helper threads).
func (l *Loop) deliver(t *Task, cb Callback, c Completion) {
	if t.cancelled() && c.Kind != ResultCancelled {
		c = Completion{Kind: ResultCancelled}
	}
	select {
	case l.completions <- readyCompletion{task: t, cb: cb, c: c}:
	case <-l.closed:
	}
}

// Run blocks, dispatching completions and driving the readiness backend,
// until ctx is cancelled or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	go l.backend.run(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.closed:
			return nil
		case rc := <-l.completions:
			l.forget(rc.task)
			rc.cb(rc.c)
		}
	}
}

// Close stops Run and releases the readiness backend.
func (l *Loop) Close() error {
	l.closeOnce.Do(func() { close(l.closed) })
	return l.backend.close()
}

// Cancel cancels a previously submitted task by ID, if it is still pending.
func (l *Loop) Cancel(id TaskID) {
	l.mu.Lock()
	t := l.pending[id]
	l.mu.Unlock()
	if t != nil {
		t.Cancel()
	}
}

// SubmitRead reads once fd becomes readable, filling buf.
func (l *Loop) SubmitRead(fd int, buf []byte, cb Callback) *Task {
	t := l.newTask()
	err := l.backend.add(fd, 'r', func() {
		n, err := syscall.Read(fd, buf)
		if err != nil {
			l.deliver(t, cb, Completion{Kind: ResultError, Err: err})
			return
		}
		l.deliver(t, cb, Completion{Kind: ResultOK, N: n})
	})
	if err != nil {
		l.deliver(t, cb, Completion{Kind: ResultError, Err: err})
	}
	return t
}

// SubmitWrite writes once fd becomes writable.
func (l *Loop) SubmitWrite(fd int, buf []byte, cb Callback) *Task {
	t := l.newTask()
	err := l.backend.add(fd, 'w', func() {
		n, err := syscall.Write(fd, buf)
		if err != nil {
			l.deliver(t, cb, Completion{Kind: ResultError, Err: err})
			return
		}
		l.deliver(t, cb, Completion{Kind: ResultOK, N: n})
	})
	if err != nil {
		l.deliver(t, cb, Completion{Kind: ResultError, Err: err})
	}
	return t
}

// SubmitAccept accepts one connection on listenFd.
func (l *Loop) SubmitAccept(listenFd int, cb Callback) *Task {
	t := l.newTask()
	err := l.backend.add(listenFd, 'r', func() {
		nfd, _, err := syscall.Accept(listenFd)
		if err != nil {
			l.deliver(t, cb, Completion{Kind: ResultError, Err: err})
			return
		}
		l.deliver(t, cb, Completion{Kind: ResultOK, Addr: nfd})
	})
	if err != nil {
		l.deliver(t, cb, Completion{Kind: ResultError, Err: err})
	}
	return t
}

// SubmitClose closes fd. Close is synchronous from the caller's point of
// view but still delivered as a completion for ordering consistency with
// other operations on the same fd.
func (l *Loop) SubmitClose(fd int, cb Callback) *Task {
	t := l.newTask()
	err := syscall.Close(fd)
	l.deliver(t, cb, Completion{Kind: ResultOK, Err: err})
	return t
}

// SubmitTimeout completes after at least d has elapsed.
func (l *Loop) SubmitTimeout(d time.Duration, cb Callback) *Task {
	t := l.newTask()
	time.AfterFunc(d, func() {
		l.deliver(t, cb, Completion{Kind: ResultTimer})
	})
	return t
}

// SubmitWaitChildExit completes when cmd's process has exited. This is the
// one operation the readiness backends cannot express portably (process
// exit is not epoll/kqueue-waitable without platform-specific pidfd
// plumbing), so it is backed by a dedicated helper goroutine whose sole job
// is calling cmd.Wait() and handing the result back through deliver — the
// same single-delivery discipline as every other completion.
func (l *Loop) SubmitWaitChildExit(cmd *exec.Cmd, cb Callback) *Task {
	t := l.newTask()
	go func() {
		err := cmd.Wait()
		exitCode := 0
		if cmd.ProcessState != nil {
			exitCode = cmd.ProcessState.ExitCode()
		}
		l.deliver(t, cb, Completion{Kind: ResultChildExit, Child: &ChildExit{ExitCode: exitCode, Err: err}})
	}()
	return t
}
