// Package ptyworker implements the PTY Worker described in spec §4.3: one
// worker owns a single PTY master fd and its child process, reads output
// into chunks handed to the Screen Engine, and forwards client input to the
// master. All I/O goes through an ioloop.Loop; Spawn and Close are the only
// calls expected from outside the loop goroutine.
package ptyworker

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/creack/pty"

	"github.com/rockorager/prise/internal/ioloop"
)

// ID uniquely identifies a PTY for the lifetime of the daemon process.
// Allocated monotonically by the Session Manager, never reused (§3).
type ID int

// ExitStatus is reported exactly once, when the child process terminates.
type ExitStatus struct {
	Code int
	Err  error
}

// Config configures a spawned PTY.
type Config struct {
	Shell string
	Args  []string
	CWD   string
	Env   []string
	Rows  uint16
	Cols  uint16

	// ReadChunk bounds how many bytes are read from the master per
	// completion; spec §4.3 suggests a ceiling such as 64 KiB.
	ReadChunk int
}

const defaultReadChunk = 64 << 10

// Worker owns one PTY master fd and the child process behind it.
type Worker struct {
	ID ID

	loop *ioloop.Loop
	cmd  *exec.Cmd
	ptm  *os.File

	onOutput func([]byte)
	onExit   func(ExitStatus)

	readChunk int

	mu       sync.Mutex
	paused   bool
	closed   bool
	broken   bool
	exited   bool
	writeBuf [][]byte // pending writes, drained one at a time through the loop
	writing  bool
}

// Spawn opens a PTY, starts cfg.Shell inside it, and begins the read loop.
// onOutput is invoked on the loop goroutine with each chunk of master
// output (never retained past the call — copy if you need to keep it).
// onExit is invoked exactly once, after the read loop observes EOF and
// wait_child_exit completes.
func Spawn(loop *ioloop.Loop, id ID, cfg Config, onOutput func([]byte), onExit func(ExitStatus)) (*Worker, error) {
	cmd := exec.Command(cfg.Shell, cfg.Args...)
	cmd.Dir = cfg.CWD
	if cfg.Env != nil {
		cmd.Env = cfg.Env
	} else {
		cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	}

	ptm, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: cfg.Rows, Cols: cfg.Cols})
	if err != nil {
		return nil, fmt.Errorf("ptyworker: pty.StartWithSize: %w", err)
	}

	chunk := cfg.ReadChunk
	if chunk <= 0 {
		chunk = defaultReadChunk
	}

	w := &Worker{
		ID:        id,
		loop:      loop,
		cmd:       cmd,
		ptm:       ptm,
		onOutput:  onOutput,
		onExit:    onExit,
		readChunk: chunk,
	}

	w.submitRead()
	loop.SubmitWaitChildExit(cmd, w.handleChildExit)

	return w, nil
}

func (w *Worker) submitRead() {
	w.mu.Lock()
	if w.paused || w.closed {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	buf := make([]byte, w.readChunk)
	w.loop.SubmitRead(int(w.ptm.Fd()), buf, func(c ioloop.Completion) {
		switch c.Kind {
		case ioloop.ResultOK:
			if c.N > 0 {
				w.onOutput(buf[:c.N])
			}
			if c.N == 0 {
				// EOF: master closed, child is on its way out. Stop reading;
				// handleChildExit delivers the final status.
				return
			}
			w.submitRead()
		case ioloop.ResultCancelled:
			// Worker is being torn down; nothing further to read.
		default:
			// Read error other than a clean EOF means the slave side is
			// gone (child exited). Treat like EOF per §4.3: "read EOF from
			// the master is treated as child exit pending the wait result".
		}
	})
}

// Write enqueues input bytes for the master, serialized through the loop so
// concurrent key_input/paste notifications never interleave mid-write.
func (w *Worker) Write(data []byte) {
	if len(data) == 0 {
		return
	}
	cp := append([]byte(nil), data...)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.writeBuf = append(w.writeBuf, cp)
	alreadyWriting := w.writing
	w.writing = true
	w.mu.Unlock()

	if !alreadyWriting {
		w.pumpWrite()
	}
}

func (w *Worker) pumpWrite() {
	w.mu.Lock()
	if len(w.writeBuf) == 0 {
		w.writing = false
		w.mu.Unlock()
		return
	}
	next := w.writeBuf[0]
	w.writeBuf = w.writeBuf[1:]
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return
	}

	w.loop.SubmitWrite(int(w.ptm.Fd()), next, func(c ioloop.Completion) {
		switch c.Kind {
		case ioloop.ResultOK:
			if c.N < len(next) {
				// Short write: requeue the remainder ahead of anything else.
				w.mu.Lock()
				w.writeBuf = append([][]byte{next[c.N:]}, w.writeBuf...)
				w.mu.Unlock()
			}
			w.pumpWrite()
		case ioloop.ResultCancelled:
		default:
			// Write errors other than a transient backoff mark the PTY
			// broken; the Session Manager notifies clients (§4.3).
			w.mu.Lock()
			w.broken = true
			w.writing = false
			w.mu.Unlock()
		}
	})
}

// Resize applies a new window size and signals SIGWINCH to the child
// (TIOCSWINSZ on the master delivers SIGWINCH to the slave's foreground
// process group; the screen reflow itself is the Screen Engine's job).
func (w *Worker) Resize(rows, cols uint16) error {
	w.mu.Lock()
	ptm := w.ptm
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return nil
	}
	return pty.Setsize(ptm, &pty.Winsize{Rows: rows, Cols: cols})
}

// Pause stops submitting further reads once the in-flight one completes;
// used by the Session Manager's backpressure policy (§4.5) when an
// attached client's socket exceeds the high-water mark.
func (w *Worker) Pause() {
	w.mu.Lock()
	w.paused = true
	w.mu.Unlock()
}

// Resume re-arms the read loop after a Pause.
func (w *Worker) Resume() {
	w.mu.Lock()
	w.paused = false
	w.mu.Unlock()
	w.submitRead()
}

func (w *Worker) handleChildExit(c ioloop.Completion) {
	w.mu.Lock()
	if w.exited {
		w.mu.Unlock()
		return
	}
	w.exited = true
	w.mu.Unlock()

	status := ExitStatus{}
	if c.Child != nil {
		status.Code = c.Child.ExitCode
		status.Err = c.Child.Err
	}
	w.onExit(status)
}

// Close sends SIGHUP then SIGKILL to the child's process group and closes
// the master. The Session Manager calls this directly for close_pty, and
// from its reap timer once an exited PTY has had no attached clients for
// the reap-timeout grace period (default 30s, §8).
func (w *Worker) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	ptm := w.ptm
	pid := w.cmd.Process.Pid
	w.mu.Unlock()

	if pid > 0 {
		if pgid, err := syscall.Getpgid(pid); err == nil && pgid > 0 {
			syscall.Kill(-pgid, syscall.SIGHUP)
			syscall.Kill(-pgid, syscall.SIGKILL)
		} else {
			syscall.Kill(pid, syscall.SIGKILL)
		}
	}

	return ptm.Close()
}

// Broken reports whether a non-recoverable write error has occurred.
func (w *Worker) Broken() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.broken
}
