//go:build darwin || freebsd || netbsd || openbsd

package ioloop

import (
	"context"
	"sync"

	"golang.org/x/sys/unix"
)

// kqueueBackend is the Darwin/BSD readiness backend (§4.2: "kqueue-like").
// Like the epoll backend, registrations are one-shot: EV_ONESHOT drops the
// kevent filter automatically once it fires.
type kqueueBackend struct {
	kq int

	mu       sync.Mutex
	watchers map[int]func()
}

func newBackend() (backend, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	return &kqueueBackend{kq: kq, watchers: make(map[int]func())}, nil
}

func (b *kqueueBackend) add(fd int, event byte, onReady func()) error {
	filter := int16(unix.EVFILT_READ)
	if event == 'w' {
		filter = unix.EVFILT_WRITE
	}

	b.mu.Lock()
	b.watchers[fd] = onReady
	b.mu.Unlock()

	kev := unix.Kevent_t{
		Ident:  uint64(fd),
		Filter: filter,
		Flags:  unix.EV_ADD | unix.EV_ONESHOT,
	}
	_, err := unix.Kevent(b.kq, []unix.Kevent_t{kev}, nil, nil)
	return err
}

func (b *kqueueBackend) remove(fd int) {
	b.mu.Lock()
	delete(b.watchers, fd)
	b.mu.Unlock()
	kev := unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_DELETE}
	_, _ = unix.Kevent(b.kq, []unix.Kevent_t{kev}, nil, nil)
	kev.Filter = unix.EVFILT_WRITE
	_, _ = unix.Kevent(b.kq, []unix.Kevent_t{kev}, nil, nil)
}

func (b *kqueueBackend) run(ctx context.Context) {
	events := make([]unix.Kevent_t, 64)
	timeout := unix.NsecToTimespec(250_000_000) // 250ms, bounded so ctx.Done is noticed promptly
	for {
		if ctx.Err() != nil {
			return
		}
		n, err := unix.Kevent(b.kq, nil, events, &timeout)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		for i := 0; i < n; i++ {
			fd := int(events[i].Ident)
			b.mu.Lock()
			cb, ok := b.watchers[fd]
			delete(b.watchers, fd) // one-shot
			b.mu.Unlock()
			if ok {
				cb()
			}
		}
	}
}

func (b *kqueueBackend) close() error {
	return unix.Close(b.kq)
}
