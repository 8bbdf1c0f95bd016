//go:build linux

package ioloop

import (
	"context"
	"sync"

	"golang.org/x/sys/unix"
)

// epollBackend is the Linux readiness backend (§4.2: "epoll-like").
// Registrations are one-shot (EPOLLONESHOT): once a watched fd fires, the
// kernel disarms it (the fd stays in the epoll set) and it must be re-armed
// with add for the next wait.
type epollBackend struct {
	epfd int

	mu       sync.Mutex
	watchers map[int]func()
}

func newBackend() (backend, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollBackend{epfd: epfd, watchers: make(map[int]func())}, nil
}

func (b *epollBackend) add(fd int, event byte, onReady func()) error {
	var events uint32 = unix.EPOLLONESHOT
	switch event {
	case 'r':
		events |= unix.EPOLLIN
	case 'w':
		events |= unix.EPOLLOUT
	}

	b.mu.Lock()
	_, existed := b.watchers[fd]
	b.watchers[fd] = onReady
	b.mu.Unlock()

	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	op := unix.EPOLL_CTL_ADD
	if existed {
		op = unix.EPOLL_CTL_MOD
	}
	err := unix.EpollCtl(b.epfd, op, fd, &ev)
	if err == unix.EEXIST {
		// A fired one-shot fd is disarmed, not removed: re-arm it.
		err = unix.EpollCtl(b.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
	}
	return err
}

func (b *epollBackend) remove(fd int) {
	b.mu.Lock()
	delete(b.watchers, fd)
	b.mu.Unlock()
	_ = unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (b *epollBackend) run(ctx context.Context) {
	events := make([]unix.EpollEvent, 64)
	for {
		if ctx.Err() != nil {
			return
		}
		n, err := unix.EpollWait(b.epfd, events, 250) // ms; bounded so ctx.Done is noticed promptly
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
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

func (b *epollBackend) close() error {
	return unix.Close(b.epfd)
}
