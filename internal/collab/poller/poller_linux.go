//go:build linux

// Package poller implements the EventNotifier external collaborator spec.md
// §6 names, as a thin wrapper over golang.org/x/sys/unix's epoll calls —
// the same raw-syscall style the teacher's tlstransport/ktls_linux.go uses
// for TCP_ULP, generalized here to level-triggered readiness for one fd at
// a time (kqueue is stubbed out on other platforms, matching spec.md §1's
// Linux-first framing and the teacher's own //go:build linux split for
// tun_native_linux.go vs tun_native_other.go).
package poller

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Poller owns one epoll instance and the set of fds registered against it.
// Not safe for concurrent Wait/Mod calls from different goroutines; the
// CLI harness drives it from a single event loop goroutine, matching
// spec.md §5's single-threaded engine-drive requirement.
type Poller struct {
	epfd int
}

// New creates an epoll instance.
func New() (*Poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("poller: epoll_create1: %w", err)
	}
	return &Poller{epfd: fd}, nil
}

// Add registers fd for READ interest, and WRITE interest too if writable.
func (p *Poller) Add(fd int, writable bool) error {
	ev := unix.EpollEvent{Fd: int32(fd), Events: eventMask(writable)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("poller: epoll_ctl add: %w", err)
	}
	return nil
}

// Mod implements wsengine.EventNotifier: it raises or drops WRITE interest
// on fd, the only thing the core ever asks of this collaborator (spec.md
// §6 — "EventNotifier.Mod(fd, writable)").
func (p *Poller) Mod(fd int, writable bool) error {
	ev := unix.EpollEvent{Fd: int32(fd), Events: eventMask(writable)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return fmt.Errorf("poller: epoll_ctl mod: %w", err)
	}
	return nil
}

// Remove deregisters fd.
func (p *Poller) Remove(fd int) error {
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("poller: epoll_ctl del: %w", err)
	}
	return nil
}

// Wait blocks up to timeoutMs (or indefinitely if negative) and returns the
// fds that became ready.
func (p *Poller) Wait(timeoutMs int) ([]int, error) {
	events := make([]unix.EpollEvent, 16)
	n, err := unix.EpollWait(p.epfd, events, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, fmt.Errorf("poller: epoll_wait: %w", err)
	}
	ready := make([]int, n)
	for i := 0; i < n; i++ {
		ready[i] = int(events[i].Fd)
	}
	return ready, nil
}

// Close releases the epoll instance.
func (p *Poller) Close() error {
	return unix.Close(p.epfd)
}

func eventMask(writable bool) uint32 {
	mask := uint32(unix.EPOLLIN)
	if writable {
		mask |= unix.EPOLLOUT
	}
	return mask
}
