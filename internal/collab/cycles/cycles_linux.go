//go:build linux

// Package cycles implements the CycleCounter external collaborator
// spec.md §4.5/§6 names: a raw monotonic tick source the core's latency
// probes (event_tick, ssl_read_tick, and the handshake deadline) are
// measured against, with conversion to nanoseconds left to this
// collaborator rather than the core, exactly as spec.md §4.5 specifies.
package cycles

import (
	"time"

	"golang.org/x/sys/unix"
)

// Counter reads CLOCK_MONOTONIC_RAW, the same hardware-counter-backed
// clock source the teacher's SO_TIMESTAMPING control-message handling in
// tlstransport/timestamp_linux.go assumes for comparison, unaffected by
// NTP slewing.
type Counter struct{}

// New returns a ready-to-use Counter; CLOCK_MONOTONIC_RAW needs no setup.
func New() *Counter { return &Counter{} }

// NowTicks returns the current tick count in nanoseconds. Unlike an RDTSC-
// style cycle counter, clock_gettime's unit is already nanoseconds, so the
// ticks-to-nanoseconds conversion this collaborator owns (per spec.md
// §4.5) is the identity function here — callers should not assume a
// fixed ratio on a port that swaps in a true cycle counter.
func (c *Counter) NowTicks() uint64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC_RAW, &ts); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return uint64(ts.Sec)*1e9 + uint64(ts.Nsec)
}

// ToDuration converts a tick delta (as returned by subtracting two
// NowTicks results) into a time.Duration.
func (c *Counter) ToDuration(ticks uint64) time.Duration {
	return time.Duration(ticks)
}
