//go:build !linux

package cycles

import "time"

// Counter falls back to time.Now on platforms without CLOCK_MONOTONIC_RAW.
type Counter struct{}

func New() *Counter { return &Counter{} }

func (c *Counter) NowTicks() uint64 { return uint64(time.Now().UnixNano()) }

func (c *Counter) ToDuration(ticks uint64) time.Duration { return time.Duration(ticks) }
