// Package backoff implements the CLI harness's reconnect-with-backoff
// loop, adapted from the teacher's applyJitter/minDur helpers in
// internal/util.go and its HealthcheckConfig backoff fields. It is
// explicitly not part of the core wsengine package: per spec.md §5 the
// engine has no built-in reconnection, so cmd/wsll-client owns this loop
// and constructs a fresh wsengine.Conn on every attempt.
package backoff

import (
	"math/rand"
	"time"
)

// Backoff tracks the current retry interval for one reconnect loop,
// growing it by Factor on every Next call and resetting it on Reset,
// the same min/max/jitter/factor shape as the teacher's HealthcheckConfig.
type Backoff struct {
	Min    time.Duration
	Max    time.Duration
	Jitter time.Duration
	Factor float64

	current time.Duration
}

// New builds a Backoff seeded at min.
func New(min, max, jitter time.Duration, factor float64) *Backoff {
	if factor <= 1 {
		factor = 1.6
	}
	return &Backoff{Min: min, Max: max, Jitter: jitter, Factor: factor, current: min}
}

// Next returns the interval to wait before the next attempt, growing the
// internal interval by Factor (capped at Max) and applying jitter, the
// same two-step the teacher's healthcheck scheduler uses: grow, then
// jitter. The jittered value itself is never saved back into current —
// only the unjittered interval compounds across failures.
func (b *Backoff) Next() time.Duration {
	if b.current == 0 {
		b.current = b.Min
	}
	d := applyJitter(b.current, b.Jitter)

	grown := time.Duration(float64(b.current) * b.Factor)
	b.current = minDur(grown, b.Max)
	if b.current < b.Min {
		b.current = b.Min
	}
	return d
}

// Reset returns the interval to Min after a successful connection.
func (b *Backoff) Reset() {
	b.current = b.Min
}

// applyJitter shifts d by a uniformly random amount in [-jitter, +jitter],
// matching the teacher's applyJitter shape, using math/rand instead of a
// hand-rolled LCG since this runs in the CLI harness, never the hot path.
func applyJitter(d, jitter time.Duration) time.Duration {
	if jitter <= 0 {
		return d
	}
	j := time.Duration(rand.Int63n(2*int64(jitter)+1) - int64(jitter))
	if d+j < 0 {
		return d
	}
	return d + j
}

func minDur(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
