package main

import (
	"github.com/riobard/go-bloom"
)

// dedup wraps an optional bloom filter the CLI harness uses to suppress
// already-seen message ids on an at-least-once upstream feed, per
// SPEC_FULL.md §3's supplemental feature — a convenience the core itself
// never needs or imports.
type dedup struct {
	filter *bloom.Filter
}

// newDedup builds a filter sized for expectedItems at the given false-
// positive rate, or returns a disabled dedup when expectedItems is zero.
func newDedup(expectedItems int, falsePositiveRate float64) *dedup {
	if expectedItems <= 0 {
		return &dedup{}
	}
	return &dedup{filter: bloom.New(expectedItems, falsePositiveRate)}
}

// Seen reports whether id has been observed before, recording it as seen
// either way. Always reports false when dedup is disabled.
func (d *dedup) Seen(id []byte) bool {
	if d.filter == nil {
		return false
	}
	seen := d.filter.Test(id)
	d.filter.Add(id)
	return seen
}
