package xoshiro

import "sync/atomic"

// volatileZero clears *p with an atomic store. Atomic stores are observable
// side effects the compiler must not optimize away, giving us the
// "volatile write" spec.md §4.4 asks for without a language-level volatile
// keyword.
func volatileZero(p *uint32) {
	atomic.StoreUint32(p, 0)
}
