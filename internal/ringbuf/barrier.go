package ringbuf

import "sync/atomic"

// loadAcquire/storeRelease/loadRelease give the commit/advance paths the
// ordering spec.md §4.1 calls for: a release-store on commit so a reader
// observing the new offset also observes the bytes written before it, and
// an acquire-load before reading the peer's offset. sync/atomic's ops are
// sequentially consistent, which is a strict superset of what's required
// here; on x86-TSO and arm64 the runtime lowers them to the same barriers
// a hand-written release/acquire pair would use.

func loadAcquire(p *uint64) uint64    { return atomic.LoadUint64(p) }
func storeRelease(p *uint64, v uint64) { atomic.StoreUint64(p, v) }
func loadRelease(p *uint64) uint64    { return atomic.LoadUint64(p) }
