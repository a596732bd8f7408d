package wsengine

import (
	"fmt"

	"wsll/internal/tlstransport"
)

// maxFlushChunk bounds each TX-ring drain call per spec.md §4.3.5: "drain
// the TX ring through TLS send in chunks bounded at 4096 bytes".
const maxFlushChunk = 4096

// Update is the single-threaded, non-blocking drive step an event loop
// calls whenever the event notifier reports the connection's fd readable
// or writable, per spec.md §4.3.5. It never sleeps or yields (spec.md §5).
func (c *Conn) Update() {
	if c.closed.Load() {
		return
	}

	if c.handshakeTimeoutTicks > 0 && !c.connected && c.cycles != nil {
		if c.cycles.NowTicks()-c.handshakeStart > c.handshakeTimeoutTicks {
			c.fail(ReasonTransportError, fmt.Errorf("wsengine: handshake did not complete before the deadline"))
			return
		}
	}

	if !c.connected {
		c.driveHandshake()
		return
	}

	c.ingest()
	if c.closed.Load() {
		return
	}

	c.parseLoop()
	if c.closed.Load() {
		return
	}

	if c.hasPendingTX {
		c.flushTX()
	}

	c.retryPendingPeerClose()
}

// flushTX drains the TX ring through the TLS transport in bounded chunks,
// clearing hasPendingTX and dropping WRITE interest once the ring empties,
// per spec.md §4.3.5's last sentence.
func (c *Conn) flushTX() {
	for {
		region := c.tx.ReadRegion()
		if len(region) == 0 {
			c.hasPendingTX = false
			c.requestWriteInterest(false)
			return
		}
		if uint64(len(region)) > maxFlushChunk {
			region = region[:maxFlushChunk]
		}

		n, err := c.transport.Send(region)
		if err != nil {
			if tlstransport.IsWouldBlock(err) {
				return
			}
			c.fail(ReasonTransportError, err)
			return
		}
		if n == 0 {
			return
		}
		c.tx.AdvanceRead(uint64(n))
	}
}
