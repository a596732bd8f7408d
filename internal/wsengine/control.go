package wsengine

import "encoding/binary"

// controlReserve is the small TX allowance spec.md §9 Open Question #6
// asks for: enough room for one maximal control frame (125-byte payload,
// 10-byte-class header never applies here since control frames are capped
// at 125 bytes, so the header is always 2+4=6 bytes) so a PING elicits a
// PONG even when the TX ring is nearly full of outbound data frames.
const controlReserve = 6 + maxControlPayload

// respondPong synthesizes a PONG with the PING's payload, per spec.md
// §4.3.4. If the TX ring cannot fit it even after accounting for the
// reserved control allowance, it is dropped silently (RFC 6455 permits
// best-effort PONG delivery).
func (c *Conn) respondPong(payload []byte) error {
	return c.send(OpPong, payload)
}

// respondClose synthesizes a masked CLOSE response echoing only the 2-byte
// status code, per spec.md §4.3.4, and reports whether the reply was
// actually queued. Implements the §9 Open Question #4 fix: the caller must
// only transition to closed when this returns true. A false return means
// neither the immediate queue nor a best-effort flush-and-retry freed
// enough room; the status is stashed so retryPendingPeerClose can keep
// trying on later Update ticks instead of force-closing without a reply.
func (c *Conn) respondClose(payload []byte) bool {
	status := payload[:2]
	if c.queueFrame(OpClose, status) {
		return true
	}
	// Best-effort flush: drain whatever is already pending, then retry
	// once before giving up for this tick.
	c.flushTX()
	if c.queueFrame(OpClose, status) {
		return true
	}
	c.pendingCloseStatus[0], c.pendingCloseStatus[1] = status[0], status[1]
	c.pendingPeerClose = true
	return false
}

// retryPendingPeerClose is driven once per Update tick while a peer CLOSE
// reply could not be queued yet. It is the other half of the §9 #4 fix: the
// connection stays open — never force-closed — until the reply genuinely
// fits, however many ticks that takes.
func (c *Conn) retryPendingPeerClose() {
	if !c.pendingPeerClose {
		return
	}
	if c.queueFrame(OpClose, c.pendingCloseStatus[:]) {
		c.pendingPeerClose = false
		c.closeAfterPeerClose()
	}
}

// closeAfterPeerClose transitions to closed once a CLOSE frame has been
// delivered to the user callback and (best-effort) responded to.
func (c *Conn) closeAfterPeerClose() {
	if c.closed.Load() {
		return
	}
	c.closed.Store(true)
	c.connected = false
	c.st = stateClosed
	reason := CloseReason{Kind: ReasonPeerClose}
	c.lastReason = reason
	c.onStatus(-1, reason)
}

// CloseNormal sends a client-initiated CLOSE with status 1000 (Normal
// Closure) and transitions to closed, per spec.md §4.3.4. Socket shutdown
// itself is deferred to Close(), allowing the queued CLOSE to drain.
func (c *Conn) CloseNormal() error {
	if c.closed.Load() {
		return nil
	}
	status := make([]byte, 2)
	binary.BigEndian.PutUint16(status, 1000)
	c.queueFrame(OpClose, status)

	c.closed.Store(true)
	c.connected = false
	c.st = stateClosed
	reason := CloseReason{Kind: ReasonLocalClose}
	c.lastReason = reason
	c.onStatus(-1, reason)
	return nil
}

// LastCloseReason returns the reason the connection last closed, the
// supplemental structured-close-reason feature (SPEC_FULL.md §3).
func (c *Conn) LastCloseReason() CloseReason { return c.lastReason }
