package wsengine

// ringReader is the subset of *ringbuf.Ring assembleAcrossWrap needs.
type ringReader interface {
	CopyOut(dst []byte) int
	IsMirrored() bool
	AvailableRead() uint64
}

// assembleAcrossWrap copies n logical bytes out of a non-mirrored ring
// into a freshly allocated buffer when a frame straddles the physical end
// of the backing array. This is the one place the parser is not
// zero-copy: it only runs on the heap/huge-page fallback tiers, never on
// the mirrored tier spec.md §4.1 prefers.
func assembleAcrossWrap(r ringReader, n uint64) []byte {
	buf := make([]byte, n)
	r.CopyOut(buf)
	return buf
}

// parseLoop implements spec.md §4.3.2: while the RX ring has at least 2
// readable bytes, peek a header, decide completeness, and deliver full
// frames to the message callback (after any automatic PING/CLOSE
// response has been queued, per spec.md §5's ordering guarantee and §9's
// re-entrant-send note: the read cursor has already advanced before the
// callback runs, so a send() from within it is safe).
func (c *Conn) parseLoop() {
	for {
		region := c.rx.PeekRegion()
		if len(region) < 2 {
			return
		}

		hdr, incomplete, violation := parseHeader(region)
		if violation != violationNone {
			c.failProtocol(violation)
			return
		}
		if incomplete {
			return
		}

		if uint64(len(region)) < hdr.total {
			// On the mirrored ring tier this never happens — the peeked
			// region is always the full contiguous AvailableRead(). On a
			// non-mirrored fallback ring, the physical buffer can still
			// end mid-frame even though the logical bytes exist just past
			// the wrap. Assemble a small per-frame copy in that case
			// rather than waiting for bytes that have already arrived.
			if c.rx.IsMirrored() || uint64(c.rx.AvailableRead()) < hdr.total {
				return // genuinely incomplete; wait for more bytes
			}
			region = assembleAcrossWrap(c.rx, hdr.total)
		}

		payload := region[hdr.headerLen:hdr.total]

		var closeReplyQueued bool
		switch hdr.opcode {
		case OpPing:
			if err := c.respondPong(payload); err != nil {
				// best-effort per spec.md §4.3.4: drop silently, frame
				// is still delivered to the user callback below.
			}
		case OpClose:
			if len(payload) == 1 {
				c.failProtocol(violationShortClosePayload)
				return
			}
			closeReplyQueued = c.respondClose(payload)
		}

		c.rx.AdvanceRead(hdr.total)

		c.onMessage(hdr.opcode, payload)

		if hdr.opcode == OpClose {
			// Only transition to closed once the reply is actually queued
			// (spec.md §9 Open Question #4's fix). Otherwise leave the
			// connection open: retryPendingPeerClose keeps trying on later
			// Update ticks instead of force-closing without having replied.
			if closeReplyQueued {
				c.closeAfterPeerClose()
			}
			return
		}
		if c.closed.Load() {
			return
		}
	}
}

func (c *Conn) failProtocol(kind violationKind) {
	c.fail(ReasonProtocolViolation, violationError(kind))
}

func violationError(kind violationKind) error {
	switch kind {
	case violationServerMasked:
		return errProtocol("server sent a masked frame")
	case violationNonMinimalLength:
		return errProtocol("non-minimal length encoding")
	case violationLengthOverflow:
		return errProtocol("frame length arithmetic overflow")
	case violationOversizeControlFrame:
		return errProtocol("control frame payload exceeds 125 bytes")
	case violationShortClosePayload:
		return errProtocol("close frame payload length is 1")
	default:
		return errProtocol("protocol violation")
	}
}

type errProtocol string

func (e errProtocol) Error() string { return string(e) }
