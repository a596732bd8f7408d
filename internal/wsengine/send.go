package wsengine

import "fmt"

// SendText masks and queues a TEXT frame, the TEXT-default convenience call
// spec.md §9 Open Question #2 asks for.
func (c *Conn) SendText(payload []byte) error {
	return c.send(OpText, payload)
}

// SendBinary masks and queues a BINARY frame, the supplemental opcode
// parameterization from SPEC_FULL.md §3 resolving §9 #2 in full: the
// opcode is a parameter, TEXT is only the default.
func (c *Conn) SendBinary(payload []byte) error {
	return c.send(OpBinary, payload)
}

// send implements spec.md §4.3.3's write path. Once closed, every call is
// a no-op returning an error, per spec.md §7's "closed-on-first-error"
// policy and §8's testable property 6.
func (c *Conn) send(opcode Opcode, payload []byte) error {
	if c.closed.Load() {
		return fmt.Errorf("wsengine: send on closed connection")
	}
	if !c.queueFrame(opcode, payload) {
		return fmt.Errorf("wsengine: tx ring full")
	}
	return nil
}

// queueFrame reserves room for the full framed+masked message before
// touching the ring at all — the reservation-then-commit design spec.md §9
// recommends over committing a header without its payload — then writes it
// across one or two physical segments depending on where the ring's
// physical wrap falls.
func (c *Conn) queueFrame(opcode Opcode, payload []byte) bool {
	total := uint64(headerLenFor(uint64(len(payload)))) + uint64(len(payload))

	// Data frames leave controlReserve bytes untouched so a PING arriving
	// while the TX ring is nearly full of outbound data still has room
	// for its PONG — the §9 Open Question #6 fix. Control frames (PING
	// response, CLOSE) may spend into that reserve themselves.
	required := total
	if !opcode.isControl() {
		required += controlReserve
	}
	if c.tx.AvailableWrite() < required {
		return false
	}

	key := maskKeyBytes(c.prng.Next())

	buf := make([]byte, total)
	hlen := encodeHeader(buf, opcode, uint64(len(payload)), key)
	copy(buf[hlen:], payload)
	applyMask(buf[hlen:], key)

	writeFlatToRing(c.tx, buf)

	c.hasPendingTX = true
	c.requestWriteInterest(true)
	return true
}

// maskKeyBytes lays the PRNG's 32-bit output out little-endian, matching
// spec.md §8 scenario 2's literal example (`K = 0x00112233` stored as
// `33 22 11 00`).
func maskKeyBytes(v uint32) [4]byte {
	return [4]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

// writeFlatToRing copies buf into the ring across as many WriteRegion/
// CommitWrite pairs as its physical layout requires. Callers must have
// already verified AvailableWrite() >= len(buf).
func writeFlatToRing(r ringWriter, buf []byte) {
	off := 0
	for off < len(buf) {
		region := r.WriteRegion()
		n := copy(region, buf[off:])
		r.CommitWrite(uint64(n))
		off += n
	}
}

// ringWriter is the subset of *ringbuf.Ring that writeFlatToRing needs,
// kept as an interface only to make it independently testable.
type ringWriter interface {
	WriteRegion() []byte
	CommitWrite(uint64) uint64
}

func (c *Conn) requestWriteInterest(writable bool) {
	if c.notifier == nil {
		return
	}
	fd, err := c.transport.Fd()
	if err != nil {
		return
	}
	_ = c.notifier.Mod(fd, writable)
}
