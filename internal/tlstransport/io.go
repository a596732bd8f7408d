package tlstransport

import (
	"errors"
	"io"
	"net"
	"time"
)

// ReadInto decrypts up to len(buf) bytes directly into buf, spec.md §4.2's
// read_into. It returns (n, nil) on a successful decrypt, (0, nil) on
// orderly close, and (0, err) where err wraps a would-block or fatal
// condition the caller distinguishes with IsWouldBlock.
func (c *Context) ReadInto(buf []byte) (int, error) {
	if err := c.checkLive(); err != nil {
		return 0, err
	}
	if c.tlsConn == nil {
		return 0, errors.New("tlstransport: read before handshake")
	}

	// After the handshake the socket is driven non-blocking per spec.md
	// §4.2; crypto/tls has no non-blocking mode of its own, so an
	// immediate read deadline stands in for O_NONBLOCK, turning "no more
	// bytes available right now" into a timeout the caller treats as
	// would-block (the polled-readiness discipline of spec.md §5 means
	// this deadline almost never actually trips under real traffic).
	_ = c.tlsConn.SetReadDeadline(time.Now().Add(time.Microsecond))
	n, err := c.tlsConn.Read(buf)
	if err == nil {
		if nicErr := c.captureTimestamp(); nicErr {
			// best-effort only; no error path, see timestamp_linux.go
		}
		return n, nil
	}
	if errors.Is(err, io.EOF) {
		return 0, nil
	}
	if isWouldBlock(err) {
		return 0, errWouldBlock
	}
	return 0, err
}

// Send writes masked frame bytes already assembled by the framing engine.
// 0 (with errWouldBlock) means "would block" per spec.md §4.2.
func (c *Context) Send(data []byte) (int, error) {
	if err := c.checkLive(); err != nil {
		return 0, err
	}
	if c.tlsConn == nil {
		return 0, errors.New("tlstransport: send before handshake")
	}

	_ = c.tlsConn.SetWriteDeadline(time.Now().Add(time.Microsecond))
	n, err := c.tlsConn.Write(data)
	if err != nil {
		if isWouldBlock(err) {
			return 0, errWouldBlock
		}
		return 0, err
	}
	return n, nil
}

var errWouldBlock = errors.New("tlstransport: would block")

// IsWouldBlock reports whether err is the sentinel ReadInto/Send use for a
// non-fatal would-block condition.
func IsWouldBlock(err error) bool { return errors.Is(err, errWouldBlock) }

func isWouldBlock(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return errors.Is(err, errWouldBlock)
}

// captureTimestamp copies the timestampConn's last-seen NIC timestamp into
// the context's latency-probe slot. Returns true when a timestamp was
// captured this call; ReadInto ignores the result.
func (c *Context) captureTimestamp() bool {
	ts := c.ts.lastTimestampSnapshot()
	if !ts.valid {
		return false
	}
	c.lastTimestamp = ts
	return true
}
