package wsengine

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"strings"

	"wsll/internal/tlstransport"
)

// websocketGUID is the RFC 6455 §1.3 magic string, grounded on
// pepnova-9-go-websocket-server/server.go's wsGUID constant.
const websocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// driveHandshake advances the pre-Connected state machine one step, per
// spec.md §4.3.5's bullet list: drive the TLS handshake, then send the
// upgrade request once it completes, then accumulate and parse the
// response.
func (c *Conn) driveHandshake() {
	if !c.transportHandshakeDone() {
		if err := c.transport.Handshake(c.host); err != nil {
			if tlstransport.IsWouldBlock(err) {
				return
			}
			c.fail(ReasonTransportError, err)
			return
		}
		c.st = stateHandshaking
	}

	if !c.upgradeSent {
		if err := c.sendUpgradeRequest(); err != nil {
			if tlstransport.IsWouldBlock(err) {
				return
			}
			c.fail(ReasonTransportError, err)
			return
		}
		c.upgradeSent = true
		return
	}

	c.readAndParseUpgradeResponse()
}

func (c *Conn) transportHandshakeDone() bool {
	return c.transport.CipherName() != ""
}

// sendUpgradeRequest writes the HTTP/1.1 upgrade request spec.md §4.3.1
// specifies: request line, Host (port suffix omitted only at the scheme
// default, always 443 here since the core is wss-only per spec.md §6),
// Upgrade/Connection, a fresh Sec-WebSocket-Key, and version 13.
func (c *Conn) sendUpgradeRequest() error {
	key, err := newWebSocketKey()
	if err != nil {
		return fmt.Errorf("wsengine: generate key: %w", err)
	}
	c.handshakeKey = key

	host := c.host
	if c.port != "443" {
		host = fmt.Sprintf("%s:%s", c.host, c.port)
	}

	req := fmt.Sprintf(
		"GET %s HTTP/1.1\r\n"+
			"Host: %s\r\n"+
			"Upgrade: websocket\r\n"+
			"Connection: Upgrade\r\n"+
			"Sec-WebSocket-Key: %s\r\n"+
			"Sec-WebSocket-Version: 13\r\n"+
			"\r\n",
		c.path, host, key,
	)

	_, err = c.transport.Send([]byte(req))
	return err
}

// newWebSocketKey draws 16 bytes from the strongest OS entropy source
// (spec.md §4.3.1: "/dev/urandom preferred") via crypto/rand, the Go
// stdlib's direct equivalent.
func newWebSocketKey() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf[:]), nil
}

func expectedAcceptValue(key string) string {
	h := sha1.Sum([]byte(key + websocketGUID))
	return base64.StdEncoding.EncodeToString(h[:])
}

// readAndParseUpgradeResponse appends up to the remaining handshake-buffer
// capacity, then looks for a terminating blank line, per spec.md §4.3.5.
// On finding one, it parses status and headers per §4.3.1's §9-fixed
// rules: only 101 is accepted, and Sec-WebSocket-Accept is validated.
func (c *Conn) readAndParseUpgradeResponse() {
	room := handshakeBufferCap - len(c.handshakeBuf)
	if room <= 0 {
		c.fail(ReasonProtocolViolation, fmt.Errorf("wsengine: upgrade response exceeded %d bytes", handshakeBufferCap))
		return
	}

	chunk := make([]byte, room)
	n, err := c.transport.ReadInto(chunk)
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
	c.handshakeBuf = append(c.handshakeBuf, chunk[:n]...)

	idx := strings.Index(string(c.handshakeBuf), "\r\n\r\n")
	if idx < 0 {
		return // incomplete; wait for the next Update
	}

	headerText := string(c.handshakeBuf[:idx])
	if err := c.validateUpgradeResponse(headerText); err != nil {
		c.fail(ReasonProtocolViolation, err)
		return
	}

	c.connected = true
	c.st = stateConnected
	c.onStatus(0, CloseReason{})
}

// validateUpgradeResponse implements spec.md §9 Open Question #1's fix:
// only HTTP 101 is accepted (the source's acceptance of 200 is rejected),
// and Sec-WebSocket-Accept is validated against the request key.
func (c *Conn) validateUpgradeResponse(headerText string) error {
	lines := strings.Split(headerText, "\r\n")
	if len(lines) == 0 {
		return fmt.Errorf("wsengine: empty upgrade response")
	}

	statusLine := lines[0]
	if !strings.Contains(statusLine, " 101 ") {
		return fmt.Errorf("wsengine: non-101 upgrade status: %q", statusLine)
	}

	headers := parseHeaderLines(lines[1:])

	upgrade := strings.ToLower(headers["upgrade"])
	if upgrade != "websocket" {
		return fmt.Errorf("wsengine: missing or invalid Upgrade header: %q", headers["upgrade"])
	}

	accept, ok := headers["sec-websocket-accept"]
	if !ok {
		return fmt.Errorf("wsengine: missing Sec-WebSocket-Accept header")
	}
	want := expectedAcceptValue(c.handshakeKey)
	if accept != want {
		return fmt.Errorf("wsengine: Sec-WebSocket-Accept mismatch: got %q want %q", accept, want)
	}

	return nil
}

// parseHeaderLines matches headers case-insensitively per spec.md §4.3.1.
func parseHeaderLines(lines []string) map[string]string {
	headers := make(map[string]string, len(lines))
	for _, line := range lines {
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(line[:colon]))
		value := strings.TrimSpace(line[colon+1:])
		headers[name] = value
	}
	return headers
}
