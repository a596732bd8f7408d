package wsengine

import (
	"fmt"
	"log"
	"time"

	"go.uber.org/atomic"

	"wsll/internal/ringbuf"
	"wsll/internal/tlstransport"
	"wsll/internal/xoshiro"
)

// connState mirrors spec.md §3's Connecting/Handshaking/Connected/Closed
// state machine, driven solely by Update ticks (spec.md §3's last line).
type connState int

const (
	stateConnecting connState = iota
	stateHandshaking
	stateConnected
	stateClosed
)

// EventNotifier is the external collaborator spec.md §6 names: the core
// only calls Mod, to raise or drop WRITE interest on the connection's fd.
type EventNotifier interface {
	Mod(fd int, writable bool) error
}

// CycleCounter is the external timing collaborator spec.md §4.5/§6 names.
type CycleCounter interface {
	NowTicks() uint64
}

// MessageFunc receives a zero-copy view into the RX ring: p is valid only
// until the next Update call returns (spec.md §9's "zero-copy frame
// pointers into a ring" lifetime rule).
type MessageFunc func(opcode Opcode, p []byte)

// StatusFunc is invoked once with 0 on successful handshake and with -1 on
// any fatal transport or protocol-violation closure, per spec.md §4.3.1
// and §7.
type StatusFunc func(code int, reason CloseReason)

// CloseReason is the supplemental structured close-reason feature from
// SPEC_FULL.md §3, grounded on the teacher's failureReason(err) classifier
// in internal/metrics.go: a typed alternative to string-matching an error.
type CloseReason struct {
	Kind ReasonKind
	Err  error
}

// ReasonKind enumerates why a connection closed.
type ReasonKind int

const (
	ReasonNone ReasonKind = iota
	ReasonTransportError
	ReasonProtocolViolation
	ReasonPeerClose
	ReasonLocalClose
)

// String renders a short label, the same style as the teacher's own
// failureReason(err) classifier categories ("timeout", "tls", "dns", ...),
// for logging and the metrics endpoint's reason label.
func (k ReasonKind) String() string {
	switch k {
	case ReasonTransportError:
		return "transport_error"
	case ReasonProtocolViolation:
		return "protocol_violation"
	case ReasonPeerClose:
		return "peer_close"
	case ReasonLocalClose:
		return "local_close"
	default:
		return "none"
	}
}

const handshakeBufferCap = 4096

// Conn is one WebSocket-over-TLS connection: the TLS transport, one RX and
// one TX ring buffer, the masking PRNG, URL components, handshake state,
// and the three latency-probe timestamps. Not safe for concurrent use
// except where noted (spec.md §5): exactly one goroutine drives Update.
type Conn struct {
	transport *tlstransport.Context
	rx        *ringbuf.Ring
	tx        *ringbuf.Ring
	prng      xoshiro.State

	host, port, path string

	handshakeBuf   []byte
	upgradeSent    bool
	handshakeStart uint64
	handshakeKey   string

	connected bool
	// closed is the one field spec.md §5 permits a goroutine outside the
	// single engine thread to read (a supervisory/metrics loop); every
	// mutation still happens only from the Update goroutine. Backed by
	// atomic.Bool rather than a hand-rolled sync/atomic wrapper, matching
	// the pack's preference for typed atomics over bare atomic calls.
	closed atomic.Bool

	// pendingPeerClose and pendingCloseStatus hold a CLOSE reply that
	// didn't fit on the tick it arrived, per the §9 #4 fix in control.go's
	// respondClose/retryPendingPeerClose.
	pendingPeerClose   bool
	pendingCloseStatus [2]byte

	eventTick    uint64
	sslReadTick  uint64
	hwNicNs      uint64
	hwNicIsHW    bool
	hasHwNicTS   bool
	hasPendingTX bool

	handshakeTimeoutTicks uint64

	notifier EventNotifier
	cycles   CycleCounter

	onMessage MessageFunc
	onStatus  StatusFunc

	st         connState
	lastReason CloseReason

	logger *log.Logger
}

// Config bundles the parameters New needs beyond the URL, mirroring the way
// internal/config's Config struct (SPEC_FULL.md §2) is expected to supply
// them at the CLI layer.
type Config struct {
	RingSize uint64 // must be a power of two; spec.md §3 references 2^23

	// HandshakeTimeoutTicks bounds the pre-Connected phase in raw cycle-
	// counter units (spec.md §9 Open Question #5's fix: "no handshake-
	// phase timeout exists ... add a deadline measured against the cycle
	// counter"). Zero disables the deadline. Expressed in ticks rather
	// than a time.Duration because converting ticks to nanoseconds is the
	// cycle-counter collaborator's job (spec.md §4.5), not the core's.
	HandshakeTimeoutTicks uint64

	// ConnectTimeout, HardwareTimestamping, ForceTLS13, and CipherList pass
	// straight through to tlstransport.Create/Options — SPEC_FULL.md §2's
	// internal/config.Config carries these so the CLI harness can set them
	// per connection instead of them being hardcoded in the transport.
	ConnectTimeout       time.Duration
	HardwareTimestamping bool
	ForceTLS13           bool
	CipherList           []string
}

// New creates RX/TX ring buffers and a TLS transport for host:port, seeds
// the masking PRNG, and leaves the connection in the Connecting state.
// Callers drive it forward with repeated Update calls.
func New(host string, port int, path string, cfg Config, notifier EventNotifier, cycles CycleCounter, onMessage MessageFunc, onStatus StatusFunc) (*Conn, error) {
	if host == "" {
		return nil, fmt.Errorf("wsengine: empty host")
	}
	if onMessage == nil || onStatus == nil {
		return nil, fmt.Errorf("wsengine: callbacks are required")
	}

	rx, err := ringbuf.New(cfg.RingSize)
	if err != nil {
		return nil, fmt.Errorf("wsengine: rx ring: %w", err)
	}
	tx, err := ringbuf.New(cfg.RingSize)
	if err != nil {
		_ = rx.Free()
		return nil, fmt.Errorf("wsengine: tx ring: %w", err)
	}

	transport, err := tlstransport.Create(host, port, tlstransport.Options{
		ConnectTimeout:       cfg.ConnectTimeout,
		HardwareTimestamping: cfg.HardwareTimestamping,
		ForceTLS13:           cfg.ForceTLS13,
		CipherList:           cfg.CipherList,
	})
	if err != nil {
		_ = rx.Free()
		_ = tx.Free()
		return nil, fmt.Errorf("wsengine: transport: %w", err)
	}

	c := &Conn{
		transport:             transport,
		rx:                    rx,
		tx:                    tx,
		host:                  host,
		port:                  fmt.Sprintf("%d", port),
		path:                  path,
		handshakeBuf:          make([]byte, 0, handshakeBufferCap),
		handshakeTimeoutTicks: cfg.HandshakeTimeoutTicks,
		notifier:              notifier,
		cycles:                cycles,
		onMessage:             onMessage,
		onStatus:              onStatus,
		st:                    stateConnecting,
	}
	if err := xoshiro.SeedFromEntropy(&c.prng); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("wsengine: seed prng: %w", err)
	}
	if cycles != nil {
		c.handshakeStart = cycles.NowTicks()
	}
	return c, nil
}

// Close tears down the transport, frees both rings, and wipes the masking
// PRNG state, per spec.md §3's "the PRNG state is zeroed on free" and
// §4.4's volatile-wipe requirement.
func (c *Conn) Close() error {
	c.closed.Store(true)
	c.connected = false
	c.st = stateClosed
	c.prng.Wipe()

	// Best-effort drain of anything still queued (such as the CLOSE frame
	// CloseNormal leaves in the TX ring) before the socket is closed.
	if c.hasPendingTX && c.transport != nil && c.tx != nil {
		c.flushTX()
	}

	var err error
	if c.transport != nil {
		if e := c.transport.Close(); e != nil {
			err = e
		}
	}
	if c.rx != nil {
		if e := c.rx.Free(); e != nil && err == nil {
			err = e
		}
	}
	if c.tx != nil {
		if e := c.tx.Free(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// Fd returns the underlying socket descriptor, so the CLI harness can
// register initial READ interest with its EventNotifier before the first
// Update call — the core itself only ever raises/drops WRITE interest on
// an already-registered fd (spec.md §6), it never performs the initial
// registration.
func (c *Conn) Fd() (int, error) { return c.transport.Fd() }

// Connected reports whether the handshake completed successfully.
func (c *Conn) Connected() bool { return c.connected }

// Closed reports whether the connection is permanently closed, per
// spec.md §3's invariant `closed ⇒ ¬connected`.
func (c *Conn) Closed() bool { return c.closed.Load() }

func (c *Conn) fail(kind ReasonKind, err error) {
	if c.closed.Load() {
		return
	}
	c.closed.Store(true)
	c.connected = false
	c.st = stateClosed
	reason := CloseReason{Kind: kind, Err: err}
	c.lastReason = reason
	c.onStatus(-1, reason)
}
