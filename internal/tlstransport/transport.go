// Package tlstransport drives the TLS session, socket tuning, kTLS
// activation probing, and NIC-timestamp capture underneath the WebSocket
// framing engine. It never touches the wire format; it only moves decrypted
// bytes in and masked bytes out.
package tlstransport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
)

// state mirrors spec.md §3's init → connecting → handshaking → established →
// closed lifecycle for the transport context.
type state int

const (
	stateInit state = iota
	stateConnecting
	stateHandshaking
	stateEstablished
	stateClosed
)

// liveMagic/freedMagic are the sentinel values guarding against double-free,
// the way spec.md §4.2 requires ("a magic-number sentinel ... turned into a
// no-op"). Modeled on the teacher's own liberal use of state sentinels in
// internal/active-probe.go's probe lifecycle flags.
const (
	liveMagic  uint32 = 0x54534c53 // "TSLS"
	freedMagic uint32 = 0x46524545 // "FREE"
)

const connectTimeout = 5 * time.Second

// connectParams bundles the dial target; create() resolves host:port once
// and keeps it for diagnostics.
type connectParams struct {
	host string
	port int
}

// Options bundles the per-connection parameters SPEC_FULL.md's
// internal/config.Config carries instead of handing them to Create as
// positional constructor arguments: the connect deadline, whether to
// probe for SO_TIMESTAMPING, and the TLS version/cipher policy.
type Options struct {
	// ConnectTimeout overrides the default connect deadline; zero keeps
	// the package default of connectTimeout.
	ConnectTimeout time.Duration

	// HardwareTimestamping opts into the SO_TIMESTAMPING probe spec.md
	// §4.2 describes. Off by default since most NICs/VMs don't support it.
	HardwareTimestamping bool

	// ForceTLS13 pins the session to TLS 1.3 only, skipping cipher-suite
	// selection (crypto/tls does not expose TLS 1.3 suite choice).
	ForceTLS13 bool

	// CipherList restricts TLS 1.2 negotiation to these OpenSSL-style
	// suite names (matched against tls.CipherSuites() names); empty keeps
	// the AES-GCM-first default list.
	CipherList []string
}

// Context is one TLS transport instance: one TCP socket, one TLS session,
// the kTLS/timestamp flags spec.md §3 names, and the last captured
// nic_timestamp slot. Not safe for concurrent use; the engine drives it from
// a single goroutine per spec.md §5.
type Context struct {
	magic uint32
	mu    sync.Mutex // guards only magic, for the double-free check

	params connectParams
	st     state

	rawConn *net.TCPConn
	ts      *timestampConn
	tlsConn *tls.Conn

	hwTimestampingEnabled bool
	ktlsSend              bool
	ktlsRecv              bool
	handshakeDone         bool

	forceTLS13 bool
	cipherList []string

	lastTimestamp nicTimestamp

	logger *logger
}

// nicTimestamp is the (nanoseconds, isHardware) pair spec.md §3 calls the
// "embedded nic_timestamp slot".
type nicTimestamp struct {
	ns       uint64
	hardware bool
	valid    bool
}

// Create resolves host (IPv4 only, per spec.md §1's non-goal on IPv6),
// opens a TCP socket tuned per spec.md §4.2, and requests hardware RX
// timestamping when opts.HardwareTimestamping asks for it. It does not
// perform the TLS handshake; call Handshake next.
func Create(host string, port int, opts Options) (ctx *Context, err error) {
	if host == "" {
		return nil, fmt.Errorf("tlstransport: empty host")
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("tlstransport: port out of range: %d", port)
	}

	c := &Context{
		magic:      liveMagic,
		params:     connectParams{host: host, port: port},
		st:         stateInit,
		logger:     newLogger(),
		forceTLS13: opts.ForceTLS13,
		cipherList: opts.CipherList,
	}

	defer func() {
		if err != nil && c.rawConn != nil {
			err = multierr.Append(err, c.rawConn.Close())
		}
	}()

	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = connectTimeout
	}

	c.st = stateConnecting
	conn, dialErr := dialTCP(host, port, timeout)
	if dialErr != nil {
		return nil, fmt.Errorf("tlstransport: connect %s:%d: %w", host, port, dialErr)
	}
	c.rawConn = conn

	if tuneErr := tuneSocket(conn); tuneErr != nil {
		return nil, multierr.Combine(fmt.Errorf("tlstransport: tune socket: %w", tuneErr), conn.Close())
	}

	if opts.HardwareTimestamping {
		c.hwTimestampingEnabled = requestHardwareTimestamping(conn, c.logger)
	}
	c.ts = newTimestampConn(conn, c.hwTimestampingEnabled, c.logger)

	return c, nil
}

func dialTCP(host string, port int, timeout time.Duration) (*net.TCPConn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var d net.Dialer
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	rawConn, err := d.DialContext(ctx, "tcp4", addr)
	if err != nil {
		return nil, err
	}
	tcpConn, ok := rawConn.(*net.TCPConn)
	if !ok {
		_ = rawConn.Close()
		return nil, fmt.Errorf("unexpected connection type %T", rawConn)
	}
	return tcpConn, nil
}

// checkLive returns an error and leaves ctx untouched if it has already
// been freed; every exported method funnels through this first.
func (c *Context) checkLive() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.magic != liveMagic {
		return fmt.Errorf("tlstransport: use of freed context")
	}
	return nil
}

// Close releases the TLS session and the socket, cascading every partial
// failure into one aggregated error per spec.md §4.2. A second Close call
// is a no-op, detected via the magic sentinel.
func (c *Context) Close() error {
	c.mu.Lock()
	if c.magic != liveMagic {
		c.mu.Unlock()
		return nil
	}
	c.magic = freedMagic
	c.mu.Unlock()

	var err error
	if c.tlsConn != nil {
		err = multierr.Append(err, c.tlsConn.Close())
	} else if c.rawConn != nil {
		err = multierr.Append(err, c.rawConn.Close())
	}
	c.st = stateClosed
	return err
}

// Mode reports whether the active cipher is running through the kernel's
// TLS offload or entirely in userspace.
func (c *Context) Mode() string {
	if c.ktlsSend || c.ktlsRecv {
		return "kernel"
	}
	return "userspace"
}

// CipherName returns the negotiated cipher suite's name, or "" before the
// handshake completes.
func (c *Context) CipherName() string {
	if c.tlsConn == nil {
		return ""
	}
	return tls.CipherSuiteName(c.tlsConn.ConnectionState().CipherSuite)
}

// HasAESHardware reports whether the negotiated suite is an AES-GCM suite,
// the cipher family spec.md §4.2's prioritized list favors for AES-NI.
func (c *Context) HasAESHardware() bool {
	name := c.CipherName()
	return containsAESGCM(name)
}

// Pending returns bytes already decrypted and buffered inside the TLS
// session — spec.md §4.2's hint for whether another ReadInto is likely to
// return data without a syscall. crypto/tls does not expose a buffered-byte
// count, so this is approximated by whether the last read from the
// underlying socket filled its whole buffer (1 if so, else 0).
func (c *Context) Pending() int {
	if c.ts == nil {
		return 0
	}
	return c.ts.pendingHint()
}

// NicTimestamp returns the most recent timestamp recovered from a receive
// control message, and whether it came from hardware.
func (c *Context) NicTimestamp() (ns uint64, hardware bool, ok bool) {
	return c.lastTimestamp.ns, c.lastTimestamp.hardware, c.lastTimestamp.valid
}

// Fd returns the underlying socket's file descriptor, for an event-notifier
// collaborator (spec.md §6) to register. Best-effort: returns an error if
// the raw connection is unavailable (not yet created, or already closed).
func (c *Context) Fd() (int, error) {
	if c.rawConn == nil {
		return 0, fmt.Errorf("tlstransport: no underlying connection")
	}
	rawConn, err := c.rawConn.SyscallConn()
	if err != nil {
		return 0, err
	}
	var fd int
	ctrlErr := rawConn.Control(func(f uintptr) { fd = int(f) })
	if ctrlErr != nil {
		return 0, ctrlErr
	}
	return fd, nil
}

func envFlag(name string) bool {
	return os.Getenv(name) == "1"
}

func containsAESGCM(cipherName string) bool {
	return strings.Contains(cipherName, "AES_128_GCM") || strings.Contains(cipherName, "AES_256_GCM")
}
