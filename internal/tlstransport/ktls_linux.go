//go:build linux

package tlstransport

import "golang.org/x/sys/unix"

// TCP_ULP / SOL_TLS are not exported by x/sys/unix (no Linux TLS-ULP
// wrapper exists there), so they're named directly here, the way
// other_examples/13343ae1_olebeck-goktls__ktls_linux.go.go does for the
// same constants.
const (
	tcpULP = 31
	solTLS = 282
)

// tryActivateKTLS asks the kernel to attach the "tls" upper-layer protocol
// to the socket once the handshake is established, per spec.md §4.2's
// "requests kTLS if the library supports it". crypto/tls keeps its derived
// session keys unexported, so this port cannot complete the second half of
// kTLS activation (installing those keys via SOL_TLS/TLS_TX setsockopt) the
// way the C reference does; ktlsSend/ktlsRecv therefore stay false and
// Mode() reports "userspace" even when TCP_ULP attaches successfully. See
// DESIGN.md for why this is the honest stopping point rather than a cgo or
// unsafe-reflection workaround.
func (c *Context) tryActivateKTLS() {
	rawConn, err := c.rawConn.SyscallConn()
	if err != nil {
		return
	}

	var attached bool
	_ = rawConn.Control(func(fd uintptr) {
		if e := unix.SetsockoptString(int(fd), unix.SOL_TCP, tcpULP, "tls"); e != nil {
			c.logger.ktlsf("TCP_ULP attach failed: %v", e)
			return
		}
		attached = true
	})

	c.logger.ktlsf("TCP_ULP attached=%v (key install not performed, see DESIGN.md)", attached)
}
