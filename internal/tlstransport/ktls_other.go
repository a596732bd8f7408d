//go:build !linux

package tlstransport

// tryActivateKTLS is a no-op off Linux: TCP_ULP is a Linux-specific socket
// option, and spec.md §1 frames this engine Linux-first.
func (c *Context) tryActivateKTLS() {
	c.logger.ktlsf("kTLS unsupported on this platform")
}
