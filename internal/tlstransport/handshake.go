package tlstransport

import (
	"crypto/tls"
	"fmt"
	"strings"
)

// Handshake creates the TLS session on first call and drives it to
// completion. crypto/tls.Conn.Handshake runs over the (blocking-mode) socket
// spec.md §4.2 calls for during this phase, with no deadline of its own, and
// returns once the session is established or fails — there is no "pending"
// return from Go's stdlib handshake the way a re-entrant C state machine
// would expose one, so this method's signature collapses spec.md's
// pending|done|error into a single blocking call.
func (c *Context) Handshake(sniHost string) error {
	if err := c.checkLive(); err != nil {
		return err
	}
	if c.handshakeDone {
		return nil
	}
	c.st = stateHandshaking

	cfg := &tls.Config{
		ServerName: sniHost,
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS12,
		// Certificate verification is an explicit Non-goal (spec.md §1):
		// this client trusts whatever certificate the server presents for
		// the SNI host, matching the reference implementation's scope.
		InsecureSkipVerify: true,
	}
	if c.forceTLS13 || envFlag("WS_FORCE_TLS13") {
		cfg.MinVersion = tls.VersionTLS13
		cfg.MaxVersion = tls.VersionTLS13
	} else {
		cfg.CipherSuites = tls12CipherSuiteIDs(c.cipherList)
	}

	if requested := tls13SuitesRequested(); requested != "" && cfg.MaxVersion == tls.VersionTLS13 {
		c.logger.debugf("WS_TLS13_CIPHERSUITES=%q requested but crypto/tls does not support TLS 1.3 suite selection; ignoring", requested)
	}

	c.tlsConn = tls.Client(c.ts, cfg)
	if err := c.tlsConn.Handshake(); err != nil {
		c.st = stateInit
		return fmt.Errorf("tlstransport: handshake: %w", err)
	}

	c.handshakeDone = true
	c.st = stateEstablished

	c.tryActivateKTLS()

	if strings.Contains(c.CipherName(), "CHACHA20") {
		if nonceSize, overhead, err := chaCha20Poly1305NonceOverhead(); err == nil {
			c.logger.debugf("negotiated %s, AEAD nonce=%d overhead=%d", c.CipherName(), nonceSize, overhead)
		}
	}

	return nil
}
