package tlstransport

import (
	"crypto/tls"
	"os"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// tls12CipherSuiteIDs is the prioritized AES-GCM-first list spec.md §4.2
// names ("a prioritized cipher list favouring AES-GCM"). configured comes
// from internal/config.Config's CipherList (SPEC_FULL.md §2) and takes
// priority; WS_CIPHER_LIST (colon-separated OpenSSL-style names, matched
// against Go's tls.CipherSuites() names only) remains as
// a debug-only override when configured is empty. Modeled on the teacher's
// internal/shadowsocks/cipher.go AEAD selection, generalized from one fixed
// AEAD to a negotiable suite list.
func tls12CipherSuiteIDs(configured []string) []uint16 {
	if len(configured) > 0 {
		return resolveCipherNames(configured)
	}
	if raw := os.Getenv("WS_CIPHER_LIST"); raw != "" {
		return resolveCipherNames(strings.Split(raw, ":"))
	}
	return []uint16{
		tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
		tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
	}
}

func resolveCipherNames(names []string) []uint16 {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.TrimSpace(n)] = true
	}

	var ids []uint16
	for _, cs := range tls.CipherSuites() {
		if wanted[cs.Name] {
			ids = append(ids, cs.ID)
		}
	}
	return ids
}

// tls13SuitesRequested reads WS_TLS13_CIPHERSUITES. crypto/tls does not
// allow selecting or reordering TLS 1.3 cipher suites (the stdlib always
// negotiates from its fixed internal list), so Handshake only logs the
// requested value; it is not stored and does not affect negotiation.
func tls13SuitesRequested() string {
	return os.Getenv("WS_TLS13_CIPHERSUITES")
}

// chaCha20Poly1305NonceOverhead reports the AEAD framing cost
// golang.org/x/crypto/chacha20poly1305 adds per record (nonce size plus tag
// overhead), used by Handshake's ChaCha20-Poly1305 debug log to annotate the
// negotiated suite the way internal/shadowsocks/cipher.go reports overhead
// for its own AEAD wrapper.
func chaCha20Poly1305NonceOverhead() (nonceSize, overhead int, err error) {
	aead, err := chacha20poly1305.New(make([]byte, chacha20poly1305.KeySize))
	if err != nil {
		return 0, 0, err
	}
	return aead.NonceSize(), aead.Overhead(), nil
}
