// Package wsurl implements the URL-parser external collaborator spec.md §6
// names: a thin wrapper over net/url restricted to ws:// and wss://,
// grounded on the teacher's own URL handling in internal/metrics.go's
// upstreamFromURL (url.Parse, then pull out host/scheme/path by hand)
// rather than a full dial-option URL builder like nhooyr/coder's
// websocket.Dial accepts.
package wsurl

import (
	"fmt"
	"net/url"
	"strconv"
)

// Target is the host/port/path/TLS tuple wsengine.New needs, decomposed
// from a ws:// or wss:// URL.
type Target struct {
	Host   string
	Port   int
	Path   string
	UseTLS bool
}

// Parse validates raw as a ws:// or wss:// URL and decomposes it into a
// Target, defaulting the port to 80/443 per scheme the way the teacher's
// internal/config/parser.go's parseWebSocketKey does for its own endpoint
// URL.
func Parse(raw string) (Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("wsurl: %w", err)
	}

	var useTLS bool
	switch u.Scheme {
	case "ws":
		useTLS = false
	case "wss":
		useTLS = true
	default:
		return Target{}, fmt.Errorf("wsurl: unsupported scheme %q (want ws or wss)", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return Target{}, fmt.Errorf("wsurl: missing host in %q", raw)
	}

	port := 80
	if useTLS {
		port = 443
	}
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Target{}, fmt.Errorf("wsurl: invalid port %q: %w", p, err)
		}
		port = n
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	return Target{Host: host, Port: port, Path: path, UseTLS: useTLS}, nil
}
