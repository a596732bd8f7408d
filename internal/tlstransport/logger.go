package tlstransport

import "log"

// logger gates the transport's diagnostic text behind the WS_DEBUG /
// WS_DEBUG_KTLS env knobs spec.md §6 enumerates, the way the teacher gates
// its own verbose paths in internal/metrics.go and cmd/outline-cli-ws.
type logger struct {
	debug     bool
	debugKTLS bool
}

func newLogger() *logger {
	return &logger{
		debug:     envFlag("WS_DEBUG"),
		debugKTLS: envFlag("WS_DEBUG_KTLS"),
	}
}

func (l *logger) debugf(format string, args ...interface{}) {
	if l == nil || !l.debug {
		return
	}
	log.Printf("tlstransport: "+format, args...)
}

func (l *logger) ktlsf(format string, args ...interface{}) {
	if l == nil || !l.debugKTLS {
		return
	}
	log.Printf("tlstransport: ktls: "+format, args...)
}
