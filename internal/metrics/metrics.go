// Package metrics implements the supplemental Prometheus-text exposition
// endpoint from SPEC_FULL.md §3, adapted from the teacher's
// internal/metrics.go hand-rolled exposition: no client library, just a
// mutex-guarded counter set and a /metrics handler that formats Prometheus
// text exposition format directly. It is wired only into cmd/wsll-client,
// never into wsengine's hot path, matching the teacher's own split between
// its library code and its telemetry global.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Registry is one connection's counters: frames/bytes sent and received,
// and a count+sum summary of event_tick -> ssl_read_tick latency in
// nanoseconds (spec.md §4.5's two probes, converted by the cycle-counter
// collaborator before being handed here).
type Registry struct {
	mu sync.RWMutex

	framesRx uint64
	framesTx uint64
	bytesRx  uint64
	bytesTx  uint64

	latencyCount uint64
	latencySumNs float64

	closesByReason map[string]uint64
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{closesByReason: make(map[string]uint64)}
}

// ObserveFrame records one frame crossing the wire, the adaptation of the
// teacher's observeWSFrame(direction, bytes) to per-connection counters
// instead of per-upstream ones.
func (r *Registry) ObserveFrame(direction string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch direction {
	case "rx":
		r.framesRx++
		r.bytesRx += uint64(n)
	case "tx":
		r.framesTx++
		r.bytesTx += uint64(n)
	}
}

// ObserveLatency records one event_tick -> ssl_read_tick sample already
// converted to nanoseconds.
func (r *Registry) ObserveLatency(ns float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latencyCount++
	r.latencySumNs += ns
}

// ObserveClose records the reason a connection closed, grounded on the
// teacher's failureReason(err) classifier feeding observeFailure.
func (r *Registry) ObserveClose(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closesByReason[reason]++
}

// ServeHTTP writes Prometheus text exposition format, the same shape as
// the teacher's metricsHandler: one line per series, no client library.
func (r *Registry) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	fmt.Fprintf(w, "wsll_frames_total{dir=\"rx\"} %d\n", r.framesRx)
	fmt.Fprintf(w, "wsll_frames_total{dir=\"tx\"} %d\n", r.framesTx)
	fmt.Fprintf(w, "wsll_bytes_total{dir=\"rx\"} %d\n", r.bytesRx)
	fmt.Fprintf(w, "wsll_bytes_total{dir=\"tx\"} %d\n", r.bytesTx)
	fmt.Fprintf(w, "wsll_event_to_ssl_read_latency_seconds_count %d\n", r.latencyCount)
	fmt.Fprintf(w, "wsll_event_to_ssl_read_latency_seconds_sum %f\n", r.latencySumNs/1e9)
	for reason, n := range r.closesByReason {
		fmt.Fprintf(w, "wsll_closes_total{reason=%q} %d\n", reason, n)
	}
}

// StartServer runs an HTTP server exposing /metrics until ctx is
// cancelled, mirroring the teacher's StartMetricsServer shape (context-
// bound graceful shutdown with a short timeout).
func (r *Registry) StartServer(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", r.ServeHTTP)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
