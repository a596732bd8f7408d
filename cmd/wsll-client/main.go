// Command wsll-client is the CLI test harness spec.md §1 treats as an
// external collaborator: it exists only to exercise the wsengine core end
// to end, and contains no core logic of its own. Shape mirrors the
// teacher's cmd/outline-cli-ws/main.go — flag parsing, config load,
// signal-driven shutdown via os/signal + context, an optional metrics
// server — adapted from a SOCKS5-acceptance loop to a single outbound
// wss:// event loop.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wsll/internal/backoff"
	"wsll/internal/collab/cycles"
	"wsll/internal/collab/poller"
	"wsll/internal/collab/wsurl"
	"wsll/internal/config"
	"wsll/internal/metrics"
	"wsll/internal/wsengine"
)

func main() {
	var cfgPath string
	var dedupExpected int
	flag.StringVar(&cfgPath, "c", "config.yaml", "config path")
	flag.IntVar(&dedupExpected, "dedup-expected", 0, "expected distinct message ids for duplicate suppression (0 disables)")
	flag.Parse()

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	target, err := wsurl.Parse(cfg.URL)
	if err != nil {
		log.Fatalf("url: %v", err)
	}
	if !target.UseTLS {
		log.Fatalf("url: %s is not wss:// — this engine is TLS-mandatory (spec.md §6)", cfg.URL)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		log.Printf("shutting down...")
		cancel()
	}()

	reg := metrics.New()
	if cfg.Metrics.Enabled {
		go func() {
			if err := reg.StartServer(ctx, cfg.Metrics.Listen); err != nil {
				log.Printf("metrics server stopped: %v", err)
			}
		}()
		log.Printf("Prometheus metrics listening on %s", cfg.Metrics.Listen)
	}

	dd := newDedup(dedupExpected, 0.01)

	bo := backoff.New(cfg.Reconnect.MinInterval, cfg.Reconnect.MaxInterval, cfg.Reconnect.Jitter, cfg.Reconnect.BackoffFactor)

	for {
		if ctx.Err() != nil {
			return
		}
		if err := runOnce(ctx, cfg, target, reg, dd); err != nil {
			log.Printf("connection ended: %v", err)
		}
		if !cfg.Reconnect.Enabled || ctx.Err() != nil {
			return
		}
		wait := bo.Next()
		log.Printf("reconnecting in %v", wait)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// runOnce drives exactly one wsengine.Conn from construction to close,
// the per-attempt unit the reconnect loop retries, per SPEC_FULL.md §3's
// "the harness owns the retry loop and constructs a fresh engine instance
// per attempt" (the core itself has no built-in reconnection, spec.md §5).
func runOnce(ctx context.Context, cfg *config.Config, target wsurl.Target, reg *metrics.Registry, dd *dedup) error {
	p, err := poller.New()
	if err != nil {
		return fmt.Errorf("poller: %w", err)
	}
	defer p.Close()

	clk := cycles.New()

	statusCh := make(chan wsengine.CloseReason, 1)

	onMessage := func(opcode wsengine.Opcode, payload []byte) {
		reg.ObserveFrame("rx", len(payload))
		if dd != nil && len(payload) >= 8 {
			if dd.Seen(payload[:8]) {
				return // duplicate message id prefix, suppressed
			}
		}
	}
	onStatus := func(code int, reason wsengine.CloseReason) {
		if code == 0 {
			log.Printf("handshake complete")
			return
		}
		statusCh <- reason
	}

	engineCfg := wsengine.Config{
		RingSize:              cfg.RingSize(),
		HandshakeTimeoutTicks: uint64(cfg.HandshakeTimeout.Nanoseconds()),
		ConnectTimeout:        cfg.ConnectTimeout,
		HardwareTimestamping:  cfg.HardwareTimestamping,
		ForceTLS13:            cfg.ForceTLS13,
		CipherList:            cfg.CipherList,
	}

	conn, err := wsengine.New(target.Host, target.Port, target.Path, engineCfg, p, clk, onMessage, onStatus)
	if err != nil {
		return fmt.Errorf("wsengine.New: %w", err)
	}
	defer conn.Close()

	fd, err := conn.Fd()
	if err != nil {
		return fmt.Errorf("conn.Fd: %w", err)
	}
	if err := p.Add(fd, true); err != nil {
		return fmt.Errorf("poller.Add: %w", err)
	}

	lastTick := clk.NowTicks()
	for {
		select {
		case <-ctx.Done():
			_ = conn.CloseNormal()
			return nil
		case reason := <-statusCh:
			reg.ObserveClose(reason.Kind.String())
			return reason.Err
		default:
		}

		conn.Update()
		if conn.Closed() {
			reg.ObserveClose(conn.LastCloseReason().Kind.String())
			return conn.LastCloseReason().Err
		}

		if tick := clk.NowTicks(); tick > lastTick {
			reg.ObserveLatency(float64(clk.ToDuration(conn.SslReadTick() - conn.EventTick()).Nanoseconds()))
			lastTick = tick
		}

		if _, err := p.Wait(50); err != nil {
			return fmt.Errorf("poller.Wait: %w", err)
		}
	}
}
