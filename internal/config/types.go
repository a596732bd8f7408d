// Package config loads the parameters that drive one wsengine connection
// from a YAML file, in the shape of the teacher's internal/config package:
// a flat Config struct with yaml tags, and a defaulting pass applied after
// unmarshaling rather than scattered across the constructor.
package config

import "time"

// Config bundles everything cmd/wsll-client needs to construct and drive
// one wsengine.Conn: the connection target, the ring/handshake parameters
// spec.md §3/§9 expose as tunables, the TLS knobs spec.md §4.2 names, and
// the CLI harness's own reconnect/metrics settings.
type Config struct {
	URL string `yaml:"url"` // ws:// or wss://, per internal/collab/wsurl

	RingSizeLog2          uint          `yaml:"ring_size_log2"`          // ring capacity = 1<<this
	HandshakeTimeout      time.Duration `yaml:"handshake_timeout"`       // spec.md §9 Open Question #5
	ConnectTimeout        time.Duration `yaml:"connect_timeout"`
	HardwareTimestamping  bool          `yaml:"hardware_timestamping"`   // opt into SO_TIMESTAMPING
	ForceTLS13            bool          `yaml:"force_tls13"`
	CipherList            []string      `yaml:"cipher_list"`             // names resolved via tls.CipherSuites()

	Reconnect ReconnectConfig `yaml:"reconnect"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ReconnectConfig mirrors the shape of the teacher's HealthcheckConfig
// backoff fields (interval/min/max/jitter/backoff_factor), repurposed from
// upstream health-probing cadence to the CLI harness's own
// reconnect-with-backoff loop (internal/backoff), which is explicitly not
// part of the core engine per spec.md §5.
type ReconnectConfig struct {
	Enabled       bool          `yaml:"enabled"`
	MinInterval   time.Duration `yaml:"min_interval"`
	MaxInterval   time.Duration `yaml:"max_interval"`
	Jitter        time.Duration `yaml:"jitter"`
	BackoffFactor float64       `yaml:"backoff_factor"`
}

// MetricsConfig controls the optional Prometheus-text exposition endpoint,
// adapted from the teacher's own metrics-flag/address pairing in
// cmd/outline-cli-ws/main.go.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}
