package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads and unmarshals path, then applies the same kind of
// defaulting pass the teacher's LoadConfig runs after yaml.Unmarshal,
// rather than scattering zero-value checks through the constructor.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.RingSizeLog2 == 0 {
		c.RingSizeLog2 = 23 // spec.md §3 names 2^23 as the reference ring size
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = 5 * time.Second
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.Reconnect.MinInterval == 0 {
		c.Reconnect.MinInterval = 1 * time.Second
	}
	if c.Reconnect.MaxInterval == 0 {
		c.Reconnect.MaxInterval = 30 * time.Second
	}
	if c.Reconnect.Jitter == 0 {
		c.Reconnect.Jitter = 200 * time.Millisecond
	}
	if c.Reconnect.BackoffFactor == 0 {
		c.Reconnect.BackoffFactor = 1.6
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = "127.0.0.1:9100"
	}
}

// Validate checks the fields LoadConfig's defaulting pass cannot fill in
// for the caller, mirroring the teacher's ServerConfig.Validate shape.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("url is required")
	}
	if c.RingSizeLog2 < 2 || c.RingSizeLog2 > 30 {
		return fmt.Errorf("ring_size_log2 %d out of range [2,30]", c.RingSizeLog2)
	}
	return nil
}

// RingSize returns the ring buffer capacity in bytes.
func (c *Config) RingSize() uint64 { return 1 << c.RingSizeLog2 }
