package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, "url: wss://example.com/feed\n")

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.RingSizeLog2 != 23 {
		t.Fatalf("RingSizeLog2 = %d, want 23", c.RingSizeLog2)
	}
	if c.HandshakeTimeout != 5*time.Second {
		t.Fatalf("HandshakeTimeout = %v, want 5s", c.HandshakeTimeout)
	}
	if c.Reconnect.BackoffFactor != 1.6 {
		t.Fatalf("Reconnect.BackoffFactor = %v, want 1.6", c.Reconnect.BackoffFactor)
	}
	if c.Metrics.Listen != "127.0.0.1:9100" {
		t.Fatalf("Metrics.Listen = %q", c.Metrics.Listen)
	}
	if c.RingSize() != 1<<23 {
		t.Fatalf("RingSize() = %d, want %d", c.RingSize(), uint64(1<<23))
	}
}

func TestLoadConfig_PreservesExplicitValues(t *testing.T) {
	path := writeTempConfig(t, ""+
		"url: wss://example.com/feed\n"+
		"ring_size_log2: 16\n"+
		"force_tls13: true\n"+
		"reconnect:\n"+
		"  enabled: true\n"+
		"  min_interval: 500ms\n"+
		"metrics:\n"+
		"  enabled: true\n"+
		"  listen: \":9999\"\n",
	)

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.RingSizeLog2 != 16 {
		t.Fatalf("RingSizeLog2 = %d, want 16", c.RingSizeLog2)
	}
	if !c.ForceTLS13 {
		t.Fatalf("ForceTLS13 = false, want true")
	}
	if !c.Reconnect.Enabled || c.Reconnect.MinInterval != 500*time.Millisecond {
		t.Fatalf("Reconnect = %+v", c.Reconnect)
	}
	if c.Metrics.Listen != ":9999" {
		t.Fatalf("Metrics.Listen = %q", c.Metrics.Listen)
	}
}

func TestLoadConfig_RejectsMissingURL(t *testing.T) {
	path := writeTempConfig(t, "ring_size_log2: 20\n")

	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for missing url")
	}
}

func TestLoadConfig_RejectsOutOfRangeRingSize(t *testing.T) {
	path := writeTempConfig(t, "url: wss://example.com\nring_size_log2: 40\n")

	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for out-of-range ring_size_log2")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
