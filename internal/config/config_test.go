package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "skein.yaml"))
	if err != nil {
		t.Fatalf("unexpected error on missing config file: %v", err)
	}
	if cfg.ListenAddr != ":7744" {
		t.Errorf("expected default listen addr, got %q", cfg.ListenAddr)
	}
	if !cfg.NATS.Enabled {
		t.Error("expected NATS enabled by default")
	}
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skein.yaml")
	contents := []byte("listen_addr: \":9000\"\nstale_days: 14\nnats:\n  enabled: false\n  port: 4333\nrate_limit:\n  requests_per_second: 10\n  burst: 20\n")
	if err := os.WriteFile(path, contents, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ListenAddr != ":9000" {
		t.Errorf("expected listen_addr :9000, got %q", cfg.ListenAddr)
	}
	if cfg.StaleDays != 14 {
		t.Errorf("expected stale_days 14, got %d", cfg.StaleDays)
	}
	if cfg.NATS.Enabled {
		t.Error("expected nats.enabled to be overridden to false")
	}
	if cfg.NATS.Port != 4333 {
		t.Errorf("expected nats.port 4333, got %d", cfg.NATS.Port)
	}
	if cfg.RateLimit.RequestsPerSecond != 10 || cfg.RateLimit.Burst != 20 {
		t.Errorf("expected rate_limit 10/20, got %v/%v", cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}
}

func TestLoadMalformedFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skein.yaml")
	if err := os.WriteFile(path, []byte("not: [valid yaml"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected an error for malformed config YAML")
	}
}
