package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load with no file: %v", err)
	}

	if cfg.HTTP.Port != 8082 {
		t.Errorf("default port = %d, want 8082", cfg.HTTP.Port)
	}
	if cfg.WS.SendBuffer != 64 {
		t.Errorf("default send buffer = %d, want 64", cfg.WS.SendBuffer)
	}
	if cfg.RateLimiter.MaxRatePerSecond != 20 {
		t.Errorf("default rate = %d, want 20", cfg.RateLimiter.MaxRatePerSecond)
	}
	if len(cfg.HTTP.AllowedOrigins) != 1 || cfg.HTTP.AllowedOrigins[0] != "*" {
		t.Errorf("default origins = %v, want [*]", cfg.HTTP.AllowedOrigins)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
http:
  host: "127.0.0.1"
  port: 9000
  allowed_origins:
    - "https://board.example.com"
  read_timeout: 15s
ws:
  send_buffer: 128
rateLimiter:
  maxRatePerSecond: 5
  maxBurst: 10
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTP.Host != "127.0.0.1" || cfg.HTTP.Port != 9000 {
		t.Errorf("addr = %s:%d, want 127.0.0.1:9000", cfg.HTTP.Host, cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeout != 15*time.Second {
		t.Errorf("read timeout = %v, want 15s", cfg.HTTP.ReadTimeout)
	}
	if cfg.WS.SendBuffer != 128 {
		t.Errorf("send buffer = %d, want 128", cfg.WS.SendBuffer)
	}
	if cfg.RateLimiter.MaxBurst != 10 {
		t.Errorf("burst = %d, want 10", cfg.RateLimiter.MaxBurst)
	}
	// Untouched keys keep their defaults.
	if cfg.HTTP.WriteTimeout != 30*time.Second {
		t.Errorf("write timeout = %v, want default 30s", cfg.HTTP.WriteTimeout)
	}
}

func TestEnvOverridesBeatFile(t *testing.T) {
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("WS_SEND_BUFFER", "256")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Port != 9999 {
		t.Errorf("port = %d, want env override 9999", cfg.HTTP.Port)
	}
	if cfg.WS.SendBuffer != 256 {
		t.Errorf("send buffer = %d, want env override 256", cfg.WS.SendBuffer)
	}
}
