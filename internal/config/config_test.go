package config

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("UDP_PORT", "")
	cfg := Load()
	if cfg.UDPPort != 9876 {
		t.Errorf("UDPPort = %d, want 9876", cfg.UDPPort)
	}
	if cfg.IdempotencyTTL != 10*time.Minute {
		t.Errorf("IdempotencyTTL = %s, want 10m", cfg.IdempotencyTTL)
	}
	if cfg.IdempotencyMaxEntries != 10000 {
		t.Errorf("IdempotencyMaxEntries = %d, want 10000", cfg.IdempotencyMaxEntries)
	}
	if cfg.DB.Enabled() {
		t.Errorf("DB.Enabled() = true without DB_HOST")
	}
	if cfg.Persist.ReconcileEvery != time.Minute {
		t.Errorf("ReconcileEvery = %s, want 1m", cfg.Persist.ReconcileEvery)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("UDP_HOST", "127.0.0.1")
	t.Setenv("UDP_PORT", "9999")
	t.Setenv("UDP_WORKERS", "0")
	t.Setenv("HTTP_PORT", "off")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_NAME", "cinema")
	t.Setenv("PERSIST_BACKOFF", "50ms")
	cfg := Load()
	if got := cfg.UDPAddr(); got != "127.0.0.1:9999" {
		t.Errorf("UDPAddr() = %q", got)
	}
	if cfg.UDPWorkers != 1 {
		t.Errorf("UDPWorkers = %d, want clamped to 1", cfg.UDPWorkers)
	}
	if cfg.HTTPEnabled() {
		t.Errorf("HTTPEnabled() = true for HTTP_PORT=off")
	}
	want := "app@tcp(db:3306)/cinema?charset=utf8mb4&parseTime=true&loc=UTC"
	if got := cfg.DB.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
	if cfg.Persist.Backoff != 50*time.Millisecond {
		t.Errorf("Backoff = %s", cfg.Persist.Backoff)
	}
}

func TestRateLimitNormalize(t *testing.T) {
	c := RateLimitConfig{RefillInterval: 2 * time.Second}.Normalize()
	if c.Capacity != 1 || c.RefillTokens != 1 {
		t.Errorf("Normalize() = %+v", c)
	}
	if c.TTL != 10*time.Second {
		t.Errorf("TTL = %s, want 10s", c.TTL)
	}
	if c.Prefix != "rl" {
		t.Errorf("Prefix = %q", c.Prefix)
	}
}

func TestEnvBool(t *testing.T) {
	tests := []struct {
		val  string
		def  bool
		want bool
	}{
		{"", true, true},
		{"off", true, false},
		{"YES", false, true},
		{"maybe", true, true},
	}
	for _, tt := range tests {
		t.Setenv("X_BOOL", tt.val)
		if got := envBool("X_BOOL", tt.def); got != tt.want {
			t.Errorf("envBool(%q, %v) = %v, want %v", tt.val, tt.def, got, tt.want)
		}
	}
}

func TestNewRedisClient(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	addr := mr.Addr()
	c, err := NewRedisClient(RedisConfig{Addr: addr})
	if err != nil {
		t.Fatalf("NewRedisClient() error = %v", err)
	}
	defer c.Close()

	mr.Close()
	if _, err := NewRedisClient(RedisConfig{Addr: addr}); err == nil {
		t.Errorf("NewRedisClient(closed) error = nil")
	}
}
