package config

import (
	"testing"
	"time"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	cfg := LoadServerConfig()

	if cfg.Addr != ":8080" {
		t.Fatalf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.RoomCapacity != DefaultRoomCapacity {
		t.Fatalf("RoomCapacity = %d, want %d", cfg.RoomCapacity, DefaultRoomCapacity)
	}
	if cfg.ReadTimeout != 15*time.Second || cfg.WriteTimeout != 15*time.Second {
		t.Fatalf("timeouts = %v/%v, want 15s/15s", cfg.ReadTimeout, cfg.WriteTimeout)
	}
	if len(cfg.AllowOrigins) != 1 || cfg.AllowOrigins[0] != "*" {
		t.Fatalf("AllowOrigins = %v", cfg.AllowOrigins)
	}
}

func TestLoadServerConfigFromEnv(t *testing.T) {
	t.Setenv("PLAZA_ADDR", ":9999")
	t.Setenv("ROOM_CAPACITY", "8")
	t.Setenv("API_READ_TIMEOUT", "30s")
	t.Setenv("CORS_ORIGIN", "https://plaza.example")

	cfg := LoadServerConfig()

	if cfg.Addr != ":9999" {
		t.Fatalf("Addr = %q, want :9999", cfg.Addr)
	}
	if cfg.RoomCapacity != 8 {
		t.Fatalf("RoomCapacity = %d, want 8", cfg.RoomCapacity)
	}
	if cfg.ReadTimeout != 30*time.Second {
		t.Fatalf("ReadTimeout = %v, want 30s", cfg.ReadTimeout)
	}
	if cfg.AllowOrigins[0] != "https://plaza.example" {
		t.Fatalf("AllowOrigins = %v", cfg.AllowOrigins)
	}
}

func TestParseIntRejectsGarbage(t *testing.T) {
	if got := parseInt("not-a-number", 7); got != 7 {
		t.Fatalf("parseInt garbage = %d, want default 7", got)
	}
	if got := parseInt("-3", 7); got != 7 {
		t.Fatalf("parseInt negative = %d, want default 7", got)
	}
	if got := parseInt("12", 7); got != 12 {
		t.Fatalf("parseInt = %d, want 12", got)
	}
}
