package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Addr != ":8080" {
		t.Errorf("unexpected server addr %q", cfg.Server.Addr)
	}
	if cfg.Session.DefaultMaxPlayers != 8 || cfg.Session.MinPlayers != 2 || cfg.Session.MaxPlayers != 16 {
		t.Errorf("unexpected player bounds: %+v", cfg.Session)
	}
	if cfg.Session.DefaultTTLMinutes != 40 || cfg.Session.MinTTLMinutes != 10 || cfg.Session.MaxTTLMinutes != 120 {
		t.Errorf("unexpected ttl bounds: %+v", cfg.Session)
	}
	if cfg.Storage.MaxUploadBytes != 10*1024*1024 {
		t.Errorf("unexpected upload cap %d", cfg.Storage.MaxUploadBytes)
	}
	if len(cfg.Storage.AllowedExtensions) != 4 {
		t.Errorf("unexpected extensions %v", cfg.Storage.AllowedExtensions)
	}
	if cfg.Sweep.Interval != 5*time.Minute {
		t.Errorf("unexpected sweep interval %s", cfg.Sweep.Interval)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("SESSION_MAX_PLAYERS", "32")
	t.Setenv("STORAGE_MAX_UPLOAD_MB", "25")
	t.Setenv("STORAGE_ALLOWED_EXTENSIONS", "json, bin")
	t.Setenv("SWEEP_INTERVAL", "90s")

	cfg := Load()

	if cfg.Server.Addr != ":9999" {
		t.Errorf("expected :9999, got %q", cfg.Server.Addr)
	}
	if cfg.Session.MaxPlayers != 32 {
		t.Errorf("expected 32, got %d", cfg.Session.MaxPlayers)
	}
	if cfg.Storage.MaxUploadBytes != 25*1024*1024 {
		t.Errorf("expected 25MB, got %d", cfg.Storage.MaxUploadBytes)
	}
	if len(cfg.Storage.AllowedExtensions) != 2 || cfg.Storage.AllowedExtensions[1] != "bin" {
		t.Errorf("expected [json bin], got %v", cfg.Storage.AllowedExtensions)
	}
	if cfg.Sweep.Interval != 90*time.Second {
		t.Errorf("expected 90s, got %s", cfg.Sweep.Interval)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SESSION_MAX_PLAYERS", "lots")
	t.Setenv("SWEEP_INTERVAL", "soon")

	cfg := Load()

	if cfg.Session.MaxPlayers != 16 {
		t.Errorf("expected default 16, got %d", cfg.Session.MaxPlayers)
	}
	if cfg.Sweep.Interval != 5*time.Minute {
		t.Errorf("expected default 5m, got %s", cfg.Sweep.Interval)
	}
}
