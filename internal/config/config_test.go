package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.DefaultPrivacyLevel != "standard" {
		t.Fatalf("expected default privacy level standard, got %s", cfg.DefaultPrivacyLevel)
	}
	if cfg.RetentionSweepInterval != time.Hour {
		t.Fatalf("expected default sweep interval 1h, got %s", cfg.RetentionSweepInterval)
	}
	if !cfg.SafetyGateEnabled {
		t.Fatal("expected safety gate enabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RETENTION_SWEEP_INTERVAL", "15m")
	t.Setenv("SAFETY_GATE_ENABLED", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.RetentionSweepInterval != 15*time.Minute {
		t.Fatalf("expected 15m sweep interval, got %s", cfg.RetentionSweepInterval)
	}
	if cfg.SafetyGateEnabled {
		t.Fatal("expected safety gate disabled")
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected 2 CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadMalformedValuesFallBack(t *testing.T) {
	t.Setenv("RETENTION_SWEEP_INTERVAL", "soon")
	t.Setenv("REDIS_TLS", "maybe")

	cfg := Load()
	if cfg.RetentionSweepInterval != time.Hour {
		t.Fatalf("expected fallback sweep interval, got %s", cfg.RetentionSweepInterval)
	}
	if cfg.RedisTLS {
		t.Fatal("expected fallback RedisTLS=false")
	}
}
