package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("LOOKUP_RATE_LIMIT", "")
		t.Setenv("LOOKUP_RATE_WINDOW", "")
		t.Setenv("TOKEN_TTL", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.LookupRateLimit != 20 {
			t.Errorf("LookupRateLimit = %d, want 20", cfg.LookupRateLimit)
		}
		if cfg.LookupRateWindow != 60*time.Second {
			t.Errorf("LookupRateWindow = %s, want 60s", cfg.LookupRateWindow)
		}
		if cfg.TokenTTL != 24*time.Hour {
			t.Errorf("TokenTTL = %s, want 24h", cfg.TokenTTL)
		}
	})

	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		if _, err := Load(); !errors.Is(err, ErrMissingJWTSecret) {
			t.Errorf("expected ErrMissingJWTSecret, got %v", err)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("LOOKUP_RATE_LIMIT", "5")
		t.Setenv("LOOKUP_RATE_WINDOW", "10s")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.LookupRateLimit != 5 || cfg.LookupRateWindow != 10*time.Second {
			t.Errorf("got limit=%d window=%s", cfg.LookupRateLimit, cfg.LookupRateWindow)
		}
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("LOOKUP_RATE_WINDOW", "soon")
		if _, err := Load(); err == nil {
			t.Error("expected error for invalid duration")
		}
	})
}
