package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	configViper := NewViper()
	configViper.Set("slack.verify_token", "verify-me")

	cfg, err := Load(configViper)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.HTTPAddress != defaultHTTPAddress {
		t.Fatalf("unexpected address %q", cfg.HTTPAddress)
	}
	if cfg.Variant != "grocery" || cfg.ConfirmMode != "payload" {
		t.Fatalf("unexpected variant/mode %q/%q", cfg.Variant, cfg.ConfirmMode)
	}
	if cfg.DatabasePath != defaultDatabasePath {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath)
	}
	if cfg.ConfirmTTL != 15*time.Minute {
		t.Fatalf("unexpected confirmation ttl %s", cfg.ConfirmTTL)
	}
	if cfg.RateLimit != defaultRateLimit || cfg.RateBurst != defaultRateBurst {
		t.Fatalf("unexpected rate limit %v/%d", cfg.RateLimit, cfg.RateBurst)
	}
}

func TestLoadPortOverridesAddressPort(t *testing.T) {
	configViper := NewViper()
	configViper.Set("slack.verify_token", "verify-me")
	configViper.Set("http.port", "8081")

	cfg, err := Load(configViper)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.HTTPAddress != "0.0.0.0:8081" {
		t.Fatalf("expected port override, got %q", cfg.HTTPAddress)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("LISTBOT_SLACK_VERIFY_TOKEN", "from-env")
	t.Setenv("LISTBOT_BOT_VARIANT", "Lunch")

	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.VerifyToken != "from-env" {
		t.Fatalf("unexpected token %q", cfg.VerifyToken)
	}
	if cfg.Variant != "lunch" {
		t.Fatalf("expected normalized variant, got %q", cfg.Variant)
	}
}

func TestLoadValidation(t *testing.T) {
	testCases := []struct {
		name      string
		overrides map[string]any
		wantError string
	}{
		{
			name:      "missing-token",
			overrides: map[string]any{},
			wantError: "slack.verify_token",
		},
		{
			name:      "token-mode-without-secret",
			overrides: map[string]any{"slack.verify_token": "x", "confirm.mode": "token"},
			wantError: "confirm.signing_secret",
		},
		{
			name:      "bad-address-with-port",
			overrides: map[string]any{"slack.verify_token": "x", "http.address": "nonsense", "http.port": "80"},
			wantError: "http.address",
		},
		{
			name:      "zero-rate",
			overrides: map[string]any{"slack.verify_token": "x", "http.rate_limit": 0},
			wantError: "http.rate_limit",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			configViper := NewViper()
			for key, value := range testCase.overrides {
				configViper.Set(key, value)
			}
			_, err := Load(configViper)
			if err == nil || !strings.Contains(err.Error(), testCase.wantError) {
				t.Fatalf("expected error mentioning %q, got %v", testCase.wantError, err)
			}
		})
	}
}
