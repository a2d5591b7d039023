package config

import (
	"os"
	"testing"
	"time"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, "DATABASE_URL", "postgres://localhost/pulmoscan_test")
	setEnv(t, "ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.PneumoniaThreshold != 0.75 {
		t.Errorf("expected default threshold 0.75, got %v", cfg.PneumoniaThreshold)
	}
	if cfg.AccessTokenTTL != 30*time.Minute {
		t.Errorf("expected 30m access TTL, got %v", cfg.AccessTokenTTL)
	}
	if cfg.JWTSecret == "" {
		t.Error("expected dev fallback JWT secret")
	}
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	setEnv(t, "DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Error("expected error when DATABASE_URL is missing")
	}
}

func TestValidate_ProductionRequiresSecret(t *testing.T) {
	cfg := &Config{
		Env:                "production",
		JWTSecret:          "",
		InferenceURL:       "http://inference:9000/predict",
		PneumoniaThreshold: 0.75,
		AccessTokenTTL:     30 * time.Minute,
		RefreshTokenTTL:    168 * time.Hour,
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing JWT_SECRET in production")
	}

	cfg.JWTSecret = "a-real-secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_ProductionRequiresInferenceURL(t *testing.T) {
	cfg := &Config{
		Env:                "production",
		JWTSecret:          "a-real-secret",
		PneumoniaThreshold: 0.75,
		AccessTokenTTL:     30 * time.Minute,
		RefreshTokenTTL:    168 * time.Hour,
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing INFERENCE_URL in production")
	}
}

func TestValidate_ThresholdBounds(t *testing.T) {
	cfg := &Config{
		Env:                "development",
		PneumoniaThreshold: 1.5,
		AccessTokenTTL:     30 * time.Minute,
		RefreshTokenTTL:    168 * time.Hour,
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for threshold > 1")
	}
}

func TestValidate_TokenTTLOrdering(t *testing.T) {
	cfg := &Config{
		Env:                "development",
		PneumoniaThreshold: 0.75,
		AccessTokenTTL:     2 * time.Hour,
		RefreshTokenTTL:    time.Hour,
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when refresh TTL is shorter than access TTL")
	}
}
