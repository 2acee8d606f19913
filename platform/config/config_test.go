package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/profile")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CORS_ORIGINS", "http://localhost:8000")
	t.Setenv("CORS_ALLOW_ALL", "false")
}

func TestFromEnvDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := fromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetCSRFCookieName() != "csrftoken" || cfg.GetCSRFHeaderName() != "X-CSRFToken" {
		t.Fatalf("unexpected CSRF names %q / %q", cfg.CSRFCookieName, cfg.CSRFHeaderName)
	}
	if cfg.GetOTPCooldown() != 60*time.Second {
		t.Fatalf("expected 60s cooldown, got %s", cfg.OTPCooldown)
	}
	if cfg.GetPortraitMaxFileSize() != 3*1024*1024 {
		t.Fatalf("expected 3MB portrait limit, got %d", cfg.PortraitMaxFileSize)
	}
	if cfg.GetOTPSecret() != "secret" {
		t.Fatal("expected OTP secret to fall back to the JWT secret")
	}
	if cfg.IsSMTPEnabled() || cfg.IsMinIOEnabled() {
		t.Fatal("SMTP and MinIO should be disabled by default")
	}
}

func TestFromEnvRequiresDatabaseURL(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_URL", "")

	if _, err := fromEnv(); err == nil {
		t.Fatal("expected error when DATABASE_URL is empty")
	}
}

func TestFromEnvRequiresRedisURL(t *testing.T) {
	setRequired(t)
	t.Setenv("REDIS_URL", "")

	if _, err := fromEnv(); err == nil {
		t.Fatal("expected error when REDIS_URL is empty")
	}
}

func TestFromEnvRejectsWildcardWithCredentials(t *testing.T) {
	setRequired(t)
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "true")

	if _, err := fromEnv(); err == nil {
		t.Fatal("expected error for wildcard CORS with credentials")
	}
}

func TestFromEnvRequiresSMTPFromAddress(t *testing.T) {
	setRequired(t)
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_FROM_ADDRESS", "")

	if _, err := fromEnv(); err == nil {
		t.Fatal("expected error when SMTP is enabled without a from address")
	}
}
