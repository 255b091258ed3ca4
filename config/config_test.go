package config

import (
	"strings"
	"testing"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_PORT", "6543")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("MAX_CONCURRENCY", "not-a-number")
	t.Setenv("S3_USE_PATH_STYLE", "true")

	cfg := Load()

	if cfg.PostgresHost != "db.internal" {
		t.Errorf("PostgresHost: got %q", cfg.PostgresHost)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries: got %d, want 5", cfg.MaxRetries)
	}
	if cfg.MaxConcurrency != 2 {
		t.Errorf("MaxConcurrency: got %d, want fallback 2", cfg.MaxConcurrency)
	}
	if !cfg.S3UsePathStyle {
		t.Error("S3UsePathStyle: got false, want true")
	}
	if !strings.Contains(cfg.DSN(), "host=db.internal port=6543") {
		t.Errorf("DSN: got %q", cfg.DSN())
	}
}
