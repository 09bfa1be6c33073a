package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesWorkflowTimingDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("NAME_CHECK_QUIET_WINDOW_MS", "")
	t.Setenv("NAME_CHECK_TIMEOUT_SECONDS", "")
	t.Setenv("SUBMIT_TIMEOUT_SECONDS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.NameCheckQuietWindowMS != 500 {
		t.Fatalf("expected default quiet window 500ms, got %d", cfg.NameCheckQuietWindowMS)
	}
	if cfg.NameCheckTimeoutSeconds != 10 {
		t.Fatalf("expected default name check timeout 10s, got %d", cfg.NameCheckTimeoutSeconds)
	}
	if cfg.SubmitTimeoutSeconds != 60 {
		t.Fatalf("expected default submit timeout 60s, got %d", cfg.SubmitTimeoutSeconds)
	}
	if cfg.NATSSubject != "datasets.ingested" {
		t.Fatalf("expected default subject, got %q", cfg.NATSSubject)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("NAME_CHECK_QUIET_WINDOW_MS", "250")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("NATS_SUBJECT", "datasets.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.NameCheckQuietWindowMS != 250 {
		t.Fatalf("expected quiet window override, got %d", cfg.NameCheckQuietWindowMS)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rate limit override, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.NATSSubject != "datasets.test" {
		t.Fatalf("expected subject override, got %q", cfg.NATSSubject)
	}
}

func TestLoadReadsYAMLFileWithEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("api_port: \"9000\"\nsubmit_timeout_seconds: 30\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_PORT", "7070")
	t.Setenv("SUBMIT_TIMEOUT_SECONDS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SubmitTimeoutSeconds != 30 {
		t.Fatalf("expected submit timeout from file, got %d", cfg.SubmitTimeoutSeconds)
	}
	if cfg.APIPort != "7070" {
		t.Fatalf("expected env to override file, got %q", cfg.APIPort)
	}
}
