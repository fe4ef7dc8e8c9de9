package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envKeys = []string{
	"HTTP_ADDR", "GRPC_HEALTH_ADDR", "GIN_MODE", "LOG_LEVEL", "AWS_REGION",
	"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_SESSION_TOKEN", "REKOGNITION_ENDPOINT",
	"REDIS_ADDR", "RECOGNITION_TIMEOUT", "SHUTDOWN_TIMEOUT", "UPLOAD_RATE_WINDOW", "UPLOAD_RATE_LIMIT",
	"TRUSTED_PROXIES",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.AWS.Region != "us-east-1" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RecognitionTimeout != 30*time.Second {
		t.Fatalf("unexpected recognition timeout: %s", cfg.RecognitionTimeout)
	}
	if cfg.RateLimitEnabled() {
		t.Fatal("expected rate limiting to be disabled without REDIS_ADDR")
	}
	if cfg.TrustedProxies != nil {
		t.Fatalf("expected no trusted proxies by default, got %v", cfg.TrustedProxies)
	}
}

func TestLoadTrustedProxiesFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRUSTED_PROXIES", " 10.0.0.1, 192.168.0.0/16 ,")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[0] != "10.0.0.1" || cfg.TrustedProxies[1] != "192.168.0.0/16" {
		t.Fatalf("unexpected trusted proxies: %v", cfg.TrustedProxies)
	}
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`http_addr: ":9090"
recognition_timeout: 10s
aws:
  region: eu-west-1
rate_limit:
  redis_addr: "localhost:6379"
  limit: 5
  window: 30s
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("AWS_REGION", "ap-northeast-1")
	t.Setenv("UPLOAD_RATE_LIMIT", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("expected file value for http addr, got %s", cfg.HTTPAddr)
	}
	if cfg.RecognitionTimeout != 10*time.Second {
		t.Fatalf("expected 10s timeout, got %s", cfg.RecognitionTimeout)
	}
	if cfg.AWS.Region != "ap-northeast-1" {
		t.Fatalf("expected env to override region, got %s", cfg.AWS.Region)
	}
	if !cfg.RateLimitEnabled() || cfg.RateLimit.Limit != 7 || cfg.RateLimit.Window != 30*time.Second {
		t.Fatalf("unexpected rate limit config: %+v", cfg.RateLimit)
	}
}

func TestLoadMissingFileIsIgnored(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad timeout":      {"RECOGNITION_TIMEOUT": "soon"},
		"negative timeout": {"RECOGNITION_TIMEOUT": "-1s"},
		"half credentials": {"AWS_ACCESS_KEY_ID": "AKIA"},
		"bad limit":        {"REDIS_ADDR": "localhost:6379", "UPLOAD_RATE_LIMIT": "many"},
		"zero limit":       {"REDIS_ADDR": "localhost:6379", "UPLOAD_RATE_LIMIT": "0"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for key, value := range env {
				t.Setenv(key, value)
			}
			if _, err := Load(""); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}
