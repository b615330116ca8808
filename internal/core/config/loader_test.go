package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
server: {}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Health.ProbeInterval != 15*time.Second {
		t.Errorf("expected default probe interval, got %s", cfg.Health.ProbeInterval)
	}
	if cfg.Health.FailureThreshold != 5 {
		t.Errorf("expected default failure threshold, got %d", cfg.Health.FailureThreshold)
	}
	if cfg.Emergency.MaxEntries != 1024 {
		t.Errorf("expected default cache bound, got %d", cfg.Emergency.MaxEntries)
	}
}

func TestLoadFullConfig(t *testing.T) {
	// Durations are nanosecond integers under yaml.v2.
	path := writeConfig(t, `
server:
  port: 9090
logging:
  level: debug
health:
  probe_interval: 5000000000
  failure_threshold: 3
services:
  - id: cache
    kind: memory
  - id: store
    kind: memory
operations:
  - category: session_lookup
    strategy: graceful_degradation
    max_retry_attempts: 2
    timeout_per_level: 2000000000
    primary: [cache]
    secondary: [store]
    emergency:
      mode: static
      value: anonymous
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Health.ProbeInterval != 5*time.Second {
		t.Errorf("expected 5s probe interval, got %s", cfg.Health.ProbeInterval)
	}
	if len(cfg.Services) != 2 || cfg.Services[0].ID != "cache" {
		t.Fatalf("wrong services: %+v", cfg.Services)
	}
	if len(cfg.Operations) != 1 {
		t.Fatalf("wrong operations: %+v", cfg.Operations)
	}

	op := cfg.Operations[0]
	if op.Category != "session_lookup" || op.TimeoutPerLevel != 2*time.Second {
		t.Errorf("wrong operation parse: %+v", op)
	}
	if op.Emergency.Mode != "static" || op.Emergency.Value != "anonymous" {
		t.Errorf("wrong emergency parse: %+v", op.Emergency)
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	os.Setenv("TEST_REDIS_URL", "redis://localhost:6379/0")
	defer os.Unsetenv("TEST_REDIS_URL")

	path := writeConfig(t, `
services:
  - id: cache
    kind: redis
    redis:
      url: ${TEST_REDIS_URL}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Services[0].Redis.URL != "redis://localhost:6379/0" {
		t.Errorf("expected env var expansion, got %s", cfg.Services[0].Redis.URL)
	}
}

func TestLoadRejectsUnknownServiceRef(t *testing.T) {
	path := writeConfig(t, `
services:
  - id: cache
    kind: memory
operations:
  - category: cache_read
    primary: [cache]
    secondary: [ghost]
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown service reference")
	}
}

func TestLoadRejectsDuplicateServiceIDs(t *testing.T) {
	path := writeConfig(t, `
services:
  - id: cache
    kind: memory
  - id: cache
    kind: memory
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for duplicate service ids")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestOperationConfigDomainConversion(t *testing.T) {
	oc := OperationConfig{
		Strategy:                 "fail_fast",
		MaxRetryAttempts:         2,
		TimeoutPerLevel:          time.Second,
		DisableCircuitBreaker:    true,
		DisableRecoveryDetection: false,
	}

	d := oc.Domain()
	if d.Strategy != "fail_fast" || d.MaxRetryAttempts != 2 {
		t.Errorf("wrong conversion: %+v", d)
	}
	if d.CircuitBreakerEnabled {
		t.Error("disable_circuit_breaker must invert")
	}
	if !d.EnableRecoveryDetection {
		t.Error("omitted disable_recovery_detection means detection on")
	}
}
