package config

import (
	"time"

	"github.com/vietddude/cascade/internal/core/domain"
	"github.com/vietddude/cascade/internal/infra/service"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server     ServerConfig         `yaml:"server"`
	Logging    LoggingConfig        `yaml:"logging"`
	Health     HealthConfig         `yaml:"health"`
	Emergency  EmergencyCacheConfig `yaml:"emergency_cache"`
	Services   []ServiceConfig      `yaml:"services"`
	Operations []OperationConfig    `yaml:"operations"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// HealthConfig tunes the default health monitor.
type HealthConfig struct {
	ProbeInterval    time.Duration `yaml:"probe_interval"`
	ProbeTimeout     time.Duration `yaml:"probe_timeout"`
	FailureThreshold int           `yaml:"failure_threshold"`
	Cooldown         time.Duration `yaml:"cooldown"`
	LatencyWindow    int           `yaml:"latency_window"`
}

// EmergencyCacheConfig bounds the synthetic-response cache.
type EmergencyCacheConfig struct {
	MaxEntries    int           `yaml:"max_entries"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// ServiceConfig declares one backing service.
type ServiceConfig struct {
	ID       string                 `yaml:"id"`
	Kind     string                 `yaml:"kind"` // memory, redis, postgres, grpc
	Redis    service.RedisConfig    `yaml:"redis"`
	Postgres service.PostgresConfig `yaml:"postgres"`
	Endpoint string                 `yaml:"endpoint"` // grpc target
}

// EmergencyConfig selects the built-in emergency behavior for a category.
type EmergencyConfig struct {
	Mode   string `yaml:"mode"` // none, static, refusal
	Value  string `yaml:"value"`
	Reason string `yaml:"reason"`
}

// OperationConfig declares routing policy and tier assignment for one
// category. The disable_* booleans exist so that an omitted field means the
// safe default.
type OperationConfig struct {
	Category                 string          `yaml:"category"`
	Strategy                 string          `yaml:"strategy"`
	MaxRetryAttempts         int             `yaml:"max_retry_attempts"`
	TimeoutPerLevel          time.Duration   `yaml:"timeout_per_level"`
	DisableCircuitBreaker    bool            `yaml:"disable_circuit_breaker"`
	PerformanceThreshold     time.Duration   `yaml:"performance_threshold"`
	ReliabilityThreshold     float64         `yaml:"reliability_threshold"`
	DisableRecoveryDetection bool            `yaml:"disable_recovery_detection"`
	EmergencyTTL             time.Duration   `yaml:"emergency_ttl"`
	DropUnavailableTertiary  bool            `yaml:"drop_unavailable_tertiary"`
	Primary                  []string        `yaml:"primary"`
	Secondary                []string        `yaml:"secondary"`
	Tertiary                 []string        `yaml:"tertiary"`
	Emergency                EmergencyConfig `yaml:"emergency"`
}

// Domain converts the declared policy into a domain OperationConfig.
// Zero-valued numeric fields are filled at registration.
func (c OperationConfig) Domain() domain.OperationConfig {
	return domain.OperationConfig{
		Strategy:                domain.RoutingStrategy(c.Strategy),
		MaxRetryAttempts:        c.MaxRetryAttempts,
		TimeoutPerLevel:         c.TimeoutPerLevel,
		CircuitBreakerEnabled:   !c.DisableCircuitBreaker,
		PerformanceThreshold:    c.PerformanceThreshold,
		ReliabilityThreshold:    c.ReliabilityThreshold,
		EnableRecoveryDetection: !c.DisableRecoveryDetection,
		EmergencyTTL:            c.EmergencyTTL,
		DropUnavailableTertiary: c.DropUnavailableTertiary,
	}
}
