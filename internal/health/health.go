// Package health tracks per-service availability and performance signals and
// aggregates them into an overall system status.
package health

import (
	"context"
	"time"
)

// Metrics is a point-in-time view of one service's health.
type Metrics struct {
	Latency     time.Duration `json:"latency"`
	SuccessRate float64       `json:"success_rate"`
	Available   bool          `json:"available"`
	CircuitOpen bool          `json:"circuit_open"`
}

// Status represents an overall health state.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusCritical Status = "critical"
)

// SystemStatus aggregates service health for status reporting.
type SystemStatus struct {
	Overall        Status `json:"overall"`
	FallbackActive bool   `json:"fallback_active"`
	EmergencyMode  bool   `json:"emergency_mode"`
}

// Manager is the read-only health view the orchestrator consults when
// planning and executing.
type Manager interface {
	IsServiceAvailable(id string) bool
	ServiceMetrics(id string) Metrics
	SystemStatus() SystemStatus
}

// Recorder receives attempt outcomes from the orchestrator. A Manager that
// also implements Recorder gets per-call feedback on top of active probes.
type Recorder interface {
	RecordSuccess(id string, latency time.Duration)
	RecordFailure(id string)
}

// Pinger is the probe contract a monitored service must satisfy.
type Pinger interface {
	Ping(ctx context.Context) error
}
