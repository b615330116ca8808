package domain

import "time"

// OperationConfig holds the per-category routing policy. Construct from
// DefaultOperationConfig and adjust fields; zero-valued numeric fields are
// refilled with defaults at registration time.
type OperationConfig struct {
	Strategy         RoutingStrategy
	MaxRetryAttempts int
	TimeoutPerLevel  time.Duration

	// CircuitBreakerEnabled lets the executor fast-skip candidates whose
	// circuit is currently open instead of attempting them.
	CircuitBreakerEnabled bool

	// PerformanceThreshold is the mean-latency cutoff for performance_first.
	PerformanceThreshold time.Duration

	// ReliabilityThreshold is the mean-success-rate cutoff (0..1) for
	// reliability_first.
	ReliabilityThreshold float64

	EnableRecoveryDetection bool

	// EmergencyTTL bounds how long a synthetic response is served from cache.
	EmergencyTTL time.Duration

	// DropUnavailableTertiary disables the last-tier guarantee: when set,
	// a fully unavailable Tertiary level is skipped like any other instead
	// of being attempted anyway before the emergency path.
	DropUnavailableTertiary bool
}

// DefaultOperationConfig returns the baseline policy: graceful degradation
// with generous timeouts and all safety nets on.
func DefaultOperationConfig() OperationConfig {
	return OperationConfig{
		Strategy:                StrategyGraceful,
		MaxRetryAttempts:        3,
		TimeoutPerLevel:         5 * time.Second,
		CircuitBreakerEnabled:   true,
		PerformanceThreshold:    2 * time.Second,
		ReliabilityThreshold:    0.85,
		EnableRecoveryDetection: true,
		EmergencyTTL:            5 * time.Minute,
	}
}
