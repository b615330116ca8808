package domain

// OperationCategory identifies the kind of request being routed.
type OperationCategory string

const (
	CategorySessionLookup  OperationCategory = "session_lookup"
	CategoryContextLookup  OperationCategory = "context_lookup"
	CategoryAuthentication OperationCategory = "authentication"
	CategoryCacheRead      OperationCategory = "cache_read"
	CategoryCacheWrite     OperationCategory = "cache_write"
	CategoryClientLookup   OperationCategory = "client_lookup"
)

// FallbackLevel orders the degradation tiers by decreasing preference.
type FallbackLevel int

const (
	LevelPrimary FallbackLevel = iota
	LevelSecondary
	LevelTertiary
	LevelEmergency
)

func (l FallbackLevel) String() string {
	switch l {
	case LevelPrimary:
		return "primary"
	case LevelSecondary:
		return "secondary"
	case LevelTertiary:
		return "tertiary"
	case LevelEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// Degraded reports whether a result served at this level came from a
// fallback tier rather than the preferred one.
func (l FallbackLevel) Degraded() bool {
	return l != LevelPrimary
}

// RoutingStrategy determines how the planner orders and filters levels.
type RoutingStrategy string

const (
	StrategyFailFast         RoutingStrategy = "fail_fast"
	StrategyGraceful         RoutingStrategy = "graceful_degradation"
	StrategyPerformanceFirst RoutingStrategy = "performance_first"
	StrategyReliabilityFirst RoutingStrategy = "reliability_first"
	StrategyEmergencyOnly    RoutingStrategy = "emergency_only"
)
