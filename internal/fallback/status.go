package fallback

import (
	"time"

	"github.com/vietddude/cascade/internal/core/domain"
	"github.com/vietddude/cascade/internal/fallback/stats"
	"github.com/vietddude/cascade/internal/health"
)

// Status is a point-in-time view of fallback behavior for reporting.
type Status struct {
	Timestamp          time.Time                           `json:"timestamp"`
	System             health.SystemStatus                 `json:"system"`
	Uptime             time.Duration                       `json:"uptime"`
	Levels             map[string]stats.LevelReport        `json:"levels"`
	Services           map[string]stats.ServiceStats       `json:"services"`
	LastLevelUsed      map[domain.OperationCategory]string `json:"last_level_used"`
	Recoveries         []stats.RecoveryEvent               `json:"recoveries"`
	EmergencyCacheSize int                                 `json:"emergency_cache_size"`
	Categories         []domain.OperationCategory          `json:"categories"`
}

// GetFallbackStatus assembles the current status from the stats tracker, the
// health manager and the emergency cache.
func (o *Orchestrator) GetFallbackStatus() Status {
	snap := o.stats.Snapshot()
	return Status{
		Timestamp:          time.Now(),
		System:             o.health.SystemStatus(),
		Uptime:             snap.Uptime,
		Levels:             snap.Levels,
		Services:           snap.Services,
		LastLevelUsed:      snap.LastLevelUsed,
		Recoveries:         snap.Recoveries,
		EmergencyCacheSize: o.emergency.CacheSize(),
		Categories:         o.registry.Categories(),
	}
}
