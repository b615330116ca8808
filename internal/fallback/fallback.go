// Package fallback executes operations against ranked backing services,
// degrading across tiers as they become unhealthy, slow or unreliable, and
// finally serving synthetic emergency responses so callers always get a
// structured answer.
//
// Quick start:
//
//	monitor := health.NewMonitor(health.DefaultMonitorConfig())
//	orch := fallback.New(monitor)
//	defer orch.Shutdown(context.Background())
//
//	orch.RegisterOperation(domain.CategorySessionLookup, domain.DefaultOperationConfig(), fallback.Mapping{
//		Primary:   []service.Service{redisCache},
//		Secondary: []service.Service{pgStore},
//		Emergency: fallback.StaticHandler(map[string]any{"anonymous": true}),
//	})
//
//	res := orch.ExecuteWithFallback(ctx, domain.CategorySessionLookup, op)
//	if !res.Success {
//		// all tiers and the emergency path failed
//	}
//
// The heavy lifting lives in subpackages:
//
//   - registry/  - categories, configs and ranked service mappings
//   - planner/   - strategy-driven level ordering
//   - executor/  - per-level sequential attempts under timeouts
//   - emergency/ - synthetic last-resort responses with a TTL cache
//   - stats/     - aggregate counters, latency history, recovery events
//
// The commonly needed types are re-exported here.
package fallback

import (
	"github.com/vietddude/cascade/internal/fallback/emergency"
	"github.com/vietddude/cascade/internal/fallback/executor"
	"github.com/vietddude/cascade/internal/fallback/planner"
	"github.com/vietddude/cascade/internal/fallback/registry"
	"github.com/vietddude/cascade/internal/fallback/stats"
)

// ============== Re-exported types from registry package ==============

// Mapping assigns ordered candidate services to each fallback level, plus an
// optional emergency handler.
type Mapping = registry.Mapping

// ============== Re-exported types from executor package ==============

// Operation is the caller-supplied work to perform against one candidate
// service.
type Operation = executor.Operation

// ============== Re-exported types from planner package ==============

// PlannedLevel is one step of an execution plan.
type PlannedLevel = planner.PlannedLevel

// ============== Re-exported types from emergency package ==============

// Handler produces a substitute value when every real tier has failed.
type Handler = emergency.Handler

// Refusal is the synthetic authentication answer.
type Refusal = emergency.Refusal

// RefusalHandler returns an explicit non-authenticated answer.
var RefusalHandler = emergency.RefusalHandler

// StaticHandler always returns the given value.
var StaticHandler = emergency.StaticHandler

// ============== Re-exported types from stats package ==============

// LevelReport summarizes outcomes at one fallback level.
type LevelReport = stats.LevelReport

// ServiceStats summarizes one service's recent successful latencies.
type ServiceStats = stats.ServiceStats

// RecoveryEvent marks a category returning to the primary tier.
type RecoveryEvent = stats.RecoveryEvent
