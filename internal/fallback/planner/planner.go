// Package planner turns an operation's config, mapping and current health
// signals into an ordered execution plan.
package planner

import (
	"math"
	"sort"

	"github.com/vietddude/cascade/internal/core/domain"
	"github.com/vietddude/cascade/internal/fallback/registry"
	"github.com/vietddude/cascade/internal/health"
	"github.com/vietddude/cascade/internal/infra/service"
)

// PlannedLevel is one step of an execution plan.
type PlannedLevel struct {
	Level    domain.FallbackLevel
	Services []service.Service

	// Forced marks a level whose candidates must be attempted for real even
	// when reported unavailable. Graceful degradation forces a fully down
	// Tertiary so at least one non-synthetic attempt happens before the
	// emergency path.
	Forced bool
}

// Planner builds plans from the health snapshot at call time. Identical
// snapshots produce identical plans.
type Planner struct {
	health health.Manager
}

func New(h health.Manager) *Planner {
	return &Planner{health: h}
}

// Plan returns the ordered levels to execute. An empty plan sends the call
// straight to the emergency path.
func (p *Planner) Plan(cfg domain.OperationConfig, m registry.Mapping) []PlannedLevel {
	switch cfg.Strategy {
	case domain.StrategyFailFast:
		if len(m.Primary) == 0 {
			return nil
		}
		return []PlannedLevel{{Level: domain.LevelPrimary, Services: m.Primary}}
	case domain.StrategyEmergencyOnly:
		return nil
	case domain.StrategyPerformanceFirst:
		return p.planPerformance(cfg, m)
	case domain.StrategyReliabilityFirst:
		return p.planReliability(cfg, m)
	default:
		return p.planGraceful(cfg, m)
	}
}

// planGraceful keeps the structural order. A level whose candidates are all
// unavailable still appears in the plan; the executor fast-skips its
// candidates unless the level is forced.
func (p *Planner) planGraceful(cfg domain.OperationConfig, m registry.Mapping) []PlannedLevel {
	var plan []PlannedLevel
	for _, level := range configuredLevels(m) {
		candidates := m.Level(level)

		available := 0
		for _, svc := range candidates {
			if p.health.IsServiceAvailable(svc.ID()) {
				available++
			}
		}

		forced := available == 0 &&
			level == domain.LevelTertiary &&
			!cfg.DropUnavailableTertiary
		plan = append(plan, PlannedLevel{Level: level, Services: candidates, Forced: forced})
	}
	return plan
}

type scoredLevel struct {
	planned PlannedLevel
	score   float64
}

// planPerformance orders levels by mean latency ascending. Levels beyond the
// threshold form a last-resort tail in structural order.
func (p *Planner) planPerformance(cfg domain.OperationConfig, m registry.Mapping) []PlannedLevel {
	var kept, tail []scoredLevel
	for _, level := range configuredLevels(m) {
		candidates := m.Level(level)
		sl := scoredLevel{
			planned: PlannedLevel{Level: level, Services: candidates},
			score:   p.meanLatencySeconds(candidates),
		}
		if sl.score > cfg.PerformanceThreshold.Seconds() {
			tail = append(tail, sl)
		} else {
			kept = append(kept, sl)
		}
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].score != kept[j].score {
			return kept[i].score < kept[j].score
		}
		return kept[i].planned.Level < kept[j].planned.Level
	})
	return assemble(kept, tail)
}

// planReliability orders levels by mean success rate descending. Levels
// below the threshold form a last-resort tail in structural order.
func (p *Planner) planReliability(cfg domain.OperationConfig, m registry.Mapping) []PlannedLevel {
	var kept, tail []scoredLevel
	for _, level := range configuredLevels(m) {
		candidates := m.Level(level)
		sl := scoredLevel{
			planned: PlannedLevel{Level: level, Services: candidates},
			score:   p.meanSuccessRate(candidates),
		}
		if sl.score < cfg.ReliabilityThreshold {
			tail = append(tail, sl)
		} else {
			kept = append(kept, sl)
		}
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].score != kept[j].score {
			return kept[i].score > kept[j].score
		}
		return kept[i].planned.Level < kept[j].planned.Level
	})
	return assemble(kept, tail)
}

// meanLatencySeconds averages recent latency over the candidates. Any
// unavailable candidate makes the level infinitely slow.
func (p *Planner) meanLatencySeconds(candidates []service.Service) float64 {
	var sum float64
	for _, svc := range candidates {
		metrics := p.health.ServiceMetrics(svc.ID())
		if !metrics.Available {
			return math.Inf(1)
		}
		sum += metrics.Latency.Seconds()
	}
	return sum / float64(len(candidates))
}

// meanSuccessRate averages success rate over the candidates; unavailable
// candidates contribute zero.
func (p *Planner) meanSuccessRate(candidates []service.Service) float64 {
	var sum float64
	for _, svc := range candidates {
		metrics := p.health.ServiceMetrics(svc.ID())
		if metrics.Available {
			sum += metrics.SuccessRate
		}
	}
	return sum / float64(len(candidates))
}

func assemble(kept, tail []scoredLevel) []PlannedLevel {
	plan := make([]PlannedLevel, 0, len(kept)+len(tail))
	for _, sl := range kept {
		plan = append(plan, sl.planned)
	}
	for _, sl := range tail {
		plan = append(plan, sl.planned)
	}
	return plan
}

func configuredLevels(m registry.Mapping) []domain.FallbackLevel {
	var levels []domain.FallbackLevel
	for _, l := range []domain.FallbackLevel{domain.LevelPrimary, domain.LevelSecondary, domain.LevelTertiary} {
		if len(m.Level(l)) > 0 {
			levels = append(levels, l)
		}
	}
	return levels
}
