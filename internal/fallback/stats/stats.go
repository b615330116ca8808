// Package stats aggregates per-level outcomes, rolling service latencies and
// recovery events across orchestrated calls.
package stats

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/cascade/internal/core/domain"
)

// LevelReport summarizes outcomes at one fallback level.
type LevelReport struct {
	Attempts    uint64  `json:"attempts"`
	Successes   uint64  `json:"successes"`
	Failures    uint64  `json:"failures"`
	SuccessRate float64 `json:"success_rate"`
}

// ServiceStats summarizes one service's recent successful latencies.
type ServiceStats struct {
	AvgLatency   time.Duration `json:"avg_latency"`
	Samples      int           `json:"samples"`
	LastRecovery time.Time     `json:"last_recovery,omitempty"`
}

// RecoveryEvent marks a category returning to the primary tier after a
// degraded period.
type RecoveryEvent struct {
	ID        string                   `json:"id"`
	Category  domain.OperationCategory `json:"category"`
	ServiceID string                   `json:"service_id"`
	From      domain.FallbackLevel     `json:"from"`
	Timestamp time.Time                `json:"timestamp"`
}

// Snapshot is a copy of the aggregate state, safe to format without locks.
type Snapshot struct {
	Uptime        time.Duration                       `json:"uptime"`
	Levels        map[string]LevelReport              `json:"levels"`
	Services      map[string]ServiceStats             `json:"services"`
	LastLevelUsed map[domain.OperationCategory]string `json:"last_level_used"`
	Recoveries    []RecoveryEvent                     `json:"recoveries"`
}

type levelCounters struct {
	attempts  uint64
	successes uint64
	failures  uint64
}

type serviceHistory struct {
	latencies    []time.Duration
	lastRecovery time.Time
}

const maxRecoveries = 100

// Tracker folds execution results into aggregate statistics.
type Tracker struct {
	mu         sync.RWMutex
	start      time.Time
	levels     map[domain.FallbackLevel]*levelCounters
	services   map[string]*serviceHistory
	lastLevel  map[domain.OperationCategory]domain.FallbackLevel
	recoveries []RecoveryEvent
	window     int
}

func New(window int) *Tracker {
	if window <= 0 {
		window = 100
	}
	return &Tracker{
		start:     time.Now(),
		levels:    make(map[domain.FallbackLevel]*levelCounters),
		services:  make(map[string]*serviceHistory),
		lastLevel: make(map[domain.OperationCategory]domain.FallbackLevel),
		window:    window,
	}
}

// Record folds one execution result in. When detection is on, a Primary
// success that follows a more degraded serving level for the same category
// produces a recovery event, which is returned for logging.
func (t *Tracker) Record(res *domain.ExecutionResult, detectRecovery bool) *RecoveryEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, a := range res.Attempts {
		counters := t.levelLocked(a.Level)
		counters.attempts++
		if a.Success {
			counters.successes++
		} else {
			counters.failures++
		}
	}

	if !res.Success {
		return nil
	}

	if res.LevelUsed != domain.LevelEmergency && res.ServiceUsed != "" {
		history := t.serviceLocked(res.ServiceUsed)
		history.latencies = append(history.latencies, successLatency(res))
		if len(history.latencies) > t.window {
			history.latencies = history.latencies[1:]
		}
	}

	var recovery *RecoveryEvent
	prev, seen := t.lastLevel[res.Category]
	if detectRecovery && seen && res.LevelUsed == domain.LevelPrimary && prev > domain.LevelPrimary {
		ev := RecoveryEvent{
			ID:        uuid.New().String(),
			Category:  res.Category,
			ServiceID: res.ServiceUsed,
			From:      prev,
			Timestamp: time.Now(),
		}
		t.recoveries = append(t.recoveries, ev)
		if len(t.recoveries) > maxRecoveries {
			t.recoveries = t.recoveries[1:]
		}
		t.serviceLocked(res.ServiceUsed).lastRecovery = ev.Timestamp
		recovery = &ev
	}
	t.lastLevel[res.Category] = res.LevelUsed

	return recovery
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := Snapshot{
		Uptime:        time.Since(t.start),
		Levels:        make(map[string]LevelReport, len(t.levels)),
		Services:      make(map[string]ServiceStats, len(t.services)),
		LastLevelUsed: make(map[domain.OperationCategory]string, len(t.lastLevel)),
		Recoveries:    append([]RecoveryEvent(nil), t.recoveries...),
	}

	for level, counters := range t.levels {
		report := LevelReport{
			Attempts:  counters.attempts,
			Successes: counters.successes,
			Failures:  counters.failures,
		}
		if counters.attempts > 0 {
			report.SuccessRate = float64(counters.successes) / float64(counters.attempts)
		}
		snap.Levels[level.String()] = report
	}

	for id, history := range t.services {
		snap.Services[id] = ServiceStats{
			AvgLatency:   avgLatency(history.latencies),
			Samples:      len(history.latencies),
			LastRecovery: history.lastRecovery,
		}
	}

	for cat, level := range t.lastLevel {
		snap.LastLevelUsed[cat] = level.String()
	}

	return snap
}

// Reset zeroes everything, including the uptime baseline.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.start = time.Now()
	t.levels = make(map[domain.FallbackLevel]*levelCounters)
	t.services = make(map[string]*serviceHistory)
	t.lastLevel = make(map[domain.OperationCategory]domain.FallbackLevel)
	t.recoveries = nil
}

func (t *Tracker) levelLocked(l domain.FallbackLevel) *levelCounters {
	counters, ok := t.levels[l]
	if !ok {
		counters = &levelCounters{}
		t.levels[l] = counters
	}
	return counters
}

func (t *Tracker) serviceLocked(id string) *serviceHistory {
	history, ok := t.services[id]
	if !ok {
		history = &serviceHistory{}
		t.services[id] = history
	}
	return history
}

func successLatency(res *domain.ExecutionResult) time.Duration {
	for i := len(res.Attempts) - 1; i >= 0; i-- {
		if res.Attempts[i].Success {
			return res.Attempts[i].Latency
		}
	}
	return 0
}

func avgLatency(latencies []time.Duration) time.Duration {
	if len(latencies) == 0 {
		return 0
	}
	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	return sum / time.Duration(len(latencies))
}
