package health

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type serviceState struct {
	pinger Pinger

	successCount     int
	failureCount     int
	consecutiveFails int
	circuitOpen      bool
	circuitOpenedAt  time.Time

	recentLatencies []time.Duration
	lastSuccessAt   time.Time
	lastFailureAt   time.Time
}

// MonitorConfig tunes the default monitor.
type MonitorConfig struct {
	ProbeInterval    time.Duration
	ProbeTimeout     time.Duration
	FailureThreshold int
	Cooldown         time.Duration
	LatencyWindow    int
}

// DefaultMonitorConfig returns the monitor defaults.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		ProbeInterval:    15 * time.Second,
		ProbeTimeout:     5 * time.Second,
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		LatencyWindow:    100,
	}
}

// Monitor is the default Manager implementation: a consecutive-failure
// circuit breaker per service, fed by active probes and orchestrator
// feedback. After the cooldown a half-open probe is allowed through; one
// more failure re-opens the circuit, one success closes it.
type Monitor struct {
	cfg MonitorConfig
	log *slog.Logger

	mu       sync.Mutex
	services map[string]*serviceState
}

func NewMonitor(cfg MonitorConfig) *Monitor {
	def := DefaultMonitorConfig()
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = def.ProbeInterval
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = def.ProbeTimeout
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	if cfg.LatencyWindow <= 0 {
		cfg.LatencyWindow = def.LatencyWindow
	}

	return &Monitor{
		cfg:      cfg,
		log:      slog.Default(),
		services: make(map[string]*serviceState),
	}
}

// Register adds a service to the probe set. Services start available.
func (m *Monitor) Register(id string, p Pinger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.stateLocked(id)
	st.pinger = p
}

func (m *Monitor) stateLocked(id string) *serviceState {
	st, ok := m.services[id]
	if !ok {
		st = &serviceState{}
		m.services[id] = st
	}
	return st
}

// IsServiceAvailable reports whether the service should be attempted.
// Services the monitor has never heard of are assumed available.
func (m *Monitor) IsServiceAvailable(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.services[id]
	if !ok {
		return true
	}
	if st.circuitOpen && time.Since(st.circuitOpenedAt) >= m.cfg.Cooldown {
		// Half-open: let one attempt through; a single failure re-opens.
		st.circuitOpen = false
		st.consecutiveFails = m.cfg.FailureThreshold - 1
		m.log.Info("Circuit half-open", "service", id)
	}
	return !st.circuitOpen
}

func (m *Monitor) ServiceMetrics(id string) Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.services[id]
	if !ok {
		return Metrics{SuccessRate: 1.0, Available: true}
	}
	return Metrics{
		Latency:     avgLatency(st.recentLatencies),
		SuccessRate: successRate(st),
		Available:   !st.circuitOpen,
		CircuitOpen: st.circuitOpen,
	}
}

func (m *Monitor) SystemStatus() SystemStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := len(m.services)
	if total == 0 {
		return SystemStatus{Overall: StatusHealthy}
	}

	down := 0
	for _, st := range m.services {
		if st.circuitOpen {
			down++
		}
	}

	switch {
	case down == 0:
		return SystemStatus{Overall: StatusHealthy}
	case down == total:
		return SystemStatus{Overall: StatusCritical, FallbackActive: true, EmergencyMode: true}
	default:
		return SystemStatus{Overall: StatusDegraded, FallbackActive: true}
	}
}

// RecordSuccess closes the circuit and folds the latency into the rolling
// window.
func (m *Monitor) RecordSuccess(id string, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.stateLocked(id)
	st.successCount++
	st.consecutiveFails = 0
	if st.circuitOpen {
		st.circuitOpen = false
		m.log.Info("Circuit closed", "service", id)
	}
	st.lastSuccessAt = time.Now()
	st.recentLatencies = append(st.recentLatencies, latency)
	if len(st.recentLatencies) > m.cfg.LatencyWindow {
		st.recentLatencies = st.recentLatencies[1:]
	}
}

// RecordFailure opens the circuit once consecutive failures reach the
// threshold.
func (m *Monitor) RecordFailure(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.stateLocked(id)
	st.failureCount++
	st.consecutiveFails++
	st.lastFailureAt = time.Now()

	if st.consecutiveFails >= m.cfg.FailureThreshold && !st.circuitOpen {
		st.circuitOpen = true
		st.circuitOpenedAt = time.Now()
		m.log.Warn("Circuit opened", "service", id, "consecutive_failures", st.consecutiveFails)
	}
}

// Start runs the active probe loop until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.ProbeInterval)
	defer ticker.Stop()

	m.probeAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probeAll(ctx)
		}
	}
}

func (m *Monitor) probeAll(ctx context.Context) {
	m.mu.Lock()
	targets := make(map[string]Pinger, len(m.services))
	for id, st := range m.services {
		if st.pinger != nil {
			targets[id] = st.pinger
		}
	}
	m.mu.Unlock()

	for id, p := range targets {
		probeCtx, cancel := context.WithTimeout(ctx, m.cfg.ProbeTimeout)
		start := time.Now()
		err := p.Ping(probeCtx)
		cancel()

		if err != nil {
			m.log.Debug("Probe failed", "service", id, "error", err)
			m.RecordFailure(id)
			continue
		}
		m.RecordSuccess(id, time.Since(start))
	}
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

func successRate(st *serviceState) float64 {
	total := st.successCount + st.failureCount
	if total == 0 {
		return 1.0
	}
	return float64(st.successCount) / float64(total)
}
