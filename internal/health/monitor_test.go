package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakePinger struct {
	err       error
	callCount int
}

func (p *fakePinger) Ping(ctx context.Context) error {
	p.callCount++
	return p.err
}

func testConfig() MonitorConfig {
	return MonitorConfig{
		ProbeInterval:    time.Hour, // probes driven manually in tests
		ProbeTimeout:     time.Second,
		FailureThreshold: 3,
		Cooldown:         50 * time.Millisecond,
		LatencyWindow:    5,
	}
}

func TestMonitorUnknownServiceAvailable(t *testing.T) {
	m := NewMonitor(testConfig())

	if !m.IsServiceAvailable("never-seen") {
		t.Error("expected unknown service to be available")
	}

	metrics := m.ServiceMetrics("never-seen")
	if !metrics.Available || metrics.SuccessRate != 1.0 {
		t.Errorf("expected optimistic metrics, got %+v", metrics)
	}
}

func TestMonitorCircuitOpensAfterThreshold(t *testing.T) {
	m := NewMonitor(testConfig())

	m.RecordFailure("svc")
	m.RecordFailure("svc")
	if !m.IsServiceAvailable("svc") {
		t.Fatal("circuit should stay closed below threshold")
	}

	m.RecordFailure("svc")
	if m.IsServiceAvailable("svc") {
		t.Error("circuit should open at threshold")
	}
	if !m.ServiceMetrics("svc").CircuitOpen {
		t.Error("metrics should report the open circuit")
	}
}

func TestMonitorSuccessClosesCircuit(t *testing.T) {
	m := NewMonitor(testConfig())

	for i := 0; i < 3; i++ {
		m.RecordFailure("svc")
	}
	if m.IsServiceAvailable("svc") {
		t.Fatal("circuit should be open")
	}

	m.RecordSuccess("svc", 10*time.Millisecond)
	if !m.IsServiceAvailable("svc") {
		t.Error("success should close the circuit")
	}
}

func TestMonitorHalfOpenAfterCooldown(t *testing.T) {
	m := NewMonitor(testConfig())

	for i := 0; i < 3; i++ {
		m.RecordFailure("svc")
	}
	if m.IsServiceAvailable("svc") {
		t.Fatal("circuit should be open")
	}

	time.Sleep(60 * time.Millisecond)

	if !m.IsServiceAvailable("svc") {
		t.Fatal("expected half-open after cooldown")
	}

	// One failure in half-open re-opens immediately.
	m.RecordFailure("svc")
	if m.IsServiceAvailable("svc") {
		t.Error("one half-open failure should re-open the circuit")
	}
}

func TestMonitorSystemStatus(t *testing.T) {
	m := NewMonitor(testConfig())

	status := m.SystemStatus()
	if status.Overall != StatusHealthy {
		t.Errorf("expected healthy with no services, got %s", status.Overall)
	}

	m.Register("a", &fakePinger{})
	m.Register("b", &fakePinger{})

	status = m.SystemStatus()
	if status.Overall != StatusHealthy || status.FallbackActive {
		t.Errorf("expected healthy, got %+v", status)
	}

	for i := 0; i < 3; i++ {
		m.RecordFailure("a")
	}
	status = m.SystemStatus()
	if status.Overall != StatusDegraded || !status.FallbackActive || status.EmergencyMode {
		t.Errorf("expected degraded, got %+v", status)
	}

	for i := 0; i < 3; i++ {
		m.RecordFailure("b")
	}
	status = m.SystemStatus()
	if status.Overall != StatusCritical || !status.EmergencyMode {
		t.Errorf("expected critical, got %+v", status)
	}
}

func TestMonitorProbeFeedback(t *testing.T) {
	m := NewMonitor(testConfig())

	good := &fakePinger{}
	bad := &fakePinger{err: errors.New("connection refused")}
	m.Register("good", good)
	m.Register("bad", bad)

	for i := 0; i < 3; i++ {
		m.probeAll(context.Background())
	}

	if !m.IsServiceAvailable("good") {
		t.Error("expected good service to stay available")
	}
	if m.IsServiceAvailable("bad") {
		t.Error("expected bad service circuit to open")
	}
	if good.callCount != 3 || bad.callCount != 3 {
		t.Errorf("expected 3 probes each, got %d and %d", good.callCount, bad.callCount)
	}
}

func TestMonitorSuccessRate(t *testing.T) {
	m := NewMonitor(testConfig())

	m.RecordSuccess("svc", 10*time.Millisecond)
	m.RecordSuccess("svc", 20*time.Millisecond)
	m.RecordFailure("svc")
	m.RecordSuccess("svc", 30*time.Millisecond)

	metrics := m.ServiceMetrics("svc")
	if metrics.SuccessRate != 0.75 {
		t.Errorf("expected 0.75, got %f", metrics.SuccessRate)
	}
	if metrics.Latency != 20*time.Millisecond {
		t.Errorf("expected 20ms average, got %s", metrics.Latency)
	}
}

func TestMonitorLatencyWindowBound(t *testing.T) {
	m := NewMonitor(testConfig())

	for i := 0; i < 10; i++ {
		m.RecordSuccess("svc", time.Duration(i)*time.Millisecond)
	}

	m.mu.Lock()
	n := len(m.services["svc"].recentLatencies)
	m.mu.Unlock()

	if n != 5 {
		t.Errorf("expected window of 5 samples, got %d", n)
	}
}
