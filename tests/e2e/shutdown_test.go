package e2e

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/vietddude/cascade/internal/control"
	"github.com/vietddude/cascade/internal/core/config"
)

func TestGracefulShutdown(t *testing.T) {
	// Memory-only config with enough wiring to start every component
	cfg := control.Config{
		Port: 18231,
		Health: config.HealthConfig{
			ProbeInterval:    200 * time.Millisecond,
			ProbeTimeout:     100 * time.Millisecond,
			FailureThreshold: 3,
			Cooldown:         time.Second,
			LatencyWindow:    10,
		},
		Emergency: config.EmergencyCacheConfig{MaxEntries: 16, SweepInterval: 100 * time.Millisecond},
		Services: []config.ServiceConfig{
			{ID: "mem-a", Kind: "memory"},
			{ID: "mem-b", Kind: "memory"},
		},
		Operations: []config.OperationConfig{
			{Category: "cache_read", Strategy: "graceful_degradation", Primary: []string{"mem-a"}, Secondary: []string{"mem-b"}},
			{Category: "cache_write", Strategy: "graceful_degradation", Primary: []string{"mem-a"}},
		},
	}

	daemon, err := control.NewDaemon(cfg)
	if err != nil {
		t.Fatalf("Failed to create daemon: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := daemon.Start(ctx); err != nil {
		t.Fatalf("Failed to start daemon: %v", err)
	}

	// Let the probe loop and HTTP server spin up
	time.Sleep(500 * time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/health", cfg.Port))
	if err != nil {
		t.Fatalf("Health endpoint unreachable: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected healthy daemon, got status %d", resp.StatusCode)
	}

	// Trigger shutdown
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()

	if err := daemon.Stop(stopCtx); err != nil {
		t.Errorf("Stop failed: %v", err)
	}

	if _, err := http.Get(fmt.Sprintf("http://localhost:%d/health", cfg.Port)); err == nil {
		t.Error("Health endpoint still reachable after Stop")
	}
}
