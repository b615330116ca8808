package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/cascade/internal/control"
	"github.com/vietddude/cascade/internal/core/domain"
	"github.com/vietddude/cascade/internal/fallback"
	"github.com/vietddude/cascade/internal/health"
	"github.com/vietddude/cascade/internal/infra/service"
)

// outage wraps a memory service so the demo can take it down on demand.
type outage struct {
	*service.Memory
	down bool
}

func (o *outage) Ping(ctx context.Context) error {
	if o.down {
		return errors.New("connection refused")
	}
	return o.Memory.Ping(ctx)
}

func (o *outage) Get(ctx context.Context, key string) (string, error) {
	if o.down {
		return "", errors.New("connection refused")
	}
	return o.Memory.Get(ctx, key)
}

func main() {
	ctx := context.Background()

	// 1. Create the tiered services
	primary := &outage{Memory: service.NewMemory("fast-cache")}
	secondary := &outage{Memory: service.NewMemory("warm-cache")}
	tertiary := &outage{Memory: service.NewMemory("durable-store")}

	// 2. Setup health monitoring with a fast probe cycle
	monitor := health.NewMonitor(health.MonitorConfig{
		ProbeInterval:    500 * time.Millisecond,
		ProbeTimeout:     200 * time.Millisecond,
		FailureThreshold: 3,
		Cooldown:         5 * time.Second,
		LatencyWindow:    50,
	})
	monitor.Register("fast-cache", primary)
	monitor.Register("warm-cache", secondary)
	monitor.Register("durable-store", tertiary)
	go monitor.Start(ctx)

	// 3. Create the orchestrator
	orch := fallback.New(monitor)
	defer func() {
		_ = orch.Shutdown(context.Background())
	}()

	// 4. Register the operation with an emergency refusal
	cfg := domain.DefaultOperationConfig()
	cfg.TimeoutPerLevel = 500 * time.Millisecond
	cfg.EmergencyTTL = 30 * time.Second
	orch.RegisterOperation(domain.CategorySessionLookup, cfg, fallback.Mapping{
		Primary:   []service.Service{primary},
		Secondary: []service.Service{secondary},
		Tertiary:  []service.Service{tertiary},
		Emergency: fallback.RefusalHandler("session store unreachable"),
	})

	// 5. Seed the same session into every tier
	for _, kv := range []service.KV{primary, secondary, tertiary} {
		_ = kv.Set(ctx, "session:alice", "token-1234", 0)
	}

	lookup := func(label string) *domain.ExecutionResult {
		res := orch.ExecuteWithFallback(ctx, domain.CategorySessionLookup, control.KVGet("session:alice"))
		fmt.Printf("%-26s level=%-9s degraded=%-5v attempts=%d source=%s\n",
			label, res.LevelUsed, res.Degraded, res.TotalAttempts, res.Source)
		return res
	}

	fmt.Println("=== Healthy ===")
	lookup("read")

	// 6. Take the fast cache down and watch reads degrade
	fmt.Println("\n=== Fast cache down ===")
	primary.down = true
	for i := 0; i < 3; i++ {
		lookup(fmt.Sprintf("read %d", i+1))
	}
	lookup("read with circuit open")

	// 7. Total outage serves the synthetic refusal, then the cached copy
	fmt.Println("\n=== Total outage ===")
	secondary.down = true
	tertiary.down = true
	res := lookup("first emergency read")
	fmt.Printf("  refusal: %+v\n", res.Value)
	res = lookup("second emergency read")
	fmt.Printf("  served from emergency cache: %v\n", res.FromEmergencyCache)

	// 8. Bring everything back and wait for the probes to notice
	fmt.Println("\n=== Recovery ===")
	primary.down = false
	secondary.down = false
	tertiary.down = false
	time.Sleep(1500 * time.Millisecond)
	lookup("read after recovery")

	// 9. Show what the fallback layer saw
	status := orch.GetFallbackStatus()
	for _, rec := range status.Recoveries {
		fmt.Printf("🔄 %s recovered to primary from %s\n", rec.Category, rec.From)
	}
	fmt.Printf("\nOverall: %s\n", status.System.Overall)
}
