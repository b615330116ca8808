// Package control wires configuration, backing services, health monitoring
// and the orchestrator into a runnable daemon.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vietddude/cascade/internal/core/config"
	"github.com/vietddude/cascade/internal/core/domain"
	"github.com/vietddude/cascade/internal/fallback"
	"github.com/vietddude/cascade/internal/health"
	"github.com/vietddude/cascade/internal/infra/service"
)

// Config holds the daemon configuration.
type Config struct {
	Port       int
	Health     config.HealthConfig
	Emergency  config.EmergencyCacheConfig
	Services   []config.ServiceConfig
	Operations []config.OperationConfig
}

// Daemon owns every long-lived component of a running cascade process.
type Daemon struct {
	cfg      Config
	monitor  *health.Monitor
	orch     *fallback.Orchestrator
	server   *Server
	services []service.Service
	log      *slog.Logger
}

// NewDaemon builds all components from config. On any error it closes what
// it already opened.
func NewDaemon(cfg Config) (*Daemon, error) {
	log := slog.Default()

	monitor := health.NewMonitor(health.MonitorConfig{
		ProbeInterval:    cfg.Health.ProbeInterval,
		ProbeTimeout:     cfg.Health.ProbeTimeout,
		FailureThreshold: cfg.Health.FailureThreshold,
		Cooldown:         cfg.Health.Cooldown,
		LatencyWindow:    cfg.Health.LatencyWindow,
	})

	byID := make(map[string]service.Service, len(cfg.Services))
	var built []service.Service
	for _, sc := range cfg.Services {
		svc, err := buildService(sc)
		if err != nil {
			closeAll(built)
			return nil, fmt.Errorf("failed to init service %s: %w", sc.ID, err)
		}
		byID[sc.ID] = svc
		built = append(built, svc)
		monitor.Register(svc.ID(), svc)
		log.Info("Service initialized", "id", svc.ID(), "kind", string(svc.Kind()))
	}

	orch := fallback.New(monitor,
		fallback.WithLogger(log),
		fallback.WithLatencyWindow(cfg.Health.LatencyWindow),
		fallback.WithEmergencyCacheSize(cfg.Emergency.MaxEntries),
		fallback.WithJanitorInterval(cfg.Emergency.SweepInterval),
	)

	for _, oc := range cfg.Operations {
		mapping, err := buildMapping(oc, byID)
		if err != nil {
			closeAll(built)
			_ = orch.Shutdown(context.Background())
			return nil, err
		}
		orch.RegisterOperation(domain.OperationCategory(oc.Category), oc.Domain(), mapping)
		log.Info("Operation registered", "category", oc.Category, "strategy", oc.Strategy)
	}

	d := &Daemon{
		cfg:      cfg,
		monitor:  monitor,
		orch:     orch,
		services: built,
		log:      log,
	}
	d.server = NewServer(orch, cfg.Port)
	return d, nil
}

func buildService(sc config.ServiceConfig) (service.Service, error) {
	switch service.Kind(sc.Kind) {
	case service.KindMemory:
		return service.NewMemory(sc.ID), nil
	case service.KindRedis:
		return service.NewRedis(sc.ID, sc.Redis)
	case service.KindPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return service.NewPostgres(ctx, sc.ID, sc.Postgres)
	case service.KindGRPC:
		return service.NewGRPC(context.Background(), sc.ID, sc.Endpoint)
	default:
		return nil, fmt.Errorf("unknown service kind %q", sc.Kind)
	}
}

func buildMapping(oc config.OperationConfig, byID map[string]service.Service) (fallback.Mapping, error) {
	resolve := func(ids []string) ([]service.Service, error) {
		var out []service.Service
		for _, id := range ids {
			svc, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("operation %s references unknown service %q", oc.Category, id)
			}
			out = append(out, svc)
		}
		return out, nil
	}

	primary, err := resolve(oc.Primary)
	if err != nil {
		return fallback.Mapping{}, err
	}
	secondary, err := resolve(oc.Secondary)
	if err != nil {
		return fallback.Mapping{}, err
	}
	tertiary, err := resolve(oc.Tertiary)
	if err != nil {
		return fallback.Mapping{}, err
	}

	m := fallback.Mapping{Primary: primary, Secondary: secondary, Tertiary: tertiary}

	switch oc.Emergency.Mode {
	case "", "none":
	case "static":
		m.Emergency = fallback.StaticHandler(oc.Emergency.Value)
	case "refusal":
		reason := oc.Emergency.Reason
		if reason == "" {
			reason = "all backing services unavailable"
		}
		m.Emergency = fallback.RefusalHandler(reason)
	default:
		return fallback.Mapping{}, fmt.Errorf("unknown emergency mode %q for %s", oc.Emergency.Mode, oc.Category)
	}

	return m, nil
}

func closeAll(services []service.Service) {
	for _, svc := range services {
		_ = svc.Close()
	}
}

// Start launches the probe loop and the HTTP server. It does not block.
func (d *Daemon) Start(ctx context.Context) error {
	go d.monitor.Start(ctx)

	go func() {
		if err := d.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.log.Error("Status server failed", "error", err)
		}
	}()

	d.log.Info("Cascade started", "port", d.cfg.Port, "services", len(d.services))
	return nil
}

// Stop shuts the HTTP server down, stops background work and closes every
// backing service.
func (d *Daemon) Stop(ctx context.Context) error {
	d.log.Info("Stopping cascade...")

	if err := d.orch.Shutdown(ctx); err != nil {
		d.log.Warn("Orchestrator shutdown timed out", "error", err)
	}

	for _, svc := range d.services {
		if err := svc.Close(); err != nil {
			d.log.Warn("Failed to close service", "id", svc.ID(), "error", err)
		}
	}

	return d.server.Stop(ctx)
}

// Orchestrator exposes the facade for embedders and tests.
func (d *Daemon) Orchestrator() *fallback.Orchestrator { return d.orch }
