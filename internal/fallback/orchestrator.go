package fallback

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/cascade/internal/core/domain"
	"github.com/vietddude/cascade/internal/fallback/emergency"
	"github.com/vietddude/cascade/internal/fallback/executor"
	"github.com/vietddude/cascade/internal/fallback/metrics"
	"github.com/vietddude/cascade/internal/fallback/planner"
	"github.com/vietddude/cascade/internal/fallback/registry"
	"github.com/vietddude/cascade/internal/fallback/stats"
	"github.com/vietddude/cascade/internal/health"
)

// emergencyServiceID is the service name attempts and results carry when the
// synthetic tier served them.
const emergencyServiceID = "emergency"

// Option configures an Orchestrator.
type Option func(*options)

type options struct {
	logger             *slog.Logger
	latencyWindow      int
	emergencyCacheSize int
	janitorInterval    time.Duration
}

// WithLogger routes orchestrator logging through the given logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.logger = log }
}

// WithLatencyWindow sets how many successful latencies are kept per service.
func WithLatencyWindow(n int) Option {
	return func(o *options) { o.latencyWindow = n }
}

// WithEmergencyCacheSize bounds the synthetic-response cache.
func WithEmergencyCacheSize(n int) Option {
	return func(o *options) { o.emergencyCacheSize = n }
}

// WithJanitorInterval sets how often expired emergency entries are swept.
func WithJanitorInterval(d time.Duration) Option {
	return func(o *options) { o.janitorInterval = d }
}

// Orchestrator is the facade over planning, execution, emergency response
// and statistics. One instance is shared process-wide and is safe for
// concurrent use.
type Orchestrator struct {
	registry  *registry.Registry
	planner   *planner.Planner
	executor  *executor.Executor
	emergency *emergency.Responder
	stats     *stats.Tracker
	health    health.Manager
	log       *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an orchestrator bound to the given health manager. Call
// Shutdown to release the background janitor.
func New(hm health.Manager, opts ...Option) *Orchestrator {
	o := &options{
		logger:             slog.Default(),
		latencyWindow:      100,
		emergencyCacheSize: 1024,
		janitorInterval:    time.Minute,
	}
	for _, opt := range opts {
		opt(o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	orch := &Orchestrator{
		registry:  registry.New(),
		planner:   planner.New(hm),
		executor:  executor.New(hm, o.logger),
		emergency: emergency.NewResponder(o.emergencyCacheSize, o.logger),
		stats:     stats.New(o.latencyWindow),
		health:    hm,
		log:       o.logger,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	go func() {
		defer close(orch.done)
		orch.emergency.StartJanitor(ctx, o.janitorInterval)
	}()

	return orch
}

// Shutdown stops background work, blocking until the janitor exits or ctx
// expires.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.cancel()
	select {
	case <-o.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RegisterOperation binds a category to its routing policy and service
// mapping. The last registration for a category wins.
func (o *Orchestrator) RegisterOperation(category domain.OperationCategory, cfg domain.OperationConfig, m Mapping) {
	o.registry.Register(category, cfg, m)
	o.log.Debug("Operation registered", "category", category, "strategy", cfg.Strategy)
}

// CallOption adjusts a single ExecuteWithFallback call.
type CallOption func(*callOptions)

type callOptions struct {
	cfg      *domain.OperationConfig
	data     map[string]any
	cacheKey string
}

// WithConfig overrides the registered config for one call. Zero-valued
// numeric fields are filled with defaults, same as at registration.
func WithConfig(cfg domain.OperationConfig) CallOption {
	return func(c *callOptions) {
		normalized := registry.ApplyDefaults(cfg)
		c.cfg = &normalized
	}
}

// WithContextData passes the original call arguments through to the
// emergency handler.
func WithContextData(data map[string]any) CallOption {
	return func(c *callOptions) { c.data = data }
}

// WithCacheKey sets the emergency cache key. It defaults to the category
// name, which is right only for calls whose synthetic answer is
// argument-independent.
func WithCacheKey(key string) CallOption {
	return func(c *callOptions) { c.cacheKey = key }
}

// ExecuteWithFallback runs op against the category's tiers until one
// succeeds, then falls back to the emergency path. The result is never nil;
// callers branch on Success and Degraded.
func (o *Orchestrator) ExecuteWithFallback(
	ctx context.Context,
	category domain.OperationCategory,
	op Operation,
	opts ...CallOption,
) *domain.ExecutionResult {
	var call callOptions
	for _, opt := range opts {
		opt(&call)
	}

	cfg, mapping := o.registry.Lookup(category)
	if call.cfg != nil {
		cfg = *call.cfg
	}

	res := &domain.ExecutionResult{
		ID:       uuid.New().String(),
		Category: category,
		Source:   domain.SourceLive,
	}
	start := time.Now()

	plan := o.planner.Plan(cfg, mapping)
	for _, level := range plan {
		out := o.executor.ExecuteLevel(ctx, category, level, cfg, op)
		res.Attempts = append(res.Attempts, out.Attempts...)

		if out.Success {
			res.Success = true
			res.Value = out.Value
			res.LevelUsed = level.Level
			res.ServiceUsed = out.ServiceID
			res.Degraded = level.Level.Degraded()
			break
		}
		if out.Cancelled {
			res.ErrorKind = domain.ErrKindCancelled
			res.ErrorMessage = "cancelled by caller"
			return o.finish(res, cfg, start)
		}
	}

	if !res.Success {
		o.respondEmergency(ctx, category, cfg, mapping, &call, res)
	}

	return o.finish(res, cfg, start)
}

func (o *Orchestrator) respondEmergency(
	ctx context.Context,
	category domain.OperationCategory,
	cfg domain.OperationConfig,
	mapping Mapping,
	call *callOptions,
	res *domain.ExecutionResult,
) {
	if mapping.Emergency == nil {
		res.ErrorKind = domain.ErrKindExhausted
		res.ErrorMessage = exhaustedMessage(res.Attempts)
		return
	}

	key := call.cacheKey
	if key == "" {
		key = string(category)
	}

	start := time.Now()
	value, fromCache, err := o.emergency.Respond(ctx, key, cfg.EmergencyTTL, mapping.Emergency, call.data)
	elapsed := time.Since(start)

	attempt := domain.Attempt{
		Category:  category,
		Level:     domain.LevelEmergency,
		ServiceID: emergencyServiceID,
		Latency:   elapsed,
		Timestamp: time.Now(),
	}

	switch {
	case err != nil:
		attempt.Error = err.Error()
		attempt.ErrorKind = domain.ErrKindService
		res.Attempts = append(res.Attempts, attempt)
		res.ErrorKind = domain.ErrKindExhausted
		res.ErrorMessage = err.Error()
		metrics.EmergencyResponsesTotal.WithLabelValues(string(category), "error").Inc()

	case value == nil:
		attempt.Error = "no emergency value"
		attempt.ErrorKind = domain.ErrKindService
		res.Attempts = append(res.Attempts, attempt)
		res.ErrorKind = domain.ErrKindExhausted
		res.ErrorMessage = exhaustedMessage(res.Attempts)
		metrics.EmergencyResponsesTotal.WithLabelValues(string(category), "empty").Inc()

	default:
		attempt.Success = true
		res.Attempts = append(res.Attempts, attempt)
		res.Success = true
		res.Value = value
		res.Source = domain.SourceEmergency
		res.LevelUsed = domain.LevelEmergency
		res.ServiceUsed = emergencyServiceID
		res.Degraded = true
		res.FromEmergencyCache = fromCache
		metrics.EmergencyResponsesTotal.WithLabelValues(string(category), "served").Inc()
		if fromCache {
			metrics.EmergencyCacheHitsTotal.WithLabelValues(string(category)).Inc()
		}
	}
}

func exhaustedMessage(attempts []domain.Attempt) string {
	if len(attempts) == 0 {
		return fmt.Sprintf("%s: no services configured and no emergency handler registered", domain.ErrAllLevelsExhausted)
	}
	last := attempts[len(attempts)-1]
	return fmt.Sprintf("%s after %d attempts, last error from %s: %s",
		domain.ErrAllLevelsExhausted, len(attempts), last.ServiceID, last.Error)
}

func (o *Orchestrator) finish(res *domain.ExecutionResult, cfg domain.OperationConfig, start time.Time) *domain.ExecutionResult {
	res.TotalAttempts = len(res.Attempts)
	res.TotalLatency = time.Since(start)

	if recovery := o.stats.Record(res, cfg.EnableRecoveryDetection); recovery != nil {
		metrics.RecoveryEventsTotal.WithLabelValues(string(res.Category)).Inc()
		o.log.Info("Service recovered to primary",
			"category", res.Category, "service", recovery.ServiceID, "from", recovery.From.String())
	}

	levelLabel := res.LevelUsed.String()
	outcome := "success"
	if !res.Success {
		levelLabel = "none"
		outcome = "failure"
	}
	metrics.ExecutionsTotal.WithLabelValues(string(res.Category), levelLabel, outcome).Inc()
	metrics.ExecutionLatency.WithLabelValues(string(res.Category), levelLabel).Observe(res.TotalLatency.Seconds())
	metrics.EmergencyCacheSize.Set(float64(o.emergency.CacheSize()))

	switch {
	case !res.Success:
		o.log.Error("Execution failed",
			"category", res.Category, "attempts", res.TotalAttempts,
			"kind", string(res.ErrorKind), "error", res.ErrorMessage)
	case res.Degraded:
		o.log.Warn("Execution degraded",
			"category", res.Category, "level", res.LevelUsed.String(),
			"service", res.ServiceUsed, "attempts", res.TotalAttempts)
	default:
		o.log.Debug("Execution succeeded",
			"category", res.Category, "service", res.ServiceUsed, "latency", res.TotalLatency)
	}

	return res
}

// GetOptimalService reports which service the next call for this category
// would try first, without executing anything.
func (o *Orchestrator) GetOptimalService(category domain.OperationCategory) (string, bool) {
	cfg, mapping := o.registry.Lookup(category)
	for _, level := range o.planner.Plan(cfg, mapping) {
		for _, svc := range level.Services {
			if !cfg.CircuitBreakerEnabled || level.Forced || o.health.IsServiceAvailable(svc.ID()) {
				return svc.ID(), true
			}
		}
	}
	return "", false
}

// ClearEmergencyCache drops all cached synthetic values and returns how many
// were held.
func (o *Orchestrator) ClearEmergencyCache() int {
	n := o.emergency.Clear()
	metrics.EmergencyCacheSize.Set(0)
	o.log.Info("Emergency cache cleared", "entries", n)
	return n
}

// ResetFallbackStats zeroes aggregate statistics.
func (o *Orchestrator) ResetFallbackStats() {
	o.stats.Reset()
	o.log.Info("Fallback statistics reset")
}
