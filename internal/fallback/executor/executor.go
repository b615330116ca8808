// Package executor runs one planned level's candidates in order under
// per-attempt timeouts. The first success wins.
package executor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vietddude/cascade/internal/core/domain"
	"github.com/vietddude/cascade/internal/fallback/metrics"
	"github.com/vietddude/cascade/internal/fallback/planner"
	"github.com/vietddude/cascade/internal/health"
	"github.com/vietddude/cascade/internal/infra/service"
)

// Operation is the caller-supplied work to perform against one candidate
// service. It must be safe to retry against a different candidate.
type Operation func(ctx context.Context, svc service.Service) (any, error)

// Outcome is the result of executing one planned level.
type Outcome struct {
	Success   bool
	Cancelled bool
	Value     any
	ServiceID string
	Attempts  []domain.Attempt
}

// Executor tries candidates sequentially and feeds outcomes back to the
// health manager when it accepts them.
type Executor struct {
	health   health.Manager
	recorder health.Recorder // nil when the manager takes no feedback
	log      *slog.Logger
}

func New(h health.Manager, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	e := &Executor{health: h, log: log}
	if rec, ok := h.(health.Recorder); ok {
		e.recorder = rec
	}
	return e
}

// ExecuteLevel attempts each candidate in order and stops at the first
// success. Circuit-open candidates are fast-skipped with a recorded attempt
// unless the level is forced. Caller cancellation stops everything.
func (e *Executor) ExecuteLevel(
	ctx context.Context,
	category domain.OperationCategory,
	level planner.PlannedLevel,
	cfg domain.OperationConfig,
	op Operation,
) Outcome {
	var out Outcome

	for _, svc := range level.Services {
		if ctx.Err() != nil {
			out.Cancelled = true
			return out
		}
		if cfg.MaxRetryAttempts > 0 && len(out.Attempts) >= cfg.MaxRetryAttempts {
			break
		}

		id := svc.ID()
		if cfg.CircuitBreakerEnabled && !level.Forced && !e.health.IsServiceAvailable(id) {
			out.Attempts = append(out.Attempts, domain.Attempt{
				Category:  category,
				Level:     level.Level,
				ServiceID: id,
				Error:     "service unavailable",
				ErrorKind: domain.ErrKindService,
				Timestamp: time.Now(),
			})
			metrics.CircuitSkipsTotal.WithLabelValues(string(category), id).Inc()
			e.log.Debug("Skipping unavailable service", "category", category, "level", level.Level.String(), "service", id)
			continue
		}

		attemptCtx, cancel := context.WithTimeout(ctx, cfg.TimeoutPerLevel)
		start := time.Now()
		value, err := op(attemptCtx, svc)
		elapsed := time.Since(start)
		cancel()

		attempt := domain.Attempt{
			Category:  category,
			Level:     level.Level,
			ServiceID: id,
			Latency:   elapsed,
			Timestamp: time.Now(),
		}

		if err == nil {
			attempt.Success = true
			out.Attempts = append(out.Attempts, attempt)
			out.Success = true
			out.Value = value
			out.ServiceID = id
			if e.recorder != nil {
				e.recorder.RecordSuccess(id, elapsed)
			}
			metrics.AttemptsTotal.WithLabelValues(string(category), level.Level.String(), id, "success").Inc()
			return out
		}

		kind := classify(ctx, err)
		attempt.ErrorKind = kind
		if kind == domain.ErrKindTimeout {
			attempt.Error = "timeout"
		} else {
			attempt.Error = err.Error()
		}
		out.Attempts = append(out.Attempts, attempt)
		metrics.AttemptsTotal.WithLabelValues(string(category), level.Level.String(), id, "failure").Inc()

		// A miss is a valid answer, not evidence the service is sick.
		if e.recorder != nil && !errors.Is(err, service.ErrNotFound) {
			e.recorder.RecordFailure(id)
		}

		if kind == domain.ErrKindCancelled {
			out.Cancelled = true
			return out
		}

		if hint, ok := service.RetryHint(err); ok {
			e.log.Warn("Service attempt failed", "category", category, "service", id, "error", err, "retry_in", hint)
		} else {
			e.log.Warn("Service attempt failed", "category", category, "service", id, "error", err)
		}
	}
	return out
}

// classify separates caller cancellation from per-attempt timeout and plain
// service failure. gRPC status codes get the same treatment as context
// errors.
func classify(parent context.Context, err error) domain.ErrorKind {
	if parent.Err() != nil {
		return domain.ErrKindCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrKindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return domain.ErrKindCancelled
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.DeadlineExceeded:
			return domain.ErrKindTimeout
		case codes.Canceled:
			return domain.ErrKindCancelled
		}
	}
	return domain.ErrKindService
}
