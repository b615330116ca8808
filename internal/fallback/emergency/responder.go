// Package emergency produces synthetic last-resort responses behind a
// bounded TTL cache. It is the final tier after every real service has
// failed.
package emergency

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/cascade/internal/core/domain"
)

// Handler produces a substitute value from the original call context when
// every real tier has failed. Returning (nil, nil) means "no value"; the
// call is then reported as a failure rather than a fabricated success.
type Handler func(ctx context.Context, data map[string]any) (any, error)

// Responder owns the synthetic-response path and its cache.
type Responder struct {
	cache *ttlCache
	log   *slog.Logger
}

func NewResponder(maxCacheEntries int, log *slog.Logger) *Responder {
	if maxCacheEntries <= 0 {
		maxCacheEntries = 1024
	}
	if log == nil {
		log = slog.Default()
	}
	return &Responder{
		cache: newTTLCache(maxCacheEntries),
		log:   log,
	}
}

// Respond returns a cached synthetic value when a fresh one exists,
// otherwise invokes the handler and caches any non-nil result. The handler
// runs outside the cache lock, so a slow handler never blocks other
// categories.
func (r *Responder) Respond(ctx context.Context, key string, ttl time.Duration, h Handler, data map[string]any) (value any, fromCache bool, err error) {
	if h == nil {
		return nil, false, domain.ErrNoEmergencyHandler
	}

	if cached, ok := r.cache.lookup(key); ok {
		return cached, true, nil
	}

	value, err = h(ctx, data)
	if err != nil {
		return nil, false, fmt.Errorf("emergency handler: %w", err)
	}
	if value == nil {
		return nil, false, nil
	}

	r.cache.store(key, value, ttl)
	return value, false, nil
}

// Clear drops every cached synthetic value and reports how many were held.
func (r *Responder) Clear() int {
	return r.cache.clear()
}

// CacheSize returns the current number of cached synthetic values.
func (r *Responder) CacheSize() int {
	return r.cache.size()
}

// StartJanitor prunes expired entries on an interval until ctx is cancelled.
func (r *Responder) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := r.cache.prune(); removed > 0 {
				r.log.Debug("Pruned expired emergency entries", "count", removed)
			}
		}
	}
}
