// Package cache holds values that are expensive to refresh for a fixed time
// window.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// TTL caches a single value. The value is reused verbatim while it is younger
// than the ttl; otherwise the next Get calls the refresh function.
//
// A failed refresh stores the zero value and still restarts the ttl window,
// so a broken external command is retried once per window rather than once
// per tick.
type TTL[T any] struct {
	ttl    time.Duration
	logger *slog.Logger

	mu        sync.Mutex
	value     T
	refreshed time.Time
	loaded    bool
}

// NewTTL creates an empty entry.
func NewTTL[T any](ttl time.Duration, logger *slog.Logger) *TTL[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &TTL[T]{ttl: ttl, logger: logger}
}

// Get returns the cached value, refreshing it first if it is stale. The
// error from refresh is returned for the caller's information only; the
// cache has already been reset to the zero value.
func (c *TTL[T]) Get(ctx context.Context, now time.Time, refresh func(context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded && now.Sub(c.refreshed) < c.ttl {
		return c.value, nil
	}

	v, err := refresh(ctx)
	c.refreshed = now
	c.loaded = true
	if err != nil {
		var zero T
		c.value = zero
		c.logger.Debug("cache: refresh failed", slog.String("error", err.Error()))
		return zero, err
	}
	c.value = v
	return v, nil
}

// Age reports how long ago the value was refreshed; zero if never.
func (c *TTL[T]) Age(now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return 0
	}
	return now.Sub(c.refreshed)
}
