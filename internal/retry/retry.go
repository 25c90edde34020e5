// Package retry executes an operation with a bounded number of attempts and
// a fixed delay between them. Only failures whose message marks them as
// transient network errors are retried; everything else propagates
// immediately. The package does not log: callers decide what is worth
// reporting.
package retry

import (
	"context"
	"strings"
	"time"
)

// Default attempt budget and inter-attempt delay, matching the outbound
// call policy used by every review-source operation.
const (
	DefaultAttempts = 3
	DefaultDelay    = 2 * time.Second
)

// transientMarkers are the substrings that classify an error message as a
// likely retry-recoverable transport failure. The comparison is
// case-insensitive.
var transientMarkers = []string{
	"connection reset",
	"timeout",
	"socket hang up",
	"network",
}

// Config bounds a retried operation. Zero values fall back to the defaults.
type Config struct {
	Attempts int
	Delay    time.Duration
}

func (c Config) withDefaults() Config {
	if c.Attempts <= 0 {
		c.Attempts = DefaultAttempts
	}
	if c.Delay <= 0 {
		c.Delay = DefaultDelay
	}
	return c
}

// IsTransient reports whether err reads like a transient network failure.
// The message content is the only classification channel available: the
// review source surfaces transport failures as opaque error strings.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Do invokes op up to cfg.Attempts times, sleeping cfg.Delay between
// attempts (no backoff). Non-transient errors, and transient errors on the
// final attempt, are returned as-is. The delay respects ctx cancellation.
func Do[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error)) (T, error) {
	cfg = cfg.withDefaults()

	var zero T
	var lastErr error
	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if attempt == cfg.Attempts || !IsTransient(err) {
			return zero, err
		}
		select {
		case <-time.After(cfg.Delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
	return zero, lastErr
}
