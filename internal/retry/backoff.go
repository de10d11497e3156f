// Package retry holds backoff helpers for infrastructure connections. The
// summarization fallback never uses it: each backend is tried exactly once.
package retry

import (
	"context"
	"time"
)

// ExponentialBackoff returns base * 2^attempt, capped at max when max > 0.
func ExponentialBackoff(attempt int, base, max time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		attempt = 30
	}
	d := base * (1 << attempt)
	if max > 0 && (d > max || d <= 0) {
		return max
	}
	return d
}

// Do calls fn until it succeeds, attempts are exhausted or ctx is done,
// sleeping with exponential backoff between calls. The last error is returned.
func Do(ctx context.Context, attempts int, base, max time.Duration, fn func(context.Context) error) error {
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(ExponentialBackoff(attempt, base, max)):
		}
	}
	return err
}
