// Package ratelimit bounds how many summarization requests a client may make
// per window.
package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"text-summarizer/internal/httputil"
)

var ErrLimiterUnavailable = errors.New("rate limiter unavailable")

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether a client identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
	Close() error
}

// NoOp allows everything. It is used when RATE_LIMIT_PER_MINUTE is 0.
type NoOp struct{}

func (NoOp) Allow(context.Context, string) (Decision, error) {
	return Decision{Allowed: true, Remaining: -1}, nil
}

func (NoOp) Close() error { return nil }

// Middleware rejects requests over the limit with 429. Limiter errors let the
// request through.
func Middleware(l Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, err := l.Allow(r.Context(), ClientKey(r))
			if err != nil {
				log.Warn("rate limiter failed; allowing request", "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if d.Remaining >= 0 {
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			}
			if !d.Allowed {
				secs := int(d.RetryAfter.Round(time.Second) / time.Second)
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				httputil.Fail(log, w, "rate limit exceeded", nil, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientKey identifies the caller by IP. chi's RealIP middleware has already
// rewritten RemoteAddr from proxy headers.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
