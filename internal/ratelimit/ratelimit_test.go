package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		decision   Decision
		err        error
		wantStatus int
		wantRetry  string
	}{
		{"allowed", Decision{Allowed: true, Remaining: 4}, nil, http.StatusOK, ""},
		{"limited", Decision{Allowed: false, RetryAfter: 12400 * time.Millisecond}, nil, http.StatusTooManyRequests, "12"},
		{"limited sub-second", Decision{Allowed: false, RetryAfter: 100 * time.Millisecond}, nil, http.StatusTooManyRequests, "1"},
		{"limiter down fails open", Decision{}, ErrLimiterUnavailable, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := new(MockLimiter)
			l.On("Allow", mock.Anything, "203.0.113.7").Return(tt.decision, tt.err).Once()

			called := false
			h := Middleware(l, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodPost, "/summarize", nil)
			req.RemoteAddr = "203.0.113.7:51234"
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if called != (tt.wantStatus == http.StatusOK) {
				t.Errorf("handler called = %v", called)
			}
			if got := w.Header().Get("Retry-After"); got != tt.wantRetry {
				t.Errorf("Retry-After = %q, want %q", got, tt.wantRetry)
			}
			if tt.wantStatus == http.StatusTooManyRequests {
				var body map[string]string
				if err := json.NewDecoder(w.Body).Decode(&body); err != nil || body["detail"] != "rate limit exceeded" {
					t.Errorf("unexpected body %v (%v)", body, err)
				}
			}
			l.AssertExpectations(t)
		})
	}
}

func TestNoOpAllows(t *testing.T) {
	d, err := NoOp{}.Allow(context.Background(), "anyone")
	if err != nil || !d.Allowed {
		t.Errorf("NoOp must allow, got %+v %v", d, err)
	}
}

func TestClientKey(t *testing.T) {
	tests := []struct{ addr, want string }{
		{"198.51.100.1:8080", "198.51.100.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"198.51.100.1", "198.51.100.1"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = tt.addr
		if got := ClientKey(r); got != tt.want {
			t.Errorf("ClientKey(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestWindowKey(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a := WindowKey("ip", base.Add(5*time.Second), time.Minute)
	b := WindowKey("ip", base.Add(55*time.Second), time.Minute)
	c := WindowKey("ip", base.Add(65*time.Second), time.Minute)
	if a != b {
		t.Errorf("same window produced different keys: %s vs %s", a, b)
	}
	if a == c {
		t.Errorf("different windows produced the same key: %s", a)
	}
}

func TestRedisLimiterUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	defer client.Close()

	_, err := newRedisLimiter(client, 5, time.Minute).Allow(context.Background(), "ip")
	if !errors.Is(err, ErrLimiterUnavailable) {
		t.Errorf("expected ErrLimiterUnavailable, got %v", err)
	}
}
