package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type textRequest struct {
	Text      string `json:"text" validate:"required,trimmedmin=10"`
	MaxLength int    `json:"max_length" validate:"omitempty,min=1"`
}

func TestValidatorTrimmedMin(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"long enough", "0123456789", false},
		{"padding does not count", "   012345678   ", true},
		{"multibyte counted as characters", strings.Repeat("é", 10), false},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validator.Struct(textRequest{Text: tt.text})
			if (err != nil) != tt.wantErr {
				t.Errorf("Struct(%q) err = %v, wantErr %v", tt.text, err, tt.wantErr)
			}
		})
	}
}

func TestValidationMessage(t *testing.T) {
	messages := map[string]string{"text.trimmedmin": "text too short"}

	tests := []struct {
		name string
		req  textRequest
		want string
	}{
		{"custom message", textRequest{Text: "short"}, "text too short"},
		{"required uses json name", textRequest{}, "text is required"},
		{"min", textRequest{Text: "0123456789", MaxLength: -1}, "max_length must be at least 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validator.Struct(tt.req)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if got := ValidationMessage(err, messages); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if got := ValidationMessage(errors.New("boom"), nil); got != "invalid request" {
		t.Errorf("unexpected message for non-validation error: %q", got)
	}
}

func TestFailWritesDetail(t *testing.T) {
	w := httptest.NewRecorder()
	Fail(discardLogger(), w, "something broke", errors.New("cause"), 0)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}
	var body ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Detail != "something broke" {
		t.Errorf("unexpected detail %q", body.Detail)
	}
}

func TestRouterRecoversPanics(t *testing.T) {
	r := NewRouter(discardLogger())
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestRouterAllowsAnyOrigin(t *testing.T) {
	r := NewRouter(discardLogger())
	r.Post("/summarize", func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodOptions, "/summarize", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Errorf("credentials must not be allowed, got %q", got)
	}
}

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	HealthHandler(discardLogger())(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Errorf("unexpected health response %d %q", w.Code, w.Body.String())
	}
}

func TestServeHealthStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ServeHealth(ctx, "127.0.0.1:0", discardLogger()) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("health server did not stop")
	}
}
