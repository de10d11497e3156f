// Package summarizer dispatches summarization to the primary backend chosen at
// startup and falls back to the other backend exactly once.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"text-summarizer/internal/backend"
)

const (
	DefaultMaxLength = 550
	DefaultMinLength = 40
)

var (
	ErrLocalUnavailable  = errors.New("local model unavailable")
	ErrRemoteUnavailable = errors.New("remote inference not configured")
)

// LocalModel generates a summary in process. *seq2seq.Capability implements it.
type LocalModel interface {
	Summarize(ctx context.Context, text string, maxLength, minLength int) (string, error)
}

// RemoteClient summarizes raw text through a hosted endpoint. *remote.Client
// implements it.
type RemoteClient interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Request is a single summarization call.
type Request struct {
	Text      string
	MaxLength int
	MinLength int
}

// NewRequest returns a request with the default length bounds.
func NewRequest(text string) Request {
	return Request{Text: text, MaxLength: DefaultMaxLength, MinLength: DefaultMinLength}
}

// withDefaults fills unset lengths. Any other value is passed through as-is.
func (r Request) withDefaults() Request {
	if r.MaxLength == 0 {
		r.MaxLength = DefaultMaxLength
	}
	if r.MinLength == 0 {
		r.MinLength = DefaultMinLength
	}
	return r
}

// Attempt is the outcome of calling one backend.
type Attempt struct {
	Backend  backend.Mode
	Summary  string
	Err      error
	Duration time.Duration
}

// OK reports whether the attempt produced a summary.
func (a Attempt) OK() bool { return a.Err == nil }

// Result is a successful summarization.
type Result struct {
	Summary string
	// Backend is the backend that produced Summary.
	Backend backend.Mode
	// Fallback is set when the primary backend failed first.
	Fallback bool
	Attempts []Attempt
}

// Summarizer owns the backend choice for the process lifetime.
type Summarizer struct {
	mode   backend.Mode
	local  LocalModel
	remote RemoteClient
	log    *slog.Logger
}

// New builds a Summarizer. A nil local model forces remote mode.
func New(mode backend.Mode, local LocalModel, remote RemoteClient, log *slog.Logger) *Summarizer {
	if mode != backend.ModeLocal || local == nil {
		mode = backend.ModeRemote
	}
	return &Summarizer{mode: mode, local: local, remote: remote, log: log}
}

// FromProbe builds a Summarizer from the startup probe result.
func FromProbe(res backend.Result, remote RemoteClient, log *slog.Logger) *Summarizer {
	if res.Local() {
		return New(backend.ModeLocal, res.Capability, remote, log)
	}
	return New(backend.ModeRemote, nil, remote, log)
}

// Mode returns the primary backend.
func (s *Summarizer) Mode() backend.Mode { return s.mode }

// Summarize tries the primary backend and, if it fails, the other backend once.
// When both fail the error is a *FailureError naming each cause.
func (s *Summarizer) Summarize(ctx context.Context, req Request) (Result, error) {
	req = req.withDefaults()

	primary := s.attempt(ctx, s.mode, req)
	if primary.OK() {
		return Result{Summary: primary.Summary, Backend: primary.Backend, Attempts: []Attempt{primary}}, nil
	}
	s.log.Warn("summarization backend failed; trying fallback",
		"backend", primary.Backend.String(), "fallback", s.mode.Other().String(), "err", primary.Err)

	secondary := s.attempt(ctx, s.mode.Other(), req)
	attempts := []Attempt{primary, secondary}
	if secondary.OK() {
		return Result{Summary: secondary.Summary, Backend: secondary.Backend, Fallback: true, Attempts: attempts}, nil
	}
	return Result{Attempts: attempts}, &FailureError{Attempts: attempts}
}

func (s *Summarizer) attempt(ctx context.Context, mode backend.Mode, req Request) (a Attempt) {
	a.Backend = mode
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			a.Summary, a.Err = "", fmt.Errorf("%s backend panicked: %v", mode, r)
		}
		a.Duration = time.Since(start)
	}()

	switch mode {
	case backend.ModeLocal:
		if s.local == nil {
			a.Err = ErrLocalUnavailable
			return a
		}
		a.Summary, a.Err = s.local.Summarize(ctx, req.Text, req.MaxLength, req.MinLength)
	default:
		if s.remote == nil {
			a.Err = ErrRemoteUnavailable
			return a
		}
		a.Summary, a.Err = s.remote.Summarize(ctx, req.Text)
	}
	return a
}
