// Package queue carries summarization requests over NATS request-reply.
package queue

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrSummarizeFailed = errors.New("summarization failed")

// Request asks a worker for a summary.
type Request struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	MaxLength int       `json:"max_length,omitempty"`
	MinLength int       `json:"min_length,omitempty"`
}

// Reply is the worker's answer. Exactly one of Summary and Error is set.
type Reply struct {
	ID      uuid.UUID `json:"id"`
	Summary string    `json:"summary,omitempty"`
	Backend string    `json:"backend,omitempty"`
	Error   string    `json:"error,omitempty"`
}

type Handler func(context.Context, Request) Reply

// Queue exposes the client and worker sides of the summarize subject.
type Queue interface {
	Summarize(ctx context.Context, req Request) (Reply, error)
	Serve(ctx context.Context, handler Handler) error
}
