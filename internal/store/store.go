package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Source identifies how a summarization request entered the service.
type Source string

const (
	SourceHTTP  Source = "http"
	SourceFile  Source = "file"
	SourceQueue Source = "queue"
)

var ErrInvalidEvent = errors.New("invalid summarization event")

// Event records the outcome of one summarization. It never holds the input
// or summary text.
type Event struct {
	ID            uuid.UUID
	Source        Source
	PrimaryMode   string
	Backend       string // backend that produced the summary; empty on failure
	BackendsTried []string
	Fallback      bool
	InputChars    int
	SummaryChars  int
	Error         string
	Duration      time.Duration
	CreatedAt     time.Time
}

// Succeeded reports whether a summary was produced.
func (e Event) Succeeded() bool { return e.Backend != "" }

// Validate checks the fields every stored event must carry.
func (e Event) Validate() error {
	if e.Source == "" || e.PrimaryMode == "" || len(e.BackendsTried) == 0 {
		return ErrInvalidEvent
	}
	return nil
}

// Store persists summarization events.
type Store interface {
	RecordEvent(ctx context.Context, ev Event) (Event, error)
	RecentEvents(ctx context.Context, limit int) ([]Event, error)
	Close() error
}

// prepare assigns an id and timestamp to an event before it is stored.
func prepare(ev Event) (Event, error) {
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	return ev, nil
}
