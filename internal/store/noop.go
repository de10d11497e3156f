package store

import "context"

// NoOp is used when STORE_PROVIDER=none. Events are validated and dropped.
type NoOp struct{}

func NewNoOp() *NoOp { return &NoOp{} }

func (NoOp) RecordEvent(_ context.Context, ev Event) (Event, error) {
	return prepare(ev)
}

func (NoOp) RecentEvents(context.Context, int) ([]Event, error) {
	return []Event{}, nil
}

func (NoOp) Close() error { return nil }
