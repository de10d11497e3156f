package app

import (
	"context"
	"time"
	"unicode/utf8"

	"text-summarizer/internal/store"
	"text-summarizer/internal/summarizer"
)

// NewEvent describes one summarization for the event log.
func NewEvent(source store.Source, primary string, input string, res summarizer.Result, err error, took time.Duration) store.Event {
	ev := store.Event{
		Source:      source,
		PrimaryMode: primary,
		InputChars:  utf8.RuneCountInString(input),
		Duration:    took,
	}
	for _, a := range res.Attempts {
		ev.BackendsTried = append(ev.BackendsTried, a.Backend.String())
	}
	if err != nil {
		ev.Error = err.Error()
		return ev
	}
	ev.Backend = res.Backend.String()
	ev.Fallback = res.Fallback
	ev.SummaryChars = utf8.RuneCountInString(res.Summary)
	return ev
}

// Record stores an event. Failures are logged and never reach the caller.
func (d Deps) Record(ctx context.Context, ev store.Event) {
	if d.Store == nil {
		return
	}
	if _, err := d.Store.RecordEvent(ctx, ev); err != nil {
		d.Log.Warn("failed to record summarization event", "err", err, "source", ev.Source)
	}
}
