package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"text-summarizer/internal/app"
	"text-summarizer/internal/httputil"
	"text-summarizer/internal/queue"
	"text-summarizer/internal/store"
	"text-summarizer/internal/summarizer"
)

// minTextLength matches the API's minimum input length.
const minTextLength = 100

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx)
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Close()

	q, closeQueue, err := app.BuildQueue(deps.Config, deps.Log, "summarization-worker")
	if err != nil {
		deps.Log.Error("failed to initialize queue", "err", err)
		os.Exit(1)
	}
	defer closeQueue()

	deps.Log.Info("summarization worker starting", "backend", deps.Summarizer.Mode().String())
	healthAddr := fmt.Sprintf(":%d", deps.Config.HealthPort)
	if err := run(ctx, deps, q, func(ctx context.Context) error {
		return httputil.ServeHealth(ctx, healthAddr, deps.Log)
	}); err != nil {
		deps.Log.Error("summarization worker stopped", "err", err)
	}
}

// run serves queue requests and the health endpoint until ctx is done or
// either of them fails.
func run(ctx context.Context, deps app.Deps, q queue.Queue, serveHealth func(context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return q.Serve(ctx, handler(deps))
	})
	g.Go(func() error {
		return serveHealth(ctx)
	})

	return g.Wait()
}

func handler(deps app.Deps) queue.Handler {
	return func(ctx context.Context, req queue.Request) queue.Reply {
		text := strings.TrimSpace(req.Text)
		if utf8.RuneCountInString(text) < minTextLength {
			return queue.Reply{Error: "Text must be at least 100 characters long for meaningful summarization"}
		}

		start := time.Now()
		res, err := deps.Summarizer.Summarize(ctx, summarizer.Request{
			Text:      text,
			MaxLength: req.MaxLength,
			MinLength: req.MinLength,
		})
		deps.Record(ctx, app.NewEvent(store.SourceQueue, deps.Summarizer.Mode().String(), text, res, err, time.Since(start)))
		if err != nil {
			deps.Log.Error("summarization failed", "id", req.ID, "err", err)
			return queue.Reply{Error: err.Error()}
		}
		return queue.Reply{Summary: res.Summary, Backend: res.Backend.String()}
	}
}
