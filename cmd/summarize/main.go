// Command summarize sends text to a summarization worker over NATS and prints
// the summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"text-summarizer/internal/app"
	"text-summarizer/internal/queue"
)

func main() {
	var (
		file      = flag.String("file", "", "read text from file instead of stdin")
		maxLength = flag.Int("max-length", 0, "maximum summary length in tokens (0 for the default)")
		minLength = flag.Int("min-length", 0, "minimum summary length in tokens (0 for the default)")
		timeout   = flag.Duration("timeout", 5*time.Minute, "how long to wait for a reply")
	)
	flag.Parse()

	cfg, log, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("failed to load config", "err", err)
		os.Exit(1)
	}

	in := io.Reader(os.Stdin)
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			log.Error("failed to open input", "err", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	q, closeQueue, err := app.BuildQueue(cfg, log, "summarize-cli")
	if err != nil {
		log.Error("failed to initialize queue", "err", err)
		os.Exit(1)
	}
	defer closeQueue()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := summarize(ctx, q, in, os.Stdout, *maxLength, *minLength); err != nil {
		log.Error("summarization failed", "err", err)
		os.Exit(1)
	}
}

func summarize(ctx context.Context, q queue.Queue, in io.Reader, out io.Writer, maxLength, minLength int) error {
	text, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if strings.TrimSpace(string(text)) == "" {
		return fmt.Errorf("no input text")
	}

	reply, err := q.Summarize(ctx, queue.Request{
		Text:      string(text),
		MaxLength: maxLength,
		MinLength: minLength,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, reply.Summary)
	return err
}
