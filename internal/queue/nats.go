package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"text-summarizer/internal/retry"
)

const workerGroup = "summarizers"

// Connect dials NATS and keeps reconnecting with capped exponential backoff.
func Connect(url, name string, log *slog.Logger) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.CustomReconnectDelay(func(attempts int) time.Duration {
			return retry.ExponentialBackoff(attempts, 250*time.Millisecond, 10*time.Second)
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
}

// NewNATS constructs a request-reply queue on subject.
func NewNATS(log *slog.Logger, nc *nats.Conn, subject string) Queue {
	return &natsQueue{log: log, nc: nc, subject: subject}
}

type natsQueue struct {
	log     *slog.Logger
	nc      *nats.Conn
	subject string
}

func (q *natsQueue) Summarize(ctx context.Context, req Request) (Reply, error) {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	body, err := json.Marshal(req)
	if err != nil {
		return Reply{}, err
	}
	msg, err := q.nc.RequestWithContext(ctx, q.subject, body)
	if err != nil {
		return Reply{}, fmt.Errorf("request %s: %w", req.ID, err)
	}
	return DecodeReply(msg.Data)
}

func (q *natsQueue) Serve(ctx context.Context, handler Handler) error {
	sub, err := q.nc.QueueSubscribe(q.subject, workerGroup, func(msg *nats.Msg) {
		if err := msg.Respond(Process(ctx, q.log, msg.Data, handler)); err != nil {
			q.log.Error("failed to send reply", "err", err)
		}
	})
	if err != nil {
		return err
	}
	q.log.Info("serving summarization requests", "subject", q.subject, "group", workerGroup)
	<-ctx.Done()
	return sub.Drain()
}

// Process decodes a request, runs handler and encodes its reply. Undecodable
// requests and handler panics become error replies.
func Process(ctx context.Context, log *slog.Logger, data []byte, handler Handler) []byte {
	var req Request
	reply := func() (r Reply) {
		if err := json.Unmarshal(data, &req); err != nil {
			return Reply{Error: "invalid request: " + err.Error()}
		}
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("summarization handler panicked", "id", req.ID, "panic", rec)
				r = Reply{ID: req.ID, Error: fmt.Sprintf("handler panicked: %v", rec)}
			}
		}()
		r = handler(ctx, req)
		r.ID = req.ID
		return r
	}()

	out, err := json.Marshal(reply)
	if err != nil {
		log.Error("failed to encode reply", "id", req.ID, "err", err)
		out, _ = json.Marshal(Reply{ID: req.ID, Error: "failed to encode reply"})
	}
	return out
}

// DecodeReply parses a worker reply. An error reply is returned together with
// an error wrapping ErrSummarizeFailed.
func DecodeReply(data []byte) (Reply, error) {
	var reply Reply
	if err := json.Unmarshal(data, &reply); err != nil {
		return Reply{}, fmt.Errorf("decode reply: %w", err)
	}
	if reply.Error != "" {
		return reply, fmt.Errorf("%w: %s", ErrSummarizeFailed, reply.Error)
	}
	return reply, nil
}
