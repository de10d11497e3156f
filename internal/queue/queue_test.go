package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcess(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name        string
		data        string
		handler     Handler
		wantSummary string
		wantErr     string
		wantID      uuid.UUID
	}{
		{
			name: "success",
			data: `{"id":"` + id.String() + `","text":"some text","max_length":120}`,
			handler: func(_ context.Context, req Request) Reply {
				if req.MaxLength != 120 || req.Text != "some text" {
					return Reply{Error: "bad request fields"}
				}
				return Reply{Summary: "short", Backend: "local"}
			},
			wantSummary: "short",
			wantID:      id,
		},
		{
			name:    "invalid json",
			data:    `{"text":`,
			handler: func(context.Context, Request) Reply { return Reply{Summary: "never"} },
			wantErr: "invalid request",
		},
		{
			name: "handler error",
			data: `{"id":"` + id.String() + `","text":"x"}`,
			handler: func(context.Context, Request) Reply {
				return Reply{Error: "both summarization backends failed"}
			},
			wantErr: "both summarization backends failed",
			wantID:  id,
		},
		{
			name:    "handler panic",
			data:    `{"id":"` + id.String() + `","text":"x"}`,
			handler: func(context.Context, Request) Reply { panic("boom") },
			wantErr: "handler panicked: boom",
			wantID:  id,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Process(context.Background(), discardLogger(), []byte(tt.data), tt.handler)

			var reply Reply
			if err := json.Unmarshal(out, &reply); err != nil {
				t.Fatalf("reply is not json: %v", err)
			}
			if reply.ID != tt.wantID {
				t.Errorf("expected id %s, got %s", tt.wantID, reply.ID)
			}
			if reply.Summary != tt.wantSummary {
				t.Errorf("expected summary %q, got %q", tt.wantSummary, reply.Summary)
			}
			if !strings.Contains(reply.Error, tt.wantErr) || (tt.wantErr == "" && reply.Error != "") {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, reply.Error)
			}
		})
	}
}

func TestDecodeReply(t *testing.T) {
	reply, err := DecodeReply([]byte(`{"summary":"ok","backend":"remote"}`))
	if err != nil || reply.Summary != "ok" || reply.Backend != "remote" {
		t.Errorf("unexpected result %+v, %v", reply, err)
	}

	reply, err = DecodeReply([]byte(`{"error":"remote: status 503"}`))
	if !errors.Is(err, ErrSummarizeFailed) {
		t.Errorf("expected ErrSummarizeFailed, got %v", err)
	}
	if reply.Error != "remote: status 503" {
		t.Errorf("error reply should be returned, got %+v", reply)
	}

	if _, err := DecodeReply([]byte(`nope`)); err == nil || errors.Is(err, ErrSummarizeFailed) {
		t.Errorf("expected decode error, got %v", err)
	}
}
