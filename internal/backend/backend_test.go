package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"

	"text-summarizer/internal/seq2seq"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("bad log line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

type panicLoader struct{}

func (panicLoader) Load(ctx context.Context, modelID string, device seq2seq.Device) (seq2seq.Tokenizer, seq2seq.Model, error) {
	panic("out of memory")
}

func TestProbe(t *testing.T) {
	opts := Options{ModelID: "t5-small", Device: seq2seq.DeviceCPU, Serialize: true}

	tests := []struct {
		name      string
		loader    func() seq2seq.Loader
		wantMode  Mode
		wantLevel string
	}{
		{
			name: "local model loads",
			loader: func() seq2seq.Loader {
				l := new(seq2seq.MockLoader)
				l.On("Load", mock.Anything, "t5-small", seq2seq.DeviceCPU).
					Return(new(seq2seq.MockTokenizer), new(seq2seq.MockModel), nil).Once()
				return l
			},
			wantMode:  ModeLocal,
			wantLevel: "INFO",
		},
		{
			name: "loader error degrades to remote",
			loader: func() seq2seq.Loader {
				l := new(seq2seq.MockLoader)
				l.On("Load", mock.Anything, "t5-small", seq2seq.DeviceCPU).
					Return(nil, nil, errors.New("connection refused")).Once()
				return l
			},
			wantMode:  ModeRemote,
			wantLevel: "WARN",
		},
		{
			name: "missing model degrades to remote",
			loader: func() seq2seq.Loader {
				l := new(seq2seq.MockLoader)
				l.On("Load", mock.Anything, "t5-small", seq2seq.DeviceCPU).
					Return(new(seq2seq.MockTokenizer), nil, nil).Once()
				return l
			},
			wantMode:  ModeRemote,
			wantLevel: "WARN",
		},
		{
			name:      "panicking loader degrades to remote",
			loader:    func() seq2seq.Loader { return panicLoader{} },
			wantMode:  ModeRemote,
			wantLevel: "WARN",
		},
		{
			name:      "no loader degrades to remote",
			loader:    func() seq2seq.Loader { return nil },
			wantMode:  ModeRemote,
			wantLevel: "WARN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			loader := tt.loader()

			res := Probe(context.Background(), loader, opts, newTestLogger(&buf))

			if res.Mode != tt.wantMode {
				t.Fatalf("expected mode %s, got %s", tt.wantMode, res.Mode)
			}
			if tt.wantMode == ModeLocal {
				if res.Capability == nil || !res.Local() || res.Err != nil {
					t.Errorf("local result must carry a capability and no error: %+v", res)
				}
			} else {
				if res.Capability != nil || res.Local() || res.Err == nil {
					t.Errorf("remote result must carry no capability and a cause: %+v", res)
				}
			}

			lines := logLines(t, &buf)
			if len(lines) != 1 {
				t.Fatalf("expected exactly one log line, got %d", len(lines))
			}
			if lines[0]["level"] != tt.wantLevel {
				t.Errorf("expected level %s, got %v", tt.wantLevel, lines[0]["level"])
			}
			if lines[0]["model"] != "t5-small" || lines[0]["device"] != "cpu" {
				t.Errorf("expected model and device attributes, got %v", lines[0])
			}

			if m, ok := loader.(*seq2seq.MockLoader); ok {
				m.AssertExpectations(t)
			}
		})
	}
}

func TestModeOther(t *testing.T) {
	if ModeLocal.Other() != ModeRemote || ModeRemote.Other() != ModeLocal {
		t.Error("Other must swap local and remote")
	}
}

func TestRemoteResult(t *testing.T) {
	cause := errors.New("disabled")
	res := Remote(cause)
	if res.Mode != ModeRemote || res.Local() || !errors.Is(res.Err, cause) {
		t.Errorf("unexpected result %+v", res)
	}
}
