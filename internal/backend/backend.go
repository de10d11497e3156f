// Package backend decides once, at startup, whether summaries are generated by
// a local model or by the remote inference endpoint.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"text-summarizer/internal/seq2seq"
)

// Mode is the primary inference backend for the process lifetime.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

func (m Mode) String() string { return string(m) }

// Other returns the backend tried when m fails.
func (m Mode) Other() Mode {
	if m == ModeLocal {
		return ModeRemote
	}
	return ModeLocal
}

// Options configure a probe.
type Options struct {
	ModelID string
	Device  seq2seq.Device
	// Serialize limits the loaded model to one generation at a time.
	Serialize bool
}

// Result is the outcome of a probe. Capability is non-nil exactly when Mode is
// ModeLocal; Err records why the local model could not be used.
type Result struct {
	Mode       Mode
	Capability *seq2seq.Capability
	ModelID    string
	Device     seq2seq.Device
	Err        error
}

// Local reports whether the local model is the primary backend.
func (r Result) Local() bool { return r.Mode == ModeLocal && r.Capability != nil }

// Remote is the result for a process that never attempts a local load.
func Remote(reason error) Result {
	return Result{Mode: ModeRemote, Err: reason}
}

// Probe tries to load the local model. Any failure, including a panic in the
// loader, degrades to ModeRemote; it is logged and never returned as an error.
func Probe(ctx context.Context, loader seq2seq.Loader, opts Options, log *slog.Logger) Result {
	res := Result{ModelID: opts.ModelID, Device: opts.Device}

	capability, err := load(ctx, loader, opts)
	if err != nil {
		res.Mode = ModeRemote
		res.Err = err
		log.Warn("failed to load local model; using remote inference for summarization",
			"model", opts.ModelID, "device", opts.Device.String(), "err", err)
		return res
	}

	res.Mode = ModeLocal
	res.Capability = capability
	log.Info("using local model for summarization", "model", opts.ModelID, "device", opts.Device.String())
	return res
}

func load(ctx context.Context, loader seq2seq.Loader, opts Options) (c *seq2seq.Capability, err error) {
	if loader == nil {
		return nil, errors.New("no local model loader configured")
	}
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, fmt.Errorf("local model loader panicked: %v", r)
		}
	}()

	tok, model, err := loader.Load(ctx, opts.ModelID, opts.Device)
	if err != nil {
		return nil, err
	}
	return seq2seq.NewCapability(opts.ModelID, opts.Device, tok, model, opts.Serialize)
}
