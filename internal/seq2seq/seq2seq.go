// Package seq2seq wraps a locally loaded sequence-to-sequence model behind a
// narrow encode, generate, decode interface.
package seq2seq

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/semaphore"
)

const (
	// InstructionPrefix is the task prefix T5-style checkpoints expect.
	InstructionPrefix = "summarize: "
	// MaxInputTokens is the encoder budget; longer inputs are truncated.
	MaxInputTokens = 512

	LengthPenalty = 2.0
	NumBeams      = 4
)

var ErrNoCapability = errors.New("local model not loaded")

// Tokenizer converts between text and the model's token ids.
type Tokenizer interface {
	// Encode tokenizes text, silently truncating to maxTokens.
	Encode(ctx context.Context, text string, maxTokens int) ([]int, error)
	Decode(ctx context.Context, ids []int, skipSpecial bool) (string, error)
}

// Model runs sequence generation over encoded input.
type Model interface {
	Generate(ctx context.Context, ids []int, opts GenerateOptions) ([]int, error)
}

// Loader constructs a tokenizer and model for an identifier bound to a device.
type Loader interface {
	Load(ctx context.Context, modelID string, device Device) (Tokenizer, Model, error)
}

// GenerateOptions mirrors the beam search knobs passed to the model.
type GenerateOptions struct {
	MaxLength     int     `json:"max_length"`
	MinLength     int     `json:"min_length"`
	LengthPenalty float64 `json:"length_penalty"`
	NumBeams      int     `json:"num_beams"`
	EarlyStopping bool    `json:"early_stopping"`
}

// SummaryOptions returns the fixed generation settings used for summaries.
func SummaryOptions(maxLength, minLength int) GenerateOptions {
	return GenerateOptions{
		MaxLength:     maxLength,
		MinLength:     minLength,
		LengthPenalty: LengthPenalty,
		NumBeams:      NumBeams,
		EarlyStopping: true,
	}
}

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ")

// Preprocess trims text, turns every newline into a single space and adds the
// instruction prefix.
func Preprocess(text string) string {
	return InstructionPrefix + newlines.Replace(strings.TrimSpace(text))
}

// Truncate cuts ids to max entries, keeping the final end-of-sequence token.
func Truncate(ids []int, max int) []int {
	if max <= 0 || len(ids) <= max {
		return ids
	}
	out := make([]int, 0, max)
	out = append(out, ids[:max-1]...)
	return append(out, ids[len(ids)-1])
}

// Capability is a loaded tokenizer and model pair bound to a device. It is
// created once at startup and shared by every request.
type Capability struct {
	ModelID   string
	Device    Device
	tokenizer Tokenizer
	model     Model
	// sem is non-nil when the model must not run concurrent generations.
	sem *semaphore.Weighted
}

// NewCapability binds a tokenizer and model. With serialize set, at most one
// generation runs at a time.
func NewCapability(modelID string, device Device, tok Tokenizer, model Model, serialize bool) (*Capability, error) {
	if tok == nil || model == nil {
		return nil, fmt.Errorf("incomplete local model %q: tokenizer and model are required", modelID)
	}
	c := &Capability{ModelID: modelID, Device: device, tokenizer: tok, model: model}
	if serialize {
		c.sem = semaphore.NewWeighted(1)
	}
	return c, nil
}

// Summarize runs preprocess, encode, generate and decode. Special tokens and
// surrounding whitespace are removed from the result.
func (c *Capability) Summarize(ctx context.Context, text string, maxLength, minLength int) (string, error) {
	if c == nil {
		return "", ErrNoCapability
	}
	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return "", fmt.Errorf("wait for local model: %w", err)
		}
		defer c.sem.Release(1)
	}

	ids, err := c.tokenizer.Encode(ctx, Preprocess(text), MaxInputTokens)
	if err != nil {
		return "", fmt.Errorf("encode input: %w", err)
	}
	out, err := c.model.Generate(ctx, ids, SummaryOptions(maxLength, minLength))
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	summary, err := c.tokenizer.Decode(ctx, out, true)
	if err != nil {
		return "", fmt.Errorf("decode summary: %w", err)
	}
	return strings.TrimSpace(summary), nil
}
