package seq2seq

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/tidwall/gjson"
)

// RuntimeLoader loads models hosted by a co-located OpenAI-compatible model
// runtime (for example vLLM serving an encoder-decoder checkpoint). Besides the
// /v1 API the runtime must expose /tokenize and /detokenize at its root and
// return generated ids in a "token_ids" field of each completion choice.
type RuntimeLoader struct {
	root string
	opts []option.RequestOption
}

// NewRuntimeLoader builds a loader for the runtime at baseURL.
func NewRuntimeLoader(baseURL, apiKey string, opts ...option.RequestOption) *RuntimeLoader {
	root := strings.TrimRight(baseURL, "/") + "/"
	base := []option.RequestOption{
		option.WithBaseURL(root + "v1/"),
		option.WithAPIKey(apiKey),
		// A failed generation goes to the other backend, never back to this one.
		option.WithMaxRetries(0),
	}
	return &RuntimeLoader{root: root, opts: append(base, opts...)}
}

// Load checks that the runtime serves modelID and that its tokenizer answers.
func (l *RuntimeLoader) Load(ctx context.Context, modelID string, device Device) (Tokenizer, Model, error) {
	if strings.TrimSpace(modelID) == "" {
		return nil, nil, errors.New("model identifier is empty")
	}
	if _, err := ParseDevice(string(device)); err != nil {
		return nil, nil, err
	}

	cli := openai.NewClient(l.opts...)
	rt := &runtimeModel{client: &cli, root: l.root, modelID: modelID}

	if err := rt.checkServed(ctx); err != nil {
		return nil, nil, err
	}
	if _, err := rt.Encode(ctx, InstructionPrefix, MaxInputTokens); err != nil {
		return nil, nil, fmt.Errorf("tokenizer for %q unavailable: %w", modelID, err)
	}
	return rt, rt, nil
}

// runtimeModel implements both Tokenizer and Model against one runtime.
type runtimeModel struct {
	client  *openai.Client
	root    string
	modelID string
}

type tokenizeRequest struct {
	Model            string `json:"model"`
	Prompt           string `json:"prompt"`
	AddSpecialTokens bool   `json:"add_special_tokens"`
}

type tokenizeResponse struct {
	Tokens []int `json:"tokens"`
}

type detokenizeRequest struct {
	Model             string `json:"model"`
	Tokens            []int  `json:"tokens"`
	SkipSpecialTokens bool   `json:"skip_special_tokens"`
}

type detokenizeResponse struct {
	Prompt string `json:"prompt"`
}

func (r *runtimeModel) checkServed(ctx context.Context) error {
	page, err := r.client.Models.List(ctx)
	if err != nil {
		return fmt.Errorf("list runtime models: %w", err)
	}
	for _, m := range page.Data {
		if m.ID == r.modelID {
			return nil
		}
	}
	return fmt.Errorf("model %q is not served by the local runtime", r.modelID)
}

func (r *runtimeModel) Encode(ctx context.Context, text string, maxTokens int) ([]int, error) {
	var res tokenizeResponse
	err := r.client.Post(ctx, "tokenize", tokenizeRequest{
		Model:            r.modelID,
		Prompt:           text,
		AddSpecialTokens: true,
	}, &res, option.WithBaseURL(r.root))
	if err != nil {
		return nil, err
	}
	if len(res.Tokens) == 0 {
		return nil, errors.New("tokenizer returned no tokens")
	}
	return Truncate(res.Tokens, maxTokens), nil
}

func (r *runtimeModel) Decode(ctx context.Context, ids []int, skipSpecial bool) (string, error) {
	var res detokenizeResponse
	err := r.client.Post(ctx, "detokenize", detokenizeRequest{
		Model:             r.modelID,
		Tokens:            ids,
		SkipSpecialTokens: skipSpecial,
	}, &res, option.WithBaseURL(r.root))
	if err != nil {
		return "", err
	}
	return res.Prompt, nil
}

func (r *runtimeModel) Generate(ctx context.Context, ids []int, opts GenerateOptions) ([]int, error) {
	prompt := make([]int64, len(ids))
	for i, id := range ids {
		prompt[i] = int64(id)
	}
	resp, err := r.client.Completions.New(ctx, openai.CompletionNewParams{
		Model:     openai.CompletionNewParamsModel(r.modelID),
		Prompt:    openai.CompletionNewParamsPromptUnion{OfArrayOfTokens: prompt},
		MaxTokens: openai.Int(int64(opts.MaxLength)),
	},
		option.WithJSONSet("min_tokens", opts.MinLength),
		option.WithJSONSet("use_beam_search", opts.NumBeams > 1),
		option.WithJSONSet("best_of", opts.NumBeams),
		option.WithJSONSet("length_penalty", opts.LengthPenalty),
		option.WithJSONSet("early_stopping", opts.EarlyStopping),
		option.WithJSONSet("return_token_ids", true),
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("runtime returned no choices")
	}
	field := gjson.Get(resp.Choices[0].RawJSON(), "token_ids")
	if !field.IsArray() {
		return nil, errors.New("runtime response has no token_ids")
	}
	items := field.Array()
	out := make([]int, len(items))
	for i, v := range items {
		out[i] = int(v.Int())
	}
	return out, nil
}
