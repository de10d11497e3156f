package seq2seq

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockTokenizer is a mock implementation of Tokenizer using testify/mock.
type MockTokenizer struct {
	mock.Mock
}

func (m *MockTokenizer) Encode(ctx context.Context, text string, maxTokens int) ([]int, error) {
	args := m.Called(ctx, text, maxTokens)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockTokenizer) Decode(ctx context.Context, ids []int, skipSpecial bool) (string, error) {
	args := m.Called(ctx, ids, skipSpecial)
	return args.String(0), args.Error(1)
}

// MockModel is a mock implementation of Model using testify/mock.
type MockModel struct {
	mock.Mock
}

func (m *MockModel) Generate(ctx context.Context, ids []int, opts GenerateOptions) ([]int, error) {
	args := m.Called(ctx, ids, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

// MockLoader is a mock implementation of Loader using testify/mock.
type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) Load(ctx context.Context, modelID string, device Device) (Tokenizer, Model, error) {
	args := m.Called(ctx, modelID, device)
	var tok Tokenizer
	var model Model
	if v := args.Get(0); v != nil {
		tok = v.(Tokenizer)
	}
	if v := args.Get(1); v != nil {
		model = v.(Model)
	}
	return tok, model, args.Error(2)
}
