package summarizer

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockLocal is a mock implementation of LocalModel using testify/mock.
type MockLocal struct {
	mock.Mock
}

func (m *MockLocal) Summarize(ctx context.Context, text string, maxLength, minLength int) (string, error) {
	args := m.Called(ctx, text, maxLength, minLength)
	return args.String(0), args.Error(1)
}

// MockRemote is a mock implementation of RemoteClient using testify/mock.
type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) Summarize(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}
