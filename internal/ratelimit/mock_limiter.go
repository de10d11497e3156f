package ratelimit

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockLimiter is a mock implementation of Limiter using testify/mock.
type MockLimiter struct {
	mock.Mock
}

func (m *MockLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(Decision), args.Error(1)
}

func (m *MockLimiter) Close() error {
	args := m.Called()
	return args.Error(0)
}
