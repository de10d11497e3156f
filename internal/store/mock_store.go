package store

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) RecordEvent(ctx context.Context, ev Event) (Event, error) {
	args := m.Called(ctx, ev)
	return args.Get(0).(Event), args.Error(1)
}

func (m *MockStore) RecentEvents(ctx context.Context, limit int) ([]Event, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Event), args.Error(1)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
