package auth

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockSessionStore is a mock implementation of SessionStore using testify/mock.
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Create(ctx context.Context, p Principal, ttl time.Duration) (string, error) {
	args := m.Called(ctx, p, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockSessionStore) Get(ctx context.Context, id string) (Principal, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Principal), args.Error(1)
}

func (m *MockSessionStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSessionStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
