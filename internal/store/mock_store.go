package store

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateUser(ctx context.Context, name, email, passwordHash string) (User, error) {
	args := m.Called(ctx, name, email, passwordHash)
	return args.Get(0).(User), args.Error(1)
}

func (m *MockStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(User), args.Error(1)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
