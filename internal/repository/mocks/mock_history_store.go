package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"translateme/internal/model"
	"translateme/internal/repository"
)

type MockHistoryStore struct {
	mock.Mock
}

var _ repository.HistoryStore = (*MockHistoryStore)(nil)

func (m *MockHistoryStore) Append(ctx context.Context, rec repository.NewRecord) (*model.TranslationRecord, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TranslationRecord), args.Error(1)
}

func (m *MockHistoryStore) List(ctx context.Context) ([]model.TranslationRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TranslationRecord), args.Error(1)
}

func (m *MockHistoryStore) Subscribe(ctx context.Context) (*repository.Subscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Subscription), args.Error(1)
}

func (m *MockHistoryStore) ClearAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockHistoryStore) PingContext(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
