package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"translateme/internal/service"
)

type MockOrchestrator struct {
	mock.Mock
}

var _ service.Orchestrator = (*MockOrchestrator)(nil)

func (m *MockOrchestrator) Start(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrchestrator) Submit(text string) (<-chan service.Outcome, error) {
	args := m.Called(text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan service.Outcome), args.Error(1)
}

func (m *MockOrchestrator) SetLanguagePair(source, target string) error {
	args := m.Called(source, target)
	return args.Error(0)
}

func (m *MockOrchestrator) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrchestrator) State() service.State {
	args := m.Called()
	return args.Get(0).(service.State)
}

func (m *MockOrchestrator) Watch() (<-chan service.State, func()) {
	args := m.Called()
	return args.Get(0).(<-chan service.State), args.Get(1).(func())
}

func (m *MockOrchestrator) Close() {
	m.Called()
}

// Done returns a channel already holding o, as Submit hands out.
func Done(o service.Outcome) <-chan service.Outcome {
	ch := make(chan service.Outcome, 1)
	ch <- o
	return ch
}
