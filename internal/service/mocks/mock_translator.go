package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"translateme/internal/service"
)

type MockTranslator struct {
	mock.Mock
}

var _ service.Translator = (*MockTranslator)(nil)

func (m *MockTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	args := m.Called(ctx, text, sourceLang, targetLang)
	return args.String(0), args.Error(1)
}
