package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"translateme/internal/config"
	repoMocks "translateme/internal/repository/mocks"
)

func TestOpenHistory_UnknownBackend(t *testing.T) {
	cfg := &config.AppConfig{History: config.HistoryConfig{Backend: "redis"}}

	store, closeFn, err := OpenHistory(context.Background(), cfg, zerolog.Nop())

	assert.Nil(t, store)
	assert.Nil(t, closeFn)
	assert.ErrorContains(t, err, `unknown history backend "redis"`)
}

func TestOpenHistory_PostgresInvalidConfig(t *testing.T) {
	cfg := &config.AppConfig{History: config.HistoryConfig{Backend: "Postgres"}}

	_, _, err := OpenHistory(context.Background(), cfg, zerolog.Nop())

	assert.ErrorContains(t, err, "connect database")
}

func TestStreamOptions(t *testing.T) {
	opts := StreamOptions(config.HistoryConfig{FeedRetryInitial: time.Second, FeedRetryMax: time.Minute}, zerolog.Nop())

	assert.Equal(t, time.Second, opts.RetryInitial)
	assert.Equal(t, time.Minute, opts.RetryMax)
}

func TestNewTranslator_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := NewTranslator(config.TranslationConfig{BaseURL: "http://localhost"}, nil, reg)
	require.NoError(t, err)

	_, err = NewTranslator(config.TranslationConfig{BaseURL: "http://localhost"}, nil, reg)
	assert.Error(t, err, "metrics are registered once per registry")

	_, err = NewTranslator(config.TranslationConfig{}, nil, nil)
	assert.NoError(t, err)
}

func TestNewOrchestrator(t *testing.T) {
	cfg := &config.AppConfig{
		Translation: config.TranslationConfig{SourceLang: "de", TargetLang: "en-US"},
		History:     config.HistoryConfig{FeedRetryInitial: time.Millisecond, FeedRetryMax: time.Second},
	}
	tr, err := NewTranslator(cfg.Translation, nil, nil)
	require.NoError(t, err)

	o, err := NewOrchestrator(cfg, tr, &repoMocks.MockHistoryStore{}, zerolog.Nop(), prometheus.NewRegistry())
	require.NoError(t, err)
	defer o.Close()

	assert.Equal(t, "de", o.State().SourceLang)
	assert.Equal(t, "en", o.State().TargetLang)

	cfg.Translation.TargetLang = "de"
	_, err = NewOrchestrator(cfg, tr, &repoMocks.MockHistoryStore{}, zerolog.Nop(), nil)
	assert.Error(t, err)
}

func TestNewDetector(t *testing.T) {
	det := NewDetector(config.TranslationConfig{DetectLanguages: []string{"es", "pt"}})

	assert.ElementsMatch(t, []string{"es", "pt"}, det.Languages())
}
