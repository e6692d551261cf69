package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setPostgresEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_USER", "translate")
	t.Setenv("DB_NAME", "translateme")
}

func TestLoad(t *testing.T) {
	setPostgresEnv(t)
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_ACCESS_KEY", "access")
	t.Setenv("MINIO_SECRET_KEY", "secret")
	t.Setenv("MINIO_BUCKET", "exports")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("TRANSLATION_TARGET_LANG", "fr")
	t.Setenv("HISTORY_FEED_RETRY_MAX", "1m")
	t.Setenv("OTEL_SDK_DISABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.Equal(t, "translateme", cfg.Database.AppName)
	assert.Equal(t, 5, cfg.Database.ConnectTimeoutSec)
	assert.True(t, cfg.MinIO.Enabled())
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, 15*time.Minute, cfg.MinIO.PresignExpiry)
	assert.Equal(t, "en", cfg.Translation.SourceLang)
	assert.Equal(t, "fr", cfg.Translation.TargetLang)
	assert.Contains(t, cfg.Translation.DetectLanguages, "de")
	assert.Equal(t, "https://api.mymemory.translated.net", cfg.Translation.BaseURL)
	assert.Equal(t, HistoryBackendPostgres, cfg.History.Backend)
	assert.Equal(t, time.Minute, cfg.History.FeedRetryMax)
	assert.True(t, cfg.Tracing.SDKDisabled)
	assert.Equal(t, "translateme", cfg.Tracing.ServiceName)
}

func TestLoad_InvalidDuration(t *testing.T) {
	setPostgresEnv(t)
	t.Setenv("TRANSLATION_TIMEOUT", "soon")

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestValidate(t *testing.T) {
	valid := func() *AppConfig {
		return &AppConfig{
			Port:        "8080",
			Translation: TranslationConfig{BaseURL: "https://api.mymemory.translated.net", Timeout: time.Second},
			History:     HistoryConfig{Backend: HistoryBackendPostgres, FeedRetryInitial: time.Second, FeedRetryMax: time.Minute},
			Database:    DatabaseConfig{Host: "db", User: "u", Name: "n"},
			Firestore:   FirestoreConfig{Collection: "translations"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *AppConfig)
		wantErr string
	}{
		{
			name:   "valid postgres",
			mutate: func(c *AppConfig) {},
		},
		{
			name: "valid firestore",
			mutate: func(c *AppConfig) {
				c.History.Backend = HistoryBackendFirestore
				c.Database = DatabaseConfig{}
				c.Firestore.ProjectID = "demo-project"
			},
		},
		{
			name:    "postgres without host",
			mutate:  func(c *AppConfig) { c.Database.Host = "" },
			wantErr: "DB_HOST",
		},
		{
			name: "firestore without project",
			mutate: func(c *AppConfig) {
				c.History.Backend = HistoryBackendFirestore
			},
			wantErr: "FIRESTORE_PROJECT_ID",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *AppConfig) { c.History.Backend = "redis" },
			wantErr: "HISTORY_BACKEND",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *AppConfig) { c.Translation.Timeout = 0 },
			wantErr: "TRANSLATION_TIMEOUT",
		},
		{
			name:    "retry bounds inverted",
			mutate:  func(c *AppConfig) { c.History.FeedRetryMax = time.Millisecond },
			wantErr: "HISTORY_FEED_RETRY_INITIAL",
		},
		{
			name: "minio without bucket",
			mutate: func(c *AppConfig) {
				c.MinIO = MinIOConfig{Endpoint: "minio:9000", AccessKey: "a", SecretKey: "s", PresignExpiry: time.Minute}
			},
			wantErr: "MINIO_BUCKET",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
