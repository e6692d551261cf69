package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvironmentLocal switches on developer-friendly console output.
const EnvironmentLocal = "local"

const (
	// HistoryBackendPostgres keeps history in the translations table.
	HistoryBackendPostgres = "postgres"
	// HistoryBackendFirestore keeps history in a Firestore collection.
	HistoryBackendFirestore = "firestore"
)

// DatabaseConfig holds PostgreSQL database connection settings.
// Nested structs are read with the prefix of their parent field (DB_HOST, DB_MAX_OPEN_CONNS, ...).
type DatabaseConfig struct {
	Host               string
	Port               string `default:"5432"`
	User               string
	Password           string
	Name               string
	SSLMode            string `default:"disable"`
	AppName            string `split_words:"true" default:"translateme"`
	ConnectTimeoutSec  int    `split_words:"true" default:"5"`
	MaxOpenConns       int    `split_words:"true" default:"10"`
	MaxIdleConns       int    `split_words:"true" default:"5"`
	ConnMaxLifetimeSec int    `split_words:"true" default:"300"`
}

// FirestoreConfig selects the Firestore database and collection used for history.
// FIRESTORE_EMULATOR_HOST is honored by the client library directly.
type FirestoreConfig struct {
	ProjectID  string `split_words:"true"`
	DatabaseID string `split_words:"true" default:"(default)"`
	Collection string `default:"translations"`
}

// MinIOConfig holds object storage settings for history exports.
// Exports are disabled when Endpoint is empty.
type MinIOConfig struct {
	Endpoint      string
	AccessKey     string `split_words:"true"`
	SecretKey     string `split_words:"true"`
	Bucket        string
	UseSSL        bool          `split_words:"true" default:"false"`
	PresignExpiry time.Duration `split_words:"true" default:"15m"`
}

// Enabled reports whether object storage has been configured.
func (c MinIOConfig) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != ""
}

// TranslationConfig configures the MyMemory client.
type TranslationConfig struct {
	BaseURL      string        `split_words:"true" default:"https://api.mymemory.translated.net"`
	Timeout      time.Duration `default:"15s"`
	SourceLang   string        `split_words:"true" default:"en"`
	TargetLang   string        `split_words:"true" default:"es"`
	ContactEmail string        `split_words:"true"`
	// DetectLanguages limits "auto" detection to these ISO 639-1 codes.
	DetectLanguages []string `split_words:"true" default:"en,es,fr,de,it,pt,nl,pl,ru,uk,tr,ar,zh,ja,ko,hi,sv,cs,el,ro"`
}

// HistoryConfig selects the history backend and tunes its live feed.
type HistoryConfig struct {
	Backend          string        `default:"postgres"`
	FeedRetryInitial time.Duration `split_words:"true" default:"500ms"`
	FeedRetryMax     time.Duration `split_words:"true" default:"30s"`
	MigrateOnStartup bool          `split_words:"true" default:"true"`
}

// TracingConfig mirrors the standard OTEL_* variables the tracer setup cares about.
type TracingConfig struct {
	SDKDisabled          bool   `split_words:"true" default:"false"`
	ServiceName          string `split_words:"true" default:"translateme"`
	ExporterOTLPProtocol string `split_words:"true" default:"grpc"`
	TracesSampler        string `split_words:"true" default:"parentbased_traceidratio"`
	TracesSamplerArg     string `split_words:"true" default:"1.0"`
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost     string            `envconfig:"APP_HOST" default:"localhost:8080"`
	Port        string            `envconfig:"PORT" default:"8080"`
	Environment string            `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string            `envconfig:"LOG_LEVEL" default:"info"`
	Translation TranslationConfig `envconfig:"TRANSLATION"`
	History     HistoryConfig     `envconfig:"HISTORY"`
	Database    DatabaseConfig    `envconfig:"DB"`
	Firestore   FirestoreConfig   `envconfig:"FIRESTORE"`
	MinIO       MinIOConfig       `envconfig:"MINIO"`
	Tracing     TracingConfig     `envconfig:"OTEL"`
}

// Load reads configuration from environment variables and validates it.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
func Load() (*AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks cross-field requirements that struct tags cannot express.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("PORT is required")
	}
	if strings.TrimSpace(c.Translation.BaseURL) == "" {
		return fmt.Errorf("TRANSLATION_BASE_URL is required")
	}
	if c.Translation.Timeout <= 0 {
		return fmt.Errorf("TRANSLATION_TIMEOUT must be > 0")
	}
	if c.History.FeedRetryInitial <= 0 || c.History.FeedRetryMax < c.History.FeedRetryInitial {
		return fmt.Errorf("HISTORY_FEED_RETRY_INITIAL must be > 0 and not exceed HISTORY_FEED_RETRY_MAX")
	}

	switch strings.ToLower(strings.TrimSpace(c.History.Backend)) {
	case HistoryBackendPostgres:
		if c.Database.Host == "" || c.Database.User == "" || c.Database.Name == "" {
			return fmt.Errorf("DB_HOST, DB_USER and DB_NAME are required for the postgres history backend")
		}
	case HistoryBackendFirestore:
		if strings.TrimSpace(c.Firestore.ProjectID) == "" {
			return fmt.Errorf("FIRESTORE_PROJECT_ID is required for the firestore history backend")
		}
		if strings.TrimSpace(c.Firestore.Collection) == "" {
			return fmt.Errorf("FIRESTORE_COLLECTION cannot be empty")
		}
	default:
		return fmt.Errorf("HISTORY_BACKEND must be %q or %q, got %q", HistoryBackendPostgres, HistoryBackendFirestore, c.History.Backend)
	}

	if c.MinIO.Enabled() {
		if c.MinIO.AccessKey == "" || c.MinIO.SecretKey == "" || c.MinIO.Bucket == "" {
			return fmt.Errorf("MINIO_ACCESS_KEY, MINIO_SECRET_KEY and MINIO_BUCKET are required when MINIO_ENDPOINT is set")
		}
		if c.MinIO.PresignExpiry <= 0 {
			return fmt.Errorf("MINIO_PRESIGN_EXPIRY must be > 0")
		}
	}
	return nil
}
