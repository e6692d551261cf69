// Package bootstrap builds the collaborators shared by the HTTP server and the CLI.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"translateme/internal/config"
	"translateme/internal/database"
	"translateme/internal/database/migration"
	"translateme/internal/langdetect"
	"translateme/internal/repository"
	"translateme/internal/repository/firestore"
	"translateme/internal/repository/postgres"
	"translateme/internal/service"
	"translateme/internal/translation"
)

// StreamOptions maps the history config onto feed reconnect settings.
func StreamOptions(cfg config.HistoryConfig, logger zerolog.Logger) repository.StreamOptions {
	return repository.StreamOptions{
		RetryInitial: cfg.FeedRetryInitial,
		RetryMax:     cfg.FeedRetryMax,
		Logger:       logger,
	}
}

// OpenHistory connects the configured history backend. The returned close func
// releases its connections.
func OpenHistory(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) (repository.HistoryStore, func() error, error) {
	opts := StreamOptions(cfg.History, logger)

	switch strings.ToLower(strings.TrimSpace(cfg.History.Backend)) {
	case config.HistoryBackendPostgres:
		pg, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		if cfg.History.MigrateOnStartup {
			if err := migration.EnsureMigrated(ctx, pg.DB, logger, cfg.Database.Host); err != nil {
				_ = pg.Close()
				return nil, nil, fmt.Errorf("migrate database: %w", err)
			}
		}
		return postgres.NewHistoryPostgres(pg.DB, postgres.PgxListener(pg.DSN), opts), pg.Close, nil

	case config.HistoryBackendFirestore:
		store, err := firestore.NewHistoryFirestore(ctx, firestore.Config{
			ProjectID:  cfg.Firestore.ProjectID,
			DatabaseID: cfg.Firestore.DatabaseID,
			Collection: cfg.Firestore.Collection,
		}, opts)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
	}
}

// NewDetector builds the "auto" source detector over the configured languages.
func NewDetector(cfg config.TranslationConfig) *langdetect.Detector {
	return langdetect.New(cfg.DetectLanguages)
}

// NewTranslator builds the MyMemory client. det and reg may be nil.
func NewTranslator(cfg config.TranslationConfig, det *langdetect.Detector, reg prometheus.Registerer) (*translation.Client, error) {
	var opts []translation.Option
	if det != nil {
		opts = append(opts, translation.WithDetector(det.Detect))
	}
	if reg != nil {
		m, err := translation.NewMetrics(reg)
		if err != nil {
			return nil, fmt.Errorf("register translation metrics: %w", err)
		}
		opts = append(opts, translation.WithMetrics(m))
	}
	return translation.NewClient(translation.Config{
		BaseURL:      cfg.BaseURL,
		Timeout:      cfg.Timeout,
		ContactEmail: cfg.ContactEmail,
	}, opts...), nil
}

// NewOrchestrator wires translator and store with the configured language pair.
// reg may be nil.
func NewOrchestrator(cfg *config.AppConfig, tr service.Translator, store repository.HistoryStore, logger zerolog.Logger, reg prometheus.Registerer) (service.Orchestrator, error) {
	opts := []service.Option{
		service.WithLanguagePair(cfg.Translation.SourceLang, cfg.Translation.TargetLang),
		service.WithResubscribeBackoff(cfg.History.FeedRetryInitial, cfg.History.FeedRetryMax),
	}
	if reg != nil {
		m, err := service.NewMetrics(reg)
		if err != nil {
			return nil, fmt.Errorf("register orchestrator metrics: %w", err)
		}
		opts = append(opts, service.WithMetrics(m))
	}
	return service.NewOrchestrator(tr, store, logger, opts...)
}
