package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_translations",
		SQL: `CREATE TABLE IF NOT EXISTS translations (
  id              TEXT        PRIMARY KEY,
  original_text   TEXT        NOT NULL,
  translated_text TEXT        NOT NULL,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_translations_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_translations_created_at ON translations (created_at DESC, id DESC);`,
	},
	{
		Name: "create_function_notify_translations_changed",
		SQL: `CREATE OR REPLACE FUNCTION notify_translations_changed() RETURNS trigger AS $$
BEGIN
  PERFORM pg_notify('translations_changed', TG_OP);
  RETURN NULL;
END;
$$ LANGUAGE plpgsql;`,
	},
	{
		Name: "drop_trigger_translations_changed",
		SQL:  `DROP TRIGGER IF EXISTS translations_changed ON translations;`,
	},
	{
		Name: "create_trigger_translations_changed",
		SQL: `CREATE TRIGGER translations_changed
AFTER INSERT OR UPDATE OR DELETE ON translations
FOR EACH STATEMENT EXECUTE FUNCTION notify_translations_changed();`,
	},
}

// sentinelQuery reports whether both the table and its change trigger are in place.
const sentinelQuery = `SELECT to_regclass('public.translations') IS NOT NULL
  AND EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'translations_changed' AND NOT tgisinternal)`

// EnsureMigrated applies the schema in a single transaction unless the translations
// table and its notify trigger already exist. Every step is idempotent, so a schema
// left without its trigger is completed on the next run.
func EnsureMigrated(ctx context.Context, db *sql.DB, logger zerolog.Logger, dbHost string) error {
	start := time.Now()
	log := logger.With().Str("component", "database").Str("db_host", dbHost).Logger()

	log.Info().Str("event", "db_migration_check").Msg("checking schema")

	var exists bool
	if err := db.QueryRowContext(ctx, sentinelQuery).Scan(&exists); err != nil {
		log.Error().Err(err).
			Str("event", "db_migration_failed").
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("failed to check sentinel table")
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info().
			Str("event", "db_migration_skip").
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("schema already exists, skipping migration")
		return nil
	}

	log.Info().Str("event", "db_migration_start").Int("steps", len(steps)).Msg("applying schema")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
			log.Error().Err(err).
				Str("event", "db_migration_failed").
				Str("migration_step", step.Name).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
				Msg("migration step failed, rolling back")
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Debug().
			Str("event", "db_migration_step").
			Str("migration_step", step.Name).
			Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
			Msg("migration step applied")
	}

	if err := tx.Commit(); err != nil {
		log.Error().Err(err).Str("event", "db_migration_failed").Msg("commit failed")
		return fmt.Errorf("commit migration: %w", err)
	}

	log.Info().
		Str("event", "db_migration_success").
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("schema migrated")

	return nil
}
