package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"translateme/internal/model"
	"translateme/internal/repository"
)

// HistoryPostgres is a PostgreSQL implementation of repository.HistoryStore.
// It uses database/sql with parameterized queries and contains no business logic.
// Live updates come from the translations_changed channel fed by a table trigger.
type HistoryPostgres struct {
	db     *sql.DB
	listen ListenFunc
	opts   repository.StreamOptions
	now    func() time.Time
	newID  func() string
}

// NewHistoryPostgres creates a new HistoryPostgres repository.
func NewHistoryPostgres(db *sql.DB, listen ListenFunc, opts repository.StreamOptions) *HistoryPostgres {
	return &HistoryPostgres{
		db:     db,
		listen: listen,
		opts:   opts,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

var _ repository.HistoryStore = (*HistoryPostgres)(nil)

// Append inserts a new row and returns the stored record.
func (r *HistoryPostgres) Append(ctx context.Context, rec repository.NewRecord) (*model.TranslationRecord, error) {
	const q = `
		INSERT INTO translations (id, original_text, translated_text, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, original_text, translated_text, created_at
	`
	row := r.db.QueryRowContext(ctx, q, r.newID(), rec.OriginalText, rec.TranslatedText, r.now())

	var out model.TranslationRecord
	if err := row.Scan(&out.ID, &out.OriginalText, &out.TranslatedText, &out.Timestamp); err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrWrite, err)
	}
	out.Timestamp = out.Timestamp.UTC()
	return &out, nil
}

// List returns every record, newest first.
func (r *HistoryPostgres) List(ctx context.Context) ([]model.TranslationRecord, error) {
	const q = `
		SELECT id, original_text, translated_text, created_at
		FROM translations
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrRead, err)
	}
	defer rows.Close()

	items := make([]model.TranslationRecord, 0)
	for rows.Next() {
		var t model.TranslationRecord
		if err := rows.Scan(&t.ID, &t.OriginalText, &t.TranslatedText, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: %w", repository.ErrRead, err)
		}
		t.Timestamp = t.Timestamp.UTC()
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrRead, err)
	}
	return items, nil
}

// Subscribe starts LISTENing before the first query so no change between the two is lost.
func (r *HistoryPostgres) Subscribe(ctx context.Context) (*repository.Subscription, error) {
	return repository.Subscribe(ctx, r.openFeed, r.opts)
}

func (r *HistoryPostgres) openFeed(ctx context.Context) (repository.Feed, error) {
	n, err := r.listen(ctx)
	if err != nil {
		return nil, err
	}
	return &notifyFeed{store: r, notifier: n}, nil
}

// ClearAll reads the current ids and deletes exactly those in one statement.
// Rows inserted after the read survive.
func (r *HistoryPostgres) ClearAll(ctx context.Context) (int, error) {
	ids, err := r.ids(ctx)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM translations WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("%w: %d ids: %w", repository.ErrDelete, len(ids), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return len(ids), nil
	}
	return int(n), nil
}

func (r *HistoryPostgres) ids(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM translations`)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrRead, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: %w", repository.ErrRead, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrRead, err)
	}
	return ids, nil
}

// PingContext checks the pooled connection.
func (r *HistoryPostgres) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
