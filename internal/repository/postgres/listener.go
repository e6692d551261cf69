package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"translateme/internal/model"
)

// ChangeChannel is the NOTIFY channel the translations trigger publishes on.
const ChangeChannel = "translations_changed"

// Notifier blocks until the next change notification arrives.
type Notifier interface {
	WaitForNotification(ctx context.Context) error
	Close(ctx context.Context) error
}

// ListenFunc opens a dedicated connection that is already listening on ChangeChannel.
type ListenFunc func(ctx context.Context) (Notifier, error)

// PgxListener returns a ListenFunc that opens its own pgx connection per feed.
// LISTEN needs a session-bound connection, which database/sql pooling cannot provide.
func PgxListener(dsn string) ListenFunc {
	return func(ctx context.Context) (Notifier, error) {
		conn, err := pgx.Connect(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("listen connect: %w", err)
		}
		if _, err := conn.Exec(ctx, "LISTEN "+ChangeChannel); err != nil {
			_ = conn.Close(ctx)
			return nil, fmt.Errorf("listen %s: %w", ChangeChannel, err)
		}
		return &pgxNotifier{conn: conn}, nil
	}
}

type pgxNotifier struct {
	conn *pgx.Conn
}

func (n *pgxNotifier) WaitForNotification(ctx context.Context) error {
	_, err := n.conn.WaitForNotification(ctx)
	return err
}

func (n *pgxNotifier) Close(ctx context.Context) error {
	return n.conn.Close(ctx)
}

// notifyFeed re-reads the table after every notification. Bursts of notifications are
// collapsed by the re-read itself, since each snapshot is the full table.
type notifyFeed struct {
	store    *HistoryPostgres
	notifier Notifier
	primed   bool
}

func (f *notifyFeed) Next(ctx context.Context) ([]model.TranslationRecord, error) {
	if f.primed {
		if err := f.notifier.WaitForNotification(ctx); err != nil {
			return nil, err
		}
	}
	f.primed = true
	return f.store.List(ctx)
}

func (f *notifyFeed) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return f.notifier.Close(ctx)
}
