package repository

import (
	"context"
	"errors"

	"translateme/internal/model"
)

var (
	ErrRead         = errors.New("history read failed")
	ErrWrite        = errors.New("history write failed")
	ErrDelete       = errors.New("history delete failed")
	ErrSubscription = errors.New("history subscription failed")
)

// NewRecord is the payload of Append; the store assigns ID and Timestamp.
type NewRecord struct {
	OriginalText   string
	TranslatedText string
}

// HistoryStore persists translation pairs. Implementations live in subpackages
// (postgres, firestore) and contain no business logic.
type HistoryStore interface {
	// Append stores a new record with a store-assigned ID and the current time.
	Append(ctx context.Context, rec NewRecord) (*model.TranslationRecord, error)

	// List returns every record, newest first.
	List(ctx context.Context) ([]model.TranslationRecord, error)

	// Subscribe opens a live feed of full, newest-first snapshots. The first snapshot is
	// the current content; later ones follow every insert or delete.
	Subscribe(ctx context.Context) (*Subscription, error)

	// ClearAll enumerates all records and deletes them in one batch, returning how many
	// were removed. The batch is not atomic against concurrent appends.
	ClearAll(ctx context.Context) (int, error)

	// PingContext verifies connectivity to the backing store.
	PingContext(ctx context.Context) error
}
