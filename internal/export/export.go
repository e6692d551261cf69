// Package export writes the history projection to object storage and hands out a
// presigned download link.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"translateme/internal/model"
	"translateme/internal/storage"
)

const keyTimeLayout = "20060102T150405.000Z"

// Export describes one uploaded history file.
type Export struct {
	Key        string    `json:"key"`
	URL        string    `json:"url"`
	Count      int       `json:"count"`
	ExportedAt time.Time `json:"exported_at"`
}

type document struct {
	ExportedAt time.Time                 `json:"exported_at"`
	Count      int                       `json:"count"`
	Records    []model.TranslationRecord `json:"records"`
}

// Service uploads history exports.
type Service struct {
	store  storage.Storage
	expiry time.Duration
	now    func() time.Time
	suffix func() string
}

// NewService builds an export service whose links stay valid for expiry.
func NewService(store storage.Storage, expiry time.Duration) *Service {
	return &Service{
		store:  store,
		expiry: expiry,
		now:    func() time.Time { return time.Now().UTC() },
		suffix: func() string { return uuid.NewString()[:8] },
	}
}

// Export uploads records as exports/history-<UTC timestamp>-<random>.json. If no link can be
// signed the object is removed again.
func (s *Service) Export(ctx context.Context, records []model.TranslationRecord) (*Export, error) {
	at := s.now()
	if records == nil {
		records = []model.TranslationRecord{}
	}
	body, err := json.MarshalIndent(document{ExportedAt: at, Count: len(records), Records: records}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}

	key := "exports/history-" + at.Format(keyTimeLayout) + "-" + s.suffix() + ".json"
	info, err := s.store.Put(ctx, key, bytes.NewReader(body), storage.PutObjectOptions{
		Size:        int64(len(body)),
		ContentType: "application/json",
		Metadata:    map[string]string{"record-count": fmt.Sprint(len(records))},
	})
	if err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}

	link, err := s.store.PresignGet(ctx, info.Key, s.expiry)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, info.Key); delErr != nil {
			return nil, fmt.Errorf("presign failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("presign export: %w", err)
	}

	return &Export{Key: info.Key, URL: link, Count: len(records), ExportedAt: at}, nil
}
