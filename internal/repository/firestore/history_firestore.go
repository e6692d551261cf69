package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"translateme/internal/model"
	"translateme/internal/repository"
)

const (
	fieldOriginal   = "originalText"
	fieldTranslated = "translatedText"
	fieldTimestamp  = "timestamp"
)

// translationDoc is the stored shape of one history entry.
type translationDoc struct {
	OriginalText   string    `firestore:"originalText"`
	TranslatedText string    `firestore:"translatedText"`
	Timestamp      time.Time `firestore:"timestamp"`
}

// HistoryFirestore is a Firestore implementation of repository.HistoryStore backed by a
// single collection. The client honors FIRESTORE_EMULATOR_HOST.
type HistoryFirestore struct {
	client *firestore.Client
	coll   *firestore.CollectionRef
	opts   repository.StreamOptions
	now    func() time.Time
}

// Config selects the project, database and collection.
type Config struct {
	ProjectID  string
	DatabaseID string
	Collection string
}

// NewHistoryFirestore connects to Firestore. Close releases the client.
func NewHistoryFirestore(ctx context.Context, cfg Config, stream repository.StreamOptions, opts ...option.ClientOption) (*HistoryFirestore, error) {
	dbID := cfg.DatabaseID
	if dbID == "" {
		dbID = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, cfg.ProjectID, dbID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &HistoryFirestore{
		client: client,
		coll:   client.Collection(cfg.Collection),
		opts:   stream,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

var _ repository.HistoryStore = (*HistoryFirestore)(nil)

// Close releases the underlying client.
func (r *HistoryFirestore) Close() error {
	return r.client.Close()
}

// Append adds a document with an auto-generated id.
func (r *HistoryFirestore) Append(ctx context.Context, rec repository.NewRecord) (*model.TranslationRecord, error) {
	doc := translationDoc{
		OriginalText:   rec.OriginalText,
		TranslatedText: rec.TranslatedText,
		Timestamp:      r.now(),
	}
	ref, _, err := r.coll.Add(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrWrite, err)
	}
	return &model.TranslationRecord{
		ID:             ref.ID,
		OriginalText:   doc.OriginalText,
		TranslatedText: doc.TranslatedText,
		Timestamp:      doc.Timestamp,
	}, nil
}

// List returns every document, newest first.
func (r *HistoryFirestore) List(ctx context.Context) ([]model.TranslationRecord, error) {
	docs, err := r.coll.OrderBy(fieldTimestamp, firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrRead, err)
	}
	return decodeAll(docs), nil
}

// Subscribe streams query snapshots of the ordered collection.
func (r *HistoryFirestore) Subscribe(ctx context.Context) (*repository.Subscription, error) {
	return repository.Subscribe(ctx, r.openFeed, r.opts)
}

func (r *HistoryFirestore) openFeed(ctx context.Context) (repository.Feed, error) {
	it := r.coll.OrderBy(fieldTimestamp, firestore.Desc).Snapshots(ctx)
	return &snapshotFeed{it: it}, nil
}

// ClearAll deletes every document through a BulkWriter. Documents added after the
// enumeration survive, and a failed batch may leave a subset deleted.
func (r *HistoryFirestore) ClearAll(ctx context.Context) (int, error) {
	refs, err := r.coll.DocumentRefs(ctx).GetAll()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", repository.ErrRead, err)
	}
	if len(refs) == 0 {
		return 0, nil
	}

	bw := r.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(refs))
	for _, ref := range refs {
		job, err := bw.Delete(ref)
		if err != nil {
			bw.End()
			return 0, fmt.Errorf("%w: %w", repository.ErrDelete, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	var errs []error
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return len(refs) - len(errs), fmt.Errorf("%w: %d of %d deletes failed: %w", repository.ErrDelete, len(errs), len(refs), errors.Join(errs...))
	}
	return len(refs), nil
}

// PingContext reads a document that normally does not exist; NotFound means the
// backend answered.
func (r *HistoryFirestore) PingContext(ctx context.Context) error {
	_, err := r.coll.Doc("_ping").Get(ctx)
	if err == nil || status.Code(err) == codes.NotFound {
		return nil
	}
	return err
}

type snapshotFeed struct {
	it *firestore.QuerySnapshotIterator
}

func (f *snapshotFeed) Next(context.Context) ([]model.TranslationRecord, error) {
	snap, err := f.it.Next()
	if err != nil {
		if errors.Is(err, iterator.Done) {
			return nil, errors.New("snapshot iterator stopped")
		}
		return nil, err
	}
	docs, err := snap.Documents.GetAll()
	if err != nil {
		return nil, err
	}
	return decodeAll(docs), nil
}

func (f *snapshotFeed) Close() error {
	f.it.Stop()
	return nil
}

func decodeAll(docs []*firestore.DocumentSnapshot) []model.TranslationRecord {
	out := make([]model.TranslationRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, decode(d.Ref.ID, d.Data(), d.ReadTime))
	}
	model.SortNewestFirst(out)
	return out
}

// decode tolerates partially written documents: missing text fields become "" and a
// missing or mistyped timestamp falls back to readTime.
func decode(id string, data map[string]any, readTime time.Time) model.TranslationRecord {
	rec := model.TranslationRecord{
		ID:             id,
		OriginalText:   stringField(data, fieldOriginal),
		TranslatedText: stringField(data, fieldTranslated),
		Timestamp:      readTime.UTC(),
	}
	if ts, ok := data[fieldTimestamp].(time.Time); ok && !ts.IsZero() {
		rec.Timestamp = ts.UTC()
	}
	return rec
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}
