package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"translateme/internal/model"
)

// Snapshot is one event of a history feed: either a complete newest-first record set,
// or Err (wrapping ErrSubscription) when the live query failed and is being re-opened.
type Snapshot struct {
	Records []model.TranslationRecord
	Err     error
}

// Feed is one open live query. Next blocks until the next full snapshot is available;
// the first call returns the current content.
type Feed interface {
	Next(ctx context.Context) ([]model.TranslationRecord, error)
	Close() error
}

// FeedOpener opens a fresh Feed. It is called again after a feed fails.
type FeedOpener func(ctx context.Context) (Feed, error)

// StreamOptions tunes how a failed feed is re-opened.
type StreamOptions struct {
	RetryInitial time.Duration
	RetryMax     time.Duration
	Logger       zerolog.Logger
}

// Subscription is a cancellable stream of Snapshots.
type Subscription struct {
	updates chan Snapshot
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// Subscribe opens the first feed synchronously so callers learn about a broken store
// immediately, then streams it in the background.
func Subscribe(ctx context.Context, open FeedOpener, opts StreamOptions) (*Subscription, error) {
	first, err := open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubscription, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		updates: make(chan Snapshot),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.run(ctx, first, open, opts)
	return s, nil
}

// Updates delivers snapshots in order. It is closed after Cancel or when the parent
// context ends.
func (s *Subscription) Updates() <-chan Snapshot {
	return s.updates
}

// Cancel stops the feed and waits for it to wind down. Nothing is delivered after
// Cancel returns. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}

func (s *Subscription) run(ctx context.Context, feed Feed, open FeedOpener, opts StreamOptions) {
	defer close(s.done)
	defer close(s.updates)

	retry := backoff.NewExponentialBackOff()
	if opts.RetryInitial > 0 {
		retry.InitialInterval = opts.RetryInitial
	}
	if opts.RetryMax > 0 {
		retry.MaxInterval = opts.RetryMax
	}
	log := opts.Logger.With().Str("component", "history_feed").Logger()

	for {
		var err error
		if feed == nil {
			feed, err = open(ctx)
		}
		if feed != nil {
			err = s.pump(ctx, feed, retry)
			_ = feed.Close()
			feed = nil
		}
		if ctx.Err() != nil {
			return
		}

		log.Warn().Err(err).Msg("history feed failed, reopening")
		if !s.send(ctx, Snapshot{Err: fmt.Errorf("%w: %w", ErrSubscription, err)}) {
			return
		}

		wait := retry.NextBackOff()
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (s *Subscription) pump(ctx context.Context, feed Feed, retry *backoff.ExponentialBackOff) error {
	for {
		records, err := feed.Next(ctx)
		if err != nil {
			return err
		}
		retry.Reset()
		if !s.send(ctx, Snapshot{Records: records}) {
			return ctx.Err()
		}
	}
}

func (s *Subscription) send(ctx context.Context, snap Snapshot) bool {
	// A cancelled context wins over a ready receiver.
	if ctx.Err() != nil {
		return false
	}
	select {
	case s.updates <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}
