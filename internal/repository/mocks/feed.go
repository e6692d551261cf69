package mocks

import (
	"context"
	"errors"
	"sync/atomic"

	"translateme/internal/model"
	"translateme/internal/repository"
)

// Feed is a hand-driven repository.Feed. Push and Fail queue the result of the next
// Next call.
type Feed struct {
	steps  chan feedStep
	closed atomic.Bool
}

// ErrNoFeed is returned by Opener once every scripted feed has been handed out.
var ErrNoFeed = errors.New("no scripted feed left")

type feedStep struct {
	records []model.TranslationRecord
	err     error
}

var _ repository.Feed = (*Feed)(nil)

func NewFeed() *Feed {
	return &Feed{steps: make(chan feedStep, 16)}
}

func (f *Feed) Push(records ...model.TranslationRecord) {
	f.steps <- feedStep{records: append([]model.TranslationRecord{}, records...)}
}

func (f *Feed) Fail(err error) {
	f.steps <- feedStep{err: err}
}

func (f *Feed) Next(ctx context.Context) ([]model.TranslationRecord, error) {
	select {
	case s := <-f.steps:
		return s.records, s.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *Feed) Close() error {
	f.closed.Store(true)
	return nil
}

func (f *Feed) Closed() bool {
	return f.closed.Load()
}

// Opener returns a repository.FeedOpener that hands out feeds in order and fails once
// they run out.
func Opener(feeds ...*Feed) repository.FeedOpener {
	var next atomic.Int32
	return func(ctx context.Context) (repository.Feed, error) {
		i := int(next.Add(1)) - 1
		if i >= len(feeds) {
			return nil, ErrNoFeed
		}
		return feeds[i], nil
	}
}
