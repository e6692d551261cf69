package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"translateme/internal/language"
	"translateme/internal/model"
	"translateme/internal/repository"
	"translateme/internal/translation"
)

var ErrClosed = errors.New("orchestrator is closed")

// Translator performs a single translation request.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Orchestrator connects user actions to the translator and the history store and
// exposes the resulting state.
type Orchestrator interface {
	// Start subscribes to the history store. A failed first subscribe is returned and
	// retried in the background while the state reports the feed as degraded.
	Start(ctx context.Context) error

	// Submit validates text and, when valid, translates it in the background with the
	// current language pair. The returned channel receives exactly one Outcome after the
	// state reflects the result.
	Submit(text string) (<-chan Outcome, error)

	// SetLanguagePair changes the pair used by later submissions. source may be "auto".
	SetLanguagePair(source, target string) error

	// Clear deletes all stored history. The projection changes only when the feed
	// delivers the emptied snapshot.
	Clear(ctx context.Context) error

	// State returns a copy of the current state.
	State() State

	// Watch delivers the state after every change, starting with the current one.
	// Slow receivers only see the latest state. cancel stops delivery and closes the channel.
	Watch() (updates <-chan State, cancel func())

	// Close stops the history feed, waits for in-flight translations and closes watchers.
	Close()
}

// Option customizes the orchestrator.
type Option func(*orchestrator)

// WithLanguagePair sets the initial pair. Invalid codes make NewOrchestrator fail.
func WithLanguagePair(source, target string) Option {
	return func(o *orchestrator) {
		o.initialSource, o.initialTarget = source, target
	}
}

// WithMetrics records feed activity on m.
func WithMetrics(m *Metrics) Option {
	return func(o *orchestrator) { o.metrics = m }
}

// WithStoreTimeout bounds each history Append.
func WithStoreTimeout(d time.Duration) Option {
	return func(o *orchestrator) { o.storeTimeout = d }
}

// WithResubscribeBackoff tunes how a failed first subscribe is retried.
func WithResubscribeBackoff(initial, maxInterval time.Duration) Option {
	return func(o *orchestrator) { o.retryInitial, o.retryMax = initial, maxInterval }
}

// orchestrator keeps every piece of mutable state inside loopState, which only the run
// goroutine touches. Other goroutines hand it closures through cmds.
type orchestrator struct {
	translator Translator
	store      repository.HistoryStore
	log        zerolog.Logger
	metrics    *Metrics

	initialSource, initialTarget string
	storeTimeout                 time.Duration
	retryInitial, retryMax       time.Duration

	cmds     chan func(*loopState)
	quit     chan struct{}
	loopDone chan struct{}
	current  atomic.Pointer[State]
	wg       sync.WaitGroup

	startOnce sync.Once
	closeOnce sync.Once
}

type loopState struct {
	st       State
	inflight int
	closing  bool
	stopFeed context.CancelFunc
	watchers map[int]chan State
	nextID   int
}

// NewOrchestrator builds an orchestrator with an idle state and the default en|es pair.
func NewOrchestrator(translator Translator, store repository.HistoryStore, logger zerolog.Logger, opts ...Option) (Orchestrator, error) {
	o := &orchestrator{
		translator:    translator,
		store:         store,
		log:           logger.With().Str("component", "orchestrator").Logger(),
		initialSource: "en",
		initialTarget: "es",
		storeTimeout:  10 * time.Second,
		retryInitial:  500 * time.Millisecond,
		retryMax:      30 * time.Second,
		cmds:          make(chan func(*loopState)),
		quit:          make(chan struct{}),
		loopDone:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}

	src, dst, err := normalizePair(o.initialSource, o.initialTarget)
	if err != nil {
		return nil, err
	}

	l := &loopState{
		st: State{
			Status:     StatusIdle,
			SourceLang: src,
			TargetLang: dst,
			History:    []model.TranslationRecord{},
		},
		watchers: make(map[int]chan State),
	}
	o.publish(l)
	go o.run(l)
	return o, nil
}

func normalizePair(source, target string) (string, string, error) {
	src := language.NormalizeSource(source)
	dst := language.NormalizeCode(target)
	if src == "" || dst == "" {
		return "", "", fmt.Errorf("%w: %q|%q", translation.ErrInvalidLanguage, source, target)
	}
	if src == dst {
		return "", "", fmt.Errorf("%w: source and target are both %q", translation.ErrInvalidLanguage, dst)
	}
	return src, dst, nil
}

func (o *orchestrator) run(l *loopState) {
	defer close(o.loopDone)
	for {
		select {
		case fn := <-o.cmds:
			fn(l)
		case <-o.quit:
			for id, ch := range l.watchers {
				close(ch)
				delete(l.watchers, id)
			}
			return
		}
	}
}

// call runs fn on the state loop and waits for it. It reports false once the loop has
// stopped.
func (o *orchestrator) call(fn func(*loopState)) bool {
	done := make(chan struct{})
	select {
	case o.cmds <- func(l *loopState) {
		defer close(done)
		fn(l)
	}:
	case <-o.loopDone:
		return false
	}
	<-done
	return true
}

// publish stores a copy for State and fans it out to watchers, replacing any value a
// slow watcher has not read yet.
func (o *orchestrator) publish(l *loopState) {
	snap := l.st.clone()
	o.current.Store(&snap)
	for _, ch := range l.watchers {
		select {
		case ch <- snap.clone():
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		ch <- snap.clone()
	}
}

func (o *orchestrator) Start(ctx context.Context) error {
	var startErr error
	o.startOnce.Do(func() {
		feedCtx, cancel := context.WithCancel(ctx)
		registered := false
		o.call(func(l *loopState) {
			if l.closing {
				return
			}
			l.stopFeed = cancel
			o.wg.Add(1)
			registered = true
		})
		// Close may already be draining; it would never cancel this feed.
		if !registered {
			cancel()
			startErr = ErrClosed
			return
		}

		sub, err := o.store.Subscribe(feedCtx)
		if err != nil {
			o.applySnapshot(repository.Snapshot{Err: err})
			startErr = err
		}
		go o.follow(feedCtx, sub)
	})
	return startErr
}

// follow applies snapshots until ctx ends, subscribing again with backoff while the
// store refuses to open a feed.
func (o *orchestrator) follow(ctx context.Context, sub *repository.Subscription) {
	defer o.wg.Done()

	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = o.retryInitial
	retry.MaxInterval = o.retryMax

	for sub == nil {
		select {
		case <-ctx.Done():
			return
		case <-time.After(retry.NextBackOff()):
		}
		s, err := o.store.Subscribe(ctx)
		if err != nil {
			o.applySnapshot(repository.Snapshot{Err: err})
			continue
		}
		sub = s
	}

	stop := context.AfterFunc(ctx, sub.Cancel)
	defer stop()
	defer sub.Cancel()

	for snap := range sub.Updates() {
		o.applySnapshot(snap)
	}
}

func (o *orchestrator) applySnapshot(snap repository.Snapshot) {
	if snap.Err != nil {
		o.metrics.feedError()
		o.log.Warn().Err(snap.Err).Msg("history feed degraded")
	} else {
		o.metrics.snapshot()
	}

	o.call(func(l *loopState) {
		if snap.Err != nil {
			l.st.FeedDegraded = true
			l.st.FeedError = snap.Err.Error()
		} else {
			records := snap.Records
			if !model.IsNewestFirst(records) {
				records = append([]model.TranslationRecord(nil), records...)
				model.SortNewestFirst(records)
			}
			l.st.History = records
			l.st.HistoryLoaded = true
			l.st.FeedDegraded = false
			l.st.FeedError = ""
		}
		o.publish(l)
	})
}

func (o *orchestrator) Submit(text string) (<-chan Outcome, error) {
	if err := translation.ValidateInput(text); err != nil {
		if errors.Is(err, translation.ErrInputTooLarge) {
			o.call(func(l *loopState) {
				l.st.Translation = InputTooLargeMessage
				o.publish(l)
			})
		}
		return nil, err
	}

	var src, dst string
	accepted := false
	o.call(func(l *loopState) {
		if l.closing {
			return
		}
		accepted = true
		src, dst = l.st.SourceLang, l.st.TargetLang
		l.st.Input = text
		l.st.Status = StatusTranslating
		l.inflight++
		o.wg.Add(1)
		o.publish(l)
	})
	if !accepted {
		return nil, ErrClosed
	}

	out := make(chan Outcome, 1)
	go o.translate(text, src, dst, out)
	return out, nil
}

func (o *orchestrator) translate(text, src, dst string, out chan<- Outcome) {
	defer o.wg.Done()

	outcome := Outcome{Input: text}
	translated, err := o.translator.Translate(context.Background(), text, src, dst)
	if err != nil {
		outcome.Err = err
		outcome.Translation = FailureMessage(err)
		o.log.Warn().Err(err).Str("langpair", src+"|"+dst).Msg("translation failed")
	} else {
		outcome.Translation = translated
	}

	o.call(func(l *loopState) {
		l.inflight--
		if l.inflight == 0 {
			l.st.Status = StatusIdle
		}
		l.st.Translation = outcome.Translation
		o.publish(l)
	})

	if err == nil {
		outcome.Record, outcome.HistoryErr = o.appendHistory(text, translated)
	}
	out <- outcome
}

func (o *orchestrator) appendHistory(original, translated string) (*model.TranslationRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), o.storeTimeout)
	defer cancel()

	rec, err := o.store.Append(ctx, repository.NewRecord{OriginalText: original, TranslatedText: translated})
	if err != nil {
		o.metrics.appendFailed()
		o.log.Error().Err(err).Msg("failed to save translation to history")
		return nil, err
	}
	return rec, nil
}

func (o *orchestrator) SetLanguagePair(source, target string) error {
	src, dst, err := normalizePair(source, target)
	if err != nil {
		return err
	}
	o.call(func(l *loopState) {
		l.st.SourceLang, l.st.TargetLang = src, dst
		o.publish(l)
	})
	return nil
}

func (o *orchestrator) Clear(ctx context.Context) error {
	n, err := o.store.ClearAll(ctx)
	if err != nil {
		o.log.Error().Err(err).Int("deleted", n).Msg("failed to clear history")
		return err
	}
	o.log.Info().Int("deleted", n).Msg("history cleared")
	return nil
}

func (o *orchestrator) State() State {
	return o.current.Load().clone()
}

func (o *orchestrator) Watch() (<-chan State, func()) {
	ch := make(chan State, 1)
	id := -1
	o.call(func(l *loopState) {
		id = l.nextID
		l.nextID++
		l.watchers[id] = ch
		ch <- l.st.clone()
	})
	if id < 0 {
		close(ch)
		return ch, func() {}
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.call(func(l *loopState) {
				if _, ok := l.watchers[id]; ok {
					delete(l.watchers, id)
					close(ch)
				}
			})
		})
	}
}

func (o *orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.call(func(l *loopState) {
			l.closing = true
			if l.stopFeed != nil {
				l.stopFeed()
			}
		})
		o.wg.Wait()
		close(o.quit)
		<-o.loopDone
	})
}
