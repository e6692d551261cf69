package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"translateme/internal/model"
	"translateme/internal/repository"
	"translateme/internal/service"
	"translateme/internal/service/mocks"
	"translateme/internal/translation"
)

var records = []model.TranslationRecord{
	{ID: "2", OriginalText: "Good night", TranslatedText: "Buenas noches", Timestamp: time.Date(2024, 5, 1, 12, 0, 2, 0, time.UTC)},
	{ID: "1", OriginalText: "Hello", TranslatedText: "Hola", Timestamp: time.Date(2024, 5, 1, 12, 0, 1, 0, time.UTC)},
}

func execute(t *testing.T, orch service.Orchestrator, args ...string) (string, string, error) {
	t.Helper()
	closed := false
	open := func(context.Context) (service.Orchestrator, func(), error) {
		return orch, func() { closed = true }, nil
	}

	flags := NewFlags()
	flags.Wait = 200 * time.Millisecond
	cmd := CreateRootCommand(flags, open)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()

	if len(args) > 0 && args[0] != "--help" {
		assert.True(t, closed, "session must be released")
	}
	return stdout.String(), stderr.String(), err
}

func states(ss ...service.State) <-chan service.State {
	ch := make(chan service.State, len(ss))
	for _, s := range ss {
		ch <- s
	}
	close(ch)
	return ch
}

func TestCreateRootCommand(t *testing.T) {
	cmd := CreateRootCommand(NewFlags(), nil)

	assert.Equal(t, "translateme", cmd.Use)
	for _, name := range []string{"from", "to", "wait"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "flag %s", name)
	}

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Subset(t, names, []string{"translate", "history", "clear", "watch"})
}

func TestTranslate(t *testing.T) {
	m := new(mocks.MockOrchestrator)
	m.On("Submit", "Hello World").Return(mocks.Done(service.Outcome{Input: "Hello World", Translation: "Hola Mundo"}), nil).Once()

	stdout, stderr, err := execute(t, m, "translate", "Hello", "World")

	require.NoError(t, err)
	assert.Equal(t, "Hola Mundo\n", stdout)
	assert.Empty(t, stderr)
	m.AssertNotCalled(t, "SetLanguagePair", mock.Anything, mock.Anything)
	m.AssertExpectations(t)
}

func TestTranslate_LanguageFlags(t *testing.T) {
	m := new(mocks.MockOrchestrator)
	m.On("State").Return(service.State{SourceLang: "en", TargetLang: "es"})
	m.On("SetLanguagePair", "en", "fr").Return(nil).Once()
	m.On("Submit", "Good night").Return(mocks.Done(service.Outcome{Translation: "Bonne nuit"}), nil).Once()

	stdout, _, err := execute(t, m, "translate", "--to", "fr", "Good night")

	require.NoError(t, err)
	assert.Equal(t, "Bonne nuit\n", stdout)
	m.AssertExpectations(t)
}

func TestTranslate_InvalidPair(t *testing.T) {
	m := new(mocks.MockOrchestrator)
	m.On("State").Return(service.State{SourceLang: "en", TargetLang: "es"})
	m.On("SetLanguagePair", "es", "es").Return(translation.ErrInvalidLanguage).Once()

	_, _, err := execute(t, m, "translate", "--from", "es", "Hola")

	assert.ErrorIs(t, err, translation.ErrInvalidLanguage)
	m.AssertNotCalled(t, "Submit", mock.Anything)
}

func TestTranslate_Failures(t *testing.T) {
	t.Run("input too large", func(t *testing.T) {
		m := new(mocks.MockOrchestrator)
		text := strings.Repeat("a", 501)
		m.On("Submit", text).Return(nil, translation.ErrInputTooLarge).Once()

		_, _, err := execute(t, m, "translate", text)

		assert.EqualError(t, err, service.InputTooLargeMessage)
	})

	t.Run("translation failed", func(t *testing.T) {
		m := new(mocks.MockOrchestrator)
		placeholder := service.FailureMessage(translation.ErrNetwork)
		m.On("Submit", "Hello").Return(mocks.Done(service.Outcome{Translation: placeholder, Err: translation.ErrNetwork}), nil).Once()

		stdout, _, err := execute(t, m, "translate", "Hello")

		assert.ErrorIs(t, err, translation.ErrNetwork)
		assert.Equal(t, placeholder+"\n", stdout)
	})

	t.Run("history append failed", func(t *testing.T) {
		m := new(mocks.MockOrchestrator)
		m.On("Submit", "Hello").Return(mocks.Done(service.Outcome{Translation: "Hola", HistoryErr: repository.ErrWrite}), nil).Once()

		stdout, stderr, err := execute(t, m, "translate", "Hello")

		require.NoError(t, err)
		assert.Equal(t, "Hola\n", stdout)
		assert.Contains(t, stderr, "not saved to history")
	})
}

func TestHistory(t *testing.T) {
	m := new(mocks.MockOrchestrator)
	m.On("Start", mock.Anything).Return(nil).Once()
	m.On("Watch").Return(states(
		service.State{},
		service.State{History: records, HistoryLoaded: true},
	), func() {}).Once()

	stdout, _, err := execute(t, m, "history")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Buenas noches")
	assert.Contains(t, stdout, "Hola")
	assert.Less(t, strings.Index(stdout, "Good night"), strings.Index(stdout, "Hello"), "newest first")
	m.AssertExpectations(t)
}

func TestHistory_Empty(t *testing.T) {
	m := new(mocks.MockOrchestrator)
	m.On("Start", mock.Anything).Return(nil).Once()
	m.On("Watch").Return(states(service.State{History: []model.TranslationRecord{}, HistoryLoaded: true}), func() {}).Once()

	stdout, _, err := execute(t, m, "history")

	require.NoError(t, err)
	assert.Equal(t, EmptyHistoryMessage+"\n", stdout)
}

func TestHistory_NotLoaded(t *testing.T) {
	m := new(mocks.MockOrchestrator)
	m.On("Start", mock.Anything).Return(nil).Once()
	pending := make(chan service.State, 1)
	pending <- service.State{FeedDegraded: true, FeedError: "connection refused"}
	m.On("Watch").Return((<-chan service.State)(pending), func() {}).Once()

	_, _, err := execute(t, m, "history")

	assert.ErrorContains(t, err, "history not loaded")
	assert.ErrorContains(t, err, "connection refused")
}

func TestHistory_SubscribeFails(t *testing.T) {
	m := new(mocks.MockOrchestrator)
	m.On("Start", mock.Anything).Return(repository.ErrSubscription).Once()

	_, _, err := execute(t, m, "history")

	assert.ErrorIs(t, err, repository.ErrSubscription)
	m.AssertNotCalled(t, "Watch")
}

func TestClear(t *testing.T) {
	m := new(mocks.MockOrchestrator)
	m.On("Clear", mock.Anything).Return(nil).Once()

	stdout, _, err := execute(t, m, "clear")

	require.NoError(t, err)
	assert.Equal(t, "History cleared.\n", stdout)

	failing := new(mocks.MockOrchestrator)
	failing.On("Clear", mock.Anything).Return(repository.ErrDelete).Once()

	_, _, err = execute(t, failing, "clear")
	assert.ErrorIs(t, err, repository.ErrDelete)
}

func TestWatch(t *testing.T) {
	m := new(mocks.MockOrchestrator)
	m.On("Start", mock.Anything).Return(errors.New("dial tcp: refused")).Once()
	m.On("Watch").Return(states(
		service.State{FeedDegraded: true, FeedError: "dial tcp: refused"},
		service.State{History: records[1:], HistoryLoaded: true},
		service.State{History: records[1:], HistoryLoaded: true, Status: service.StatusTranslating},
		service.State{History: records, HistoryLoaded: true},
	), func() {}).Once()

	stdout, stderr, err := execute(t, m, "watch")

	require.NoError(t, err)
	assert.Contains(t, stderr, "retrying")
	assert.Contains(t, stderr, "history feed degraded: dial tcp: refused")
	assert.Equal(t, 2, strings.Count(stdout, "translation(s)"), "unchanged history is not re-rendered")
	assert.Contains(t, stdout, "1 translation(s)")
	assert.Contains(t, stdout, "2 translation(s)")
}

func TestRenderHistory(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, RenderHistory(&buf, records))

	out := buf.String()
	for _, want := range []string{"TIME", "ORIGINAL", "TRANSLATION", "Good night", "Buenas noches", "Hello", "Hola"} {
		assert.Contains(t, strings.ToUpper(out), strings.ToUpper(want))
	}
}
