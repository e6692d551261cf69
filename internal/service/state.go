package service

import (
	"errors"
	"slices"

	"translateme/internal/model"
	"translateme/internal/translation"
)

// Status is the translation activity of the orchestrator.
type Status string

const (
	StatusIdle        Status = "idle"
	StatusTranslating Status = "translating"
)

const (
	// InputTooLargeMessage replaces the displayed translation when input exceeds the byte limit.
	InputTooLargeMessage = "Input exceeds 500 bytes limit."
	// FailurePrefix starts the displayed translation after a failed request.
	FailurePrefix = "Translation failed: "
)

// State is the observable orchestrator state. Values handed out are copies.
type State struct {
	Input         string                    `json:"input"`
	Translation   string                    `json:"translation"`
	Status        Status                    `json:"status"`
	SourceLang    string                    `json:"source_lang"`
	TargetLang    string                    `json:"target_lang"`
	History       []model.TranslationRecord `json:"history"`
	HistoryLoaded bool                      `json:"history_loaded"`
	FeedDegraded  bool                      `json:"feed_degraded"`
	FeedError     string                    `json:"feed_error,omitempty"`
}

func (s State) clone() State {
	s.History = slices.Clone(s.History)
	if s.History == nil {
		s.History = []model.TranslationRecord{}
	}
	return s
}

// Outcome reports how one submitted translation ended. Translation holds what was
// displayed: the translated text or a failure placeholder.
type Outcome struct {
	Input       string                   `json:"input"`
	Translation string                   `json:"translation"`
	Err         error                    `json:"-"`
	Record      *model.TranslationRecord `json:"record,omitempty"`
	HistoryErr  error                    `json:"-"`
}

// FailureMessage renders the human-readable placeholder for a failed translation.
func FailureMessage(err error) string {
	switch {
	case errors.Is(err, translation.ErrNetwork):
		return FailurePrefix + "network error"
	case errors.Is(err, translation.ErrMalformedResponse):
		return FailurePrefix + "unexpected response from translation service"
	case errors.Is(err, translation.ErrRejected):
		return FailurePrefix + "request rejected by translation service"
	case errors.Is(err, translation.ErrInvalidLanguage):
		return FailurePrefix + "invalid language pair"
	default:
		return FailurePrefix + err.Error()
	}
}
