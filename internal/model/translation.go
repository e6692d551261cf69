package model

import (
	"sort"
	"time"
)

// TranslationRecord is one translation pair kept in history.
// Records are created once by the history store and never modified afterwards.
type TranslationRecord struct {
	ID             string    `json:"id"`
	OriginalText   string    `json:"original_text"`
	TranslatedText string    `json:"translated_text"`
	Timestamp      time.Time `json:"timestamp"`
}

// SortNewestFirst orders records by Timestamp descending, breaking ties by ID descending
// so that two stores returning the same set always agree on the order.
func SortNewestFirst(records []TranslationRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.ID > b.ID
	})
}

// IsNewestFirst reports whether records are ordered by Timestamp descending.
func IsNewestFirst(records []TranslationRecord) bool {
	for i := 1; i < len(records); i++ {
		if records[i-1].Timestamp.Before(records[i].Timestamp) {
			return false
		}
	}
	return true
}
