package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"translateme/internal/model"
)

// EmptyHistoryMessage is printed instead of an empty table.
const EmptyHistoryMessage = "No translations yet."

// RenderHistory writes records as a table in the order given.
func RenderHistory(w io.Writer, records []model.TranslationRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, EmptyHistoryMessage)
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("Time", "Original", "Translation")
	for _, r := range records {
		row := []string{r.Timestamp.Local().Format(time.DateTime), r.OriginalText, r.TranslatedText}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("render history row %s: %w", r.ID, err)
		}
	}
	return table.Render()
}
