package translation

import (
	"errors"
	"fmt"
)

// MaxInputBytes is MyMemory's hard limit on the UTF-8 length of q.
const MaxInputBytes = 500

var (
	ErrEmptyInput        = errors.New("text is empty")
	ErrInputTooLarge     = fmt.Errorf("input exceeds %d bytes limit", MaxInputBytes)
	ErrInvalidLanguage   = errors.New("invalid language pair")
	ErrNetwork           = errors.New("translation service unreachable")
	ErrMalformedResponse = errors.New("malformed translation response")
	ErrRejected          = errors.New("translation rejected by upstream")
)

// ValidateInput applies the pre-flight checks every caller must pass before a request
// is issued. Length is measured in bytes, not runes.
func ValidateInput(text string) error {
	if text == "" {
		return ErrEmptyInput
	}
	if len(text) > MaxInputBytes {
		return fmt.Errorf("%w: got %d bytes", ErrInputTooLarge, len(text))
	}
	return nil
}
