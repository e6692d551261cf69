package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. The local environment gets a human readable console
// writer; every other environment writes one JSON object per line to stdout.
func New(environment, level string) (zerolog.Logger, error) {
	var writer io.Writer = os.Stdout
	if strings.EqualFold(strings.TrimSpace(environment), "local") {
		writer = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}
	return NewWithWriter(writer, level)
}

// NewWithWriter builds a JSON logger writing to w.
func NewWithWriter(w io.Writer, level string) (zerolog.Logger, error) {
	parsedLevel, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parse LOG_LEVEL=%q: %w", level, err)
	}

	return zerolog.New(w).
		Level(parsedLevel).
		With().
		Timestamp().
		Str("service", "translateme").
		Logger(), nil
}
