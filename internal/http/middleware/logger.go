package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// Logger writes one line per request with method, path, status and latency in
// milliseconds. It uses the request-scoped logger installed by RequestID and falls
// back to fallback when there is none.
func Logger(fallback zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		log := zerolog.Ctx(c.UserContext())
		if log.GetLevel() == zerolog.Disabled {
			log = &fallback
		}

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		event := log.Info()
		if status >= fiber.StatusInternalServerError {
			event = log.Error()
		}
		// Use only the path segment (no query string)
		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Float64("latency", float64(time.Since(start).Microseconds())/1000).
			Msg("request")

		return err
	}
}
