package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	RequestIDHeader   = "X-Request-ID"
	RequestIDLocalKey = "request_id"

	maxRequestIDLen = 128
)

// RequestID makes sure every request carries an id. A usable X-Request-ID from the
// client is kept, anything else is replaced by a fresh UUID. The id is echoed in the
// response header, stored in locals for error envelopes, and attached to a child of
// base that handlers reach through zerolog.Ctx(c.UserContext()).
func RequestID(base zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}

		c.Locals(RequestIDLocalKey, id)
		logger := base.With().Str(RequestIDLocalKey, id).Logger()
		c.SetUserContext(logger.WithContext(c.UserContext()))
		c.Set(RequestIDHeader, id)

		return c.Next()
	}
}

// validRequestID accepts short printable ASCII ids so they are safe in logs and headers.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
