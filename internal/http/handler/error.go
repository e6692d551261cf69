package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"translateme/internal/http/middleware"
)

// errorPayload is the body of every non-2xx JSON response.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func requestIDFromCtx(c *fiber.Ctx) string {
	id, _ := c.Locals(middleware.RequestIDLocalKey).(string)
	return id
}

// writeError writes the error envelope. code is machine readable (EMPTY_INPUT,
// CLEAR_FAILED, ...); message is shown to users and never carries internal details.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error:     errorEnvelope{Code: code, Message: message},
	})
}

// fallbackErrors covers statuses fiber itself produces before a handler runs.
var fallbackErrors = map[int]errorEnvelope{
	fiber.StatusBadRequest:            {Code: "BAD_REQUEST", Message: "bad request"},
	fiber.StatusNotFound:              {Code: "NOT_FOUND", Message: "resource not found"},
	fiber.StatusMethodNotAllowed:      {Code: "METHOD_NOT_ALLOWED", Message: "method not allowed"},
	fiber.StatusRequestEntityTooLarge: {Code: "BODY_TOO_LARGE", Message: "request body too large"},
	fiber.StatusUnsupportedMediaType:  {Code: "UNSUPPORTED_MEDIA_TYPE", Message: "unsupported media type"},
	fiber.StatusServiceUnavailable:    {Code: "SERVICE_UNAVAILABLE", Message: "service unavailable"},
}

// ErrorHandler maps errors escaping handlers onto the error envelope. Anything that
// is not a *fiber.Error is logged and reported as a 500.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else {
			zerolog.Ctx(c.UserContext()).Error().Err(err).
				Str("path", c.Path()).
				Msg("unhandled error")
		}

		env, ok := fallbackErrors[status]
		if !ok {
			status = fiber.StatusInternalServerError
			env = errorEnvelope{Code: "INTERNAL_ERROR", Message: "internal server error"}
		}
		return writeError(c, status, env.Code, env.Message)
	}
}
