package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"translateme/internal/service"
)

const historyEvent = "history"

// heartbeatInterval paces the comment lines that detect clients which went away
// while the history was idle.
var heartbeatInterval = 15 * time.Second

// StreamTranslations pushes a history event whenever the state changes, starting with
// the current one. The stream ends when the client goes away or the server shuts down.
//
//	@Summary	History stream (server-sent events)
//	@Tags		translations
//	@Produce	text/event-stream
//	@Success	200	{object}	historyResponse
//	@Router		/translations/stream [get]
func StreamTranslations(svc service.Orchestrator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !isEventStream(c.Get(fiber.HeaderAccept)) {
			return writeError(c, fiber.StatusNotAcceptable, "NOT_ACCEPTABLE", "only text/event-stream is served")
		}

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		updates, cancel := svc.Watch()
		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer cancel()
			ticker := time.NewTicker(heartbeatInterval)
			defer ticker.Stop()
			streamEvents(w, updates, ticker.C)
		})
		return nil
	}
}

// streamEvents writes one event per state and a ping comment per tick. It returns when
// updates closes or a flush fails, which is how a disconnected client shows up.
func streamEvents(w *bufio.Writer, updates <-chan service.State, tick <-chan time.Time) {
	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return
			}
			if err := writeEvent(w, historyEvent, newHistoryResponse(st)); err != nil {
				return
			}
		case <-tick:
			if _, err := w.WriteString(": ping\n\n"); err != nil {
				return
			}
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}

// writeEvent writes one server-sent event with a JSON payload.
func writeEvent(w io.Writer, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

func isEventStream(accept string) bool {
	return accept == "" || strings.Contains(accept, "text/event-stream") || strings.Contains(accept, "*/*")
}
