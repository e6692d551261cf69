package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"translateme/internal/model"
	"translateme/internal/service"
	"translateme/internal/translation"
)

// submitTimeout bounds how long a request waits for its translation outcome.
const submitTimeout = 30 * time.Second

type submitRequest struct {
	Text string `json:"text"`
}

type submitResponse struct {
	TranslatedText string                   `json:"translated_text"`
	Record         *model.TranslationRecord `json:"record,omitempty"`
	HistorySaved   bool                     `json:"history_saved"`
	State          service.State            `json:"state"`
}

type languagesRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type historyResponse struct {
	Data         []model.TranslationRecord `json:"data"`
	Total        int                       `json:"total"`
	Loaded       bool                      `json:"loaded"`
	FeedDegraded bool                      `json:"feed_degraded"`
}

func newHistoryResponse(st service.State) historyResponse {
	return historyResponse{
		Data:         st.History,
		Total:        len(st.History),
		Loaded:       st.HistoryLoaded,
		FeedDegraded: st.FeedDegraded,
	}
}

// GetState returns the orchestrator state.
//
//	@Summary	Current state
//	@Tags		state
//	@Produce	json
//	@Success	200	{object}	service.State
//	@Router		/state [get]
func GetState(svc service.Orchestrator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(svc.State())
	}
}

// SetLanguages changes the language pair used by later translations.
//
//	@Summary	Set language pair
//	@Tags		state
//	@Accept		json
//	@Produce	json
//	@Param		body	body		languagesRequest	true	"source may be auto"
//	@Success	200		{object}	service.State
//	@Failure	400		{object}	errorPayload
//	@Router		/languages [put]
func SetLanguages(svc service.Orchestrator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req languagesRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		}
		if err := svc.SetLanguagePair(req.Source, req.Target); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LANGUAGE", "unsupported language pair")
		}
		return c.JSON(svc.State())
	}
}

// SubmitTranslation translates text and waits for the outcome.
//
//	@Summary	Translate text
//	@Tags		translations
//	@Accept		json
//	@Produce	json
//	@Param		body	body		submitRequest	true	"text to translate, at most 500 bytes"
//	@Success	200		{object}	submitResponse
//	@Failure	400		{object}	errorPayload
//	@Failure	413		{object}	errorPayload
//	@Failure	502		{object}	errorPayload
//	@Router		/translations [post]
func SubmitTranslation(svc service.Orchestrator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req submitRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		}

		done, err := svc.Submit(req.Text)
		switch {
		case errors.Is(err, translation.ErrEmptyInput):
			return writeError(c, fiber.StatusBadRequest, "EMPTY_INPUT", "text is required")
		case errors.Is(err, translation.ErrInputTooLarge):
			return writeError(c, fiber.StatusRequestEntityTooLarge, "INPUT_TOO_LARGE", service.InputTooLargeMessage)
		case errors.Is(err, service.ErrClosed):
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "shutting down")
		case err != nil:
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), submitTimeout)
		defer cancel()

		var out service.Outcome
		select {
		case out = <-done:
		case <-ctx.Done():
			return writeError(c, fiber.StatusGatewayTimeout, "TRANSLATION_TIMEOUT", "translation is still running")
		}

		if out.Err != nil {
			return writeError(c, fiber.StatusBadGateway, "TRANSLATION_FAILED", out.Translation)
		}
		if out.HistoryErr != nil {
			zerolog.Ctx(c.UserContext()).Warn().Err(out.HistoryErr).Msg("translation not saved to history")
		}
		return c.JSON(submitResponse{
			TranslatedText: out.Translation,
			Record:         out.Record,
			HistorySaved:   out.Record != nil,
			State:          svc.State(),
		})
	}
}

// ListTranslations returns the history projection, newest first.
//
//	@Summary	Translation history
//	@Tags		translations
//	@Produce	json
//	@Success	200	{object}	historyResponse
//	@Router		/translations [get]
func ListTranslations(svc service.Orchestrator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(newHistoryResponse(svc.State()))
	}
}

// ClearTranslations deletes every stored translation. The projection empties once the
// history feed confirms it.
//
//	@Summary	Clear history
//	@Tags		translations
//	@Success	204
//	@Failure	500	{object}	errorPayload
//	@Router		/translations [delete]
func ClearTranslations(svc service.Orchestrator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Clear(c.UserContext()); err != nil {
			return writeError(c, fiber.StatusInternalServerError, "CLEAR_FAILED", "history could not be cleared")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ExportTranslations uploads the current history and returns a download link.
//
//	@Summary	Export history
//	@Tags		translations
//	@Produce	json
//	@Success	201	{object}	export.Export
//	@Failure	500	{object}	errorPayload
//	@Failure	503	{object}	errorPayload
//	@Router		/translations/exports [post]
func ExportTranslations(svc service.Orchestrator, exporter Exporter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if exporter == nil {
			return writeError(c, fiber.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "object storage is not configured")
		}
		exp, err := exporter.Export(c.UserContext(), svc.State().History)
		if err != nil {
			zerolog.Ctx(c.UserContext()).Error().Err(err).Msg("history export failed")
			return writeError(c, fiber.StatusInternalServerError, "EXPORT_FAILED", "history could not be exported")
		}
		c.Location(exp.URL)
		return c.Status(fiber.StatusCreated).JSON(exp)
	}
}
