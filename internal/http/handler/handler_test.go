package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"translateme/internal/export"
	"translateme/internal/model"
	"translateme/internal/repository"
	"translateme/internal/service"
	serviceMocks "translateme/internal/service/mocks"
	"translateme/internal/translation"
)

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

var sampleHistory = []model.TranslationRecord{
	{ID: "b", OriginalText: "Bye", TranslatedText: "Adiós", Timestamp: time.Date(2024, 5, 1, 12, 0, 2, 0, time.UTC)},
	{ID: "a", OriginalText: "Hi", TranslatedText: "Hola", Timestamp: time.Date(2024, 5, 1, 12, 0, 1, 0, time.UTC)},
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})

	t.Run("no backend", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(nil))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetState(t *testing.T) {
	mockSvc := new(serviceMocks.MockOrchestrator)
	app := fiber.New()
	app.Get("/state", GetState(mockSvc))

	mockSvc.On("State").Return(service.State{
		Translation: "Hola",
		Status:      service.StatusIdle,
		SourceLang:  "en",
		TargetLang:  "es",
		History:     sampleHistory,
	})

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/state", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var st service.State
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, "Hola", st.Translation)
	assert.Equal(t, service.StatusIdle, st.Status)
	assert.Len(t, st.History, 2)
}

func TestSetLanguages(t *testing.T) {
	mockSvc := new(serviceMocks.MockOrchestrator)
	app := fiber.New()
	app.Put("/languages", SetLanguages(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("SetLanguagePair", "auto", "fr").Return(nil).Once()
		mockSvc.On("State").Return(service.State{SourceLang: "auto", TargetLang: "fr"}).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPut, "/languages", `{"source":"auto","target":"fr"}`))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var st service.State
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
		assert.Equal(t, "fr", st.TargetLang)
	})

	t.Run("invalid language", func(t *testing.T) {
		mockSvc.On("SetLanguagePair", "en", "en").Return(translation.ErrInvalidLanguage).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPut, "/languages", `{"source":"en","target":"en"}`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_LANGUAGE", decodeError(t, resp).Error.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPut, "/languages", `{`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "BAD_REQUEST", decodeError(t, resp).Error.Code)
	})

	mockSvc.AssertExpectations(t)
}

func TestSubmitTranslation(t *testing.T) {
	mockSvc := new(serviceMocks.MockOrchestrator)
	app := fiber.New()
	app.Post("/translations", SubmitTranslation(mockSvc))

	t.Run("success", func(t *testing.T) {
		saved := &model.TranslationRecord{ID: "r1", OriginalText: "Hello", TranslatedText: "Hola"}
		mockSvc.On("Submit", "Hello").Return(serviceMocks.Done(service.Outcome{Input: "Hello", Translation: "Hola", Record: saved}), nil).Once()
		mockSvc.On("State").Return(service.State{Translation: "Hola"}).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/translations", `{"text":"Hello"}`))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body submitResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "Hola", body.TranslatedText)
		assert.True(t, body.HistorySaved)
		assert.Equal(t, "r1", body.Record.ID)
		assert.Equal(t, "Hola", body.State.Translation)
	})

	t.Run("history not saved", func(t *testing.T) {
		mockSvc.On("Submit", "Hi").Return(serviceMocks.Done(service.Outcome{Translation: "Hola", HistoryErr: repository.ErrWrite}), nil).Once()
		mockSvc.On("State").Return(service.State{}).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/translations", `{"text":"Hi"}`))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body submitResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.False(t, body.HistorySaved)
	})

	tests := []struct {
		name       string
		text       string
		submitErr  error
		outcome    *service.Outcome
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{name: "empty", text: "", submitErr: translation.ErrEmptyInput, wantStatus: http.StatusBadRequest, wantCode: "EMPTY_INPUT"},
		{name: "too large", text: "big", submitErr: translation.ErrInputTooLarge, wantStatus: http.StatusRequestEntityTooLarge, wantCode: "INPUT_TOO_LARGE", wantMsg: service.InputTooLargeMessage},
		{name: "closed", text: "late", submitErr: service.ErrClosed, wantStatus: http.StatusServiceUnavailable, wantCode: "SERVICE_UNAVAILABLE"},
		{name: "unexpected", text: "odd", submitErr: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
		{
			name:       "upstream failure",
			text:       "fail",
			outcome:    &service.Outcome{Translation: "Translation failed: network error", Err: translation.ErrNetwork},
			wantStatus: http.StatusBadGateway,
			wantCode:   "TRANSLATION_FAILED",
			wantMsg:    "Translation failed: network error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.outcome != nil {
				mockSvc.On("Submit", tt.text).Return(serviceMocks.Done(*tt.outcome), nil).Once()
			} else {
				mockSvc.On("Submit", tt.text).Return(nil, tt.submitErr).Once()
			}

			resp, _ := app.Test(jsonRequest(http.MethodPost, "/translations", `{"text":"`+tt.text+`"}`))

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body := decodeError(t, resp)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body.Error.Message)
			}
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/translations", `text=hi`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "BAD_REQUEST", decodeError(t, resp).Error.Code)
	})

	mockSvc.AssertExpectations(t)
}

func TestListTranslations(t *testing.T) {
	mockSvc := new(serviceMocks.MockOrchestrator)
	app := fiber.New()
	app.Get("/translations", ListTranslations(mockSvc))

	mockSvc.On("State").Return(service.State{History: sampleHistory, HistoryLoaded: true, FeedDegraded: true})

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/translations", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body historyResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.Total)
	assert.Equal(t, "b", body.Data[0].ID)
	assert.True(t, body.Loaded)
	assert.True(t, body.FeedDegraded)
}

func TestClearTranslations(t *testing.T) {
	mockSvc := new(serviceMocks.MockOrchestrator)
	app := fiber.New()
	app.Delete("/translations", ClearTranslations(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Clear", mock.Anything).Return(nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/translations", nil))

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("store failure", func(t *testing.T) {
		mockSvc.On("Clear", mock.Anything).Return(repository.ErrDelete).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/translations", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "CLEAR_FAILED", decodeError(t, resp).Error.Code)
	})
}

func TestStreamTranslations(t *testing.T) {
	t.Run("one event per state", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockOrchestrator)
		app := fiber.New()
		app.Get("/translations/stream", StreamTranslations(mockSvc))

		updates := make(chan service.State, 2)
		updates <- service.State{History: []model.TranslationRecord{}}
		updates <- service.State{History: sampleHistory, HistoryLoaded: true}
		close(updates)
		var cancelled atomic.Bool
		mockSvc.On("Watch").Return((<-chan service.State)(updates), func() { cancelled.Store(true) })

		req := httptest.NewRequest(http.MethodGet, "/translations/stream", nil)
		req.Header.Set(fiber.HeaderAccept, "text/event-stream")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/event-stream", resp.Header.Get(fiber.HeaderContentType))
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		events := strings.Split(strings.TrimSpace(string(raw)), "\n\n")
		require.Len(t, events, 2)
		assert.True(t, strings.HasPrefix(events[0], "event: history\ndata: "))

		var last historyResponse
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(events[1], "event: history\ndata: ")), &last))
		assert.Equal(t, 2, last.Total)
		assert.True(t, last.Loaded)
		assert.True(t, cancelled.Load())
	})

	t.Run("rejects other media types", func(t *testing.T) {
		app := fiber.New()
		app.Get("/translations/stream", StreamTranslations(new(serviceMocks.MockOrchestrator)))

		req := httptest.NewRequest(http.MethodGet, "/translations/stream", nil)
		req.Header.Set(fiber.HeaderAccept, "application/xml")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotAcceptable, resp.StatusCode)
	})
}

type brokenPipe struct{}

func (brokenPipe) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestStreamEvents_Heartbeat(t *testing.T) {
	t.Run("pings while idle", func(t *testing.T) {
		var buf bytes.Buffer
		updates := make(chan service.State)
		tick := make(chan time.Time)
		done := make(chan struct{})
		go func() {
			streamEvents(bufio.NewWriter(&buf), updates, tick)
			close(done)
		}()

		tick <- time.Now()
		close(updates)
		<-done

		assert.Equal(t, ": ping\n\n", buf.String())
	})

	t.Run("gone client ends the stream without a state change", func(t *testing.T) {
		updates := make(chan service.State)
		tick := make(chan time.Time, 1)
		tick <- time.Now()
		done := make(chan struct{})
		go func() {
			streamEvents(bufio.NewWriter(brokenPipe{}), updates, tick)
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("stream kept running after the client went away")
		}
	})
}

func TestWriteEvent(t *testing.T) {
	var buf bytes.Buffer

	err := writeEvent(&buf, historyEvent, map[string]int{"total": 1})

	require.NoError(t, err)
	assert.Equal(t, "event: history\ndata: {\"total\":1}\n\n", buf.String())
	assert.Error(t, writeEvent(&buf, historyEvent, make(chan int)))
}

type fakeExporter struct {
	got []model.TranslationRecord
	exp *export.Export
	err error
}

func (f *fakeExporter) Export(_ context.Context, records []model.TranslationRecord) (*export.Export, error) {
	f.got = records
	return f.exp, f.err
}

func TestExportTranslations(t *testing.T) {
	mockSvc := new(serviceMocks.MockOrchestrator)
	mockSvc.On("State").Return(service.State{History: sampleHistory})

	t.Run("success", func(t *testing.T) {
		exp := &fakeExporter{exp: &export.Export{Key: "exports/history-x.json", URL: "https://minio.local/x", Count: 2}}
		app := fiber.New()
		app.Post("/translations/exports", ExportTranslations(mockSvc, exp))

		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/translations/exports", nil))

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "https://minio.local/x", resp.Header.Get(fiber.HeaderLocation))
		var body export.Export
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "exports/history-x.json", body.Key)
		assert.Equal(t, sampleHistory, exp.got)
	})

	t.Run("storage failure", func(t *testing.T) {
		app := fiber.New()
		app.Post("/translations/exports", ExportTranslations(mockSvc, &fakeExporter{err: errors.New("bucket gone")}))

		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/translations/exports", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "EXPORT_FAILED", decodeError(t, resp).Error.Code)
	})

	t.Run("not configured", func(t *testing.T) {
		app := fiber.New()
		app.Post("/translations/exports", ExportTranslations(mockSvc, nil))

		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/translations/exports", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "EXPORT_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	mockSvc := new(serviceMocks.MockOrchestrator)
	// Register all routes
	RegisterRoutes(app, Dependencies{Orchestrator: mockSvc})

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		// Health endpoint only allows GET
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		// Fiber returns 405 by default if route exists but method doesn't match
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})

	t.Run("metrics is optional", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Get("/plain", func(c *fiber.Ctx) error { return errors.New("db exploded") })
	app.Get("/too-large", func(c *fiber.Ctx) error { return fiber.ErrRequestEntityTooLarge })
	app.Get("/teapot", func(c *fiber.Ctx) error { return fiber.ErrTeapot })

	tests := []struct {
		path       string
		wantStatus int
		wantCode   string
	}{
		{path: "/plain", wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
		{path: "/too-large", wantStatus: http.StatusRequestEntityTooLarge, wantCode: "BODY_TOO_LARGE"},
		{path: "/teapot", wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body := decodeError(t, resp)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.NotContains(t, body.Error.Message, "exploded")
		})
	}
}
