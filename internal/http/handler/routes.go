package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"translateme/internal/export"
	"translateme/internal/model"
	"translateme/internal/service"
)

// Pinger reports whether the history backend is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Exporter uploads a history snapshot and returns where to fetch it.
type Exporter interface {
	Export(ctx context.Context, records []model.TranslationRecord) (*export.Export, error)
}

// Dependencies are the collaborators the routes are bound to. Exporter and Gatherer
// are optional.
type Dependencies struct {
	Pinger       Pinger
	Orchestrator service.Orchestrator
	Exporter     Exporter
	Gatherer     prometheus.Gatherer
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	app.Get("/health", HealthCheck(deps.Pinger))
	app.Get("/healthz", LivenessProbe())
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	app.Get("/state", GetState(deps.Orchestrator))
	app.Put("/languages", SetLanguages(deps.Orchestrator))

	app.Post("/translations", SubmitTranslation(deps.Orchestrator))
	app.Get("/translations", ListTranslations(deps.Orchestrator))
	app.Delete("/translations", ClearTranslations(deps.Orchestrator))
	app.Get("/translations/stream", StreamTranslations(deps.Orchestrator))
	app.Post("/translations/exports", ExportTranslations(deps.Orchestrator, deps.Exporter))
}
