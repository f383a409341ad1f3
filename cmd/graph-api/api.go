// Package main provides the Graph API server implementation.
package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/engine"
	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/otelhelper"
	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/web"
)

type API struct {
	logger   *slog.Logger
	engine   *engine.Engine
	validate *validator.Validate
	tracer   trace.Tracer
}

func NewAPI(ctx context.Context, logger *slog.Logger, graphEngine *engine.Engine) (*API, error) {
	api := &API{
		logger:   logger,
		engine:   graphEngine,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		tracer, err := otelhelper.NewTracer(ctx, "graph-api")
		if err != nil {
			return nil, err
		}

		api.tracer = tracer
	}

	return api, nil
}

// traceRequests wraps each workflow route in a span when tracing is
// configured.
func (a *API) traceRequests(c fiber.Ctx) error {
	if a.tracer == nil {
		return c.Next()
	}

	ctx, span := otelhelper.StartSpan(c.Context(), a.tracer, c.Method()+" "+c.Route().Path,
		attribute.String(otelhelper.WorkflowIDKey, c.Params("id")),
	)
	defer span.End()

	c.SetContext(ctx)

	if err := c.Next(); err != nil {
		otelhelper.SetError(span, err,
			attribute.String(otelhelper.WorkflowIDKey, c.Params("id")),
		)

		return err
	}

	return nil
}

func (a *API) App() (*fiber.App, error) {
	handlers, err := web.NewAPIHandlers(a.engine, a.validate, a.logger)
	if err != nil {
		return nil, err
	}

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Graph API")
	})

	w := app.Group("/workflows", a.traceRequests)
	w.Get("/:id", handlers.GetWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/batch", handlers.ApplyBatch)
	w.Post("/:id/validate", handlers.ValidateBatch)
	w.Post("/:id/undo", handlers.Undo)
	w.Post("/:id/redo", handlers.Redo)
	w.Get("/:id/history", handlers.GetHistory)

	app.Get("/health", handlers.HealthCheck)

	return app, nil
}

func (a *API) Start(port int) error {
	app, err := a.App()
	if err != nil {
		return err
	}

	return app.Listen(":" + strconv.Itoa(port))
}
