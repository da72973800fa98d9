// Package main provides the uplix-flow API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/uplix/flow/pkg/cmd"
	"github.com/uplix/flow/pkg/eventbus"
	"github.com/uplix/flow/pkg/persistence"
	"github.com/uplix/flow/pkg/services"
	"github.com/uplix/flow/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	providers   *cmd.Providers
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	providers *cmd.Providers,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		providers:   providers,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	registry := cmd.NewRegistry(a.logger, a.providers.Generation, a.providers.Composer)

	workspaceService := services.NewWorkspace(a.persistence)
	postService := services.NewScheduledPost(a.persistence)
	generationService := services.NewGeneration(a.logger, a.persistence, registry, a.eventBus)

	handlers := web.NewAPIHandlers(web.HandlersConfig{
		Workspaces: workspaceService,
		Posts:      postService,
		Generation: generationService,
		Validator:  a.validate,
		Normalizer: a.providers.Normalizer,
		Host:       a.providers.Host,
		Publisher:  a.providers.Publisher,
	})

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("uplix-flow API")
	})

	handlers.RegisterRoutes(app)

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}
