package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"
	"github.com/uplix/flow/pkg/cmd"
	"github.com/uplix/flow/pkg/log"
	"github.com/uplix/flow/pkg/otelhelper"
)

const defaultPort = 9090

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "uplix-api",
		Usage:                 "Create and run media-generation workspaces",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "openai-api-key",
				Usage:   "OpenAI API key for image, vision and video generation",
				Sources: cli.EnvVars("OPENAI_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "aiml-api-key",
				Usage:   "AIML API key for kling video and speech synthesis",
				Sources: cli.EnvVars("AIML_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "cloudinary-cloud-name",
				Usage:   "Cloudinary cloud name for media hosting",
				Sources: cli.EnvVars("CLOUDINARY_CLOUD_NAME"),
			},
			&cli.StringFlag{
				Name:    "cloudinary-api-key",
				Usage:   "Cloudinary API key",
				Sources: cli.EnvVars("CLOUDINARY_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "cloudinary-api-secret",
				Usage:   "Cloudinary API secret",
				Sources: cli.EnvVars("CLOUDINARY_API_SECRET"),
			},
			&cli.BoolFlag{
				Name:    "enable-tracing",
				Usage:   "Export traces over OTLP HTTP",
				Sources: cli.EnvVars("ENABLE_TRACING"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing uplix-flow API")

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			providerConfig := cmd.ProviderConfig{
				OpenAIAPIKey:        command.String("openai-api-key"),
				AIMLAPIKey:          command.String("aiml-api-key"),
				CloudinaryCloudName: command.String("cloudinary-cloud-name"),
				CloudinaryAPIKey:    command.String("cloudinary-api-key"),
				CloudinaryAPISecret: command.String("cloudinary-api-secret"),
			}

			if command.Bool("enable-tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "uplix-api")
				if err != nil {
					return err
				}

				providerConfig.Tracer = tracer
			}

			providers := cmd.NewProviders(logger, providerConfig)

			api := NewAPI(logger, persistence, providers, eventBus)

			return api.Start(command.Int("port"))
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
