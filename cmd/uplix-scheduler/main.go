package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"github.com/uplix/flow/pkg/cmd"
	"github.com/uplix/flow/pkg/log"
	"github.com/uplix/flow/pkg/protocol"
	"github.com/uplix/flow/pkg/providers/instagram"
	"github.com/uplix/flow/pkg/services"
)

func main() {
	logger := log.WithModule("scheduler")

	command := &cli.Command{
		Name:                  "uplix-scheduler",
		Usage:                 "Publish due scheduled posts to the social platform",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
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
				Name:     "instagram-account-id",
				Usage:    "Instagram account the posts are published on",
				Required: true,
				Sources:  cli.EnvVars("INSTAGRAM_ACCOUNT_ID"),
			},
			&cli.StringFlag{
				Name:     "instagram-access-token",
				Usage:    "Instagram Graph API access token",
				Required: true,
				Sources:  cli.EnvVars("INSTAGRAM_ACCESS_TOKEN"),
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

			logger.InfoContext(ctx, "Initializing uplix-flow scheduler")

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

			dispatcher := NewDispatcher(
				logger,
				services.NewScheduledPost(persistence),
				instagram.NewClient(instagram.Config{Logger: logger}),
				protocol.Credentials{
					AccountID:   command.String("instagram-account-id"),
					AccessToken: command.String("instagram-access-token"),
				},
				eventBus,
			)

			if err := dispatcher.Start(ctx); err != nil {
				return err
			}
			defer dispatcher.Stop()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			select {
			case <-ctx.Done():
			case <-stop:
				logger.InfoContext(ctx, "Shutting down scheduler")
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
