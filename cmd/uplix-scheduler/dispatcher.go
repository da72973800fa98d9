// Package main provides the uplix-flow scheduler: a cron-driven dispatcher
// that publishes due scheduled posts to the social platform.
package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/uplix/flow/pkg/eventbus"
	"github.com/uplix/flow/pkg/events"
	"github.com/uplix/flow/pkg/models"
	"github.com/uplix/flow/pkg/protocol"
	"github.com/uplix/flow/pkg/services"
)

// sweepSchedule fires once a minute, the finest granularity schedule times
// are stored at.
const sweepSchedule = "* * * * *"

type Dispatcher struct {
	logger    *slog.Logger
	posts     *services.ScheduledPost
	publisher protocol.Publisher
	creds     protocol.Credentials
	bus       eventbus.EventPublisher
	cron      *cron.Cron
}

// NewDispatcher creates a dispatcher. The bus may be nil.
func NewDispatcher(
	logger *slog.Logger,
	posts *services.ScheduledPost,
	publisher protocol.Publisher,
	creds protocol.Credentials,
	bus eventbus.EventPublisher,
) *Dispatcher {
	return &Dispatcher{
		logger:    logger.With("module", "dispatcher"),
		posts:     posts,
		publisher: publisher,
		creds:     creds,
		bus:       bus,
	}
}

// Start begins the periodic sweep. A sweep still running when the next tick
// fires is skipped rather than stacked.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	if _, err := d.cron.AddFunc(sweepSchedule, func() {
		d.Sweep(ctx)
	}); err != nil {
		return err
	}

	d.cron.Start()
	d.logger.InfoContext(ctx, "Scheduler started", "schedule", sweepSchedule)

	return nil
}

// Stop halts the cron loop. Running sweeps finish.
func (d *Dispatcher) Stop() {
	if d.cron != nil {
		d.cron.Stop()
	}
}

// Sweep publishes every post whose schedule time has passed. Failures are
// recorded on the post; the sweep continues with the rest.
func (d *Dispatcher) Sweep(ctx context.Context) {
	due, err := d.posts.Due(ctx, time.Now().UTC())
	if err != nil {
		d.logger.ErrorContext(ctx, "Failed to list due posts", "error", err)

		return
	}

	for _, post := range due {
		d.dispatch(ctx, post)
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, post *models.ScheduledPost) {
	logger := d.logger.With("post_id", post.ID, "media_type", post.MediaType)

	var (
		platformID string
		err        error
	)

	switch post.MediaType {
	case "video":
		platformID, err = d.publisher.PublishReel(ctx, d.creds, post.MediaURL, post.Caption)
	default:
		platformID, err = d.publisher.PublishPost(ctx, d.creds, post.MediaURL, post.Caption)
	}

	if err != nil {
		logger.ErrorContext(ctx, "Failed to publish post", "error", err)

		if markErr := d.posts.MarkFailed(ctx, post.ID, err.Error()); markErr != nil {
			logger.ErrorContext(ctx, "Failed to record publish failure", "error", markErr)
		}

		d.publish(ctx, events.PostFailed{
			BaseEvent: d.baseEvent(events.PostFailedEvent),
			PostID:    post.ID,
			Error:     err.Error(),
		})

		return
	}

	if err := d.posts.MarkPublished(ctx, post.ID); err != nil {
		logger.ErrorContext(ctx, "Failed to mark post published", "error", err)

		return
	}

	logger.InfoContext(ctx, "Published post", "platform_id", platformID)

	d.publish(ctx, events.PostPublished{
		BaseEvent:  d.baseEvent(events.PostPublishedEvent),
		PostID:     post.ID,
		MediaType:  post.MediaType,
		PlatformID: platformID,
	})
}

func (d *Dispatcher) baseEvent(eventType events.EventType) events.BaseEvent {
	return events.BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

func (d *Dispatcher) publish(ctx context.Context, event eventbus.Event) {
	if d.bus == nil {
		return
	}

	if err := d.bus.Publish(ctx, string(event.GetType()), event); err != nil {
		d.logger.WarnContext(ctx, "Failed to publish lifecycle event",
			"event_type", event.GetType(), "error", err)
	}
}
