package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/uplix/flow/pkg/models"
	"github.com/uplix/flow/pkg/persistence"
)

var (
	// ErrScheduledPostNotFound is returned when a scheduled post is not found.
	ErrScheduledPostNotFound = persistence.ErrScheduledPostNotFound
)

// ScheduledPost manages the queue of posts waiting to be published.
type ScheduledPost struct {
	persistence persistence.Persistence
	validator   *validator.Validate
}

// NewScheduledPost creates a new scheduled post service.
func NewScheduledPost(persistence persistence.Persistence) *ScheduledPost {
	return &ScheduledPost{
		persistence: persistence,
		validator:   validator.New(),
	}
}

// List retrieves scheduled posts, soonest schedule time first, optionally
// filtered by owner.
func (s *ScheduledPost) List(ctx context.Context, owner string) ([]*models.ScheduledPost, error) {
	posts, err := s.persistence.ScheduledPostRepository().List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled posts: %w", err)
	}

	return posts, nil
}

// FetchByID retrieves a scheduled post by its ID.
func (s *ScheduledPost) FetchByID(ctx context.Context, id string) (*models.ScheduledPost, error) {
	return s.persistence.ScheduledPostRepository().GetByID(ctx, id)
}

// Create queues a new post. The media URL must already be durable; status
// always starts out scheduled.
func (s *ScheduledPost) Create(ctx context.Context, post *models.ScheduledPost) (*models.ScheduledPost, error) {
	if post == nil {
		return nil, ErrPostNil
	}

	if err := s.validator.Struct(post); err != nil {
		return nil, NewValidationError("Create", "INVALID_SCHEDULED_POST", err.Error(), ErrInvalidRequest)
	}

	now := time.Now().UTC()
	post.ID = uuid.New().String()
	post.Status = models.ScheduledPostStatusScheduled
	post.Error = ""
	post.CreatedAt = now
	post.UpdatedAt = now

	if err := s.persistence.ScheduledPostRepository().Save(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create scheduled post: %w", err)
	}

	return post, nil
}

// Delete removes a scheduled post by its ID.
func (s *ScheduledPost) Delete(ctx context.Context, id string) error {
	return s.persistence.ScheduledPostRepository().Delete(ctx, id)
}

// Due retrieves posts still scheduled whose schedule time has passed.
func (s *ScheduledPost) Due(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	posts, err := s.persistence.ScheduledPostRepository().Due(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list due posts: %w", err)
	}

	return posts, nil
}

// MarkPublished transitions a post to published and clears any previous
// error.
func (s *ScheduledPost) MarkPublished(ctx context.Context, id string) error {
	return s.transition(ctx, id, models.ScheduledPostStatusPublished, "")
}

// MarkFailed transitions a post to failed, recording the cause.
func (s *ScheduledPost) MarkFailed(ctx context.Context, id, cause string) error {
	return s.transition(ctx, id, models.ScheduledPostStatusFailed, cause)
}

func (s *ScheduledPost) transition(ctx context.Context, id string, status models.ScheduledPostStatus, cause string) error {
	post, err := s.FetchByID(ctx, id)
	if err != nil {
		return err
	}

	post.Status = status
	post.Error = cause
	post.UpdatedAt = time.Now().UTC()

	if err := s.persistence.ScheduledPostRepository().Save(ctx, post); err != nil {
		return fmt.Errorf("failed to update scheduled post %s: %w", id, err)
	}

	return nil
}
