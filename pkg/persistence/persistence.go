// Package persistence provides the data storage abstraction for workspaces
// and scheduled posts.
package persistence

import (
	"context"
	"time"

	"github.com/uplix/flow/pkg/models"
)

// WorkspaceRepository stores workflow graphs. List returns workspaces most
// recently updated first and never includes soft-deleted ones.
type WorkspaceRepository interface {
	List(ctx context.Context, owner string) ([]*models.Workspace, error)
	GetByID(ctx context.Context, id string) (*models.Workspace, error)
	Save(ctx context.Context, workspace *models.Workspace) error
	Delete(ctx context.Context, id string) error
}

// ScheduledPostRepository stores posts queued for publishing. Due returns
// posts still in the scheduled state whose schedule time has passed.
type ScheduledPostRepository interface {
	List(ctx context.Context, owner string) ([]*models.ScheduledPost, error)
	GetByID(ctx context.Context, id string) (*models.ScheduledPost, error)
	Save(ctx context.Context, post *models.ScheduledPost) error
	Delete(ctx context.Context, id string) error
	Due(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error)
}

// Persistence bundles the repositories behind one backend connection.
type Persistence interface {
	WorkspaceRepository() WorkspaceRepository
	ScheduledPostRepository() ScheduledPostRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
