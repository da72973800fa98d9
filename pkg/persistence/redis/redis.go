// Package redis provides Redis persistence for workspaces and scheduled
// posts. Records are JSON documents in hashes, one hash per record type.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/uplix/flow/pkg/models"
	"github.com/uplix/flow/pkg/persistence"
)

const (
	workspacesKey     = "uplix:workspaces"
	scheduledPostsKey = "uplix:scheduled_posts"
)

// Persistence implements persistence.Persistence on Redis.
type Persistence struct {
	client        redis.UniversalClient
	workspaceRepo *WorkspaceRepository
	postRepo      *ScheduledPostRepository
}

// NewPersistence connects to Redis using a redis:// URL.
func NewPersistence(redisURL string) (*Persistence, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(options)

	return &Persistence{
		client:        client,
		workspaceRepo: &WorkspaceRepository{client: client},
		postRepo:      &ScheduledPostRepository{client: client},
	}, nil
}

// WorkspaceRepository returns the workspace repository.
func (p *Persistence) WorkspaceRepository() persistence.WorkspaceRepository {
	return p.workspaceRepo
}

// ScheduledPostRepository returns the scheduled post repository.
func (p *Persistence) ScheduledPostRepository() persistence.ScheduledPostRepository {
	return p.postRepo
}

// HealthCheck pings the server.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close closes the client connection.
func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

// WorkspaceRepository stores workspaces in one hash keyed by workspace ID.
type WorkspaceRepository struct {
	client redis.UniversalClient
}

// List returns non-deleted workspaces, most recently updated first.
func (r *WorkspaceRepository) List(ctx context.Context, owner string) ([]*models.Workspace, error) {
	records, err := r.client.HGetAll(ctx, workspacesKey).Result()
	if err != nil {
		return nil, persistence.NewWorkspaceError("List", "", err)
	}

	workspaces := make([]*models.Workspace, 0, len(records))

	for id, raw := range records {
		var workspace models.Workspace
		if err := json.Unmarshal([]byte(raw), &workspace); err != nil {
			return nil, persistence.NewWorkspaceError("List", id, err)
		}

		if workspace.DeletedAt != nil {
			continue
		}

		if owner != "" && workspace.Owner != owner {
			continue
		}

		workspaces = append(workspaces, &workspace)
	}

	sort.Slice(workspaces, func(i, j int) bool {
		return workspaces[i].UpdatedAt.After(workspaces[j].UpdatedAt)
	})

	return workspaces, nil
}

// GetByID returns a workspace by ID. Soft-deleted workspaces read as not
// found.
func (r *WorkspaceRepository) GetByID(ctx context.Context, id string) (*models.Workspace, error) {
	raw, err := r.client.HGet(ctx, workspacesKey, id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.NewWorkspaceError("GetByID", id, persistence.ErrWorkspaceNotFound)
		}

		return nil, persistence.NewWorkspaceError("GetByID", id, err)
	}

	var workspace models.Workspace
	if err := json.Unmarshal([]byte(raw), &workspace); err != nil {
		return nil, persistence.NewWorkspaceError("GetByID", id, err)
	}

	if workspace.DeletedAt != nil {
		return nil, persistence.NewWorkspaceError("GetByID", id, persistence.ErrWorkspaceNotFound)
	}

	return &workspace, nil
}

// Save writes the workspace document.
func (r *WorkspaceRepository) Save(ctx context.Context, workspace *models.Workspace) error {
	raw, err := json.Marshal(workspace)
	if err != nil {
		return persistence.NewWorkspaceError("Save", workspace.ID, err)
	}

	if err := r.client.HSet(ctx, workspacesKey, workspace.ID, raw).Err(); err != nil {
		return persistence.NewWorkspaceError("Save", workspace.ID, err)
	}

	return nil
}

// Delete soft-deletes the workspace by stamping deleted_at.
func (r *WorkspaceRepository) Delete(ctx context.Context, id string) error {
	workspace, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	workspace.DeletedAt = &now

	return r.Save(ctx, workspace)
}

// ScheduledPostRepository stores posts in one hash keyed by post ID.
type ScheduledPostRepository struct {
	client redis.UniversalClient
}

// List returns scheduled posts, soonest schedule time first.
func (r *ScheduledPostRepository) List(ctx context.Context, owner string) ([]*models.ScheduledPost, error) {
	records, err := r.client.HGetAll(ctx, scheduledPostsKey).Result()
	if err != nil {
		return nil, persistence.NewScheduledPostError("List", "", err)
	}

	posts := make([]*models.ScheduledPost, 0, len(records))

	for id, raw := range records {
		var post models.ScheduledPost
		if err := json.Unmarshal([]byte(raw), &post); err != nil {
			return nil, persistence.NewScheduledPostError("List", id, err)
		}

		if owner != "" && post.Owner != owner {
			continue
		}

		posts = append(posts, &post)
	}

	sort.Slice(posts, func(i, j int) bool {
		return posts[i].ScheduleTime.Before(posts[j].ScheduleTime)
	})

	return posts, nil
}

// GetByID returns a scheduled post by ID.
func (r *ScheduledPostRepository) GetByID(ctx context.Context, id string) (*models.ScheduledPost, error) {
	raw, err := r.client.HGet(ctx, scheduledPostsKey, id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.NewScheduledPostError("GetByID", id, persistence.ErrScheduledPostNotFound)
		}

		return nil, persistence.NewScheduledPostError("GetByID", id, err)
	}

	var post models.ScheduledPost
	if err := json.Unmarshal([]byte(raw), &post); err != nil {
		return nil, persistence.NewScheduledPostError("GetByID", id, err)
	}

	return &post, nil
}

// Save writes the post document.
func (r *ScheduledPostRepository) Save(ctx context.Context, post *models.ScheduledPost) error {
	raw, err := json.Marshal(post)
	if err != nil {
		return persistence.NewScheduledPostError("Save", post.ID, err)
	}

	if err := r.client.HSet(ctx, scheduledPostsKey, post.ID, raw).Err(); err != nil {
		return persistence.NewScheduledPostError("Save", post.ID, err)
	}

	return nil
}

// Delete removes the post document.
func (r *ScheduledPostRepository) Delete(ctx context.Context, id string) error {
	removed, err := r.client.HDel(ctx, scheduledPostsKey, id).Result()
	if err != nil {
		return persistence.NewScheduledPostError("Delete", id, err)
	}

	if removed == 0 {
		return persistence.NewScheduledPostError("Delete", id, persistence.ErrScheduledPostNotFound)
	}

	return nil
}

// Due returns posts still scheduled whose schedule time has passed.
func (r *ScheduledPostRepository) Due(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	posts, err := r.List(ctx, "")
	if err != nil {
		return nil, err
	}

	due := make([]*models.ScheduledPost, 0)

	for _, post := range posts {
		if post.Status == models.ScheduledPostStatusScheduled && !post.ScheduleTime.After(now) {
			due = append(due, post)
		}
	}

	return due, nil
}
