// Package file provides file-based persistence for workspaces and scheduled
// posts. Each record is one JSON document; suitable for development and small
// single-node deployments.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/uplix/flow/pkg/models"
	"github.com/uplix/flow/pkg/persistence"
)

const (
	workspacesDir     = "workspaces"
	scheduledPostsDir = "scheduled_posts"

	dirPerm  = 0o755
	filePerm = 0o644
)

// Persistence implements persistence.Persistence on the local filesystem.
type Persistence struct {
	root          string
	workspaceRepo *WorkspaceRepository
	postRepo      *ScheduledPostRepository
}

// NewPersistence creates a file persistence layer rooted at the given
// directory. A file:// prefix is stripped, matching the persistence URL
// scheme used in configuration.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:          cleanRoot,
		workspaceRepo: &WorkspaceRepository{dir: filepath.Join(cleanRoot, workspacesDir)},
		postRepo:      &ScheduledPostRepository{dir: filepath.Join(cleanRoot, scheduledPostsDir)},
	}
}

// WorkspaceRepository returns the workspace repository.
func (p *Persistence) WorkspaceRepository() persistence.WorkspaceRepository {
	return p.workspaceRepo
}

// ScheduledPostRepository returns the scheduled post repository.
func (p *Persistence) ScheduledPostRepository() persistence.ScheduledPostRepository {
	return p.postRepo
}

// HealthCheck verifies the root directory is usable, creating it if needed.
func (p *Persistence) HealthCheck(_ context.Context) error {
	return os.MkdirAll(p.root, dirPerm)
}

// Close performs any necessary cleanup. For file-based persistence, there is
// nothing to clean up.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// WorkspaceRepository stores one JSON file per workspace.
type WorkspaceRepository struct {
	dir string
}

// List returns non-deleted workspaces, most recently updated first. An owner
// filter narrows the result when non-empty.
func (r *WorkspaceRepository) List(_ context.Context, owner string) ([]*models.Workspace, error) {
	workspaces, err := readAll[models.Workspace](r.dir)
	if err != nil {
		return nil, persistence.NewWorkspaceError("List", "", err)
	}

	filtered := make([]*models.Workspace, 0, len(workspaces))

	for _, workspace := range workspaces {
		if workspace.DeletedAt != nil {
			continue
		}

		if owner != "" && workspace.Owner != owner {
			continue
		}

		filtered = append(filtered, workspace)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].UpdatedAt.After(filtered[j].UpdatedAt)
	})

	return filtered, nil
}

// GetByID returns a workspace by ID. Soft-deleted workspaces read as not
// found.
func (r *WorkspaceRepository) GetByID(_ context.Context, id string) (*models.Workspace, error) {
	workspace, err := readOne[models.Workspace](r.dir, id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.NewWorkspaceError("GetByID", id, persistence.ErrWorkspaceNotFound)
		}

		return nil, persistence.NewWorkspaceError("GetByID", id, err)
	}

	if workspace.DeletedAt != nil {
		return nil, persistence.NewWorkspaceError("GetByID", id, persistence.ErrWorkspaceNotFound)
	}

	return workspace, nil
}

// Save writes the workspace document, replacing any previous version.
func (r *WorkspaceRepository) Save(_ context.Context, workspace *models.Workspace) error {
	if err := writeOne(r.dir, workspace.ID, workspace); err != nil {
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

	if err := writeOne(r.dir, id, workspace); err != nil {
		return persistence.NewWorkspaceError("Delete", id, err)
	}

	return nil
}

// ScheduledPostRepository stores one JSON file per scheduled post.
type ScheduledPostRepository struct {
	dir string
}

// List returns scheduled posts, soonest schedule time first. An owner filter
// narrows the result when non-empty.
func (r *ScheduledPostRepository) List(_ context.Context, owner string) ([]*models.ScheduledPost, error) {
	posts, err := readAll[models.ScheduledPost](r.dir)
	if err != nil {
		return nil, persistence.NewScheduledPostError("List", "", err)
	}

	filtered := make([]*models.ScheduledPost, 0, len(posts))

	for _, post := range posts {
		if owner != "" && post.Owner != owner {
			continue
		}

		filtered = append(filtered, post)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].ScheduleTime.Before(filtered[j].ScheduleTime)
	})

	return filtered, nil
}

// GetByID returns a scheduled post by ID.
func (r *ScheduledPostRepository) GetByID(_ context.Context, id string) (*models.ScheduledPost, error) {
	post, err := readOne[models.ScheduledPost](r.dir, id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.NewScheduledPostError("GetByID", id, persistence.ErrScheduledPostNotFound)
		}

		return nil, persistence.NewScheduledPostError("GetByID", id, err)
	}

	return post, nil
}

// Save writes the post document, replacing any previous version.
func (r *ScheduledPostRepository) Save(_ context.Context, post *models.ScheduledPost) error {
	if err := writeOne(r.dir, post.ID, post); err != nil {
		return persistence.NewScheduledPostError("Save", post.ID, err)
	}

	return nil
}

// Delete removes the post document.
func (r *ScheduledPostRepository) Delete(_ context.Context, id string) error {
	err := os.Remove(filepath.Join(r.dir, id+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return persistence.NewScheduledPostError("Delete", id, persistence.ErrScheduledPostNotFound)
		}

		return persistence.NewScheduledPostError("Delete", id, err)
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

func readOne[T any](dir, id string) (*T, error) {
	data, err := os.ReadFile(filepath.Join(dir, id+".json"))
	if err != nil {
		return nil, err
	}

	var record T
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", id, err)
	}

	return &record, nil
}

func readAll[T any](dir string) ([]*T, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, err
	}

	records := make([]*T, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		record, err := readOne[T](dir, strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	return records, nil
}

func writeOne(dir, id string, record any) error {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return err
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", id, err)
	}

	return os.WriteFile(filepath.Join(dir, id+".json"), data, filePerm)
}
