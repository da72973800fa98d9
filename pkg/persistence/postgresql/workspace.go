package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uplix/flow/pkg/models"
	"github.com/uplix/flow/pkg/persistence"
)

// WorkspaceRepository implements persistence.WorkspaceRepository on
// PostgreSQL.
type WorkspaceRepository struct {
	db *sql.DB
}

const workspaceColumns = "id, name, graph, owner, created_at, updated_at, deleted_at"

// List returns non-deleted workspaces, most recently updated first.
func (r *WorkspaceRepository) List(ctx context.Context, owner string) ([]*models.Workspace, error) {
	query := "SELECT " + workspaceColumns + " FROM workspaces WHERE deleted_at IS NULL"
	args := []any{}

	if owner != "" {
		query += " AND owner = $1"

		args = append(args, owner)
	}

	query += " ORDER BY updated_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence.NewWorkspaceError("List", "", err)
	}
	defer rows.Close()

	var workspaces []*models.Workspace

	for rows.Next() {
		workspace, err := scanWorkspace(rows)
		if err != nil {
			return nil, persistence.NewWorkspaceError("List", "", err)
		}

		workspaces = append(workspaces, workspace)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewWorkspaceError("List", "", err)
	}

	return workspaces, nil
}

// GetByID returns a workspace by ID. Soft-deleted workspaces read as not
// found.
func (r *WorkspaceRepository) GetByID(ctx context.Context, id string) (*models.Workspace, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+workspaceColumns+" FROM workspaces WHERE id = $1 AND deleted_at IS NULL", id)

	workspace, err := scanWorkspace(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWorkspaceError("GetByID", id, persistence.ErrWorkspaceNotFound)
		}

		return nil, persistence.NewWorkspaceError("GetByID", id, err)
	}

	return workspace, nil
}

// Save upserts the workspace with its graph document.
func (r *WorkspaceRepository) Save(ctx context.Context, workspace *models.Workspace) error {
	graph, err := json.Marshal(workspace.Graph)
	if err != nil {
		return persistence.NewWorkspaceError("Save", workspace.ID, fmt.Errorf("failed to encode graph: %w", err))
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO workspaces (id, name, graph, owner, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			graph = EXCLUDED.graph,
			owner = EXCLUDED.owner,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at
	`, workspace.ID, workspace.Name, graph, nullString(workspace.Owner),
		workspace.CreatedAt, workspace.UpdatedAt, workspace.DeletedAt)
	if err != nil {
		return persistence.NewWorkspaceError("Save", workspace.ID, err)
	}

	return nil
}

// Delete soft-deletes the workspace by stamping deleted_at.
func (r *WorkspaceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE workspaces SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL",
		time.Now().UTC(), id)
	if err != nil {
		return persistence.NewWorkspaceError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWorkspaceError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewWorkspaceError("Delete", id, persistence.ErrWorkspaceNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkspace(row rowScanner) (*models.Workspace, error) {
	var (
		workspace models.Workspace
		graph     []byte
		owner     sql.NullString
		deletedAt sql.NullTime
	)

	err := row.Scan(&workspace.ID, &workspace.Name, &graph, &owner,
		&workspace.CreatedAt, &workspace.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(graph, &workspace.Graph); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}

	workspace.Owner = owner.String

	if deletedAt.Valid {
		workspace.DeletedAt = &deletedAt.Time
	}

	return &workspace, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
