package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uplix/flow/pkg/graph"
	"github.com/uplix/flow/pkg/models"
	"github.com/uplix/flow/pkg/persistence"
)

var (
	// ErrWorkspaceNotFound is returned when a workspace is not found.
	ErrWorkspaceNotFound = persistence.ErrWorkspaceNotFound
)

// Workspace manages workspace CRUD and the graph mutation surface. Every
// mutation loads the workspace, applies the change through pkg/graph and saves
// the whole document back, so persistence only ever sees complete graphs.
type Workspace struct {
	persistence persistence.Persistence
}

// NewWorkspace creates a new workspace service.
func NewWorkspace(persistence persistence.Persistence) *Workspace {
	return &Workspace{
		persistence: persistence,
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Workspace) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List retrieves workspaces, most recently updated first, optionally filtered
// by owner.
func (s *Workspace) List(ctx context.Context, owner string) ([]*models.Workspace, error) {
	workspaces, err := s.persistence.WorkspaceRepository().List(ctx, strings.TrimSpace(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}

	return workspaces, nil
}

// FetchByID retrieves a workspace by its ID.
func (s *Workspace) FetchByID(ctx context.Context, id string) (*models.Workspace, error) {
	return s.persistence.WorkspaceRepository().GetByID(ctx, id)
}

// Create adds a new workspace to the repository.
func (s *Workspace) Create(ctx context.Context, workspace *models.Workspace) (*models.Workspace, error) {
	if workspace == nil {
		return nil, ErrWorkspaceNil
	}

	if strings.TrimSpace(workspace.Name) == "" {
		return nil, NewValidationError("Create", "WORKSPACE_NAME_REQUIRED",
			"workspace name must not be empty", ErrWorkspaceNameRequired)
	}

	now := time.Now().UTC()
	workspace.ID = uuid.New().String()
	workspace.CreatedAt = now
	workspace.UpdatedAt = now
	workspace.DeletedAt = nil

	if err := s.persistence.WorkspaceRepository().Save(ctx, workspace); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	return workspace, nil
}

// Update modifies an existing workspace by its ID. The stored creation time
// is preserved.
func (s *Workspace) Update(ctx context.Context, workspaceID string, workspace *models.Workspace) (*models.Workspace, error) {
	if workspace == nil {
		return nil, ErrWorkspaceNil
	}

	existing, err := s.persistence.WorkspaceRepository().GetByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(workspace.Name) == "" {
		workspace.Name = existing.Name
	}

	workspace.ID = workspaceID
	workspace.Owner = existing.Owner
	workspace.CreatedAt = existing.CreatedAt
	workspace.UpdatedAt = time.Now().UTC()

	if err := s.persistence.WorkspaceRepository().Save(ctx, workspace); err != nil {
		return nil, fmt.Errorf("failed to update workspace: %w", err)
	}

	return workspace, nil
}

// Delete removes a workspace by its ID.
func (s *Workspace) Delete(ctx context.Context, workspaceID string) error {
	if err := s.persistence.WorkspaceRepository().Delete(ctx, workspaceID); err != nil {
		return err
	}

	return nil
}

// AddNode appends a node to the workspace graph. A missing node id is filled
// with a fresh UUID.
func (s *Workspace) AddNode(ctx context.Context, workspaceID string, node *models.Node) (*models.Node, error) {
	workspace, err := s.FetchByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	if node.ID == "" {
		node.ID = uuid.New().String()
	}

	if err := graph.AddNode(&workspace.Graph, node); err != nil {
		return nil, err
	}

	if err := s.save(ctx, workspace); err != nil {
		return nil, err
	}

	return node, nil
}

// Connect adds an edge between two nodes in the workspace graph.
func (s *Workspace) Connect(ctx context.Context, workspaceID, source, target string) (*models.Edge, error) {
	workspace, err := s.FetchByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	edge, err := graph.Connect(&workspace.Graph, uuid.New().String(), source, target)
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, workspace); err != nil {
		return nil, err
	}

	return edge, nil
}

// Disconnect removes an edge from the workspace graph.
func (s *Workspace) Disconnect(ctx context.Context, workspaceID, edgeID string) error {
	workspace, err := s.FetchByID(ctx, workspaceID)
	if err != nil {
		return err
	}

	if err := graph.Disconnect(&workspace.Graph, edgeID); err != nil {
		return err
	}

	return s.save(ctx, workspace)
}

// UpdateNodeData replaces a node's data record in the workspace graph.
func (s *Workspace) UpdateNodeData(ctx context.Context, workspaceID, nodeID string, data models.NodeData) error {
	workspace, err := s.FetchByID(ctx, workspaceID)
	if err != nil {
		return err
	}

	if err := graph.UpdateNodeData(&workspace.Graph, nodeID, data); err != nil {
		return err
	}

	return s.save(ctx, workspace)
}

func (s *Workspace) save(ctx context.Context, workspace *models.Workspace) error {
	workspace.UpdatedAt = time.Now().UTC()

	if err := s.persistence.WorkspaceRepository().Save(ctx, workspace); err != nil {
		return fmt.Errorf("failed to save workspace: %w", err)
	}

	return nil
}
