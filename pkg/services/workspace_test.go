package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uplix/flow/pkg/graph"
	"github.com/uplix/flow/pkg/models"
	"github.com/uplix/flow/pkg/persistence"
	"github.com/uplix/flow/pkg/persistence/file"
	"github.com/uplix/flow/pkg/services"
)

func newWorkspaceService(t *testing.T) *services.Workspace {
	t.Helper()

	return services.NewWorkspace(file.NewPersistence(t.TempDir()))
}

func createWorkspace(t *testing.T, service *services.Workspace, name string) *models.Workspace {
	t.Helper()

	workspace, err := service.Create(context.Background(), &models.Workspace{Name: name})
	require.NoError(t, err)

	return workspace
}

func TestWorkspaceCreate(t *testing.T) {
	t.Parallel()

	t.Run("assigns id and timestamps", func(t *testing.T) {
		t.Parallel()

		service := newWorkspaceService(t)

		workspace, err := service.Create(context.Background(), &models.Workspace{Name: "Summer campaign"})
		require.NoError(t, err)

		assert.NotEmpty(t, workspace.ID)
		assert.False(t, workspace.CreatedAt.IsZero())
		assert.Equal(t, workspace.CreatedAt, workspace.UpdatedAt)

		stored, err := service.FetchByID(context.Background(), workspace.ID)
		require.NoError(t, err)
		assert.Equal(t, "Summer campaign", stored.Name)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		t.Parallel()

		service := newWorkspaceService(t)

		_, err := service.Create(context.Background(), &models.Workspace{Name: "   "})
		require.Error(t, err)
		assert.ErrorIs(t, err, services.ErrWorkspaceNameRequired)
		assert.True(t, services.IsValidationError(err))
	})

	t.Run("rejects nil workspace", func(t *testing.T) {
		t.Parallel()

		service := newWorkspaceService(t)

		_, err := service.Create(context.Background(), nil)
		assert.ErrorIs(t, err, services.ErrWorkspaceNil)
	})
}

func TestWorkspaceUpdate(t *testing.T) {
	t.Parallel()

	t.Run("preserves creation time", func(t *testing.T) {
		t.Parallel()

		service := newWorkspaceService(t)
		created := createWorkspace(t, service, "Draft")

		updated, err := service.Update(context.Background(), created.ID, &models.Workspace{Name: "Final"})
		require.NoError(t, err)

		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)
		assert.Equal(t, "Final", updated.Name)
	})

	t.Run("keeps the stored name when blank", func(t *testing.T) {
		t.Parallel()

		service := newWorkspaceService(t)
		created := createWorkspace(t, service, "Keep me")

		updated, err := service.Update(context.Background(), created.ID, &models.Workspace{})
		require.NoError(t, err)
		assert.Equal(t, "Keep me", updated.Name)
	})

	t.Run("unknown workspace", func(t *testing.T) {
		t.Parallel()

		service := newWorkspaceService(t)

		_, err := service.Update(context.Background(), "missing", &models.Workspace{Name: "x"})
		assert.True(t, persistence.IsWorkspaceNotFound(err))
	})
}

func TestWorkspaceDelete(t *testing.T) {
	t.Parallel()

	service := newWorkspaceService(t)
	created := createWorkspace(t, service, "Short lived")

	require.NoError(t, service.Delete(context.Background(), created.ID))

	_, err := service.FetchByID(context.Background(), created.ID)
	assert.True(t, persistence.IsWorkspaceNotFound(err))
}

func TestWorkspaceList(t *testing.T) {
	t.Parallel()

	service := newWorkspaceService(t)
	createWorkspace(t, service, "First")
	createWorkspace(t, service, "Second")

	workspaces, err := service.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, workspaces, 2)
}

func TestWorkspaceGraphMutations(t *testing.T) {
	t.Parallel()

	t.Run("add node assigns id and persists", func(t *testing.T) {
		t.Parallel()

		service := newWorkspaceService(t)
		workspace := createWorkspace(t, service, "Graph")

		node, err := service.AddNode(context.Background(), workspace.ID, &models.Node{Kind: models.NodeKindText})
		require.NoError(t, err)
		assert.NotEmpty(t, node.ID)

		stored, err := service.FetchByID(context.Background(), workspace.ID)
		require.NoError(t, err)
		require.Len(t, stored.Graph.Nodes, 1)
		assert.Equal(t, node.ID, stored.Graph.Nodes[0].ID)
	})

	t.Run("duplicate node id is a validation error", func(t *testing.T) {
		t.Parallel()

		service := newWorkspaceService(t)
		workspace := createWorkspace(t, service, "Graph")

		_, err := service.AddNode(context.Background(), workspace.ID, &models.Node{ID: "n1", Kind: models.NodeKindText})
		require.NoError(t, err)

		_, err = service.AddNode(context.Background(), workspace.ID, &models.Node{ID: "n1", Kind: models.NodeKindImage})
		require.Error(t, err)
		assert.ErrorIs(t, err, graph.ErrDuplicateNodeID)
		assert.True(t, services.IsValidationError(err))
	})

	t.Run("connect rejects cycles", func(t *testing.T) {
		t.Parallel()

		service := newWorkspaceService(t)
		workspace := createWorkspace(t, service, "Graph")

		_, err := service.AddNode(context.Background(), workspace.ID, &models.Node{ID: "a", Kind: models.NodeKindText})
		require.NoError(t, err)
		_, err = service.AddNode(context.Background(), workspace.ID, &models.Node{ID: "b", Kind: models.NodeKindImage})
		require.NoError(t, err)

		edge, err := service.Connect(context.Background(), workspace.ID, "a", "b")
		require.NoError(t, err)
		assert.NotEmpty(t, edge.ID)

		_, err = service.Connect(context.Background(), workspace.ID, "b", "a")
		require.Error(t, err)
		assert.ErrorIs(t, err, graph.ErrCycle)
		assert.True(t, services.IsValidationError(err))
	})

	t.Run("disconnect removes the edge", func(t *testing.T) {
		t.Parallel()

		service := newWorkspaceService(t)
		workspace := createWorkspace(t, service, "Graph")

		_, err := service.AddNode(context.Background(), workspace.ID, &models.Node{ID: "a", Kind: models.NodeKindText})
		require.NoError(t, err)
		_, err = service.AddNode(context.Background(), workspace.ID, &models.Node{ID: "b", Kind: models.NodeKindImage})
		require.NoError(t, err)

		edge, err := service.Connect(context.Background(), workspace.ID, "a", "b")
		require.NoError(t, err)

		require.NoError(t, service.Disconnect(context.Background(), workspace.ID, edge.ID))

		stored, err := service.FetchByID(context.Background(), workspace.ID)
		require.NoError(t, err)
		assert.Empty(t, stored.Graph.Edges)
	})

	t.Run("update node data rejects kind mismatch", func(t *testing.T) {
		t.Parallel()

		service := newWorkspaceService(t)
		workspace := createWorkspace(t, service, "Graph")

		_, err := service.AddNode(context.Background(), workspace.ID, &models.Node{ID: "a", Kind: models.NodeKindText})
		require.NoError(t, err)

		err = service.UpdateNodeData(context.Background(), workspace.ID, "a", &models.ImageData{Model: "gpt-image-1"})
		require.Error(t, err)
		assert.ErrorIs(t, err, graph.ErrKindMismatch)

		err = service.UpdateNodeData(context.Background(), workspace.ID, "a", &models.TextData{Text: "a red fox"})
		require.NoError(t, err)

		stored, err := service.FetchByID(context.Background(), workspace.ID)
		require.NoError(t, err)

		data, ok := stored.Graph.NodeByID("a").Data.(*models.TextData)
		require.True(t, ok)
		assert.Equal(t, "a red fox", data.Text)
	})
}

func TestWorkspaceHealthCheck(t *testing.T) {
	t.Parallel()

	service := newWorkspaceService(t)

	message, healthy := service.HealthCheck(context.Background())
	assert.True(t, healthy)
	assert.Contains(t, message, "healthy")
}
