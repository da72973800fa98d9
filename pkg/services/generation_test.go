package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uplix/flow/pkg/eventbus"
	"github.com/uplix/flow/pkg/events"
	"github.com/uplix/flow/pkg/graph"
	"github.com/uplix/flow/pkg/models"
	"github.com/uplix/flow/pkg/persistence/file"
	"github.com/uplix/flow/pkg/registry"
	"github.com/uplix/flow/pkg/services"
)

type capturingBus struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (b *capturingBus) Publish(_ context.Context, _ string, event eventbus.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, event)

	return nil
}

func (b *capturingBus) types() []events.EventType {
	b.mu.Lock()
	defer b.mu.Unlock()

	kinds := make([]events.EventType, 0, len(b.events))
	for _, event := range b.events {
		kinds = append(kinds, event.GetType())
	}

	return kinds
}

type generationFixture struct {
	workspaces *services.Workspace
	generation *services.Generation
	bus        *capturingBus
}

func newGenerationFixture(t *testing.T, executor registry.Executor) *generationFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	persistence := file.NewPersistence(t.TempDir())

	reg := registry.NewRegistry(logger)
	reg.RegisterExecutor(models.NodeKindImage, executor)

	bus := &capturingBus{}

	return &generationFixture{
		workspaces: services.NewWorkspace(persistence),
		generation: services.NewGeneration(logger, persistence, reg, bus),
		bus:        bus,
	}
}

// seedGraph builds a text -> image workspace and returns its id.
func (f *generationFixture) seedGraph(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	workspace, err := f.workspaces.Create(ctx, &models.Workspace{Name: "Campaign"})
	require.NoError(t, err)

	_, err = f.workspaces.AddNode(ctx, workspace.ID, &models.Node{
		ID:   "prompt",
		Kind: models.NodeKindText,
		Data: &models.TextData{Text: "a lighthouse at dusk"},
	})
	require.NoError(t, err)

	_, err = f.workspaces.AddNode(ctx, workspace.ID, &models.Node{
		ID:   "image",
		Kind: models.NodeKindImage,
		Data: &models.ImageData{Model: "gpt-image-1"},
	})
	require.NoError(t, err)

	_, err = f.workspaces.Connect(ctx, workspace.ID, "prompt", "image")
	require.NoError(t, err)

	return workspace.ID
}

func TestGenerationRunNode(t *testing.T) {
	t.Parallel()

	t.Run("stores the result on the node and persists", func(t *testing.T) {
		t.Parallel()

		var gotInputs graph.ResolvedInputs

		fixture := newGenerationFixture(t, func(_ context.Context, _ *models.Node, inputs graph.ResolvedInputs) (*registry.ExecutionResult, error) {
			gotInputs = inputs

			return &registry.ExecutionResult{
				Media: &models.MediaRef{URL: "https://cdn.example.com/out.png", Type: "image"},
			}, nil
		})
		workspaceID := fixture.seedGraph(t)

		result, err := fixture.generation.RunNode(context.Background(), workspaceID, "image")
		require.NoError(t, err)
		require.NotNil(t, result.Media)
		assert.Equal(t, "https://cdn.example.com/out.png", result.Media.URL)
		assert.Equal(t, "a lighthouse at dusk", gotInputs.Prompt)

		stored, err := fixture.workspaces.FetchByID(context.Background(), workspaceID)
		require.NoError(t, err)

		data, ok := stored.Graph.NodeByID("image").Data.(*models.ImageData)
		require.True(t, ok)
		require.NotNil(t, data.Generated)
		assert.Equal(t, "https://cdn.example.com/out.png", data.Generated.URL)

		assert.Equal(t, []events.EventType{events.JobCreatedEvent, events.JobCompletedEvent}, fixture.bus.types())
	})

	t.Run("executor failure publishes job.failed", func(t *testing.T) {
		t.Parallel()

		fixture := newGenerationFixture(t, func(_ context.Context, _ *models.Node, _ graph.ResolvedInputs) (*registry.ExecutionResult, error) {
			return nil, errors.New("provider unavailable")
		})
		workspaceID := fixture.seedGraph(t)

		_, err := fixture.generation.RunNode(context.Background(), workspaceID, "image")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "provider unavailable")

		stored, err := fixture.workspaces.FetchByID(context.Background(), workspaceID)
		require.NoError(t, err)

		data, ok := stored.Graph.NodeByID("image").Data.(*models.ImageData)
		require.True(t, ok)
		assert.Nil(t, data.Generated)

		assert.Equal(t, []events.EventType{events.JobCreatedEvent, events.JobFailedEvent}, fixture.bus.types())
	})

	t.Run("unknown node", func(t *testing.T) {
		t.Parallel()

		fixture := newGenerationFixture(t, func(_ context.Context, _ *models.Node, _ graph.ResolvedInputs) (*registry.ExecutionResult, error) {
			return &registry.ExecutionResult{}, nil
		})
		workspaceID := fixture.seedGraph(t)

		_, err := fixture.generation.RunNode(context.Background(), workspaceID, "missing")
		require.Error(t, err)
		assert.ErrorIs(t, err, services.ErrNodeNotFound)
		assert.True(t, services.IsNotFoundError(err))
		assert.Empty(t, fixture.bus.types())
	})

	t.Run("text nodes are not runnable", func(t *testing.T) {
		t.Parallel()

		fixture := newGenerationFixture(t, func(_ context.Context, _ *models.Node, _ graph.ResolvedInputs) (*registry.ExecutionResult, error) {
			return &registry.ExecutionResult{}, nil
		})
		workspaceID := fixture.seedGraph(t)

		_, err := fixture.generation.RunNode(context.Background(), workspaceID, "prompt")
		require.Error(t, err)
		assert.ErrorIs(t, err, services.ErrNodeNotRunnable)
		assert.True(t, services.IsValidationError(err))
	})
}
