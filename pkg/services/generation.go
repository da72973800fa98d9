package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/uplix/flow/pkg/eventbus"
	"github.com/uplix/flow/pkg/events"
	"github.com/uplix/flow/pkg/graph"
	"github.com/uplix/flow/pkg/models"
	"github.com/uplix/flow/pkg/persistence"
	"github.com/uplix/flow/pkg/registry"
)

// Generation runs a single node's generation: it resolves the node's upstream
// inputs, dispatches through the registry and writes the resulting media
// reference back into the node's data before saving the workspace. Lifecycle
// events are published on the bus when one is wired.
type Generation struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	bus         eventbus.EventPublisher
}

// NewGeneration creates a new generation service. The bus may be nil.
func NewGeneration(
	logger *slog.Logger,
	persistence persistence.Persistence,
	reg *registry.Registry,
	bus eventbus.EventPublisher,
) *Generation {
	if logger == nil {
		logger = slog.Default()
	}

	return &Generation{
		logger:      logger.With("module", "generation-service"),
		persistence: persistence,
		registry:    reg,
		bus:         bus,
	}
}

// RunNode executes the generation step for one node and returns the stored
// result. The workspace is saved with the new media reference before the
// result is returned, so a crash after generation never loses a paid job.
func (s *Generation) RunNode(ctx context.Context, workspaceID, nodeID string) (*registry.ExecutionResult, error) {
	workspace, err := s.persistence.WorkspaceRepository().GetByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	node := workspace.Graph.NodeByID(nodeID)
	if node == nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}

	if !s.registry.Executable(node.Kind) {
		return nil, NewValidationError("RunNode", "NODE_NOT_RUNNABLE",
			fmt.Sprintf("%s nodes have no generation step", node.Kind), ErrNodeNotRunnable)
	}

	inputs := graph.Resolve(nodeID, &workspace.Graph)

	started := time.Now()
	s.publish(ctx, workspaceID, events.JobCreated{
		BaseEvent: s.baseEvent(events.JobCreatedEvent, workspaceID),
		NodeID:    nodeID,
		Kind:      node.Kind,
		Model:     nodeModel(node.Data),
	})

	result, err := s.registry.Execute(ctx, node, inputs)
	if err != nil {
		s.publish(ctx, workspaceID, events.JobFailed{
			BaseEvent:  s.baseEvent(events.JobFailedEvent, workspaceID),
			NodeID:     nodeID,
			Kind:       node.Kind,
			Error:      err.Error(),
			DurationMs: time.Since(started).Milliseconds(),
		})

		return nil, err
	}

	if result.Media != nil {
		if err := storeResult(node.Data, result.Media); err != nil {
			return nil, err
		}

		workspace.UpdatedAt = time.Now().UTC()

		if err := s.persistence.WorkspaceRepository().Save(ctx, workspace); err != nil {
			return nil, fmt.Errorf("failed to save generation result: %w", err)
		}
	}

	completed := events.JobCompleted{
		BaseEvent:  s.baseEvent(events.JobCompletedEvent, workspaceID),
		NodeID:     nodeID,
		Kind:       node.Kind,
		Message:    result.Message,
		DurationMs: time.Since(started).Milliseconds(),
	}
	if result.Media != nil {
		completed.MediaURL = result.Media.URL
	}

	s.publish(ctx, workspaceID, completed)

	return result, nil
}

// storeResult writes the generated media reference into the slot the node
// kind persists its output in.
func storeResult(data models.NodeData, media *models.MediaRef) error {
	switch record := data.(type) {
	case *models.ImageData:
		record.Generated = media
	case *models.VideoData:
		record.Generated = media
	case *models.AudioData:
		record.Generated = media
	case *models.MergeData:
		record.Merged = media
	default:
		return fmt.Errorf("%w: %T", ErrNodeNotRunnable, data)
	}

	return nil
}

func nodeModel(data models.NodeData) string {
	switch record := data.(type) {
	case *models.ImageData:
		return record.Model
	case *models.VideoData:
		return record.Model
	case *models.AudioData:
		return record.Model
	default:
		return ""
	}
}

func (s *Generation) baseEvent(eventType events.EventType, workspaceID string) events.BaseEvent {
	return events.BaseEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		WorkspaceID: workspaceID,
	}
}

func (s *Generation) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.bus == nil {
		return
	}

	if err := s.bus.Publish(ctx, key, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish lifecycle event",
			"event_type", event.GetType(), "error", err)
	}
}
