// Package registry maps node kinds to their generation executors and
// validates node data payloads against per-kind JSON schemas.
package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uplix/flow/pkg/graph"
	"github.com/uplix/flow/pkg/models"
)

// ExecutionResult is the outcome of running one node. Message carries a
// non-fatal advisory, such as the merge first-video fallback note.
type ExecutionResult struct {
	Media   *models.MediaRef
	Message string
}

// Executor runs the generation step of a single node against its resolved
// inputs.
type Executor func(ctx context.Context, node *models.Node, inputs graph.ResolvedInputs) (*ExecutionResult, error)

// Registry dispatches node execution by kind.
type Registry struct {
	logger    *slog.Logger
	executors map[models.NodeKind]Executor
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger.With("module", "registry"),
		executors: make(map[models.NodeKind]Executor),
	}
}

// RegisterExecutor binds an executor to a node kind, replacing any previous
// binding.
func (r *Registry) RegisterExecutor(kind models.NodeKind, executor Executor) {
	r.executors[kind] = executor
}

// Executable reports whether an executor is registered for the kind.
func (r *Registry) Executable(kind models.NodeKind) bool {
	_, ok := r.executors[kind]

	return ok
}

// Execute validates the node's data payload and runs the executor registered
// for its kind.
func (r *Registry) Execute(ctx context.Context, node *models.Node, inputs graph.ResolvedInputs) (*ExecutionResult, error) {
	executor, ok := r.executors[node.Kind]
	if !ok {
		return nil, fmt.Errorf("node kind '%s' not registered", node.Kind)
	}

	if err := ValidateNodeData(node.Kind, node.Data); err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "Executing node", "node_id", node.ID, "kind", node.Kind)

	return executor(ctx, node, inputs)
}
