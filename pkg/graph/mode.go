package graph

import "github.com/uplix/flow/pkg/models"

// Mode describes how a node behaves when generation is triggered.
type Mode string

const (
	// ModePrimitive means the node has no incoming edges and accepts direct
	// user-provided media.
	ModePrimitive Mode = "primitive"

	// ModeTransform means the node has at least one incoming edge and
	// computes its output from resolved upstream inputs.
	ModeTransform Mode = "transform"
)

// ModeOf derives a node's mode from the edge set. The mode is never stored;
// deriving it on every call avoids stale-mode bugs after edge mutation.
func ModeOf(nodeID string, edges []*models.Edge) Mode {
	for _, edge := range edges {
		if edge.Target == nodeID {
			return ModeTransform
		}
	}

	return ModePrimitive
}
