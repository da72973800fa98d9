// Package testutil provides test data builders for workflow graphs.
package testutil

import (
	"github.com/google/uuid"
	"github.com/uplix/flow/pkg/models"
)

// CreateTestNode creates a text node with default values that can be
// overridden.
func CreateTestNode(overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		ID:       uuid.New().String(),
		Kind:     models.NodeKindText,
		Position: models.Position{X: 100, Y: 200},
		Data:     &models.TextData{Text: "test prompt"},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithID sets the node id.
func WithID(id string) func(*models.Node) {
	return func(n *models.Node) {
		n.ID = id
	}
}

// WithKind sets the node kind and resets the data record to the kind's zero
// value.
func WithKind(kind models.NodeKind) func(*models.Node) {
	return func(n *models.Node) {
		n.Kind = kind

		if data, err := models.NewNodeData(kind); err == nil {
			n.Data = data
		}
	}
}

// WithData sets the node data record.
func WithData(data models.NodeData) func(*models.Node) {
	return func(n *models.Node) {
		n.Kind = data.Kind()
		n.Data = data
	}
}

// CreateTestGraph builds a graph from nodes, wiring a linear chain of edges
// between them in order.
func CreateTestGraph(nodes ...*models.Node) models.Graph {
	graph := models.Graph{Nodes: nodes}

	for i := 1; i < len(nodes); i++ {
		graph.Edges = append(graph.Edges, &models.Edge{
			ID:     uuid.New().String(),
			Source: nodes[i-1].ID,
			Target: nodes[i].ID,
		})
	}

	return graph
}

// CreateTestWorkspace creates a workspace holding the given graph.
func CreateTestWorkspace(graph models.Graph, overrides ...func(*models.Workspace)) *models.Workspace {
	workspace := &models.Workspace{
		ID:    uuid.New().String(),
		Name:  "Test Workspace",
		Graph: graph,
	}

	for _, override := range overrides {
		override(workspace)
	}

	return workspace
}
