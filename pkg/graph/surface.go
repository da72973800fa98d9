// Package graph provides the mutation surface and read operations for
// workflow graphs: adding nodes, connecting them, updating node data, and
// resolving a node's upstream inputs for generation.
package graph

import (
	"errors"
	"fmt"

	"github.com/uplix/flow/pkg/models"
)

var (
	// ErrDuplicateNodeID indicates a node with the same id already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node id")

	// ErrDuplicateEdgeID indicates an edge with the same id already exists in the graph.
	ErrDuplicateEdgeID = errors.New("duplicate edge id")

	// ErrNodeNotFound indicates an edge endpoint references a node that is not in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrEdgeNotFound indicates the edge id does not exist in the graph.
	ErrEdgeNotFound = errors.New("edge not found")

	// ErrSelfLoop indicates an edge connects a node to itself.
	ErrSelfLoop = errors.New("edge connects node to itself")

	// ErrCycle indicates an edge would make the graph cyclic.
	ErrCycle = errors.New("edge would create a cycle")

	// ErrUnknownNodeKind indicates an unrecognized node kind.
	ErrUnknownNodeKind = errors.New("unknown node kind")

	// ErrKindMismatch indicates a data record of the wrong kind for the node.
	ErrKindMismatch = errors.New("node data kind mismatch")
)

// AddNode appends a node to the graph. The node id must be unique and the
// kind must be known; a nil data record is replaced with the kind's zero
// record.
func AddNode(g *models.Graph, node *models.Node) error {
	if !node.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownNodeKind, node.Kind)
	}

	if g.NodeByID(node.ID) != nil {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeID, node.ID)
	}

	if node.Data == nil {
		data, err := models.NewNodeData(node.Kind)
		if err != nil {
			return err
		}

		node.Data = data
	}

	if node.Data.Kind() != node.Kind {
		return fmt.Errorf("%w: node %s is %s but data is %s",
			ErrKindMismatch, node.ID, node.Kind, node.Data.Kind())
	}

	g.Nodes = append(g.Nodes, node)

	return nil
}

// Connect adds an edge from source to target. Both endpoints must exist,
// self-loops are rejected, and edges that would make the graph cyclic are
// rejected so generation never chases an unresolvable dependency.
func Connect(g *models.Graph, edgeID, source, target string) (*models.Edge, error) {
	for _, edge := range g.Edges {
		if edge.ID == edgeID {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEdgeID, edgeID)
		}
	}

	if g.NodeByID(source) == nil {
		return nil, fmt.Errorf("%w: source %s", ErrNodeNotFound, source)
	}

	if g.NodeByID(target) == nil {
		return nil, fmt.Errorf("%w: target %s", ErrNodeNotFound, target)
	}

	if source == target {
		return nil, fmt.Errorf("%w: %s", ErrSelfLoop, source)
	}

	if reachable(g, target, source) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrCycle, source, target)
	}

	edge := &models.Edge{ID: edgeID, Source: source, Target: target}
	g.Edges = append(g.Edges, edge)

	return edge, nil
}

// Disconnect removes the edge with the given id. Removing a node's last
// incoming edge flips it back to primitive mode.
func Disconnect(g *models.Graph, edgeID string) error {
	for i, edge := range g.Edges {
		if edge.ID == edgeID {
			g.Edges = append(g.Edges[:i], g.Edges[i+1:]...)

			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrEdgeNotFound, edgeID)
}

// UpdateNodeData replaces a node's data record. The record kind must match
// the node kind.
func UpdateNodeData(g *models.Graph, nodeID string, data models.NodeData) error {
	node := g.NodeByID(nodeID)
	if node == nil {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}

	if data == nil || data.Kind() != node.Kind {
		return fmt.Errorf("%w: node %s is %s", ErrKindMismatch, nodeID, node.Kind)
	}

	node.Data = data

	return nil
}

// reachable reports whether `to` can be reached from `from` following edges
// in their direction.
func reachable(g *models.Graph, from, to string) bool {
	visited := make(map[string]bool)
	stack := []string{from}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current == to {
			return true
		}

		if visited[current] {
			continue
		}

		visited[current] = true

		for _, edge := range g.Edges {
			if edge.Source == current {
				stack = append(stack, edge.Target)
			}
		}
	}

	return false
}
