package models

// Edge connects a source node's output to a target node's input.
type Edge struct {
	ID     string `json:"id"     validate:"required"`
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

// Graph is the serializable unit persisted as a saved workspace. Node ids
// are unique within a graph and every edge references existing nodes.
type Graph struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}

// NodeByID returns the node with the given id, or nil.
func (g *Graph) NodeByID(id string) *Node {
	for _, node := range g.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// IncomingEdges returns the edges targeting the given node, in edge order.
func (g *Graph) IncomingEdges(nodeID string) []*Edge {
	var incoming []*Edge

	for _, edge := range g.Edges {
		if edge.Target == nodeID {
			incoming = append(incoming, edge)
		}
	}

	return incoming
}

// Incomers returns the source nodes of all edges targeting the given node,
// in edge order. Edges whose source node is missing are skipped.
func (g *Graph) Incomers(nodeID string) []*Node {
	var incomers []*Node

	for _, edge := range g.IncomingEdges(nodeID) {
		if source := g.NodeByID(edge.Source); source != nil {
			incomers = append(incomers, source)
		}
	}

	return incomers
}
