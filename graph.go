package nest

import "reflect"

// DependencyGraph records, for every type bound for construction, the ordered
// list of dependency types its constructor needs. Interface dependencies are
// kept as declared; mapping them to concrete types happens at instantiation
// time because a child scope may bind an interface differently than its parent.
type DependencyGraph struct {
	nodes map[reflect.Type]*node
	order []reflect.Type // Preserve registration order
	edges []Edge
}

type node struct {
	typ          reflect.Type
	dependencies []reflect.Type
}

// Edge is a dependency resolved during instantiation.
type Edge struct {
	From reflect.Type
	To   reflect.Type
}

// NewDependencyGraph creates a new dependency graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[reflect.Type]*node),
		order: make([]reflect.Type, 0),
	}
}

// AddNode adds a node with its dependencies. Nodes keep the order they are added in.
func (g *DependencyGraph) AddNode(typ reflect.Type, dependencies []reflect.Type) {
	if _, exists := g.nodes[typ]; !exists {
		g.order = append(g.order, typ)
	}

	g.nodes[typ] = &node{
		typ:          typ,
		dependencies: dependencies,
	}
}

// Dependencies returns the declared dependency types of a node.
func (g *DependencyGraph) Dependencies(typ reflect.Type) []reflect.Type {
	if n, ok := g.nodes[typ]; ok {
		return n.dependencies
	}

	return nil
}

// HasNode checks if a node exists in the graph.
func (g *DependencyGraph) HasNode(typ reflect.Type) bool {
	_, ok := g.nodes[typ]

	return ok
}

// Nodes returns the node types in registration order.
func (g *DependencyGraph) Nodes() []reflect.Type {
	out := make([]reflect.Type, len(g.order))
	copy(out, g.order)

	return out
}

// Len returns the number of nodes.
func (g *DependencyGraph) Len() int {
	return len(g.order)
}

// Edges returns the resolved edges in the order they were recorded.
func (g *DependencyGraph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)

	return out
}

// recordEdges appends the concrete edges of a constructed type.
func (g *DependencyGraph) recordEdges(from reflect.Type, to []reflect.Type) {
	for _, t := range to {
		g.edges = append(g.edges, Edge{From: from, To: t})
	}
}
