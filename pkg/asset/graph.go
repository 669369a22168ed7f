package asset

import "errors"

var (
	// ErrEmptyName is returned by [Graph.Add] when a node has neither an
	// internal nor a display name. Every node must be addressable.
	ErrEmptyName = errors.New("node name must not be empty")

	// ErrDuplicateNode is returned by [Graph.Add] when a node with the
	// same (kind, name) key already exists. Callers drop the later record
	// with a warning; the graph itself never holds two nodes per key.
	ErrDuplicateNode = errors.New("duplicate node key")

	// ErrUnknownNode is returned by [Graph.AddEdge] when an endpoint ID
	// is out of range.
	ErrUnknownNode = errors.New("unknown node ID")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when a
	// stored edge references a node outside the arena. This indicates
	// graph corruption.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")
)

// Graph is the asset graph for one level: an arena of nodes indexed by
// NodeID, edges as index pairs, and a (kind, name) lookup index. Reachability
// analysis runs as a flat coloring pass over the arena.
//
// A graph is built fresh per scan and is owned by that scan; it is not safe
// for concurrent mutation. The zero value is not usable - use NewGraph.
type Graph struct {
	nodes      []Node
	index      map[Key]NodeID
	edges      []Edge
	out        [][]NodeID
	in         [][]NodeID
	unresolved []UnresolvedEdge
	hasUnres   []bool
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{index: make(map[Key]NodeID)}
}

// Add appends a node to the arena and indexes it by its key. Returns
// ErrEmptyName if the node has no usable name, or ErrDuplicateNode if the
// key is already taken (the graph is left unchanged).
func (g *Graph) Add(n Node) (NodeID, error) {
	if n.EffectiveName() == "" {
		return None, ErrEmptyName
	}
	key := n.Key()
	if _, exists := g.index[key]; exists {
		return None, ErrDuplicateNode
	}

	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, n)
	g.index[key] = id
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	g.hasUnres = append(g.hasUnres, false)
	return id, nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// EdgeCount returns the number of resolved edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Node returns a pointer into the arena. The pointer is invalidated by the
// next Add; hold NodeIDs, not pointers, across mutations.
func (g *Graph) Node(id NodeID) *Node {
	return &g.nodes[id]
}

// Lookup finds a node by kind and authoritative name.
func (g *Graph) Lookup(kind Kind, name string) (NodeID, bool) {
	id, ok := g.index[Key{Kind: kind, Name: name}]
	return id, ok
}

// AddEdge records a directed reference between two existing nodes.
func (g *Graph) AddEdge(from, to NodeID, field string) error {
	if !g.valid(from) || !g.valid(to) {
		return ErrUnknownNode
	}
	g.edges = append(g.edges, Edge{From: from, To: to, Field: field})
	g.out[from] = append(g.out[from], to)
	g.in[to] = append(g.in[to], from)
	return nil
}

// AddUnresolved records a reference whose target is not in the graph and
// marks the source node incomplete. Unresolved edges never abort traversal;
// they make the source unsafe to delete and unsafe to certify as fully
// copied.
func (g *Graph) AddUnresolved(from NodeID, field string, kind Kind, name string) error {
	if !g.valid(from) {
		return ErrUnknownNode
	}
	g.unresolved = append(g.unresolved, UnresolvedEdge{
		From:       from,
		Field:      field,
		TargetKind: kind,
		TargetName: name,
	})
	g.hasUnres[from] = true
	g.nodes[from].Incomplete = true
	return nil
}

// Edges returns a copy of all resolved edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Unresolved returns a copy of all unresolved edges in insertion order.
func (g *Graph) Unresolved() []UnresolvedEdge {
	out := make([]UnresolvedEdge, len(g.unresolved))
	copy(out, g.unresolved)
	return out
}

// HasUnresolved reports whether the node is the source of at least one
// unresolved edge.
func (g *Graph) HasUnresolved(id NodeID) bool {
	return g.valid(id) && g.hasUnres[id]
}

// Outgoing returns the targets of the node's edges. The returned slice is a
// read-only view; do not modify it.
func (g *Graph) Outgoing(id NodeID) []NodeID {
	if !g.valid(id) {
		return nil
	}
	return g.out[id]
}

// Incoming returns the sources of edges pointing at the node. The returned
// slice is a read-only view; do not modify it.
func (g *Graph) Incoming(id NodeID) []NodeID {
	if !g.valid(id) {
		return nil
	}
	return g.in[id]
}

// NodesOfKind returns the IDs of all nodes of the given kind, in insertion
// order.
func (g *Graph) NodesOfKind(kind Kind) []NodeID {
	var out []NodeID
	for i := range g.nodes {
		if g.nodes[i].Kind == kind {
			out = append(out, NodeID(i))
		}
	}
	return out
}

// CountByKind tallies nodes per kind for summaries.
func (g *Graph) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for i := range g.nodes {
		counts[g.nodes[i].Kind]++
	}
	return counts
}

// IncompleteCount returns the number of nodes flagged incomplete.
func (g *Graph) IncompleteCount() int {
	n := 0
	for i := range g.nodes {
		if g.nodes[i].Incomplete {
			n++
		}
	}
	return n
}

// Validate checks arena integrity: every edge endpoint must be a valid
// index and the key index must point back at the right node. Use this in
// tests and before handing a graph to traversal.
func (g *Graph) Validate() error {
	for _, e := range g.edges {
		if !g.valid(e.From) || !g.valid(e.To) {
			return ErrInvalidEdgeEndpoint
		}
	}
	for _, u := range g.unresolved {
		if !g.valid(u.From) {
			return ErrInvalidEdgeEndpoint
		}
	}
	for key, id := range g.index {
		if !g.valid(id) || g.nodes[id].Key() != key {
			return ErrInvalidEdgeEndpoint
		}
	}
	return nil
}

func (g *Graph) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}
