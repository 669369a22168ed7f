// Package reach computes reachability over an asset graph.
//
// Both user-facing analyses are the same traversal with different
// parameters: shrink mode walks forward from everything the level uses to
// find what it can live without, copy mode walks forward from an explicit
// selection to find what a copy must include. The traversal also carries a
// taint flag: nodes whose dependency chain crossed an unresolved edge are
// reached but cannot be certified complete.
package reach

import (
	"sort"

	"github.com/matzehuels/levelforge/pkg/asset"
)

// Direction selects which way edges are followed.
type Direction int

const (
	// Forward follows references from user to used.
	Forward Direction = iota
	// Reverse follows references from used to user.
	Reverse
)

// Options parameterizes one traversal.
type Options struct {
	// Direction selects the edge direction.
	Direction Direction

	// TaintUnresolved propagates incompleteness: a node with unresolved
	// edges taints everything reached through it.
	TaintUnresolved bool
}

// Marks is the per-node result of one traversal, indexed by NodeID.
type Marks struct {
	Reached []bool
	Tainted []bool
}

// ReachedCount returns the number of reached nodes.
func (m Marks) ReachedCount() int {
	n := 0
	for _, r := range m.Reached {
		if r {
			n++
		}
	}
	return n
}

// ReachedIDs returns the reached nodes in ascending id order.
func (m Marks) ReachedIDs() []asset.NodeID {
	ids := make([]asset.NodeID, 0, len(m.Reached))
	for i, r := range m.Reached {
		if r {
			ids = append(ids, asset.NodeID(i))
		}
	}
	return ids
}

// TaintedCount returns the number of reached nodes with a tainted chain.
func (m Marks) TaintedCount() int {
	n := 0
	for _, t := range m.Tainted {
		if t {
			n++
		}
	}
	return n
}

// Traverse marks every node reachable from roots. The visited set makes
// cyclic and self-referential edges terminate. Roots outside the graph are
// ignored.
func Traverse(g *asset.Graph, roots []asset.NodeID, opts Options) Marks {
	m := Marks{
		Reached: make([]bool, g.Len()),
		Tainted: make([]bool, g.Len()),
	}
	next := func(id asset.NodeID) []asset.NodeID {
		if opts.Direction == Reverse {
			return g.Incoming(id)
		}
		return g.Outgoing(id)
	}

	queue := make([]asset.NodeID, 0, len(roots))
	for _, id := range roots {
		if id < 0 || int(id) >= g.Len() || m.Reached[id] {
			continue
		}
		m.Reached[id] = true
		queue = append(queue, id)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, n := range next(id) {
			if m.Reached[n] {
				continue
			}
			m.Reached[n] = true
			queue = append(queue, n)
		}
	}

	if opts.TaintUnresolved {
		m.propagateTaint(g, next)
	}
	return m
}

// propagateTaint seeds taint at every reached node that is itself
// incomplete and spreads it along the traversal direction until stable.
func (m *Marks) propagateTaint(g *asset.Graph, next func(asset.NodeID) []asset.NodeID) {
	var queue []asset.NodeID
	for i := range m.Reached {
		id := asset.NodeID(i)
		if !m.Reached[id] {
			continue
		}
		if g.Node(id).Incomplete || g.HasUnresolved(id) {
			m.Tainted[id] = true
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, n := range next(id) {
			if !m.Reached[n] || m.Tainted[n] {
				continue
			}
			m.Tainted[n] = true
			queue = append(queue, n)
		}
	}
}

// RequiredSet computes the forward closure of an explicit selection: the
// nodes a copy must materialize, in ascending id order. The marks report
// which of them carry unresolved chains, so callers can refuse to certify
// the copy as complete.
func RequiredSet(g *asset.Graph, roots []asset.NodeID) ([]asset.NodeID, Marks) {
	marks := Traverse(g, roots, Options{Direction: Forward, TaintUnresolved: true})
	return marks.ReachedIDs(), marks
}

// ShrinkRoots expands the direct usage roots with the used forest brushes:
// a brush is used when any item data it plants is placed. Brushes never
// appear in placement files themselves, so they are found by walking the
// references backwards from the direct roots.
func ShrinkRoots(g *asset.Graph, direct []asset.NodeID) []asset.NodeID {
	rev := Traverse(g, direct, Options{Direction: Reverse})

	seen := make(map[asset.NodeID]struct{}, len(direct))
	out := make([]asset.NodeID, 0, len(direct))
	for _, id := range direct {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, id := range rev.ReachedIDs() {
		switch g.Node(id).Kind {
		case asset.KindForestBrush, asset.KindForestBrushElement:
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
