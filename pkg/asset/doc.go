// Package asset provides the typed dependency graph for one level's managed
// content.
//
// # Overview
//
// A level references shapes, materials, textures, forest definitions,
// decals, terrain layers, and roads through a web of container files. This
// package models that web as a flat graph: nodes live in an arena indexed
// by [NodeID], edges are index pairs, and a (kind, name) index supports the
// by-name resolution the container formats use. Keeping the graph flat makes
// reachability analysis a plain coloring pass ([reach.Traverse]) instead of
// a recursive walk over per-format structures.
//
// # Building
//
// Graphs are produced by the level builder (package level), one per scan:
//
//	g := asset.NewGraph()
//	id, err := g.Add(asset.Node{Kind: asset.KindForestBrush, InternalName: "pines"})
//	...
//	err = g.AddEdge(brushID, elementID, "element")
//
// Forward references are legal in the container formats, so edges are added
// in a second pass once every node is known. References whose target never
// appears are recorded with [Graph.AddUnresolved]; the source node stays in
// the graph, flagged incomplete.
//
// # Lifecycle
//
// Nodes and edges are immutable value records for the duration of one scan.
// Nothing is cached across scans, and two concurrent scans never share a
// graph. Materialization into another level produces new files and a fresh
// graph on the next scan rather than mutating this one.
//
// [reach.Traverse]: github.com/matzehuels/levelforge/pkg/reach.Traverse
package asset
