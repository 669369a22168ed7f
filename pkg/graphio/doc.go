// Package graphio serializes asset graphs for storage, transport, and
// visualization.
//
// # JSON Format
//
// [Flatten] turns a graph into a [Document]: flat node, edge, and
// unresolved-reference lists with stable integer IDs. The format is a
// snapshot of graph structure, not content; records stay in their container
// files and payload bytes stay on disk.
//
//	{
//	  "level": "west_gate",
//	  "nodes": [{"id": 0, "kind": "forestBrush", "name": "oak_brush"}],
//	  "edges": [{"from": 0, "to": 1, "field": "forestItemData"}],
//	  "unresolved": [{"from": 2, "field": "shapeFile", "kind": "shape", "name": "art/shapes/missing.dae"}]
//	}
//
// [Rebuild] restores a graph from a document, validating that every edge
// references a listed node. Round trips preserve node order, edges,
// unresolved references, and incomplete flags.
//
// # Visualization
//
// [ToDOT] renders a document as Graphviz DOT, and [RenderSVG] rasterizes
// DOT to SVG in process. Incomplete nodes are drawn dashed; unresolved
// references appear as dashed edges to phantom targets so a missing chain
// is visible at a glance.
package graphio
