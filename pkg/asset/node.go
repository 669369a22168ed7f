package asset

import "github.com/matzehuels/levelforge/pkg/jsondoc"

// NodeID is an index into a graph's node arena.
type NodeID int32

// None is the invalid node ID.
const None NodeID = -1

// Key identifies a node within one graph: kind plus authoritative name.
// Duplicate detection across levels compares Keys, never persistent IDs.
type Key struct {
	Kind Kind
	Name string
}

// ContainerRef records where a node came from, precisely enough to merge a
// sibling record back into the same file without disturbing the rest.
type ContainerRef struct {
	// Path is the container file, relative to the level directory.
	Path string
	// Line is the 1-based NDJSON line the record occupies, or 0 for
	// keyed-object files and standalone payload files.
	Line int
	// Key is the top-level key in a keyed-object file, or "" for NDJSON
	// records and payload files.
	Key string
}

// IsZero reports whether the ref points nowhere (payload-only nodes).
func (c ContainerRef) IsZero() bool {
	return c.Path == "" && c.Line == 0 && c.Key == ""
}

// Node is one managed unit of content. Nodes are immutable for the duration
// of a scan; materialization produces new nodes in a new graph rather than
// mutating these.
type Node struct {
	// Kind classifies the node.
	Kind Kind

	// Name is the display name. For path-identified kinds (Shape,
	// Texture) it is the canonical level-relative path.
	Name string

	// InternalName is the authoritative key for duplicate detection and
	// reference rewriting. Empty when the record has none; EffectiveName
	// falls back to Name then.
	InternalName string

	// PersistentID is the opaque round-tripping identifier from the
	// source record. It is never compared across levels and is always
	// regenerated when the node is materialized elsewhere.
	PersistentID string

	// Location is the payload path for nodes backed by a file on disk
	// (level-relative), or the virtual reference string that still needs
	// resolution. Empty for record-only nodes.
	Location string

	// Claims lists additional level-relative paths owned by this node
	// beyond Location, e.g. a shape's compiled sibling file.
	Claims []string

	// Container records the file (and line or key) the record came from.
	Container ContainerRef

	// SizeBytes is a payload size estimate for presentation lists; 0 for
	// record-only nodes.
	SizeBytes int64

	// Incomplete marks a node whose required structure is missing: an
	// absent sidecar, an unresolvable payload, or an unresolved outgoing
	// reference.
	Incomplete bool

	// Doc is the underlying parsed record with key order and unknown
	// fields intact, nil for payload-only nodes.
	Doc *jsondoc.Object
}

// EffectiveName returns the authoritative name: InternalName when present,
// otherwise Name.
func (n *Node) EffectiveName() string {
	if n.InternalName != "" {
		return n.InternalName
	}
	return n.Name
}

// Key returns the node's graph key.
func (n *Node) Key() Key {
	return Key{Kind: n.Kind, Name: n.EffectiveName()}
}

// DisplayName returns the name presentation layers should show.
func (n *Node) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return n.InternalName
}

// ClaimedPaths returns every level-relative file path the node accounts
// for: its payload, extra claims, and its container file.
func (n *Node) ClaimedPaths() []string {
	var out []string
	if n.Location != "" {
		out = append(out, n.Location)
	}
	out = append(out, n.Claims...)
	if n.Container.Path != "" {
		out = append(out, n.Container.Path)
	}
	return out
}

// Edge is a named directed reference between two nodes, resolved by name
// lookup at build time. Edges express reference, not ownership: many nodes
// may point at one texture.
type Edge struct {
	From  NodeID
	To    NodeID
	Field string
}

// UnresolvedEdge records a reference whose target was not found in the
// graph. The source node stays in the graph, marked incomplete; traversal
// policies decide how the taint propagates.
type UnresolvedEdge struct {
	From       NodeID
	Field      string
	TargetKind Kind
	TargetName string
}
