package graphio

import (
	"github.com/matzehuels/levelforge/pkg/asset"
	"github.com/matzehuels/levelforge/pkg/errors"
)

// Document is the serializable snapshot of one level's asset graph.
type Document struct {
	Level      string       `json:"level,omitempty"`
	Nodes      []Node       `json:"nodes"`
	Edges      []Edge       `json:"edges"`
	Unresolved []Unresolved `json:"unresolved,omitempty"`
}

// Node mirrors one graph node. IDs are positions in the document's node
// list and match the source graph's IDs.
type Node struct {
	ID           int32    `json:"id"`
	Kind         string   `json:"kind"`
	Name         string   `json:"name"`
	InternalName string   `json:"internalName,omitempty"`
	PersistentID string   `json:"persistentId,omitempty"`
	Location     string   `json:"location,omitempty"`
	Claims       []string `json:"claims,omitempty"`
	Container    string   `json:"container,omitempty"`
	ContainerKey string   `json:"containerKey,omitempty"`
	SizeBytes    int64    `json:"sizeBytes,omitempty"`
	Incomplete   bool     `json:"incomplete,omitempty"`
}

// Edge mirrors one resolved reference.
type Edge struct {
	From  int32  `json:"from"`
	To    int32  `json:"to"`
	Field string `json:"field"`
}

// Unresolved mirrors one reference whose target never appeared.
type Unresolved struct {
	From  int32  `json:"from"`
	Field string `json:"field"`
	Kind  string `json:"kind"`
	Name  string `json:"name"`
}

// Flatten snapshots a graph into a document. The level name is carried for
// presentation and may be empty.
func Flatten(g *asset.Graph, levelName string) *Document {
	doc := &Document{
		Level: levelName,
		Nodes: make([]Node, 0, g.Len()),
		Edges: make([]Edge, 0, g.EdgeCount()),
	}
	for i := 0; i < g.Len(); i++ {
		n := g.Node(asset.NodeID(i))
		doc.Nodes = append(doc.Nodes, Node{
			ID:           int32(i),
			Kind:         n.Kind.String(),
			Name:         n.Name,
			InternalName: n.InternalName,
			PersistentID: n.PersistentID,
			Location:     n.Location,
			Claims:       n.Claims,
			Container:    n.Container.Path,
			ContainerKey: n.Container.Key,
			SizeBytes:    n.SizeBytes,
			Incomplete:   n.Incomplete,
		})
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, Edge{From: int32(e.From), To: int32(e.To), Field: e.Field})
	}
	for _, u := range g.Unresolved() {
		doc.Unresolved = append(doc.Unresolved, Unresolved{
			From:  int32(u.From),
			Field: u.Field,
			Kind:  u.TargetKind.String(),
			Name:  u.TargetName,
		})
	}
	return doc
}

// Rebuild restores a graph from a document. Node IDs must be their list
// positions and every edge endpoint must name a listed node; unknown kind
// strings come back as the generic kind rather than failing the import.
func Rebuild(doc *Document) (*asset.Graph, error) {
	g := asset.NewGraph()
	for i, n := range doc.Nodes {
		if n.ID != int32(i) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "node %d: id %d out of order", i, n.ID)
		}
		kind, _ := asset.ParseKind(n.Kind)
		if _, err := g.Add(asset.Node{
			Kind:         kind,
			Name:         n.Name,
			InternalName: n.InternalName,
			PersistentID: n.PersistentID,
			Location:     n.Location,
			Claims:       n.Claims,
			Container:    asset.ContainerRef{Path: n.Container, Key: n.ContainerKey},
			SizeBytes:    n.SizeBytes,
			Incomplete:   n.Incomplete,
		}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "node %d (%s %q)", i, n.Kind, n.Name)
		}
	}
	for _, e := range doc.Edges {
		if err := g.AddEdge(asset.NodeID(e.From), asset.NodeID(e.To), e.Field); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "edge %d -> %d", e.From, e.To)
		}
	}
	for _, u := range doc.Unresolved {
		kind, _ := asset.ParseKind(u.Kind)
		if err := g.AddUnresolved(asset.NodeID(u.From), u.Field, kind, u.Name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "unresolved ref from %d", u.From)
		}
	}
	return g, nil
}
