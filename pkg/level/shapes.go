package level

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/matzehuels/levelforge/pkg/asset"
)

// shapeReader registers shape payload files found under the shape art
// folder. A shape and its compiled sibling share one node; whichever file
// is seen first becomes the location and the other becomes a claim. There
// is nothing to parse; geometry is opaque to the engine.
type shapeReader struct{}

func (r *shapeReader) Name() string { return "shapes" }

func (r *shapeReader) Matches(rel string) bool {
	if !strings.HasPrefix(rel, "art/shapes/") {
		return false
	}
	switch strings.ToLower(path.Ext(rel)) {
	case ".dae", ".cdae":
		return true
	}
	return false
}

func (r *shapeReader) Read(sc *ScanContext, rel string, g *asset.Graph) error {
	name := canonicalShapePath(sc.LevelName, rel)
	if id, ok := g.Lookup(asset.KindShape, name); ok {
		g.Node(id).Claims = append(g.Node(id).Claims, rel)
		return nil
	}

	var size int64
	if info, err := os.Stat(filepath.Join(sc.LevelDir, filepath.FromSlash(rel))); err == nil {
		size = info.Size()
	}
	_, err := g.Add(asset.Node{
		Kind:      asset.KindShape,
		Name:      name,
		Location:  rel,
		SizeBytes: size,
	})
	return err
}
