package level

import (
	"path"
	"strings"

	"github.com/matzehuels/levelforge/pkg/asset"
)

// terrainReader parses terrain descriptor files. The descriptor names the
// binary heightmap payload and lists the terrain material layers in use;
// the layer list is the usage that keeps terrain materials alive.
type terrainReader struct{}

func (r *terrainReader) Name() string { return "terrain" }

func (r *terrainReader) Matches(rel string) bool {
	return strings.HasSuffix(path.Base(rel), ".terrain.json")
}

func (r *terrainReader) Read(sc *ScanContext, rel string, g *asset.Graph) error {
	obj, err := readKeyedFile(sc, rel)
	if err != nil {
		return err
	}

	n := asset.Node{
		Kind:      asset.KindGenericManaged,
		Name:      rel,
		Location:  rel,
		Container: asset.ContainerRef{Path: rel},
		SizeBytes: recordSize(obj),
		Doc:       obj,
	}
	if df := stringField(obj, "datafile"); df != "" {
		n.Claims = append(n.Claims, levelRelative(sc.LevelName, df))
	}
	id, err := g.Add(n)
	if err != nil {
		sc.Warningf(rel, "duplicate terrain descriptor dropped")
		return nil
	}
	sc.AddRootNode(id)

	layers, _ := obj.GetArray("materials")
	for _, lv := range layers {
		name, ok := lv.(string)
		if !ok {
			continue
		}
		sc.AddRoot(asset.KindTerrainMaterial, cleanName(name), rel)
	}
	return nil
}
