package level

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/levelforge/pkg/asset"
	"github.com/matzehuels/levelforge/pkg/diag"
)

func writeLevelFile(t *testing.T, levelDir, rel, content string) {
	t.Helper()
	p := filepath.Join(levelDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func ndjson(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// fixtureLevel builds a small but complete level exercising every container
// format: mission items, shapes with compiled siblings, materials with
// texture maps, forest item data, brushes, placements, decals, and terrain.
// It also plants three dangling references and two unknown placements.
func fixtureLevel(t *testing.T) (root, name string) {
	t.Helper()
	root = t.TempDir()
	name = "west_gate"
	dir := filepath.Join(root, name)

	writeLevelFile(t, dir, "info.json", `{"title":"West Gate"}`)

	writeLevelFile(t, dir, "main/items.level.json", ndjson(
		`{"class":"TSStatic","name":"rock1","persistentId":"p-rock1","shapeName":"/levels/west_gate/art/shapes/rocks/boulder.dae"}`,
		`{"class":"DecalRoad","name":"main_road","persistentId":"p-road","material":"road_asphalt"}`,
		`{"class":"TerrainBlock","name":"theTerrain","persistentId":"p-ter","terrainFile":"/levels/west_gate/terrain.ter"}`,
		`{"class":"SimGroup","name":"MissionGroup","persistentId":"p-grp"}`,
	))

	// Shape with a compiled sibling and a co-located materials file.
	writeLevelFile(t, dir, "art/shapes/rocks/boulder.dae", "boulder geometry")
	writeLevelFile(t, dir, "art/shapes/rocks/boulder.cdae", "boulder compiled")
	writeLevelFile(t, dir, "art/shapes/rocks/boulder_d.dds", "boulder diffuse")
	writeLevelFile(t, dir, "art/shapes/rocks/main.materials.json",
		`{"boulder_mat":{"class":"Material","persistentId":"m-boulder",`+
			`"Stages":[{"colorMap":"/levels/west_gate/art/shapes/rocks/boulder_d.dds"}],`+
			`"specularMap":"/levels/west_gate/art/shapes/rocks/boulder_s.dds"}}`)

	// Road material without a shape in its directory.
	writeLevelFile(t, dir, "art/shapes/roads/main.materials.json",
		`{"road_asphalt":{"class":"Material","persistentId":"m-road",`+
			`"colorMap":"/levels/west_gate/art/shapes/roads/road_d.dds"}}`)
	writeLevelFile(t, dir, "art/shapes/roads/road_d.dds", "road diffuse")

	// Forest: one resolvable item, one with a missing shape payload.
	writeLevelFile(t, dir, "art/shapes/trees/oak.dae", "oak geometry")
	writeLevelFile(t, dir, "art/shapes/trees/oak_d.dds", "oak diffuse")
	writeLevelFile(t, dir, "art/shapes/trees/main.materials.json",
		`{"oak_mat":{"class":"Material","persistentId":"m-oak",`+
			`"colorMap":"/levels/west_gate/art/shapes/trees/oak_d.dds"}}`)
	writeLevelFile(t, dir, "art/forest/managedItemData.json",
		`{"oak_small":{"class":"TSForestItemData","internalName":"oak_small",`+
			`"persistentId":"f-oak","shapeFile":"/levels/west_gate/art/shapes/trees/oak.dae"},`+
			`"pine_dead":{"class":"TSForestItemData","persistentId":"f-pine",`+
			`"shapeFile":"/levels/west_gate/art/shapes/trees/pine.dae"}}`)

	writeLevelFile(t, dir, "art/forest/forestBrushes.json", ndjson(
		`{"class":"ForestBrushGroup","name":"ForestBrushGroup","persistentId":"g-1"}`,
		`{"class":"ForestBrush","name":"oak_brush","persistentId":"b-oak","__parent":"ForestBrushGroup"}`,
		`{"class":"ForestBrushElement","name":"oak_elem","persistentId":"e-oak","__parent":"oak_brush","forestItemData":"oak_small"}`,
		`{"class":"ForestBrushElement","name":"ghost_elem","persistentId":"e-ghost","__parent":"oak_brush","forestItemData":"missing_item"}`,
	))

	writeLevelFile(t, dir, "forest/trees.forest4.json", ndjson(
		`{"type":"oak_small","pos":[12.5,3.25,0]}`,
		`{"type":"oak_small","pos":[13.5,4.25,0]}`,
		`{"type":"ghost_tree","pos":[1,1,0]}`,
	))

	writeLevelFile(t, dir, "art/decals/managedDecalData.json",
		`{"crack_decal":{"class":"DecalData","persistentId":"d-crack","material":"road_asphalt"}}`)
	writeLevelFile(t, dir, "art/decals/road.decals.json", ndjson(
		`{"decalData":"crack_decal","pos":[4,4,0]}`,
	))

	writeLevelFile(t, dir, "terrain.ter", "heightmap payload")
	writeLevelFile(t, dir, "theTerrain.terrain.json",
		`{"datafile":"/levels/west_gate/terrain.ter","materials":["grass","rock_layer"]}`)
	writeLevelFile(t, dir, "art/terrains/grass_b.dds", "grass base")
	writeLevelFile(t, dir, "art/terrains/materials.json",
		`{"grass":{"class":"TerrainMaterial","internalName":"grass","persistentId":"t-grass",`+
			`"baseColorMap":"/levels/west_gate/art/terrains/grass_b.dds"}}`)

	return root, name
}

func mustLookup(t *testing.T, g *asset.Graph, kind asset.Kind, name string) asset.NodeID {
	t.Helper()
	id, ok := g.Lookup(kind, name)
	if !ok {
		t.Fatalf("node (%s, %q) not in graph", kind, name)
	}
	return id
}

func hasEdge(g *asset.Graph, from, to asset.NodeID, field string) bool {
	for _, e := range g.Edges() {
		if e.From == from && e.To == to && e.Field == field {
			return true
		}
	}
	return false
}

func TestBuildFixtureLevel(t *testing.T) {
	root, name := fixtureLevel(t)
	collector := diag.NewCollector()

	res, err := Build(context.Background(), Options{
		LevelsRoot: root,
		Level:      name,
		Sink:       collector,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	g := res.Graph

	t.Run("node counts per kind", func(t *testing.T) {
		counts := g.CountByKind()
		want := map[asset.Kind]int{
			asset.KindShape:              2, // boulder, oak (pine has no payload)
			asset.KindMaterial:           3,
			asset.KindTexture:            4, // boulder_d, road_d, oak_d, grass_b
			asset.KindForestItemData:     2,
			asset.KindForestBrush:        1,
			asset.KindForestBrushElement: 2,
			asset.KindDecal:              1,
			asset.KindTerrainMaterial:    1,
			asset.KindRoad:               1,
			asset.KindGenericManaged:     8, // 3 items, brush group, terrain descriptor, info, 2 placement files
		}
		for kind, n := range want {
			if counts[kind] != n {
				t.Errorf("%s count = %d, want %d", kind, counts[kind], n)
			}
		}
	})

	t.Run("shape and sibling share one node", func(t *testing.T) {
		id := mustLookup(t, g, asset.KindShape, "art/shapes/rocks/boulder.dae")
		n := g.Node(id)
		claimed := strings.Join(n.ClaimedPaths(), ",")
		if !strings.Contains(claimed, "boulder.dae") || !strings.Contains(claimed, "boulder.cdae") {
			t.Errorf("claims = %q, want both payload files", claimed)
		}
	})

	t.Run("reference chain brush to texture", func(t *testing.T) {
		group := mustLookup(t, g, asset.KindGenericManaged, "ForestBrushGroup")
		brush := mustLookup(t, g, asset.KindForestBrush, "oak_brush")
		elem := mustLookup(t, g, asset.KindForestBrushElement, "oak_elem")
		item := mustLookup(t, g, asset.KindForestItemData, "oak_small")
		shape := mustLookup(t, g, asset.KindShape, "art/shapes/trees/oak.dae")
		mat := mustLookup(t, g, asset.KindMaterial, "oak_mat")
		tex := mustLookup(t, g, asset.KindTexture, "art/shapes/trees/oak_d.dds")

		steps := []struct {
			from, to asset.NodeID
			field    string
		}{
			{group, brush, "__parent"},
			{brush, elem, "__parent"},
			{elem, item, "forestItemData"},
			{item, shape, "shapeFile"},
			{shape, mat, "materials"},
			{mat, tex, "colorMap"},
		}
		for _, s := range steps {
			if !hasEdge(g, s.from, s.to, s.field) {
				t.Errorf("missing edge %d -> %d (%s)", s.from, s.to, s.field)
			}
		}
	})

	t.Run("unresolved references flag sources incomplete", func(t *testing.T) {
		for _, tc := range []struct {
			kind asset.Kind
			name string
		}{
			{asset.KindForestItemData, "pine_dead"},
			{asset.KindForestBrushElement, "ghost_elem"},
			{asset.KindMaterial, "boulder_mat"}, // missing specular texture
		} {
			id := mustLookup(t, g, tc.kind, tc.name)
			if !g.Node(id).Incomplete {
				t.Errorf("(%s, %q) not flagged incomplete", tc.kind, tc.name)
			}
			if !g.HasUnresolved(id) {
				t.Errorf("(%s, %q) has no unresolved edge recorded", tc.kind, tc.name)
			}
		}
	})

	t.Run("usage roots", func(t *testing.T) {
		rootSet := make(map[asset.NodeID]bool, len(res.Roots))
		for _, id := range res.Roots {
			rootSet[id] = true
		}
		for _, tc := range []struct {
			kind asset.Kind
			name string
		}{
			{asset.KindGenericManaged, "rock1"},
			{asset.KindRoad, "main_road"},
			{asset.KindGenericManaged, "theTerrain"},
			{asset.KindForestItemData, "oak_small"},
			{asset.KindDecal, "crack_decal"},
			{asset.KindTerrainMaterial, "grass"},
		} {
			if !rootSet[mustLookup(t, g, tc.kind, tc.name)] {
				t.Errorf("(%s, %q) missing from roots", tc.kind, tc.name)
			}
		}
		if brush, ok := g.Lookup(asset.KindForestBrush, "oak_brush"); ok && rootSet[brush] {
			t.Error("brush is a direct root; brush usage is derived, not direct")
		}
	})

	t.Run("unknown placements reported", func(t *testing.T) {
		if len(res.UnknownUsage) != 2 {
			t.Fatalf("UnknownUsage = %v, want ghost_tree and rock_layer", res.UnknownUsage)
		}
		names := make(map[string]bool)
		for _, u := range res.UnknownUsage {
			names[u.Name] = true
		}
		if !names["ghost_tree"] || !names["rock_layer"] {
			t.Errorf("UnknownUsage names = %v", names)
		}
	})

	t.Run("terrain datafile claimed", func(t *testing.T) {
		id := mustLookup(t, g, asset.KindGenericManaged, "theTerrain.terrain.json")
		claimed := strings.Join(g.Node(id).ClaimedPaths(), ",")
		if !strings.Contains(claimed, "terrain.ter") {
			t.Errorf("terrain claims = %q, want the heightmap payload", claimed)
		}
	})

	t.Run("diagnostics", func(t *testing.T) {
		if n := collector.Count(diag.Error); n != 0 {
			t.Errorf("error events = %d, want 0: %v", n, collector.Events())
		}
		// Two unknown placements plus three unresolved references.
		if n := collector.Count(diag.Warning); n != 5 {
			t.Errorf("warning events = %d, want 5: %v", n, collector.Events())
		}
	})
}

func TestBuildCancellation(t *testing.T) {
	root, name := fixtureLevel(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Build(ctx, Options{LevelsRoot: root, Level: name})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if res == nil || res.Graph == nil {
		t.Fatal("canceled build returned no partial result")
	}
}

func TestBuildSkipsUnparseableFile(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "tiny")
	writeLevelFile(t, dir, "art/forest/managedItemData.json", "{{{{ not json")
	writeLevelFile(t, dir, "info.json", `{"title":"Tiny"}`)

	collector := diag.NewCollector()
	res, err := Build(context.Background(), Options{LevelsRoot: root, Level: "tiny", Sink: collector})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.FilesSkipped != 1 {
		t.Errorf("FilesSkipped = %d, want 1", res.FilesSkipped)
	}
	if res.FilesRead != 1 {
		t.Errorf("FilesRead = %d, want 1", res.FilesRead)
	}
	if n := collector.Count(diag.Error); n != 1 {
		t.Errorf("error events = %d, want 1", n)
	}
}

func TestBuildValidation(t *testing.T) {
	root, _ := fixtureLevel(t)

	if _, err := Build(context.Background(), Options{LevelsRoot: root, Level: "no_such_level"}); err == nil {
		t.Error("unknown level accepted")
	}
	if _, err := Build(context.Background(), Options{LevelsRoot: filepath.Join(root, "missing"), Level: "x"}); err == nil {
		t.Error("missing root accepted")
	}
	if _, err := Build(context.Background(), Options{LevelsRoot: root, Level: "../escape"}); err == nil {
		t.Error("traversal level name accepted")
	}
}
