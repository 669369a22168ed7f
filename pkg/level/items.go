package level

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/matzehuels/levelforge/pkg/asset"
	"github.com/matzehuels/levelforge/pkg/jsondoc"
)

// itemsReader parses mission item files: one object per line describing a
// placed game object. Every item is a usage root. Recognized classes
// contribute typed references; everything else becomes a generic managed
// node so the scan still accounts for it.
type itemsReader struct{}

func (r *itemsReader) Name() string { return "mission items" }

func (r *itemsReader) Matches(rel string) bool {
	return path.Base(rel) == "items.level.json"
}

func (r *itemsReader) Read(sc *ScanContext, rel string, g *asset.Graph) error {
	records, lineErrs, err := readNDJSONFile(filepath.Join(sc.LevelDir, filepath.FromSlash(rel)))
	if err != nil {
		return err
	}
	reportLineErrors(sc, rel, lineErrs)

	for _, rec := range records {
		obj, ok := rec.Value.(*jsondoc.Object)
		if !ok {
			sc.Warningf(rel, "line %d: not an object, skipped", rec.Line)
			continue
		}
		reportParseInfo(sc, rel, fmt.Sprintf("line %d: ", rec.Line), rec.Info)

		class, _ := obj.GetString("class")
		kind := asset.KindGenericManaged
		if class == "DecalRoad" {
			kind = asset.KindRoad
		}

		n := asset.Node{
			Kind:         kind,
			Name:         itemName(obj, rel, rec.Line),
			InternalName: cleanName(stringField(obj, "internalName")),
			PersistentID: stringField(obj, "persistentId"),
			Container:    asset.ContainerRef{Path: rel, Line: rec.Line},
			SizeBytes:    int64(len(rec.Raw)),
			Doc:          obj,
		}
		if class == "TerrainBlock" {
			if tf := stringField(obj, "terrainFile"); tf != "" {
				n.Claims = append(n.Claims, levelRelative(sc.LevelName, tf))
			}
		}

		id, err := g.Add(n)
		if err != nil {
			sc.Warningf(rel, "line %d: duplicate %s %q dropped", rec.Line, n.Kind, n.EffectiveName())
			continue
		}
		sc.AddRootNode(id)

		switch class {
		case "TSStatic":
			if v := stringField(obj, "shapeName"); v != "" {
				sc.AddRef(id, "shapeName", asset.KindShape, canonicalShapePath(sc.LevelName, v), v, rel)
			}
		case "DecalRoad":
			if v := stringField(obj, "material"); v != "" {
				sc.AddRef(id, "material", asset.KindMaterial, cleanName(v), v, rel)
			}
		}
	}
	return nil
}

// itemName picks a stable node name for a mission item. Nameless items fall
// back to their file position, which is unique by construction.
func itemName(obj *jsondoc.Object, rel string, line int) string {
	for _, key := range []string{"name", "internalName", "persistentId"} {
		if v := cleanName(stringField(obj, key)); v != "" {
			return v
		}
	}
	return fmt.Sprintf("%s#%d", rel, line)
}

