package level

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matzehuels/levelforge/pkg/asset"
	"github.com/matzehuels/levelforge/pkg/jsondoc"
)

// =============================================================================
// Forest Placements
// =============================================================================

// placementReader parses forest placement files: one record per planted
// instance, each naming its item data by type. The distinct type values
// become roots. The file itself is registered as level structure, so a
// shrink never treats it as an unclaimed managed file.
type placementReader struct{}

func (r *placementReader) Name() string { return "forest placements" }

func (r *placementReader) Matches(rel string) bool {
	return strings.HasSuffix(path.Base(rel), ".forest4.json")
}

func (r *placementReader) Read(sc *ScanContext, rel string, g *asset.Graph) error {
	records, lineErrs, err := readNDJSONFile(filepath.Join(sc.LevelDir, filepath.FromSlash(rel)))
	if err != nil {
		return err
	}
	reportLineErrors(sc, rel, lineErrs)

	seen := make(map[string]struct{})
	for _, rec := range records {
		obj, ok := rec.Value.(*jsondoc.Object)
		if !ok {
			continue
		}
		t := cleanName(stringField(obj, "type"))
		if t == "" {
			continue
		}
		seen[t] = struct{}{}
	}

	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		sc.AddRoot(asset.KindForestItemData, t, rel)
	}

	if id, err := g.Add(asset.Node{
		Kind:      asset.KindGenericManaged,
		Name:      rel,
		Location:  rel,
		Container: asset.ContainerRef{Path: rel},
	}); err == nil {
		sc.AddRootNode(id)
	}
	return nil
}

// =============================================================================
// Managed Forest Item Data
// =============================================================================

// itemDataReader parses the managed forest item data container: a keyed
// object mapping names to item records, each naming its shape payload.
type itemDataReader struct{}

func (r *itemDataReader) Name() string { return "forest item data" }

func (r *itemDataReader) Matches(rel string) bool {
	return path.Base(rel) == "managedItemData.json"
}

func (r *itemDataReader) Read(sc *ScanContext, rel string, g *asset.Graph) error {
	obj, err := readKeyedFile(sc, rel)
	if err != nil {
		return err
	}

	for _, key := range obj.Keys() {
		rec, ok := obj.GetObject(key)
		if !ok {
			sc.Warningf(rel, "entry %q: not an object, skipped", key)
			continue
		}
		n := asset.Node{
			Kind:         asset.KindForestItemData,
			Name:         key,
			InternalName: cleanName(stringField(rec, "internalName")),
			PersistentID: stringField(rec, "persistentId"),
			Container:    asset.ContainerRef{Path: rel, Key: key},
			SizeBytes:    recordSize(rec),
			Doc:          rec,
		}
		id, err := g.Add(n)
		if err != nil {
			sc.Warningf(rel, "entry %q: duplicate %s dropped", key, n.Kind)
			continue
		}
		if v := stringField(rec, "shapeFile"); v != "" {
			sc.AddRef(id, "shapeFile", asset.KindShape, canonicalShapePath(sc.LevelName, v), v, rel)
		}
	}
	return nil
}

// =============================================================================
// Forest Brushes
// =============================================================================

// brushReader parses the brush container: grouping objects, brushes, and
// brush elements, one record per line. Parent fields wire the hierarchy;
// elements name the item data they plant.
type brushReader struct{}

func (r *brushReader) Name() string { return "forest brushes" }

func (r *brushReader) Matches(rel string) bool {
	return path.Base(rel) == "forestBrushes.json"
}

func (r *brushReader) Read(sc *ScanContext, rel string, g *asset.Graph) error {
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
		var kind asset.Kind
		switch class {
		case "ForestBrush":
			kind = asset.KindForestBrush
		case "ForestBrushElement":
			kind = asset.KindForestBrushElement
		default:
			// Grouping objects and anything unrecognized.
			kind = asset.KindGenericManaged
		}

		n := asset.Node{
			Kind:         kind,
			Name:         brushName(obj, rel, rec.Line),
			InternalName: cleanName(stringField(obj, "internalName")),
			PersistentID: stringField(obj, "persistentId"),
			Container:    asset.ContainerRef{Path: rel, Line: rec.Line},
			SizeBytes:    int64(len(rec.Raw)),
			Doc:          obj,
		}
		id, err := g.Add(n)
		if err != nil {
			sc.Warningf(rel, "line %d: duplicate %s %q dropped", rec.Line, n.Kind, n.EffectiveName())
			continue
		}

		parent := cleanName(stringField(obj, "__parent"))
		switch kind {
		case asset.KindForestBrush:
			sc.AddParent(id, asset.KindGenericManaged, parent, rel)
		case asset.KindForestBrushElement:
			sc.AddParent(id, asset.KindForestBrush, parent, rel)
			if v := stringField(obj, "forestItemData"); v != "" {
				sc.AddRef(id, "forestItemData", asset.KindForestItemData, cleanName(v), v, rel)
			}
		}
	}
	return nil
}

// brushName picks the display name for a brush record, falling back to the
// internal name and finally the file position.
func brushName(obj *jsondoc.Object, rel string, line int) string {
	if v := cleanName(stringField(obj, "name")); v != "" {
		return v
	}
	if v := cleanName(stringField(obj, "internalName")); v != "" {
		return v
	}
	return fmt.Sprintf("%s#%d", rel, line)
}

// recordSize estimates a keyed record's on-disk footprint.
func recordSize(rec *jsondoc.Object) int64 {
	data, err := jsondoc.Marshal(rec)
	if err != nil {
		return 0
	}
	return int64(len(data))
}
