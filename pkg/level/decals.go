package level

import (
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matzehuels/levelforge/pkg/asset"
	"github.com/matzehuels/levelforge/pkg/jsondoc"
)

// =============================================================================
// Managed Decal Data
// =============================================================================

// decalDataReader parses the managed decal container: a keyed object
// mapping decal names to records, each naming its material.
type decalDataReader struct{}

func (r *decalDataReader) Name() string { return "decal data" }

func (r *decalDataReader) Matches(rel string) bool {
	return path.Base(rel) == "managedDecalData.json"
}

func (r *decalDataReader) Read(sc *ScanContext, rel string, g *asset.Graph) error {
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
			Kind:         asset.KindDecal,
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
		if v := stringField(rec, "material"); v != "" {
			sc.AddRef(id, "material", asset.KindMaterial, cleanName(v), v, rel)
		}
	}
	return nil
}

// =============================================================================
// Decal Instances
// =============================================================================

// decalInstanceReader parses placed decal files: one record per instance,
// each naming its decal data. The distinct names become roots, and the file
// itself is registered as level structure so a shrink keeps it.
type decalInstanceReader struct{}

func (r *decalInstanceReader) Name() string { return "decal instances" }

func (r *decalInstanceReader) Matches(rel string) bool {
	return strings.HasSuffix(path.Base(rel), ".decals.json")
}

func (r *decalInstanceReader) Read(sc *ScanContext, rel string, g *asset.Graph) error {
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
		name := cleanName(stringField(obj, "decalData"))
		if name == "" {
			continue
		}
		seen[name] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sc.AddRoot(asset.KindDecal, name, rel)
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
