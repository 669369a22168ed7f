package level

import (
	"fmt"
	"path"
	"strings"

	"github.com/matzehuels/levelforge/pkg/asset"
	"github.com/matzehuels/levelforge/pkg/jsondoc"
)

// materialsReader parses keyed material containers. Shape materials live in
// *materials.json files next to their shapes; terrain materials live in the
// terrain art folder with class TerrainMaterial. Every map property and
// per-stage map property that names a texture path produces an edge.
type materialsReader struct{}

func (r *materialsReader) Name() string { return "materials" }

func (r *materialsReader) Matches(rel string) bool {
	return strings.HasSuffix(strings.ToLower(path.Base(rel)), "materials.json")
}

func (r *materialsReader) Read(sc *ScanContext, rel string, g *asset.Graph) error {
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

		kind := asset.KindMaterial
		if class, _ := rec.GetString("class"); class == "TerrainMaterial" {
			kind = asset.KindTerrainMaterial
		}

		n := asset.Node{
			Kind:         kind,
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

		for _, tr := range textureRefs(rec) {
			sc.AddRef(id, tr.field, asset.KindTexture, canonicalPath(sc.LevelName, tr.ref), tr.ref, rel)
		}
	}
	return nil
}

// textureRef is one texture-path property found in a material record.
type textureRef struct {
	field string
	ref   string
}

// textureRefs collects the texture references of a material record: every
// top-level map property plus the map properties of each entry in the
// Stages array.
func textureRefs(rec *jsondoc.Object) []textureRef {
	var out []textureRef
	for _, key := range rec.Keys() {
		if !isMapField(key) {
			continue
		}
		if v, ok := rec.GetString(key); ok && looksLikeTexturePath(v) {
			out = append(out, textureRef{field: key, ref: v})
		}
	}
	stages, ok := rec.GetArray("Stages")
	if !ok {
		stages, _ = rec.GetArray("stages")
	}
	for i, sv := range stages {
		stage, ok := sv.(*jsondoc.Object)
		if !ok {
			continue
		}
		for _, key := range stage.Keys() {
			if !isMapField(key) {
				continue
			}
			if v, ok := stage.GetString(key); ok && looksLikeTexturePath(v) {
				out = append(out, textureRef{field: fmt.Sprintf("stages[%d].%s", i, key), ref: v})
			}
		}
	}
	return out
}

// isMapField reports whether a record key names a texture map property
// (colorMap, normalMap, specularMap, annotationMap, and the rest of the
// family).
func isMapField(key string) bool {
	return strings.HasSuffix(strings.ToLower(key), "map")
}

// looksLikeTexturePath filters out the non-path values map properties can
// hold: empty strings, palette references ("#..."), and inline color
// literals ("1 0.5 0.5 1").
func looksLikeTexturePath(v string) bool {
	if v == "" || strings.HasPrefix(v, "#") {
		return false
	}
	return !strings.ContainsRune(v, ' ')
}
