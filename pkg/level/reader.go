package level

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/matzehuels/levelforge/pkg/asset"
	"github.com/matzehuels/levelforge/pkg/jsondoc"
)

// =============================================================================
// Container Reader Registry
// =============================================================================

// ContainerReader parses one container file format into graph nodes and
// reference intents. Readers never resolve references themselves; they
// record them on the scan context for the linking pass, since forward
// references within one file are legal.
type ContainerReader interface {
	// Name returns the format identifier used in diagnostics.
	Name() string
	// Matches reports whether this reader handles the level-relative path.
	Matches(rel string) bool
	// Read parses the file at rel and populates the graph and the scan
	// context. Returning an error skips the file; the scan continues.
	Read(sc *ScanContext, rel string, g *asset.Graph) error
}

// Readers returns the container readers in matching order. More specific
// filename patterns come before the generic materials suffix match.
func Readers() []ContainerReader {
	return []ContainerReader{
		&itemsReader{},
		&placementReader{},
		&itemDataReader{},
		&brushReader{},
		&decalDataReader{},
		&decalInstanceReader{},
		&terrainReader{},
		&materialsReader{},
		&shapeReader{},
		&infoReader{},
	}
}

// matchReader returns the first reader claiming rel, or nil.
func matchReader(rel string, readers []ContainerReader) ContainerReader {
	for _, r := range readers {
		if r.Matches(rel) {
			return r
		}
	}
	return nil
}

// =============================================================================
// Name and Path Normalization
// =============================================================================

// cleanName normalizes an authored node name. Internal names are compared
// exactly after trimming surrounding whitespace.
func cleanName(s string) string {
	return strings.TrimSpace(s)
}

// canonicalPath turns a reference into the name of a path-identified node:
// forward slashes, no leading slash, the own-level prefix stripped, and
// lowercased so authored case differences cannot split one file into two
// nodes.
func canonicalPath(levelName, ref string) string {
	return strings.ToLower(levelRelative(levelName, ref))
}

// canonicalShapePath is canonicalPath with the compiled-shape extension
// folded onto the source extension, so a shape and its compiled sibling
// share one node.
func canonicalShapePath(levelName, ref string) string {
	p := canonicalPath(levelName, ref)
	if strings.HasSuffix(p, ".cdae") {
		p = strings.TrimSuffix(p, ".cdae") + ".dae"
	}
	return p
}

// levelRelative strips the "/levels/<name>/" prefix when it names the given
// level, preserving the authored case of the remainder. References into
// other levels or game content keep their full path.
func levelRelative(levelName, ref string) string {
	clean := path.Clean(strings.TrimPrefix(strings.ReplaceAll(ref, "\\", "/"), "/"))
	if rest, ok := strings.CutPrefix(clean, "levels/"); ok {
		name, sub, found := strings.Cut(rest, "/")
		if found && strings.EqualFold(name, levelName) {
			return sub
		}
	}
	return clean
}

// =============================================================================
// Shared File Helpers
// =============================================================================

// stringField returns the string value of key, or "".
func stringField(obj *jsondoc.Object, key string) string {
	v, _ := obj.GetString(key)
	return v
}

// readNDJSONFile opens and decodes one line-delimited container file.
func readNDJSONFile(p string) ([]jsondoc.Record, []jsondoc.LineError, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return jsondoc.ReadNDJSON(f)
}

// readKeyedFile parses a whole-file keyed-object container and reports its
// repairs and duplicate keys.
func readKeyedFile(sc *ScanContext, rel string) (*jsondoc.Object, error) {
	data, err := os.ReadFile(filepath.Join(sc.LevelDir, filepath.FromSlash(rel)))
	if err != nil {
		return nil, err
	}
	v, info, err := jsondoc.Parse(data)
	if err != nil {
		return nil, err
	}
	reportParseInfo(sc, rel, "", info)
	obj, ok := v.(*jsondoc.Object)
	if !ok {
		return nil, fmt.Errorf("top-level value is not an object")
	}
	return obj, nil
}

func reportLineErrors(sc *ScanContext, rel string, lineErrs []jsondoc.LineError) {
	for _, le := range lineErrs {
		sc.Warningf(rel, "line %d skipped: %v", le.Line, le.Err)
	}
}

// reportParseInfo publishes one warning per dropped duplicate key plus one
// for a repaired file. where prefixes the message with record context.
func reportParseInfo(sc *ScanContext, rel, where string, info jsondoc.ParseInfo) {
	for _, key := range info.DuplicateKeys {
		sc.Warningf(rel, "%sduplicate key %q dropped (first value kept)", where, key)
	}
	if info.Repaired {
		sc.Warningf(rel, "%smalformed JSON repaired", where)
	}
}
