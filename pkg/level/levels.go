package level

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/matzehuels/levelforge/pkg/asset"
	"github.com/matzehuels/levelforge/pkg/errors"
	"github.com/matzehuels/levelforge/pkg/jsondoc"
)

// infoReader registers the level metadata file so scans account for it.
type infoReader struct{}

func (r *infoReader) Name() string { return "level info" }

func (r *infoReader) Matches(rel string) bool {
	return rel == "info.json"
}

func (r *infoReader) Read(sc *ScanContext, rel string, g *asset.Graph) error {
	obj, err := readKeyedFile(sc, rel)
	if err != nil {
		return err
	}
	id, err := g.Add(asset.Node{
		Kind:      asset.KindGenericManaged,
		Name:      rel,
		Location:  rel,
		Container: asset.ContainerRef{Path: rel},
		SizeBytes: recordSize(obj),
		Doc:       obj,
	})
	if err != nil {
		return nil
	}
	sc.AddRootNode(id)
	return nil
}

// =============================================================================
// Level Listing
// =============================================================================

// Info describes one level directory for listings.
type Info struct {
	// Name is the directory name, the identifier every command takes.
	Name string

	// Title is the display title from the level metadata, or "".
	Title string

	// Path is the absolute level directory.
	Path string

	// SizeBytes is the total size of the level's files.
	SizeBytes int64
}

// List enumerates the level directories under root with their metadata,
// sorted by name.
func List(root string) ([]Info, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRootNotFound, err, "cannot read levels root %q", root)
	}

	var out []Info
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		out = append(out, Info{
			Name:      e.Name(),
			Title:     ReadTitle(dir),
			Path:      dir,
			SizeBytes: dirSize(dir),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ReadTitle returns the title from a level's metadata file, or "" when the
// file is absent or unreadable.
func ReadTitle(levelDir string) string {
	data, err := os.ReadFile(filepath.Join(levelDir, "info.json"))
	if err != nil {
		return ""
	}
	v, _, err := jsondoc.Parse(data)
	if err != nil {
		return ""
	}
	obj, ok := v.(*jsondoc.Object)
	if !ok {
		return ""
	}
	title, _ := obj.GetString("title")
	return title
}

func dirSize(dir string) int64 {
	var total int64
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
