package vpath

import (
	"path"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
)

// archiveIndex holds one opened content archive with its entries indexed
// for the lookup strategies. Directory entries are skipped; entry names are
// matched case-insensitively because the game treats paths that way.
type archiveIndex struct {
	rc     *zip.ReadCloser
	byName map[string]*zip.File
	byBase map[string][]*zip.File
}

func openArchiveIndex(archivePath string) (*archiveIndex, error) {
	rc, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	idx := &archiveIndex{
		rc:     rc,
		byName: make(map[string]*zip.File, len(rc.File)),
		byBase: make(map[string][]*zip.File),
	}
	for _, f := range rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := strings.ToLower(path.Clean(f.Name))
		if _, ok := idx.byName[name]; !ok {
			idx.byName[name] = f
		}
		base := path.Base(name)
		idx.byBase[base] = append(idx.byBase[base], f)
	}
	return idx, nil
}

func (idx *archiveIndex) close() error { return idx.rc.Close() }

// exact returns the entry with the given name, or nil.
func (idx *archiveIndex) exact(name string) *zip.File {
	return idx.byName[strings.ToLower(path.Clean(name))]
}

// byBasename returns the entry whose filename matches, or nil. When several
// entries share the filename the lexically smallest full name wins, keeping
// resolution deterministic across runs.
func (idx *archiveIndex) byBasename(base string) *zip.File {
	files := idx.byBase[strings.ToLower(base)]
	switch len(files) {
	case 0:
		return nil
	case 1:
		return files[0]
	}
	best := files[0]
	for _, f := range files[1:] {
		if f.Name < best.Name {
			best = f
		}
	}
	return best
}

// Entries returns the sorted entry names, for diagnostics and tests.
func (idx *archiveIndex) entries() []string {
	names := make([]string, 0, len(idx.byName))
	for name := range idx.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
