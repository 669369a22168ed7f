// Package vpath resolves reference strings from container files to readable
// bytes.
//
// A reference can be a plain file under the level, a path with an ambiguous
// image extension (authors write .png where the real file is .dds, and vice
// versa), or a link file: a small JSON payload naming a canonical asset path
// that lives inside one of the game's content archives. Resolution failures
// are reported as "not found", never as errors - callers decide whether a
// missing dependency is fatal to the operation in progress.
//
// A Resolver is created per scan and owns its memoized archive indexes;
// nothing is shared between concurrent scans.
package vpath

import (
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/matzehuels/levelforge/pkg/jsondoc"
	"github.com/matzehuels/levelforge/pkg/observability"
)

// LinkExt is the indirect-marker extension. A reference ending in it names
// a JSON payload instead of the asset itself.
const LinkExt = ".link"

// DefaultImageExts is the image extension preference order used when the
// configuration does not override it.
var DefaultImageExts = []string{".dds", ".png", ".jpg", ".jpeg"}

// Hit is the result of a resolution attempt.
type Hit struct {
	// Found reports whether the reference resolved to readable bytes.
	Found bool

	// Path is the filesystem path for on-disk hits, empty for archive
	// hits.
	Path string

	// Archive and Entry locate the bytes inside a content archive, empty
	// for on-disk hits.
	Archive string
	Entry   string

	// Via is the link file the resolution chased, when the reference was
	// satisfied through one.
	Via string

	// Size is the uncompressed payload size estimate.
	Size int64

	file *zip.File
}

// InArchive reports whether the hit lives inside a content archive.
func (h Hit) InArchive() bool { return h.Archive != "" }

// Open returns a reader for the resolved bytes. The caller closes it.
func (h Hit) Open() (io.ReadCloser, error) {
	if h.file != nil {
		return h.file.Open()
	}
	return os.Open(h.Path)
}

// Location returns a display string for diagnostics: the disk path, or
// archive::entry for archive hits.
func (h Hit) Location() string {
	if h.InArchive() {
		return h.Archive + "::" + h.Entry
	}
	return h.Path
}

// Resolver maps reference strings to bytes for one level. The zero value is
// not usable - use NewResolver.
type Resolver struct {
	// LevelDir is the absolute path of the level being scanned.
	LevelDir string

	// LevelsRoot is the directory containing all levels, used to resolve
	// references into sibling levels. May be empty.
	LevelsRoot string

	// GameDir is the game content directory holding loose files and
	// archives. May be empty when the game install is not configured;
	// link resolution then always misses.
	GameDir string

	// ImageExts is the extension preference order for ambiguous image
	// references.
	ImageExts []string

	archives map[string]*archiveIndex
}

// NewResolver creates a resolver for one scan. imageExts may be nil to use
// [DefaultImageExts].
func NewResolver(levelDir, levelsRoot, gameDir string, imageExts []string) *Resolver {
	if len(imageExts) == 0 {
		imageExts = DefaultImageExts
	}
	return &Resolver{
		LevelDir:   levelDir,
		LevelsRoot: levelsRoot,
		GameDir:    gameDir,
		ImageExts:  imageExts,
		archives:   make(map[string]*archiveIndex),
	}
}

// Close releases the memoized archive handles.
func (r *Resolver) Close() error {
	var first error
	for _, idx := range r.archives {
		if idx == nil {
			continue
		}
		if err := idx.close(); err != nil && first == nil {
			first = err
		}
	}
	r.archives = make(map[string]*archiveIndex)
	return first
}

// Resolve maps a reference string to bytes. Link references are chased
// through the game archives; everything else is tried as a plain file under
// the level (or sibling level), then as a link file standing in for the
// named path. Absence is a miss, not an error.
func (r *Resolver) Resolve(ref string) (Hit, error) {
	if ref == "" {
		return Hit{}, nil
	}
	hit, err := r.resolve(ref)
	observe(ref, hit, err)
	return hit, err
}

func (r *Resolver) resolve(ref string) (Hit, error) {
	if strings.EqualFold(path.Ext(ref), LinkExt) {
		return r.resolveLink(ref)
	}
	return r.resolveFileOrLink(ref)
}

// ResolveImage resolves an image reference, tolerating a wrong extension:
// the literal name is tried first, then each preferred extension in order.
// Link indirection applies per candidate, before the extension fallback
// moves on.
func (r *Resolver) ResolveImage(ref string) (Hit, error) {
	if ref == "" {
		return Hit{}, nil
	}
	hit, err := r.resolveImage(ref)
	observe(ref, hit, err)
	return hit, err
}

func (r *Resolver) resolveImage(ref string) (Hit, error) {
	if strings.EqualFold(path.Ext(ref), LinkExt) {
		return r.resolveLink(ref)
	}

	hit, err := r.resolveFileOrLink(ref)
	if err != nil || hit.Found {
		return hit, err
	}

	base := strings.TrimSuffix(ref, path.Ext(ref))
	for _, ext := range r.ImageExts {
		hit, err := r.resolveFileOrLink(base + ext)
		if err != nil || hit.Found {
			return hit, err
		}
	}
	return Hit{}, nil
}

// observe reports the outcome of one public resolution to the registered
// resolve hooks. Internal probing of candidates is not reported.
func observe(ref string, hit Hit, err error) {
	if err != nil {
		return
	}
	if hit.Found {
		observability.Resolve().OnResolveHit(ref, hit.InArchive())
	} else {
		observability.Resolve().OnResolveMiss(ref)
	}
}

// resolveFileOrLink tries the reference as a plain file, then as the same
// name with the link marker appended. Authors reference "x.dds" while the
// level ships "x.dds.link" pointing into game content.
func (r *Resolver) resolveFileOrLink(ref string) (Hit, error) {
	hit, err := r.resolveFile(ref)
	if err != nil || hit.Found {
		return hit, err
	}
	return r.resolveLink(ref + LinkExt)
}

// resolveFile tries a reference as a plain file on disk.
func (r *Resolver) resolveFile(ref string) (Hit, error) {
	for _, p := range r.candidatePaths(ref) {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Hit{}, err
		}
		if info.IsDir() {
			continue
		}
		return Hit{Found: true, Path: p, Size: info.Size()}, nil
	}
	return Hit{}, nil
}

// candidatePaths expands a reference into the filesystem locations it may
// mean, in priority order. Container files write level-absolute paths such
// as "/levels/west_coast/art/x.dds"; those map back under the level roots.
func (r *Resolver) candidatePaths(ref string) []string {
	clean := path.Clean(strings.TrimPrefix(filepath.ToSlash(ref), "/"))
	var out []string

	if rest, ok := strings.CutPrefix(clean, "levels/"); ok {
		name, sub, found := strings.Cut(rest, "/")
		if found {
			if name == filepath.Base(r.LevelDir) {
				out = append(out, filepath.Join(r.LevelDir, filepath.FromSlash(sub)))
			} else if r.LevelsRoot != "" {
				out = append(out, filepath.Join(r.LevelsRoot, name, filepath.FromSlash(sub)))
			}
		}
	} else {
		out = append(out, filepath.Join(r.LevelDir, filepath.FromSlash(clean)))
	}

	if r.GameDir != "" {
		out = append(out, filepath.Join(r.GameDir, filepath.FromSlash(clean)))
	}
	return out
}

// resolveLink reads the link payload and chases the canonical path it names
// into the game content directory, descending until a path segment turns out
// to be an archive.
func (r *Resolver) resolveLink(ref string) (Hit, error) {
	payload, err := r.resolveFile(ref)
	if err != nil || !payload.Found {
		return Hit{}, err
	}

	data, err := os.ReadFile(payload.Path)
	if err != nil {
		return Hit{}, err
	}
	v, _, err := jsondoc.Parse(data)
	if err != nil {
		// A malformed link payload is a miss, not a failure.
		return Hit{}, nil
	}
	obj, ok := v.(*jsondoc.Object)
	if !ok {
		return Hit{}, nil
	}
	target, ok := obj.GetString("path")
	if !ok || target == "" {
		return Hit{}, nil
	}
	hit, err := r.resolveCanonical(target)
	if hit.Found {
		hit.Via = payload.Path
	}
	return hit, err
}

// resolveCanonical walks the canonical path's segments under GameDir. The
// walk stops at the first segment that is an archive; the remainder is
// looked up as an entry inside it. A canonical path that stays on disk all
// the way down resolves as a plain file.
func (r *Resolver) resolveCanonical(canonical string) (Hit, error) {
	if r.GameDir == "" {
		return Hit{}, nil
	}

	clean := path.Clean(strings.TrimPrefix(filepath.ToSlash(canonical), "/"))
	segs := strings.Split(clean, "/")

	for i := range segs {
		prefix := filepath.Join(r.GameDir, filepath.FromSlash(strings.Join(segs[:i+1], "/")))
		remainder := strings.Join(segs[i+1:], "/")

		info, err := os.Stat(prefix)
		switch {
		case err == nil && info.IsDir():
			continue
		case err == nil && strings.EqualFold(filepath.Ext(prefix), ".zip"):
			return r.lookupEntry(prefix, remainder)
		case err == nil && remainder == "":
			return Hit{Found: true, Path: prefix, Size: info.Size()}, nil
		case err == nil:
			// A plain file with path left over cannot resolve.
			return Hit{}, nil
		}

		// The segment does not exist as written; it may name an archive
		// without its extension ("content/levels" -> "levels.zip").
		zipPath := prefix + ".zip"
		if info, err := os.Stat(zipPath); err == nil && !info.IsDir() {
			return r.lookupEntry(zipPath, remainder)
		}
		return Hit{}, nil
	}
	return Hit{}, nil
}

// lookupEntry finds remainder inside the archive using the three lookup
// strategies: exact entry name, name with the leading segment stripped, and
// a filename-only match restricted to known image extensions.
func (r *Resolver) lookupEntry(archivePath, remainder string) (Hit, error) {
	if remainder == "" {
		return Hit{}, nil
	}
	idx, err := r.openArchive(archivePath)
	if err != nil {
		// Unreadable archives degrade to a miss; the caller reports the
		// missing dependency.
		return Hit{}, nil
	}

	if f := idx.exact(remainder); f != nil {
		return archiveHit(archivePath, f), nil
	}
	if _, stripped, found := strings.Cut(remainder, "/"); found {
		if f := idx.exact(stripped); f != nil {
			return archiveHit(archivePath, f), nil
		}
	}
	if isImageExt(path.Ext(remainder), r.ImageExts) {
		if f := idx.byBasename(path.Base(remainder)); f != nil {
			return archiveHit(archivePath, f), nil
		}
	}
	return Hit{}, nil
}

func (r *Resolver) openArchive(archivePath string) (*archiveIndex, error) {
	if idx, ok := r.archives[archivePath]; ok {
		if idx == nil {
			return nil, fs.ErrNotExist
		}
		return idx, nil
	}
	idx, err := openArchiveIndex(archivePath)
	if err != nil {
		r.archives[archivePath] = nil
		return nil, err
	}
	r.archives[archivePath] = idx
	return idx, nil
}

func archiveHit(archivePath string, f *zip.File) Hit {
	return Hit{
		Found:   true,
		Archive: archivePath,
		Entry:   f.Name,
		Size:    int64(f.UncompressedSize64),
		file:    f,
	}
}

func isImageExt(ext string, exts []string) bool {
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
