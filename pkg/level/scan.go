package level

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matzehuels/levelforge/pkg/asset"
	"github.com/matzehuels/levelforge/pkg/diag"
	"github.com/matzehuels/levelforge/pkg/errors"
	"github.com/matzehuels/levelforge/pkg/vpath"
)

// =============================================================================
// Options and Result
// =============================================================================

// Options configures one scan. LevelsRoot and Level are required; the rest
// have working defaults.
type Options struct {
	// LevelsRoot is the directory containing all levels.
	LevelsRoot string

	// Level is the level directory name under LevelsRoot.
	Level string

	// GameDir is the game content directory for link resolution. May be
	// empty; link references then stay unresolved.
	GameDir string

	// ImageExts is the image extension preference order. Nil selects the
	// resolver default.
	ImageExts []string

	// Sink receives scan diagnostics. Nil discards them.
	Sink diag.Sink

	// Resolver overrides the resolver built from the options above. The
	// caller keeps ownership; Build never closes a supplied resolver.
	Resolver *vpath.Resolver
}

func (o *Options) validate() (string, error) {
	if err := errors.ValidateLevelName(o.Level); err != nil {
		return "", err
	}
	if ok, err := isDir(o.LevelsRoot); err != nil || !ok {
		return "", errors.New(errors.ErrCodeRootNotFound, "levels root %q is not a readable directory", o.LevelsRoot)
	}
	levelDir := filepath.Join(o.LevelsRoot, o.Level)
	if ok, err := isDir(levelDir); err != nil || !ok {
		return "", errors.New(errors.ErrCodeLevelNotFound, "level %q not found under %q", o.Level, o.LevelsRoot)
	}
	return levelDir, nil
}

// Result is the outcome of one scan. On cancellation the graph holds
// everything read so far and the error from Build reports the cause.
type Result struct {
	Graph *asset.Graph

	// Roots are the nodes directly referenced by the level's placement
	// and usage files, sorted and deduplicated.
	Roots []asset.NodeID

	// FilesRead and FilesSkipped count container files.
	FilesRead    int
	FilesSkipped int

	// UnknownUsage lists placement references that matched no node.
	UnknownUsage []UsageMiss
}

// UsageMiss is a placement reference to a node the scan never found.
type UsageMiss struct {
	Kind asset.Kind
	Name string
	Path string
}

// =============================================================================
// Scan Context
// =============================================================================

// ScanContext carries the collaborators of one scan. It is constructed by
// Build, passed into every reader, and discarded when the scan ends; no
// state survives between scans.
type ScanContext struct {
	LevelsRoot string
	LevelDir   string
	LevelName  string
	Resolver   *vpath.Resolver
	Sink       diag.Sink

	refs      []pendingRef
	parents   []pendingParent
	usage     []usageRef
	rootNodes []asset.NodeID
}

// pendingRef is a named reference recorded during the node pass and linked
// afterwards, so forward references within one file resolve.
type pendingRef struct {
	from  asset.NodeID
	field string
	kind  asset.Kind
	name  string // canonical target name for graph lookup
	raw   string // reference as written, for byte resolution
	path  string // container file, for diagnostics
}

// pendingParent is a child record naming its parent container object.
type pendingParent struct {
	child      asset.NodeID
	parentKind asset.Kind
	parentName string
	path       string
}

// usageRef is a placement-file reference that makes its target a root.
type usageRef struct {
	kind asset.Kind
	name string
	path string
}

// AddRef records a named reference from a node for the linking pass.
func (sc *ScanContext) AddRef(from asset.NodeID, field string, kind asset.Kind, name, raw, rel string) {
	if name == "" {
		return
	}
	sc.refs = append(sc.refs, pendingRef{from: from, field: field, kind: kind, name: name, raw: raw, path: rel})
}

// AddParent records that child's record names a parent container object.
func (sc *ScanContext) AddParent(child asset.NodeID, parentKind asset.Kind, parentName, rel string) {
	if parentName == "" {
		return
	}
	sc.parents = append(sc.parents, pendingParent{child: child, parentKind: parentKind, parentName: parentName, path: rel})
}

// AddRoot marks the named node as directly used by the level.
func (sc *ScanContext) AddRoot(kind asset.Kind, name, rel string) {
	if name == "" {
		return
	}
	sc.usage = append(sc.usage, usageRef{kind: kind, name: name, path: rel})
}

// AddRootNode marks an already-created node as directly used.
func (sc *ScanContext) AddRootNode(id asset.NodeID) {
	sc.rootNodes = append(sc.rootNodes, id)
}

// Infof publishes an informational scan event.
func (sc *ScanContext) Infof(rel, format string, args ...any) {
	diag.Infof(sc.Sink, rel, format, args...)
}

// Warningf publishes a warning scan event.
func (sc *ScanContext) Warningf(rel, format string, args ...any) {
	diag.Warningf(sc.Sink, rel, format, args...)
}

// Errorf publishes an error scan event.
func (sc *ScanContext) Errorf(rel, format string, args ...any) {
	diag.Errorf(sc.Sink, rel, format, args...)
}

// =============================================================================
// Build
// =============================================================================

// Build scans a level directory into an asset graph. Files are read one at
// a time in sorted order; cancellation is honored between files, returning
// the partial result together with the context error. Unparseable files and
// unresolved references degrade to diagnostics, never abort the scan.
func Build(ctx context.Context, opts Options) (*Result, error) {
	levelDir, err := opts.validate()
	if err != nil {
		return nil, err
	}
	sink := opts.Sink
	if sink == nil {
		sink = diag.Discard()
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = vpath.NewResolver(levelDir, opts.LevelsRoot, opts.GameDir, opts.ImageExts)
		defer resolver.Close()
	}

	sc := &ScanContext{
		LevelsRoot: opts.LevelsRoot,
		LevelDir:   levelDir,
		LevelName:  opts.Level,
		Resolver:   resolver,
		Sink:       sink,
	}
	g := asset.NewGraph()
	res := &Result{Graph: g}

	rels, err := containerFiles(levelDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLevelNotFound, err, "cannot walk level %q", opts.Level)
	}

	readers := Readers()
	for _, rel := range rels {
		if err := ctx.Err(); err != nil {
			sc.finish(g, res)
			return res, err
		}
		r := matchReader(rel, readers)
		if r == nil {
			continue
		}
		if err := r.Read(sc, rel, g); err != nil {
			res.FilesSkipped++
			sc.Errorf(rel, "skipped %s file: %v", r.Name(), err)
			continue
		}
		res.FilesRead++
	}

	sc.finish(g, res)
	sc.Infof("", "scanned %d files into %d nodes, %d edges (%d incomplete)",
		res.FilesRead, g.Len(), g.EdgeCount(), g.IncompleteCount())
	return res, nil
}

// finish runs the linking pass and resolves usage roots. It also runs on
// cancellation so a partial graph is still internally consistent.
func (sc *ScanContext) finish(g *asset.Graph, res *Result) {
	sc.linkRefs(g)
	sc.linkParents(g)
	linkShapeMaterials(g)
	sc.resolveRoots(g, res)
}

// containerFiles lists all regular files under dir as sorted level-relative
// slash paths.
func containerFiles(dir string) ([]string, error) {
	var rels []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rels = append(rels, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(rels)
	return rels, nil
}

func isDir(p string) (bool, error) {
	if p == "" {
		return false, nil
	}
	info, err := os.Stat(p)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// =============================================================================
// Linking Pass
// =============================================================================

func (sc *ScanContext) linkRefs(g *asset.Graph) {
	for _, ref := range sc.refs {
		id, ok := g.Lookup(ref.kind, ref.name)
		if !ok && ref.kind == asset.KindTexture {
			id, ok = sc.addTextureNode(g, ref)
		}
		if !ok {
			_ = g.AddUnresolved(ref.from, ref.field, ref.kind, ref.name)
			sc.Warningf(ref.path, "unresolved %s reference %q (field %s)", ref.kind, ref.raw, ref.field)
			continue
		}
		_ = g.AddEdge(ref.from, id, ref.field)
	}
	sc.refs = nil
}

func (sc *ScanContext) linkParents(g *asset.Graph) {
	for _, pp := range sc.parents {
		id, ok := g.Lookup(pp.parentKind, pp.parentName)
		if !ok {
			_ = g.AddUnresolved(pp.child, "__parent", pp.parentKind, pp.parentName)
			sc.Warningf(pp.path, "missing parent %q for %q", pp.parentName, g.Node(pp.child).DisplayName())
			continue
		}
		_ = g.AddEdge(id, pp.child, "__parent")
	}
	sc.parents = nil
}

// addTextureNode creates a path-identified texture node on first reference.
// Textures have no container records of their own; a reference that
// resolves to bytes is the only way one enters the graph.
func (sc *ScanContext) addTextureNode(g *asset.Graph, ref pendingRef) (asset.NodeID, bool) {
	hit, err := sc.Resolver.ResolveImage(ref.raw)
	if err != nil || !hit.Found {
		return asset.None, false
	}
	n := asset.Node{
		Kind:      asset.KindTexture,
		Name:      ref.name,
		Location:  ref.raw,
		SizeBytes: hit.Size,
	}
	for _, p := range []string{hit.Path, hit.Via} {
		if rel, ok := sc.insideLevel(p); ok {
			n.Claims = append(n.Claims, rel)
		}
	}
	id, err := g.Add(n)
	if err != nil {
		return asset.None, false
	}
	return id, true
}

// insideLevel maps an absolute path back to a level-relative slash path.
func (sc *ScanContext) insideLevel(p string) (string, bool) {
	if p == "" {
		return "", false
	}
	rel, err := filepath.Rel(sc.LevelDir, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// linkShapeMaterials connects each shape to the materials declared in its
// directory. The shape format names no materials file; co-location is the
// convention. A shape whose directory declares none keeps its node but is
// flagged incomplete.
func linkShapeMaterials(g *asset.Graph) {
	byDir := make(map[string][]asset.NodeID)
	for _, id := range g.NodesOfKind(asset.KindMaterial) {
		n := g.Node(id)
		if n.Container.Path == "" {
			continue
		}
		dir := path.Dir(strings.ToLower(n.Container.Path))
		byDir[dir] = append(byDir[dir], id)
	}
	for _, sid := range g.NodesOfKind(asset.KindShape) {
		dir := path.Dir(g.Node(sid).Name)
		mats := byDir[dir]
		if len(mats) == 0 {
			g.Node(sid).Incomplete = true
			continue
		}
		for _, mid := range mats {
			_ = g.AddEdge(sid, mid, "materials")
		}
	}
}

func (sc *ScanContext) resolveRoots(g *asset.Graph, res *Result) {
	seen := make(map[asset.NodeID]struct{}, len(sc.rootNodes))
	add := func(id asset.NodeID) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		res.Roots = append(res.Roots, id)
	}
	for _, id := range sc.rootNodes {
		add(id)
	}
	for _, u := range sc.usage {
		id, ok := g.Lookup(u.kind, u.name)
		if !ok {
			res.UnknownUsage = append(res.UnknownUsage, UsageMiss{Kind: u.kind, Name: u.name, Path: u.path})
			sc.Warningf(u.path, "placement references unknown %s %q", u.kind, u.name)
			continue
		}
		add(id)
	}
	sc.rootNodes = nil
	sc.usage = nil
	sort.Slice(res.Roots, func(i, j int) bool { return res.Roots[i] < res.Roots[j] })
}
