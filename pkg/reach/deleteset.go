package reach

import (
	"path"
	"sort"
	"strings"

	"github.com/matzehuels/levelforge/pkg/asset"
)

// DeleteOptions configures a shrink-mode delete-set computation.
type DeleteOptions struct {
	// Files are the level-relative paths on disk to consider, typically
	// from a walk of the level directory.
	Files []string

	// Managed are the level-relative folders eligible for deletion.
	// Files outside them are never candidates.
	Managed []string

	// Keep lists paths that must never be deleted: the files the game
	// engine reported missing at runtime. Parsing missed whatever needs
	// them, so deleting them is not safe.
	Keep []string
}

// DeleteSet returns the files under the managed folders that no live node
// claims, sorted. Liveness comes from the marks of a shrink traversal; a
// container file stays as long as any record in it is alive. Claims of
// incomplete nodes count as live even when unreached, since an unresolved
// chain means the analysis cannot prove the file unused.
func DeleteSet(g *asset.Graph, marks Marks, opts DeleteOptions) []string {
	live := make(map[string]struct{})
	claim := func(id asset.NodeID) {
		for _, p := range g.Node(id).ClaimedPaths() {
			live[normalizePath(p)] = struct{}{}
		}
	}
	for i := 0; i < g.Len(); i++ {
		id := asset.NodeID(i)
		if (int(id) < len(marks.Reached) && marks.Reached[id]) || g.Node(id).Incomplete {
			claim(id)
		}
	}

	keep := make(map[string]struct{}, len(opts.Keep))
	for _, p := range opts.Keep {
		keep[normalizePath(p)] = struct{}{}
	}
	managed := make([]string, 0, len(opts.Managed))
	for _, m := range opts.Managed {
		managed = append(managed, normalizePath(m))
	}

	var out []string
	for _, f := range opts.Files {
		norm := normalizePath(f)
		if !underAny(norm, managed) {
			continue
		}
		if _, ok := live[norm]; ok {
			continue
		}
		if _, ok := keep[norm]; ok {
			continue
		}
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// normalizePath canonicalizes a level-relative path for comparison. The
// game treats paths case-insensitively and container files mix separator
// styles.
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.ToLower(path.Clean(strings.TrimPrefix(p, "/")))
}

func underAny(p string, folders []string) bool {
	for _, f := range folders {
		if p == f || strings.HasPrefix(p, f+"/") {
			return true
		}
	}
	return false
}
