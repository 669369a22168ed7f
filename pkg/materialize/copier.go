// Package materialize copies a required set of nodes from one level into
// another: binary payloads as byte copies, structured records as container
// merges with fresh persistent IDs and rewritten embedded paths.
//
// # Duplicate Scoping
//
// Classification against the target graph happens inside a [Batch], so every
// decision within one user operation is consistent even after files are
// written mid-run. References travel by name, never by persistent ID, so a
// record copied alongside a duplicate ends up pointing at the target's
// existing copy without any rewriting.
//
// # Failure Policy
//
// A node that cannot be copied is reported, counted, and skipped; the rest
// of the run continues and nothing is rolled back. Re-running a copy is safe
// at node granularity: records and payloads already present in the target
// classify as duplicates and are left alone.
package materialize

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/matzehuels/levelforge/pkg/asset"
	"github.com/matzehuels/levelforge/pkg/diag"
	"github.com/matzehuels/levelforge/pkg/errors"
)

// =============================================================================
// Plan & Result
// =============================================================================

// Plan describes one materialization run: the source level whose graph the
// required nodes come from, the target level to copy into, and the node
// selection.
type Plan struct {
	// SourceName and SourceDir identify the level the required nodes were
	// scanned from.
	SourceName string
	SourceDir  string

	// Graph is the source level's asset graph.
	Graph *asset.Graph

	// TargetName and TargetDir identify the level to materialize into.
	TargetName string
	TargetDir  string

	// Target is the target level's asset graph, scanned from TargetDir,
	// used for duplicate classification.
	Target *asset.Graph

	// Required lists the nodes to materialize, typically the forward
	// closure of the user's selected roots.
	Required []asset.NodeID

	// Sink receives progress and per-node failure diagnostics. Optional.
	Sink diag.Sink
}

func (p *Plan) validate() error {
	if p.Graph == nil || p.Target == nil {
		return errors.New(errors.ErrCodeInvalidInput, "source and target graphs are required")
	}
	if err := errors.ValidateLevelName(p.SourceName); err != nil {
		return err
	}
	if err := errors.ValidateLevelName(p.TargetName); err != nil {
		return err
	}
	for _, dir := range []string{p.SourceDir, p.TargetDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return errors.New(errors.ErrCodeLevelNotFound, "level directory %q is not readable", dir)
		}
	}
	return nil
}

// Result aggregates one materialization run. Partial is set when any node
// failed or the run was canceled; successes stay on disk either way.
type Result struct {
	Copied     int  `json:"copied"`
	Duplicates int  `json:"duplicates"`
	Failed     int  `json:"failed"`
	Partial    bool `json:"partial"`
}

// =============================================================================
// Copier
// =============================================================================

// Copier materializes classified nodes into a target level. The zero value
// is ready to use.
type Copier struct {
	// NewID mints persistent IDs for materialized records. Defaults to
	// uuid.NewString.
	NewID func() string
}

func (c *Copier) newID() string {
	if c.NewID != nil {
		return c.NewID()
	}
	return uuid.NewString()
}

// Run executes the plan. Binary payloads are copied node by node; container
// records are staged and written once per target file so merge decisions
// stay consistent within the run. Cancellation is honored between nodes and
// between container writes, returning the partial result and the context's
// error.
func (c *Copier) Run(ctx context.Context, plan Plan) (*Result, error) {
	if err := plan.validate(); err != nil {
		return nil, err
	}
	sink := plan.Sink
	if sink == nil {
		sink = diag.Discard()
	}

	batch := NewBatch(plan.Target)
	defer batch.Close()

	res := &Result{}
	merges := newMergeSet()

	for _, id := range plan.Required {
		if err := ctx.Err(); err != nil {
			res.Partial = true
			return res, err
		}
		if id < 0 || int(id) >= plan.Graph.Len() {
			continue
		}
		n := plan.Graph.Node(id)
		if batch.Classify(n) == DecisionDuplicate {
			res.Duplicates++
			continue
		}

		switch {
		case n.Kind == asset.KindShape || n.Kind == asset.KindTexture:
			c.copyPayload(sink, plan, n, res)
		case n.Doc != nil && n.Container.Path != "":
			rec := n.Doc.Clone()
			rewriteValue(rec, plan.SourceName, plan.TargetName)
			rec.Set("persistentId", c.newID())
			merges.add(n, rec)
		default:
			diag.Errorf(sink, n.Location, "%s %q has no payload or container record to copy", n.Kind, n.DisplayName())
			res.Failed++
		}
	}
	diag.Infof(sink, "", "payloads done: %d copied, %d duplicate, %d failed", res.Copied, res.Duplicates, res.Failed)

	if err := c.flush(ctx, sink, plan, merges, res); err != nil {
		res.Partial = true
		return res, err
	}

	res.Partial = res.Failed > 0
	diag.Infof(sink, "", "materialized into %q: %d copied, %d duplicate, %d failed",
		plan.TargetName, res.Copied, res.Duplicates, res.Failed)
	return res, nil
}

// =============================================================================
// Binary Payloads
// =============================================================================

// copyPayload copies every level-local file backing a binary node to the
// same relative path under the target. A texture with no level-local claims
// lives in shared game content and needs no bytes moved.
func (c *Copier) copyPayload(sink diag.Sink, plan Plan, n *asset.Node, res *Result) {
	paths := payloadPaths(n)
	if len(paths) == 0 {
		if n.Kind == asset.KindTexture {
			res.Copied++
			return
		}
		diag.Errorf(sink, n.Location, "%s %q: no payload on disk", n.Kind, n.DisplayName())
		res.Failed++
		return
	}
	for _, rel := range paths {
		src := filepath.Join(plan.SourceDir, filepath.FromSlash(rel))
		dst := filepath.Join(plan.TargetDir, filepath.FromSlash(rel))
		if err := copyFile(src, dst); err != nil {
			diag.Errorf(sink, rel, "copy %s %q: %v", n.Kind, n.DisplayName(), err)
			res.Failed++
			return
		}
	}
	res.Copied++
}

// payloadPaths lists the level-relative files backing a binary node. A
// texture's location holds the raw reference, which can point into shared
// game content, so only its verified claims count; shapes add their source
// location and compiled siblings.
func payloadPaths(n *asset.Node) []string {
	var in []string
	if n.Kind != asset.KindTexture && n.Location != "" {
		in = append(in, n.Location)
	}
	in = append(in, n.Claims...)

	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "/") {
			continue
		}
		clean := path.Clean(p)
		if clean == ".." || strings.HasPrefix(clean, "../") {
			continue
		}
		key := strings.ToLower(clean)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
