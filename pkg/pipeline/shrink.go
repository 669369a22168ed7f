package pipeline

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/matzehuels/levelforge/pkg/diag"
	"github.com/matzehuels/levelforge/pkg/errors"
	"github.com/matzehuels/levelforge/pkg/reach"
	"github.com/matzehuels/levelforge/pkg/report"
)

// Shrink computes the files in the level's managed folders that nothing
// reachable claims, and deletes them when opts.Apply is set. Without Apply
// the result and report carry the plan only; nothing on disk changes.
//
// Liveness errs toward keeping: incomplete nodes keep their claimed files,
// and paths on the keep-missing list are never candidates even when the
// graph claims nothing uses them.
func (r *Runner) Shrink(ctx context.Context, opts Options) (*ShrinkResult, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForShrink(); err != nil {
		return nil, err
	}

	sd, err := r.buildGraph(ctx, opts, diag.NewCollector())
	if err != nil {
		return nil, err
	}
	g := sd.res.Graph

	roots := reach.ShrinkRoots(g, sd.res.Roots)
	marks := reach.Traverse(g, roots, reach.Options{Direction: reach.Forward, TaintUnresolved: true})
	files, err := levelFiles(sd.levelDir)
	if err != nil {
		return nil, err
	}
	candidates := reach.DeleteSet(g, marks, reach.DeleteOptions{
		Files:   files,
		Managed: opts.ManagedFolders,
		Keep:    opts.KeepMissing,
	})

	result := &ShrinkResult{
		Candidates: candidates,
		Live:       marks.ReachedCount(),
		Tainted:    marks.TaintedCount(),
	}

	r.Logger.Info("computed delete set",
		"level", opts.Level,
		"live", result.Live,
		"tainted", result.Tainted,
		"candidates", len(candidates))

	var applyErr error
	if opts.Apply {
		applyErr = r.applyDeletes(ctx, sd, candidates, result)
	}
	result.Events = sd.collector.Events()

	rep := report.New(report.KindShrink, opts.Level)
	rep.Summary = report.Summary{
		Nodes:      g.Len(),
		Edges:      g.EdgeCount(),
		Incomplete: g.IncompleteCount(),
		Candidates: len(candidates),
		Deleted:    result.Deleted,
		Failed:     result.Failed,
	}
	rep.Events = capEvents(result.Events)
	rep.Partial = result.Failed > 0 || applyErr != nil
	result.ReportID = r.saveReport(rep.Finish(applyErr == nil && result.Failed == 0))

	if applyErr != nil {
		return result, applyErr
	}
	return result, nil
}

// applyDeletes removes the candidate files. Per-file failures are counted
// and published; only cancellation stops the sweep, returning the
// context's error with the partial counts in place.
func (r *Runner) applyDeletes(ctx context.Context, sd *scanData, candidates []string, result *ShrinkResult) error {
	for _, rel := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := filepath.Join(sd.levelDir, filepath.FromSlash(rel))
		if err := os.Remove(p); err != nil {
			result.Failed++
			diag.Errorf(sd.sink, rel, "delete failed: %v", err)
			continue
		}
		result.Deleted++
		diag.Infof(sd.sink, rel, "deleted")
	}

	r.Logger.Info("applied delete set",
		"level", filepath.Base(sd.levelDir),
		"deleted", result.Deleted,
		"failed", result.Failed)
	return nil
}

// levelFiles walks the level directory and returns level-relative file
// paths in slash form.
func levelFiles(levelDir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(levelDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(levelDir, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "walk level %q", levelDir)
	}
	return out, nil
}
