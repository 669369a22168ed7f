package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/matzehuels/levelforge/pkg/asset"
	"github.com/matzehuels/levelforge/pkg/diag"
	"github.com/matzehuels/levelforge/pkg/errors"
	"github.com/matzehuels/levelforge/pkg/materialize"
	"github.com/matzehuels/levelforge/pkg/observability"
	"github.com/matzehuels/levelforge/pkg/reach"
	"github.com/matzehuels/levelforge/pkg/report"
)

// Copy materializes the selected brushes and everything they require from
// opts.Level into opts.TargetLevel. Both levels are scanned fresh; the
// target graph drives duplicate classification, so re-running a copy is
// safe at node granularity.
func (r *Runner) Copy(ctx context.Context, opts Options) (*CopyResult, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForCopy(); err != nil {
		return nil, err
	}

	// Source and target scans share one collector so the report carries
	// both diagnostic streams.
	collector := diag.NewCollector()
	src, err := r.buildGraph(ctx, opts, collector)
	if err != nil {
		return nil, err
	}
	tgtOpts := opts
	tgtOpts.Level = opts.TargetLevel
	tgt, err := r.buildGraph(ctx, tgtOpts, collector)
	if err != nil {
		return nil, err
	}

	roots, names, err := brushRoots(src.res.Graph, opts)
	if err != nil {
		return nil, err
	}
	required, marks := reach.RequiredSet(src.res.Graph, roots)

	result := &CopyResult{
		Brushes:  names,
		Required: len(required),
		Tainted:  marks.TaintedCount(),
	}

	hooks := observability.Copy()
	hooks.OnCopyStart(ctx, opts.Level, opts.TargetLevel, len(required))
	start := time.Now()
	copier := &materialize.Copier{}
	res, runErr := copier.Run(ctx, materialize.Plan{
		SourceName: opts.Level,
		SourceDir:  src.levelDir,
		Graph:      src.res.Graph,
		TargetName: opts.TargetLevel,
		TargetDir:  tgt.levelDir,
		Target:     tgt.res.Graph,
		Required:   required,
		Sink:       src.sink,
	})
	if res != nil {
		result.Copied = res.Copied
		result.Duplicates = res.Duplicates
		result.Failed = res.Failed
		result.Partial = res.Partial
	}
	hooks.OnCopyComplete(ctx, opts.Level, opts.TargetLevel,
		result.Copied, result.Duplicates, result.Failed, time.Since(start), runErr)
	if runErr != nil && res == nil {
		return nil, runErr
	}
	result.Events = collector.Events()

	r.Logger.Info("materialized brushes",
		"source", opts.Level,
		"target", opts.TargetLevel,
		"brushes", len(names),
		"required", result.Required,
		"copied", result.Copied,
		"duplicates", result.Duplicates,
		"failed", result.Failed,
		"duration", time.Since(start))

	rep := report.New(report.KindCopy, opts.Level)
	rep.TargetLevel = opts.TargetLevel
	rep.Summary = report.Summary{
		Copied:     result.Copied,
		Duplicates: result.Duplicates,
		Failed:     result.Failed,
	}
	rep.Events = capEvents(result.Events)
	rep.Partial = result.Partial
	result.ReportID = r.saveReport(rep.Finish(runErr == nil && !result.Partial))

	if runErr != nil {
		return result, runErr
	}
	return result, nil
}

// brushRoots resolves the brush selection against the source graph and
// returns the root ids with the brush names in stable order. A name that
// matches no brush fails the run; a misspelled selection must not quietly
// copy less than the user asked for.
func brushRoots(g *asset.Graph, opts Options) ([]asset.NodeID, []string, error) {
	if opts.AllBrushes {
		ids := g.NodesOfKind(asset.KindForestBrush)
		if len(ids) == 0 {
			return nil, nil, errors.New(errors.ErrCodeInvalidInput, "level %q has no forest brushes", opts.Level)
		}
		names := make([]string, 0, len(ids))
		for _, id := range ids {
			names = append(names, g.Node(id).EffectiveName())
		}
		sort.Strings(names)
		return ids, names, nil
	}

	ids := make([]asset.NodeID, 0, len(opts.Brushes))
	for _, name := range opts.Brushes {
		id, ok := g.Lookup(asset.KindForestBrush, name)
		if !ok {
			return nil, nil, errors.New(errors.ErrCodeInvalidInput, "brush %q not found in level %q", name, opts.Level)
		}
		ids = append(ids, id)
	}
	return ids, append([]string(nil), opts.Brushes...), nil
}
