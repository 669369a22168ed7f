package pipeline

import (
	"context"
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/levelforge/pkg/cache"
	"github.com/matzehuels/levelforge/pkg/diag"
	"github.com/matzehuels/levelforge/pkg/level"
	"github.com/matzehuels/levelforge/pkg/observability"
	"github.com/matzehuels/levelforge/pkg/report"
)

// Runner encapsulates pipeline execution with summary caching and run
// reporting. Both CLI and API can use this to avoid duplicating that logic.
//
// The Runner is stateless except for its collaborators - it doesn't store
// operation results. Multiple goroutines can safely use the same Runner
// with different options.
type Runner struct {
	Cache   cache.Cache
	Keyer   cache.Keyer
	Reports report.Store
	Logger  *log.Logger
}

// NewRunner creates a runner with the given collaborators.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
// If reports is nil, run reports are not persisted.
func NewRunner(c cache.Cache, keyer cache.Keyer, reports report.Store, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:   c,
		Keyer:   keyer,
		Reports: reports,
		Logger:  logger,
	}
}

// Scan builds the level's asset graph and aggregates it into a summary.
// The graph is always rebuilt from disk; the summary refills the cache.
func (r *Runner) Scan(ctx context.Context, opts Options) (*ScanResult, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForScan(); err != nil {
		return nil, err
	}

	sd, err := r.buildGraph(ctx, opts, diag.NewCollector())
	if err != nil {
		return nil, err
	}

	result := &ScanResult{
		Graph:   sd.res.Graph,
		Roots:   sd.res.Roots,
		Summary: summarize(opts.Level, sd),
		Events:  sd.collector.Events(),
	}
	r.cacheSummary(ctx, sd, result.Summary)

	rep := report.New(report.KindScan, opts.Level)
	rep.Summary = report.Summary{
		Nodes:      result.Summary.Nodes,
		Edges:      result.Summary.Edges,
		Incomplete: result.Summary.Incomplete,
		Failed:     result.Summary.Errors,
	}
	rep.Events = capEvents(result.Events)
	result.ReportID = r.saveReport(rep.Finish(true))

	return result, nil
}

// SummaryWithCacheInfo returns the level's scan summary and reports whether
// it was served from cache. The signature is recomputed from file stats on
// every call, so a cached summary is only used while the level is unchanged;
// on a miss the level is scanned in full.
func (r *Runner) SummaryWithCacheInfo(ctx context.Context, opts Options) (ScanSummary, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForScan(); err != nil {
		return ScanSummary{}, false, err
	}

	// Try cache first (unless refresh requested)
	levelDir := filepath.Join(opts.LevelsRoot, opts.Level)
	if sig, err := level.Signature(levelDir); err == nil && !opts.Refresh {
		key := r.Keyer.ScanKey(levelDir, sig)
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var s ScanSummary
			if json.Unmarshal(data, &s) == nil {
				observability.Cache().OnCacheHit(ctx, "scan")
				return s, true, nil // Cache hit
			}
			// If deserialization fails, fall through to rescan
		}
		observability.Cache().OnCacheMiss(ctx, "scan")
	}

	res, err := r.Scan(ctx, opts)
	if err != nil {
		return ScanSummary{}, false, err
	}
	return res.Summary, false, nil // Cache miss
}

// Summary is a convenience wrapper that calls SummaryWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Summary(ctx context.Context, opts Options) (ScanSummary, error) {
	s, _, err := r.SummaryWithCacheInfo(ctx, opts)
	return s, err
}

// Close releases resources held by the runner (the cache and the report
// store).
func (r *Runner) Close() error {
	var firstErr error
	if r.Cache != nil {
		firstErr = r.Cache.Close()
	}
	if r.Reports != nil {
		if err := r.Reports.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// =============================================================================
// Scan Internals
// =============================================================================

// scanData carries one built graph together with the apparatus that
// produced it.
type scanData struct {
	res       *level.Result
	levelDir  string
	signature string
	collector *diag.Collector
	sink      diag.Sink
}

// buildGraph scans one level into a graph. The content signature is taken
// before any file is read, so edits racing the scan invalidate the cached
// summary instead of mislabeling it. Shrink and copy build through here
// too; only Scan persists its own report.
func (r *Runner) buildGraph(ctx context.Context, opts Options, collector *diag.Collector) (*scanData, error) {
	levelDir := filepath.Join(opts.LevelsRoot, opts.Level)
	sig, err := level.Signature(levelDir)
	if err != nil {
		// Build reports unreadable levels with a proper code below; a
		// signature failure only disables the summary cache for this run.
		sig = ""
	}

	sink := newSink(opts, collector)
	hooks := observability.Scan()
	hooks.OnScanStart(ctx, opts.Level)
	start := time.Now()
	res, err := level.Build(ctx, level.Options{
		LevelsRoot: opts.LevelsRoot,
		Level:      opts.Level,
		GameDir:    opts.GameDir,
		ImageExts:  opts.ImageExts,
		Sink:       sink,
	})
	nodes := 0
	if res != nil && res.Graph != nil {
		nodes = res.Graph.Len()
	}
	hooks.OnScanComplete(ctx, opts.Level, nodes, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	r.Logger.Info("scanned level",
		"level", opts.Level,
		"files", res.FilesRead,
		"nodes", res.Graph.Len(),
		"edges", res.Graph.EdgeCount(),
		"incomplete", res.Graph.IncompleteCount(),
		"duration", time.Since(start))

	return &scanData{
		res:       res,
		levelDir:  levelDir,
		signature: sig,
		collector: collector,
		sink:      sink,
	}, nil
}

// newSink composes the diagnostics fan-out for one run: the collector for
// the report, the logger, and whatever extra sink the caller supplied.
func newSink(opts Options, collector *diag.Collector) diag.Sink {
	return diag.Multi(collector, diag.NewLogSink(opts.Logger), opts.Sink)
}

// summarize aggregates a built graph into the cacheable summary.
func summarize(levelName string, sd *scanData) ScanSummary {
	g := sd.res.Graph
	kinds := make(map[string]int)
	for k, n := range g.CountByKind() {
		kinds[k.String()] = n
	}
	return ScanSummary{
		Level:        levelName,
		Signature:    sd.signature,
		Files:        sd.res.FilesRead,
		FilesSkipped: sd.res.FilesSkipped,
		Nodes:        g.Len(),
		Edges:        g.EdgeCount(),
		Incomplete:   g.IncompleteCount(),
		Unresolved:   len(g.Unresolved()),
		Roots:        len(sd.res.Roots),
		Kinds:        kinds,
		Warnings:     sd.collector.Count(diag.Warning),
		Errors:       sd.collector.Count(diag.Error),
		GeneratedAt:  time.Now().UTC(),
	}
}

// cacheSummary refills the signature-keyed summary cache. Refresh runs
// refill too: the key includes the content signature, so a fresh summary
// can never shadow newer data.
func (r *Runner) cacheSummary(ctx context.Context, sd *scanData, s ScanSummary) {
	if sd.signature == "" {
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	key := r.Keyer.ScanKey(sd.levelDir, sd.signature)
	if err := r.Cache.Set(ctx, key, data, cache.TTLScanSummary); err == nil {
		observability.Cache().OnCacheSet(ctx, "scan", len(data))
	}
}

// =============================================================================
// Reporting
// =============================================================================

// capEvents bounds the diagnostics persisted with a report.
func capEvents(events []diag.Event) []diag.Event {
	if len(events) <= MaxReportEvents {
		return events
	}
	return events[:MaxReportEvents]
}

// saveReport persists the report when a store is configured and returns
// its ID. Persistence failures are logged, never escalated; the save uses
// a background context so canceled runs still leave a record.
func (r *Runner) saveReport(rep *report.Report) string {
	if r.Reports == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), ReportSaveTimeout)
	defer cancel()
	if err := r.Reports.Save(ctx, rep); err != nil {
		r.Logger.Warn("could not save run report", "id", rep.ID, "err", err)
		return ""
	}
	return rep.ID
}
