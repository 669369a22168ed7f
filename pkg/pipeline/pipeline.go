// Package pipeline provides the core scan and materialization operations
// for LevelForge.
//
// This package implements the scan → analyze → materialize flow that can be
// used by CLI and API components. By centralizing this logic, we ensure
// consistent behavior across all entry points and avoid code duplication.
//
// # Architecture
//
// Every operation starts from a scan:
//
//  1. Scan: Build the level's asset graph from its container files
//  2. Analyze: Traverse the graph for liveness (shrink) or requirement
//     closures (copy)
//  3. Materialize: Delete unreferenced files or copy required nodes into
//     another level
//
// The asset graph is always rebuilt from disk. Only the derived scan
// summary is cached, keyed by the level's content signature, so a cache
// hit can never serve data from a different state of the level.
//
// # Usage
//
// Create a Runner and run an operation:
//
//	runner := pipeline.NewRunner(cache, nil, reports, logger)
//	opts := pipeline.Options{
//	    LevelsRoot: "/mods/levels",
//	    Level:      "meadow",
//	    GameDir:    "/game/content",
//	}
//	result, err := runner.Scan(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Summary.Nodes)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/levelforge/pkg/asset"
	"github.com/matzehuels/levelforge/pkg/config"
	"github.com/matzehuels/levelforge/pkg/diag"
	"github.com/matzehuels/levelforge/pkg/errors"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// MaxReportEvents caps the diagnostics persisted with a run report.
	// Scans of broken levels can publish thousands of warnings; the
	// report keeps the head of the stream, where the parse and
	// resolution failures appear.
	MaxReportEvents = 500

	// ReportSaveTimeout bounds report persistence. Reports are saved on
	// a background context so canceled runs still leave a record.
	ReportSaveTimeout = 10 * time.Second
)

// =============================================================================
// Options - Operation Configuration
// =============================================================================

// Options contains all configuration for the pipeline operations.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Scan options
	LevelsRoot string   `json:"levels_root"`
	Level      string   `json:"level"`
	GameDir    string   `json:"game_dir,omitempty"`
	ImageExts  []string `json:"image_exts,omitempty"`
	Refresh    bool     `json:"refresh,omitempty"`

	// Shrink options
	ManagedFolders []string `json:"managed_folders,omitempty"`
	KeepMissing    []string `json:"keep_missing,omitempty"` // Paths the game reported missing at runtime
	Apply          bool     `json:"apply,omitempty"`        // Delete on disk (default: plan only)

	// Copy options
	TargetLevel string   `json:"target_level,omitempty"`
	Brushes     []string `json:"brushes,omitempty"`
	AllBrushes  bool     `json:"all_brushes,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
	Sink   diag.Sink   `json:"-"` // Extra diagnostics receiver, e.g. a UI
}

// =============================================================================
// Results
// =============================================================================

// ScanSummary aggregates one scan. It is JSON-serializable and is the
// payload stored in the summary cache.
type ScanSummary struct {
	Level        string         `json:"level"`
	Signature    string         `json:"signature"`
	Files        int            `json:"files"`
	FilesSkipped int            `json:"files_skipped,omitempty"`
	Nodes        int            `json:"nodes"`
	Edges        int            `json:"edges"`
	Incomplete   int            `json:"incomplete"`
	Unresolved   int            `json:"unresolved"`
	Roots        int            `json:"roots"`
	Kinds        map[string]int `json:"kinds"`
	Warnings     int            `json:"warnings"`
	Errors       int            `json:"errors"`
	GeneratedAt  time.Time      `json:"generated_at"`
}

// ScanResult contains the outputs of a scan run.
type ScanResult struct {
	// Graph is the level's asset graph, rebuilt from disk.
	Graph *asset.Graph

	// Roots are the traversal entry points: the nodes the level's
	// placement and usage files reference directly.
	Roots []asset.NodeID

	// Summary aggregates the scan.
	Summary ScanSummary

	// Events are the diagnostics the scan published, in order.
	Events []diag.Event

	// ReportID identifies the persisted run report, when a report store
	// is configured.
	ReportID string
}

// ShrinkResult contains the outputs of a shrink run.
type ShrinkResult struct {
	// Candidates are the deletable files, level-relative and sorted.
	Candidates []string

	// Deleted and Failed count the apply phase. Both stay zero in
	// plan-only runs.
	Deleted int
	Failed  int

	// Live is the number of nodes the liveness traversal reached.
	Live int

	// Tainted is the number of live nodes whose requirement chains
	// contain unresolved references.
	Tainted int

	// Events are the scan diagnostics plus the apply phase's.
	Events []diag.Event

	ReportID string
}

// CopyResult contains the outputs of a copy run.
type CopyResult struct {
	// Brushes are the resolved brush names the copy rooted at.
	Brushes []string

	// Required is the size of the forward closure over the roots.
	Required int

	// Tainted counts required nodes whose chains contain unresolved
	// references. Their subtrees may be incomplete in the target.
	Tainted int

	Copied     int
	Duplicates int
	Failed     int

	// Partial is set when any node failed or the run was canceled.
	// Successes stay on disk either way.
	Partial bool

	// Events are the source scan, target scan, and copy diagnostics.
	Events []diag.Event

	ReportID string
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateForScan checks required fields and applies defaults for scanning.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateForScan() error {
	if o.LevelsRoot == "" {
		return errors.New(errors.ErrCodeInvalidInput, "levels root is required")
	}
	if err := errors.ValidateLevelName(o.Level); err != nil {
		return err
	}

	// Logger default
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	return nil
}

// ValidateForShrink checks required fields and applies defaults for a
// shrink run.
func (o *Options) ValidateForShrink() error {
	if err := o.ValidateForScan(); err != nil {
		return err
	}

	// Managed folder default: the engine-owned level folders.
	if len(o.ManagedFolders) == 0 {
		o.ManagedFolders = config.DefaultManagedFolders()
	}

	return nil
}

// ValidateForCopy checks required fields and applies defaults for a copy
// run.
func (o *Options) ValidateForCopy() error {
	if err := o.ValidateForScan(); err != nil {
		return err
	}
	if err := errors.ValidateLevelName(o.TargetLevel); err != nil {
		return err
	}
	if o.TargetLevel == o.Level {
		return errors.New(errors.ErrCodeInvalidInput, "target level must differ from source level")
	}
	if len(o.Brushes) == 0 && !o.AllBrushes {
		return errors.New(errors.ErrCodeInvalidInput, "select at least one brush or all brushes")
	}
	return nil
}
