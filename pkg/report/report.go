// Package report persists run reports.
//
// Every shrink and copy run produces a Report: what ran, against which
// level, the counters, and the diagnostics the run published. Reports go
// through a [Store]. Two backends ship:
//   - file: one JSON document per report (CLI default)
//   - mongo: shared collection for server deployments
package report

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/levelforge/pkg/diag"
)

// Kind names the operation a report describes.
type Kind string

// Report kinds.
const (
	KindScan   Kind = "scan"
	KindShrink Kind = "shrink"
	KindCopy   Kind = "copy"
)

// Report is the durable record of one run.
type Report struct {
	ID          string       `json:"id" bson:"_id"`
	Kind        Kind         `json:"kind" bson:"kind"`
	Level       string       `json:"level" bson:"level"`
	TargetLevel string       `json:"target_level,omitempty" bson:"target_level,omitempty"`
	StartedAt   time.Time    `json:"started_at" bson:"started_at"`
	FinishedAt  time.Time    `json:"finished_at" bson:"finished_at"`
	Summary     Summary      `json:"summary" bson:"summary"`
	Events      []diag.Event `json:"events,omitempty" bson:"events,omitempty"`
	Success     bool         `json:"success" bson:"success"`
	Partial     bool         `json:"partial" bson:"partial"`
}

// Summary carries the counters of one run. Fields that do not apply to
// the run's kind stay zero and are omitted from JSON.
type Summary struct {
	Nodes      int `json:"nodes,omitempty" bson:"nodes,omitempty"`
	Edges      int `json:"edges,omitempty" bson:"edges,omitempty"`
	Incomplete int `json:"incomplete,omitempty" bson:"incomplete,omitempty"`
	Candidates int `json:"candidates,omitempty" bson:"candidates,omitempty"`
	Deleted    int `json:"deleted,omitempty" bson:"deleted,omitempty"`
	Copied     int `json:"copied,omitempty" bson:"copied,omitempty"`
	Duplicates int `json:"duplicates,omitempty" bson:"duplicates,omitempty"`
	Failed     int `json:"failed,omitempty" bson:"failed,omitempty"`
}

// New creates a report for a run starting now.
func New(kind Kind, level string) *Report {
	return &Report{
		ID:        uuid.NewString(),
		Kind:      kind,
		Level:     level,
		StartedAt: time.Now().UTC(),
	}
}

// Finish stamps the end time and outcome. It returns the report so the
// call chains into a Save.
func (r *Report) Finish(success bool) *Report {
	r.FinishedAt = time.Now().UTC()
	r.Success = success
	return r
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store is the interface for report persistence backends.
type Store interface {
	// Save persists the report, replacing any earlier save with the same ID.
	Save(ctx context.Context, r *Report) error

	// Get retrieves a report by ID.
	// Returns nil, nil if the report doesn't exist.
	Get(ctx context.Context, id string) (*Report, error)

	// List returns reports sorted newest first. limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]*Report, error)

	// Close releases backend resources.
	Close() error
}
