// Package cli implements the levelforge command-line interface.
//
// This package provides commands for listing and scanning game levels,
// shrinking levels by deleting unreferenced managed assets, copying forest
// brushes between levels, exporting asset graphs, and serving the local
// HTTP API. The CLI is built using cobra and supports verbose logging via
// the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - levels: List levels under the configured root
//   - scan: Build a level's asset graph and report its health
//   - shrink: Compute and optionally apply the set of deletable files
//   - copy: Copy forest brushes with their requirement chains into another level
//   - graph: Export a level's asset graph as DOT, SVG, or JSON
//   - serve: Run the local HTTP API
//   - cache: Manage the scan summary cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// lives on the CLI struct and is handed to the pipeline, so engine progress
// and CLI status share one stream.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with
// elapsed duration. It is safe for sequential use by a single goroutine.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created,
// rounded to the nearest millisecond.
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
