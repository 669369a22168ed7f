// Package pkg provides the core libraries for LevelForge level maintenance.
//
// # Overview
//
// LevelForge scans a moddable game's levels into asset graphs and acts on
// them: shrink deletes managed files no live asset references, copy moves
// forest brushes with their full requirement chains into another level. The
// pkg directory is organized into four main areas:
//
//  1. Parsing - Tolerant container decoding ([jsondoc]) and level readers
//     ([level])
//  2. Graph - The asset graph ([asset]), reachability ([reach]), and
//     serialization ([graphio])
//  3. Materialization - Path resolution ([vpath]) and disk operations
//     ([materialize])
//  4. Orchestration - The scan → analyze → materialize pipeline
//     ([pipeline]) with caching ([cache]) and run reports ([report])
//
// # Architecture
//
// The typical data flow through LevelForge:
//
//	Level containers (JSON/NDJSON)
//	         ↓
//	    [jsondoc] package (tolerant parsing)
//	         ↓
//	    [level] package (readers build nodes and references)
//	         ↓
//	    [asset] package (graph structure, unresolved references)
//	         ↓
//	    [reach] package (liveness, requirement closures)
//	         ↓
//	    [materialize] package (delete or copy on disk)
//
// [pipeline] orchestrates the flow, [vpath] resolves the virtual paths the
// containers use against the level and the game's content archives.
//
// # Quick Start
//
// Scan a level and print its health:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/levelforge/pkg/cache"
//	    "github.com/matzehuels/levelforge/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil, logger)
//	res, err := runner.Scan(context.Background(), pipeline.Options{
//	    LevelsRoot: "/mods/levels",
//	    Level:      "meadow",
//	    GameDir:    "/game/content",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d assets, %d unresolved\n", res.Summary.Nodes, res.Summary.Unresolved)
//
// # Main Packages
//
// ## Parsing
//
// [jsondoc] - Tolerant JSON and NDJSON decoding for hand-edited container
// files: comments, trailing commas, NaN/Infinity literals, and per-line
// recovery for NDJSON.
//
// [level] - Level discovery and the per-kind readers (forest brushes, item
// data, shapes, decals, terrain materials, roads) that turn container files
// into graph nodes, references, and claimed file paths.
//
// ## Graph
//
// [asset] - The in-memory asset graph: typed nodes, reference edges, and
// unresolved references that keep their source nodes queryable.
//
// [reach] - Traversals over the graph: backward liveness for shrink and
// forward requirement closures for copy, with taint tracking across
// unresolved references.
//
// [graphio] - Flattening the graph into a serializable document, JSON
// import/export, and Graphviz DOT/SVG rendering.
//
// ## Materialization
//
// [vpath] - Virtual path resolution: level-relative lookups, game content
// fallbacks, and zip archive extraction with collision checks.
//
// [materialize] - Disk operations: the copy planner with content-hash
// duplicate detection, container rewriting for the target level, and the
// batched delete executor shrink applies.
//
// ## Orchestration
//
// [pipeline] - The Runner shared by CLI and API. Every operation starts
// from a scan; summaries are cached by content signature and each run can
// persist a report.
//
// [cache] - Summary cache backends: file (XDG cache dir), Redis, and a
// no-op null cache. Keys are derived from the level's content signature.
//
// [report] - Run report persistence with file and MongoDB backends.
//
// [config] - TOML configuration with XDG defaults and per-flag overrides.
//
// [diag] - Structured diagnostics: events published during scans and
// materialization, collected by sinks.
//
// [errors] - Coded errors shared across CLI and API, plus input
// validation for level names and paths.
//
// [observability] - Optional instrumentation hooks for scans, path
// resolution, copies, and cache operations.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/level/...     # Specific package
//	go test -run Example        # Examples only
//
// [jsondoc]: https://pkg.go.dev/github.com/matzehuels/levelforge/pkg/jsondoc
// [level]: https://pkg.go.dev/github.com/matzehuels/levelforge/pkg/level
// [asset]: https://pkg.go.dev/github.com/matzehuels/levelforge/pkg/asset
// [reach]: https://pkg.go.dev/github.com/matzehuels/levelforge/pkg/reach
// [graphio]: https://pkg.go.dev/github.com/matzehuels/levelforge/pkg/graphio
// [vpath]: https://pkg.go.dev/github.com/matzehuels/levelforge/pkg/vpath
// [materialize]: https://pkg.go.dev/github.com/matzehuels/levelforge/pkg/materialize
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/levelforge/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/levelforge/pkg/cache
// [report]: https://pkg.go.dev/github.com/matzehuels/levelforge/pkg/report
// [config]: https://pkg.go.dev/github.com/matzehuels/levelforge/pkg/config
// [diag]: https://pkg.go.dev/github.com/matzehuels/levelforge/pkg/diag
// [errors]: https://pkg.go.dev/github.com/matzehuels/levelforge/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/levelforge/pkg/observability
package pkg
