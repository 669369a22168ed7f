// Package level builds an asset graph from a level directory.
//
// A level is a directory of container files in a handful of formats:
// line-delimited placement and brush files, keyed-object data files, shape
// payloads discovered by extension, and indirect link files. Each format
// has a [ContainerReader]; the build walks every file once in sorted order,
// offers it to the registry, and collects nodes plus reference intents.
//
// # Two-Pass Construction
//
// Forward references are legal inside and across container files (a brush
// element may name item data defined later), so reading and linking are
// separate passes. Readers only create nodes and record intents on the
// [ScanContext]; after the walk, the linking pass resolves every intent
// against the finished node set. References that resolve nowhere become
// unresolved edges that flag their source node incomplete; they never
// remove a node and never abort the scan.
//
// # Degradation
//
// Everything that can go wrong with one file is scoped to that file:
// unparseable containers are skipped with an error event, malformed lines
// and duplicate names with warnings. Only an unreadable level directory
// fails the build. Cancellation is honored between files and returns the
// partial graph together with the context error.
package level
