// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about scans, path resolution, copies, and cache operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetScanHooks(&myScanHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Scan().OnScanStart(ctx, level)
//	// ... scan ...
//	observability.Scan().OnScanComplete(ctx, level, nodeCount, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Scan Hooks
// =============================================================================

// ScanHooks receives events from level scans.
type ScanHooks interface {
	// OnScanStart records the beginning of a level scan.
	OnScanStart(ctx context.Context, level string)

	// OnScanComplete records the end of a level scan.
	OnScanComplete(ctx context.Context, level string, nodeCount int, duration time.Duration, err error)
}

// =============================================================================
// Resolve Hooks
// =============================================================================

// ResolveHooks receives events from virtual path resolution. Resolution
// runs deep inside a scan without a context of its own, so these methods
// carry none.
type ResolveHooks interface {
	// OnResolveHit records a reference that resolved to bytes.
	OnResolveHit(ref string, inArchive bool)

	// OnResolveMiss records a reference that resolved to nothing.
	OnResolveMiss(ref string)
}

// =============================================================================
// Copy Hooks
// =============================================================================

// CopyHooks receives events from cross-level copies.
type CopyHooks interface {
	// OnCopyStart records the beginning of a copy run.
	OnCopyStart(ctx context.Context, source, target string, required int)

	// OnCopyComplete records the end of a copy run.
	OnCopyComplete(ctx context.Context, source, target string, copied, duplicates, failed int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopScanHooks is a no-op implementation of ScanHooks.
type NoopScanHooks struct{}

func (NoopScanHooks) OnScanStart(context.Context, string)                               {}
func (NoopScanHooks) OnScanComplete(context.Context, string, int, time.Duration, error) {}

// NoopResolveHooks is a no-op implementation of ResolveHooks.
type NoopResolveHooks struct{}

func (NoopResolveHooks) OnResolveHit(string, bool) {}
func (NoopResolveHooks) OnResolveMiss(string)      {}

// NoopCopyHooks is a no-op implementation of CopyHooks.
type NoopCopyHooks struct{}

func (NoopCopyHooks) OnCopyStart(context.Context, string, string, int) {}
func (NoopCopyHooks) OnCopyComplete(context.Context, string, string, int, int, int, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	scanHooks    ScanHooks    = NoopScanHooks{}
	resolveHooks ResolveHooks = NoopResolveHooks{}
	copyHooks    CopyHooks    = NoopCopyHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	hooksMu      sync.RWMutex
)

// SetScanHooks registers custom scan hooks.
// This should be called once at application startup before any scans.
func SetScanHooks(h ScanHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		scanHooks = h
	}
}

// SetResolveHooks registers custom resolve hooks.
// This should be called once at application startup before any scans.
func SetResolveHooks(h ResolveHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		resolveHooks = h
	}
}

// SetCopyHooks registers custom copy hooks.
// This should be called once at application startup before any copies.
func SetCopyHooks(h CopyHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		copyHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Scan returns the registered scan hooks.
func Scan() ScanHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return scanHooks
}

// Resolve returns the registered resolve hooks.
func Resolve() ResolveHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return resolveHooks
}

// Copy returns the registered copy hooks.
func Copy() CopyHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return copyHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	scanHooks = NoopScanHooks{}
	resolveHooks = NoopResolveHooks{}
	copyHooks = NoopCopyHooks{}
	cacheHooks = NoopCacheHooks{}
}
