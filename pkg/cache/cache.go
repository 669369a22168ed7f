// Package cache stores scan summaries between runs. A summary is keyed by
// the level's path and content signature, so a cache hit is only possible
// when nothing in the level changed; the graph itself is always rebuilt
// from disk and never cached.
//
// Backends: [FileCache] for the CLI, [RedisCache] for server deployments,
// [NullCache] to disable caching entirely.
package cache

import (
	"context"
	"time"
)

// TTLScanSummary bounds how long a scan summary stays on disk. Entries are
// signature-keyed and can never serve stale data; the TTL only keeps the
// cache directory from growing without bound.
const TTLScanSummary = 7 * 24 * time.Hour

// Cache is a byte-oriented cache with TTL support.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys for the tool's cacheable artifacts.
type Keyer interface {
	// ScanKey keys one level's scan summary by its directory and content
	// signature.
	ScanKey(levelDir, signature string) string
}

// DefaultKeyer is the standard key scheme: a namespace prefix plus a
// SHA-256 over the identifying parts.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ScanKey generates the key for a level's scan summary.
func (k *DefaultKeyer) ScanKey(levelDir, signature string) string {
	return hashKey("scan", levelDir, signature)
}
