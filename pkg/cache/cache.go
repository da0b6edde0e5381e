// Package cache stores rendered composite images between runs.
//
// Composing a summary for a full session decodes every plane's projections,
// so reruns over unchanged inputs reuse the encoded PNG instead. Keys are
// derived from the input files' identity (path, size, modification time)
// and the layout options via [CompositeKey].
//
// Three backends implement [Cache]:
//   - [FileCache]: sharded JSON files under the user cache directory (CLI default)
//   - [RedisCache]: a shared Redis instance for cluster runs
//   - [NullCache]: caching disabled
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long composite artifacts stay cached.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
