// Package cache provides byte-oriented cache backends for registry responses.
//
// Backends implement [Cache]. The CLI picks one from configuration:
//
//   - [FileCache]: JSON entries under ~/.cache/fontmeta/ (default)
//   - [RedisCache]: shared cache for CI runners annotating many casks
//   - [NullCache]: caching disabled (--no-cache)
//
// [MemoryCache] is an in-process LRU that [NewLayered] puts in front of any of
// the above, so a batch run that hits the same font family twice reads the
// backend only once. [NewScoped] prefixes keys so different registries can
// share one backend.
//
// The package also carries the retry helpers used by HTTP clients, since a
// failed fetch and a cache miss are handled in the same code path.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte payloads under string keys.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. A ttl of 0 passed to Set means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
