package cache

import (
	"context"
	"time"
)

// Scoped wraps a Cache and prefixes every key.
//
// Registry clients use it to share one backend without key collisions:
//
//	fonts := NewScoped(backend, "googlefonts:")
//	fonts.Set(ctx, "notosansjp", data, ttl) // stored as "googlefonts:notosansjp"
//
// Nesting a Scoped inside another flattens them: the prefixes are joined
// outermost first and Prefix reports the joined value. Close is forwarded to
// the innermost cache.
type Scoped struct {
	inner  Cache
	prefix string
}

// NewScoped creates a cache view that prepends prefix to all keys.
// A nil inner cache is replaced with a [NullCache].
func NewScoped(inner Cache, prefix string) *Scoped {
	if inner == nil {
		inner = NewNullCache()
	}
	if s, ok := inner.(*Scoped); ok {
		return &Scoped{inner: s.inner, prefix: s.prefix + prefix}
	}
	return &Scoped{inner: inner, prefix: prefix}
}

// Prefix returns the accumulated key prefix.
func (s *Scoped) Prefix() string { return s.prefix }

func (s *Scoped) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *Scoped) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.inner.Set(ctx, s.prefix+key, data, ttl)
}

func (s *Scoped) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}

func (s *Scoped) Close() error { return s.inner.Close() }

var _ Cache = (*Scoped)(nil)
