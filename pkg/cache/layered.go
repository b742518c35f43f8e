package cache

import (
	"context"
	"errors"
	"time"
)

// Layered reads through a fast front cache before consulting a slower back
// cache. Back hits are copied into the front. Writes and deletes go to both.
type Layered struct {
	front Cache
	back  Cache
}

// NewLayered stacks front over back.
func NewLayered(front, back Cache) *Layered {
	return &Layered{front: front, back: back}
}

func (l *Layered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if data, ok, err := l.front.Get(ctx, key); err == nil && ok {
		return data, true, nil
	}
	data, ok, err := l.back.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = l.front.Set(ctx, key, data, 0)
	return data, true, nil
}

func (l *Layered) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	_ = l.front.Set(ctx, key, data, ttl)
	return l.back.Set(ctx, key, data, ttl)
}

func (l *Layered) Delete(ctx context.Context, key string) error {
	return errors.Join(l.front.Delete(ctx, key), l.back.Delete(ctx, key))
}

func (l *Layered) Close() error {
	return errors.Join(l.front.Close(), l.back.Close())
}

var _ Cache = (*Layered)(nil)
