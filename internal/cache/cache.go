package cache

import (
	"context"
	"time"
)

// DimensionCache holds short-lived copies of catalog dimension lists
// (distinct categories, brands). It is never used for financial figures.
type DimensionCache interface {
	Get(ctx context.Context, key string) ([]string, bool, error)
	Set(ctx context.Context, key string, values []string, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

type NoopDimensionCache struct{}

func (NoopDimensionCache) Get(_ context.Context, _ string) ([]string, bool, error) {
	return nil, false, nil
}

func (NoopDimensionCache) Set(_ context.Context, _ string, _ []string, _ time.Duration) error {
	return nil
}

func (NoopDimensionCache) Invalidate(_ context.Context, _ ...string) error {
	return nil
}
