package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/sitefinder/internal/model"
)

// DefaultCacheTTL keeps search responses for a week. Company websites do
// not move often; API quota does run out.
const DefaultCacheTTL = 7 * 24 * time.Hour

// SearchCache persists hits keyed by backend and query. The store
// package implements it.
type SearchCache interface {
	GetSearch(ctx context.Context, backend, query string) ([]model.SearchHit, bool, error)
	PutSearch(ctx context.Context, backend, query string, hits []model.SearchHit, ttl time.Duration) error
}

// Cached wraps a Searcher with read-through caching so re-runs skip
// quota-burning calls. Cache failures degrade to the inner backend,
// never to an error.
type Cached struct {
	inner Searcher
	cache SearchCache
	ttl   time.Duration
}

// NewCached wraps inner with the cache. ttl <= 0 means DefaultCacheTTL.
func NewCached(inner Searcher, cache SearchCache, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cached{inner: inner, cache: cache, ttl: ttl}
}

// Name implements Searcher, passing through the inner backend's name so
// cache keys and logs stay stable whether or not caching is on.
func (c *Cached) Name() string { return c.inner.Name() }

// Search implements Searcher. Zero-hit answers are cached too; asking an
// engine again about a company it has never heard of helps nobody.
func (c *Cached) Search(ctx context.Context, query string, max int) ([]model.SearchHit, error) {
	hits, ok, err := c.cache.GetSearch(ctx, c.inner.Name(), query)
	switch {
	case err != nil:
		zap.L().Warn("search: cache read failed",
			zap.String("backend", c.inner.Name()),
			zap.Error(err),
		)
	case ok:
		if max > 0 && len(hits) > max {
			hits = hits[:max]
		}
		return hits, nil
	}

	hits, err = c.inner.Search(ctx, query, max)
	if err != nil {
		return nil, err
	}

	if err := c.cache.PutSearch(ctx, c.inner.Name(), query, hits, c.ttl); err != nil {
		zap.L().Warn("search: cache write failed",
			zap.String("backend", c.inner.Name()),
			zap.Error(err),
		)
	}
	return hits, nil
}
