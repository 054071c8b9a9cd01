package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sitefinder/internal/model"
)

type fakeCache struct {
	mu     sync.Mutex
	hits   map[string][]model.SearchHit
	getErr error
	putErr error
	puts   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{hits: make(map[string][]model.SearchHit)}
}

func (f *fakeCache) GetSearch(_ context.Context, backend, query string) ([]model.SearchHit, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	h, ok := f.hits[backend+"|"+query]
	return h, ok, nil
}

func (f *fakeCache) PutSearch(_ context.Context, backend, query string, hits []model.SearchHit, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.hits[backend+"|"+query] = hits
	f.puts++
	return nil
}

func TestCachedMissThenHit(t *testing.T) {
	t.Parallel()

	inner := &stubSearcher{name: "cse", hits: []model.SearchHit{{URL: "https://a.com/"}}}
	cache := newFakeCache()
	c := NewCached(inner, cache, time.Hour)

	hits, err := c.Search(context.Background(), "acme", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int32(1), inner.calls.Load())
	assert.Equal(t, 1, cache.puts)

	// Second call comes from the cache.
	hits, err = c.Search(context.Background(), "acme", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestCachedHitTruncatedToMax(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	cache.hits["cse|acme"] = []model.SearchHit{
		{URL: "https://a.com/"},
		{URL: "https://b.com/"},
		{URL: "https://c.com/"},
	}

	inner := &stubSearcher{name: "cse"}
	c := NewCached(inner, cache, time.Hour)

	hits, err := c.Search(context.Background(), "acme", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, int32(0), inner.calls.Load())
}

func TestCachedReadErrorFallsThrough(t *testing.T) {
	t.Parallel()

	inner := &stubSearcher{name: "cse", hits: []model.SearchHit{{URL: "https://a.com/"}}}
	cache := newFakeCache()
	cache.getErr = assert.AnError
	c := NewCached(inner, cache, time.Hour)

	hits, err := c.Search(context.Background(), "acme", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestCachedWriteErrorIsNotFatal(t *testing.T) {
	t.Parallel()

	inner := &stubSearcher{name: "cse", hits: []model.SearchHit{{URL: "https://a.com/"}}}
	cache := newFakeCache()
	cache.putErr = assert.AnError
	c := NewCached(inner, cache, time.Hour)

	hits, err := c.Search(context.Background(), "acme", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestCachedInnerErrorNotCached(t *testing.T) {
	t.Parallel()

	inner := &stubSearcher{name: "cse", err: assert.AnError}
	cache := newFakeCache()
	c := NewCached(inner, cache, time.Hour)

	_, err := c.Search(context.Background(), "acme", 5)
	require.Error(t, err)
	assert.Zero(t, cache.puts)
}

func TestCachedName(t *testing.T) {
	t.Parallel()

	c := NewCached(&stubSearcher{name: "ddg"}, newFakeCache(), 0)
	assert.Equal(t, "ddg", c.Name())
}
