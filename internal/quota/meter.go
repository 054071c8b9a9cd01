package quota

import (
	"context"

	"github.com/sells-group/sitefinder/internal/model"
	"github.com/sells-group/sitefinder/internal/search"
)

// Meter wraps a backend and records every outbound query, retried ones
// included. It belongs inside the cache wrapper so cache hits stay
// unmetered.
type Meter struct {
	inner   search.Searcher
	tracker *Tracker
}

// Metered wraps a backend with usage tracking.
func Metered(inner search.Searcher, t *Tracker) *Meter {
	return &Meter{inner: inner, tracker: t}
}

// Name implements search.Searcher.
func (m *Meter) Name() string { return m.inner.Name() }

// Search implements search.Searcher. The attempt is recorded before the
// call goes out; failed queries consume quota too.
func (m *Meter) Search(ctx context.Context, query string, max int) ([]model.SearchHit, error) {
	m.tracker.Record(m.inner.Name(), 1)
	return m.inner.Search(ctx, query, max)
}
