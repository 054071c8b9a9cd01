// Package store persists search responses and resolved results. Two
// backends implement the same interface: SQLite for the default local
// cache and Postgres for shared deployments.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/sitefinder/internal/model"
)

// Store defines the persistence interface for sitefinder.
type Store interface {
	// Search cache. GetSearch reports (hits, found); an expired entry is
	// not found. Store satisfies search.SearchCache.
	GetSearch(ctx context.Context, backend, query string) ([]model.SearchHit, bool, error)
	PutSearch(ctx context.Context, backend, query string, hits []model.SearchHit, ttl time.Duration) error

	// Resolutions, grouped by run ID.
	SaveResolution(ctx context.Context, runID string, res model.Resolution) error
	SaveResolutions(ctx context.Context, runID string, results []model.Resolution) error
	ListResolutions(ctx context.Context, runID string) ([]model.Resolution, error)

	// Cache maintenance.
	CacheStats(ctx context.Context) (*CacheStats, error)
	PruneCache(ctx context.Context) (int, error)

	// Lifecycle.
	Migrate(ctx context.Context) error
	Close() error
}

// CacheStats summarizes the search cache contents.
type CacheStats struct {
	Entries  int            `json:"entries"`
	Expired  int            `json:"expired"`
	Backends map[string]int `json:"backends,omitempty"`
}

// New opens a store for the configured driver ("sqlite" or "postgres")
// and runs migrations. An empty driver means SQLite.
func New(ctx context.Context, driver, dsn string, poolCfg *PoolConfig) (Store, error) {
	var (
		st  Store
		err error
	)
	switch driver {
	case "", "sqlite":
		st, err = NewSQLite(dsn)
	case "postgres":
		st, err = NewPostgres(ctx, dsn, poolCfg)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}
