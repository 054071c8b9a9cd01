package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/sitefinder/internal/db"
	"github.com/sells-group/sitefinder/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot cache path.
var preparedStatements = map[string]string{
	"get_search":  `SELECT hits FROM search_cache WHERE backend = $1 AND query = $2 AND expires_at > now()`,
	"put_search":  `INSERT INTO search_cache (id, backend, query, hits, created_at, expires_at) VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (backend, query) DO UPDATE SET hits = $4, created_at = $5, expires_at = $6`,
	"prune_cache": `DELETE FROM search_cache WHERE expires_at <= now()`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS search_cache (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	backend    TEXT NOT NULL,
	query      TEXT NOT NULL,
	hits       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL,
	UNIQUE (backend, query)
);

CREATE TABLE IF NOT EXISTS resolutions (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id     TEXT NOT NULL,
	company    TEXT NOT NULL,
	best_url   TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	reason     TEXT NOT NULL,
	backend    TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (run_id, company)
);

CREATE INDEX IF NOT EXISTS idx_search_cache_expires_at ON search_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_resolutions_run_id ON resolutions(run_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetSearch(ctx context.Context, backend, query string) ([]model.SearchHit, bool, error) {
	var hitsJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT hits FROM search_cache WHERE backend = $1 AND query = $2 AND expires_at > now()`,
		backend, query,
	).Scan(&hitsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, eris.Wrap(err, "postgres: get search")
	}

	var hits []model.SearchHit
	if err := json.Unmarshal(hitsJSON, &hits); err != nil {
		return nil, false, eris.Wrap(err, "postgres: unmarshal hits")
	}
	return hits, true, nil
}

func (s *PostgresStore) PutSearch(ctx context.Context, backend, query string, hits []model.SearchHit, ttl time.Duration) error {
	now := time.Now().UTC()

	hitsJSON, err := json.Marshal(hits)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal hits")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO search_cache (id, backend, query, hits, created_at, expires_at) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (backend, query) DO UPDATE SET hits = $4, created_at = $5, expires_at = $6`,
		uuid.New().String(), backend, query, hitsJSON, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: put search")
}

func (s *PostgresStore) SaveResolution(ctx context.Context, runID string, res model.Resolution) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO resolutions (id, run_id, company, best_url, confidence, reason, backend, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (run_id, company) DO UPDATE SET best_url = $4,
		   confidence = $5, reason = $6, backend = $7, created_at = $8`,
		uuid.New().String(), runID, res.Company, res.BestURL,
		res.Confidence, string(res.Reason), res.Backend, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save resolution for %s", res.Company)
}

// SaveResolutions bulk-upserts a whole run's results in one transaction.
func (s *PostgresStore) SaveResolutions(ctx context.Context, runID string, results []model.Resolution) error {
	if len(results) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(results))
	for _, res := range results {
		rows = append(rows, []any{
			uuid.New().String(), runID, res.Company, res.BestURL,
			res.Confidence, string(res.Reason), res.Backend, now,
		})
	}

	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "resolutions",
		Columns:      []string{"id", "run_id", "company", "best_url", "confidence", "reason", "backend", "created_at"},
		ConflictKeys: []string{"run_id", "company"},
		UpdateCols:   []string{"best_url", "confidence", "reason", "backend", "created_at"},
	}, rows)
	return eris.Wrapf(err, "postgres: save resolutions for run %s", runID)
}

func (s *PostgresStore) ListResolutions(ctx context.Context, runID string) ([]model.Resolution, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT company, best_url, confidence, reason, backend FROM resolutions
		 WHERE run_id = $1 ORDER BY created_at, company`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list resolutions")
	}
	defer rows.Close()

	var results []model.Resolution
	for rows.Next() {
		var res model.Resolution
		var reason string
		var backend *string
		if err := rows.Scan(&res.Company, &res.BestURL, &res.Confidence, &reason, &backend); err != nil {
			return nil, eris.Wrap(err, "postgres: scan resolution")
		}
		res.Reason = model.MatchReason(reason)
		if backend != nil {
			res.Backend = *backend
		}
		results = append(results, res)
	}
	return results, eris.Wrap(rows.Err(), "postgres: list resolutions iterate")
}

func (s *PostgresStore) CacheStats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{Backends: map[string]int{}}

	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE expires_at <= now()) FROM search_cache`,
	).Scan(&stats.Entries, &stats.Expired)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: cache stats")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT backend, COUNT(*) FROM search_cache GROUP BY backend`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: cache stats by backend")
	}
	defer rows.Close()

	for rows.Next() {
		var backend string
		var n int
		if err := rows.Scan(&backend, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan backend count")
		}
		stats.Backends[backend] = n
	}
	return stats, eris.Wrap(rows.Err(), "postgres: cache stats iterate")
}

func (s *PostgresStore) PruneCache(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM search_cache WHERE expires_at <= now()`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: prune cache")
	}
	return int(tag.RowsAffected()), nil
}
