package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/sitefinder/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS search_cache (
	id         TEXT PRIMARY KEY,
	backend    TEXT NOT NULL,
	query      TEXT NOT NULL,
	hits       TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL,
	UNIQUE (backend, query)
);

CREATE TABLE IF NOT EXISTS resolutions (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL,
	company    TEXT NOT NULL,
	best_url   TEXT NOT NULL,
	confidence REAL NOT NULL,
	reason     TEXT NOT NULL,
	backend    TEXT,
	created_at DATETIME NOT NULL,
	UNIQUE (run_id, company)
);

CREATE INDEX IF NOT EXISTS idx_search_cache_expires_at ON search_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_resolutions_run_id ON resolutions(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetSearch(ctx context.Context, backend, query string) ([]model.SearchHit, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT hits FROM search_cache WHERE backend = ? AND query = ? AND expires_at > ?`,
		backend, query, time.Now().UTC(),
	)

	var hitsJSON string
	err := row.Scan(&hitsJSON)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "sqlite: get search")
	}

	var hits []model.SearchHit
	if err := json.Unmarshal([]byte(hitsJSON), &hits); err != nil {
		return nil, false, eris.Wrap(err, "sqlite: unmarshal hits")
	}
	return hits, true, nil
}

func (s *SQLiteStore) PutSearch(ctx context.Context, backend, query string, hits []model.SearchHit, ttl time.Duration) error {
	now := time.Now().UTC()

	hitsJSON, err := json.Marshal(hits)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal hits")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO search_cache (id, backend, query, hits, created_at, expires_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (backend, query) DO UPDATE SET hits = excluded.hits,
		   created_at = excluded.created_at, expires_at = excluded.expires_at`,
		uuid.New().String(), backend, query, string(hitsJSON), now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: put search")
}

func (s *SQLiteStore) SaveResolution(ctx context.Context, runID string, res model.Resolution) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resolutions (id, run_id, company, best_url, confidence, reason, backend, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id, company) DO UPDATE SET best_url = excluded.best_url,
		   confidence = excluded.confidence, reason = excluded.reason,
		   backend = excluded.backend, created_at = excluded.created_at`,
		uuid.New().String(), runID, res.Company, res.BestURL,
		res.Confidence, string(res.Reason), res.Backend, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save resolution for %s", res.Company)
}

func (s *SQLiteStore) SaveResolutions(ctx context.Context, runID string, results []model.Resolution) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, res := range results {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO resolutions (id, run_id, company, best_url, confidence, reason, backend, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (run_id, company) DO UPDATE SET best_url = excluded.best_url,
			   confidence = excluded.confidence, reason = excluded.reason,
			   backend = excluded.backend, created_at = excluded.created_at`,
			uuid.New().String(), runID, res.Company, res.BestURL,
			res.Confidence, string(res.Reason), res.Backend, time.Now().UTC(),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: save resolution for %s", res.Company)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit resolutions")
}

func (s *SQLiteStore) ListResolutions(ctx context.Context, runID string) ([]model.Resolution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT company, best_url, confidence, reason, backend FROM resolutions
		 WHERE run_id = ? ORDER BY created_at, company`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list resolutions")
	}
	defer rows.Close()

	var results []model.Resolution
	for rows.Next() {
		var res model.Resolution
		var reason string
		var backend sql.NullString
		if err := rows.Scan(&res.Company, &res.BestURL, &res.Confidence, &reason, &backend); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan resolution")
		}
		res.Reason = model.MatchReason(reason)
		res.Backend = backend.String
		results = append(results, res)
	}
	return results, eris.Wrap(rows.Err(), "sqlite: list resolutions iterate")
}

func (s *SQLiteStore) CacheStats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{Backends: map[string]int{}}
	now := time.Now().UTC()

	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN expires_at <= ? THEN 1 ELSE 0 END), 0) FROM search_cache`,
		now,
	)
	if err := row.Scan(&stats.Entries, &stats.Expired); err != nil {
		return nil, eris.Wrap(err, "sqlite: cache stats")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT backend, COUNT(*) FROM search_cache GROUP BY backend`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: cache stats by backend")
	}
	defer rows.Close()

	for rows.Next() {
		var backend string
		var n int
		if err := rows.Scan(&backend, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan backend count")
		}
		stats.Backends[backend] = n
	}
	return stats, eris.Wrap(rows.Err(), "sqlite: cache stats iterate")
}

func (s *SQLiteStore) PruneCache(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM search_cache WHERE expires_at <= ?`,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune cache")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}
