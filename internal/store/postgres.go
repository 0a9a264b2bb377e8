package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/chmatch/pkg/companieshouse"
)

// Pool is the slice of pgxpool.Pool the store uses; pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS search_cache (
	id             TEXT PRIMARY KEY,
	query          TEXT NOT NULL,
	items_per_page INTEGER NOT NULL,
	items          JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_search_cache_query ON search_cache(query, items_per_page);
CREATE INDEX IF NOT EXISTS idx_search_cache_expires_at ON search_cache(expires_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) GetSearch(ctx context.Context, query string, itemsPerPage int) ([]companieshouse.Candidate, bool, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT items FROM search_cache
		 WHERE query = $1 AND items_per_page = $2 AND expires_at > now()
		 ORDER BY created_at DESC LIMIT 1`,
		query, itemsPerPage,
	)

	var itemsJSON []byte
	err := row.Scan(&itemsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "postgres: get search")
	}

	var items []companieshouse.Candidate
	if err := json.Unmarshal(itemsJSON, &items); err != nil {
		return nil, false, eris.Wrap(err, "postgres: unmarshal cached items")
	}
	return items, true, nil
}

func (s *PostgresStore) SetSearch(ctx context.Context, query string, itemsPerPage int, items []companieshouse.Candidate, ttl time.Duration) error {
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal items")
	}

	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO search_cache (id, query, items_per_page, items, created_at, expires_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New().String(), query, itemsPerPage, itemsJSON, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set search")
}

func (s *PostgresStore) DeleteExpired(ctx context.Context) (int, error) {
	res, err := s.pool.Exec(ctx, `DELETE FROM search_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired")
	}
	return int(res.RowsAffected()), nil
}
