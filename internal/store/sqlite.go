package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/chmatch/pkg/companieshouse"
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

// sqliteTimeLayout matches datetime('now') output so timestamp
// comparisons in SQL stay lexicographic.
const sqliteTimeLayout = "2006-01-02 15:04:05"

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS search_cache (
	id             TEXT PRIMARY KEY,
	query          TEXT NOT NULL,
	items_per_page INTEGER NOT NULL,
	items          TEXT NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_search_cache_query ON search_cache(query, items_per_page);
CREATE INDEX IF NOT EXISTS idx_search_cache_expires_at ON search_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetSearch(ctx context.Context, query string, itemsPerPage int) ([]companieshouse.Candidate, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT items FROM search_cache
		 WHERE query = ? AND items_per_page = ? AND expires_at > datetime('now')
		 ORDER BY created_at DESC LIMIT 1`,
		query, itemsPerPage,
	)

	var itemsJSON string
	err := row.Scan(&itemsJSON)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "sqlite: get search")
	}

	var items []companieshouse.Candidate
	if err := json.Unmarshal([]byte(itemsJSON), &items); err != nil {
		return nil, false, eris.Wrap(err, "sqlite: unmarshal cached items")
	}
	return items, true, nil
}

func (s *SQLiteStore) SetSearch(ctx context.Context, query string, itemsPerPage int, items []companieshouse.Candidate, ttl time.Duration) error {
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal items")
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO search_cache (id, query, items_per_page, items, created_at, expires_at) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), query, itemsPerPage, string(itemsJSON),
		now.Format(sqliteTimeLayout), now.Add(ttl).Format(sqliteTimeLayout),
	)
	return eris.Wrap(err, "sqlite: set search")
}

func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM search_cache WHERE expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}
