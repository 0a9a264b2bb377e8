// Package store caches raw registry search responses with a TTL so
// re-runs of a batch do not burn the daily search quota twice.
// Resolution results are never persisted, only the registry's answers.
package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/chmatch/pkg/companieshouse"
)

// Store is the search-response cache backend.
type Store interface {
	// GetSearch returns the cached candidates for (query, itemsPerPage),
	// with found=false on a miss or expired entry.
	GetSearch(ctx context.Context, query string, itemsPerPage int) (items []companieshouse.Candidate, found bool, err error)

	// SetSearch caches the candidates for (query, itemsPerPage).
	SetSearch(ctx context.Context, query string, itemsPerPage int, items []companieshouse.Candidate, ttl time.Duration) error

	// DeleteExpired removes expired cache entries, returning the count.
	DeleteExpired(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// CachedSearcher decorates a registry client with the cache. Cache
// failures are logged and treated as misses; the remote call is the
// source of truth.
type CachedSearcher struct {
	client companieshouse.Client
	store  Store
	ttl    time.Duration
}

// NewCachedSearcher wraps client with the given cache backend.
func NewCachedSearcher(client companieshouse.Client, st Store, ttl time.Duration) *CachedSearcher {
	return &CachedSearcher{client: client, store: st, ttl: ttl}
}

// Search consults the cache first and falls through to the client.
func (c *CachedSearcher) Search(ctx context.Context, query string, itemsPerPage int) ([]companieshouse.Candidate, error) {
	items, found, err := c.store.GetSearch(ctx, query, itemsPerPage)
	if err != nil {
		zap.L().Warn("store: cache read failed", zap.String("query", query), zap.Error(err))
	} else if found {
		zap.L().Debug("store: cache hit", zap.String("query", query), zap.Int("items", len(items)))
		return items, nil
	}

	items, err = c.client.Search(ctx, query, itemsPerPage)
	if err != nil {
		return nil, err
	}

	if err := c.store.SetSearch(ctx, query, itemsPerPage, items, c.ttl); err != nil {
		zap.L().Warn("store: cache write failed", zap.String("query", query), zap.Error(err))
	}
	return items, nil
}
