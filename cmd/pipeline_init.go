package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/chmatch/internal/resolver"
	"github.com/sells-group/chmatch/internal/store"
	"github.com/sells-group/chmatch/pkg/companieshouse"
)

// resolverEnv bundles the resolver with the resources behind it.
type resolverEnv struct {
	Resolver *resolver.Resolver
	Client   companieshouse.Client
	closeFns []func()
}

// Close releases resources in reverse order.
func (e *resolverEnv) Close() {
	for i := len(e.closeFns) - 1; i >= 0; i-- {
		e.closeFns[i]()
	}
}

// initResolver builds the registry client, the optional search cache,
// and the resolver from the loaded config.
func initResolver(ctx context.Context) (*resolverEnv, error) {
	if cfg.CompaniesHouse.APIKey == "" {
		return nil, eris.New("missing API key: set CHMATCH_COMPANIES_HOUSE_API_KEY or companies_house.api_key in config.yaml")
	}

	client := companieshouse.NewClient(cfg.CompaniesHouse.APIKey,
		companieshouse.WithBaseURL(cfg.CompaniesHouse.BaseURL),
		companieshouse.WithTimeout(time.Duration(cfg.CompaniesHouse.TimeoutSecs)*time.Second),
	)

	env := &resolverEnv{Client: client}

	var searcher resolver.Searcher = client
	if cfg.Cache.Enabled {
		st, err := openStore(ctx)
		if err != nil {
			return nil, err
		}
		env.closeFns = append(env.closeFns, func() { _ = st.Close() })

		if n, err := st.DeleteExpired(ctx); err != nil {
			zap.L().Warn("cache: cleanup failed", zap.Error(err))
		} else if n > 0 {
			zap.L().Debug("cache: expired entries removed", zap.Int("count", n))
		}

		ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
		searcher = store.NewCachedSearcher(client, st, ttl)
		zap.L().Info("cache: enabled",
			zap.String("driver", cfg.Cache.Driver),
			zap.Duration("ttl", ttl),
		)
	}

	env.Resolver = resolver.New(searcher,
		resolver.WithQueryInterval(time.Duration(cfg.Resolver.QueryIntervalMS)*time.Millisecond),
	)
	return env, nil
}

// openStore opens the configured cache backend and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Cache.Driver {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Cache.DatabaseURL)
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Cache.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
	if err != nil {
		return nil, eris.Wrap(err, "open cache store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate cache store")
	}
	return st, nil
}
