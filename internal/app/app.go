package app

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrymomot/apm/internal/catalog"
	"github.com/dmitrymomot/apm/internal/catalog/memory"
	"github.com/dmitrymomot/apm/internal/catalog/postgres"
	"github.com/dmitrymomot/apm/internal/config"
	"github.com/dmitrymomot/apm/internal/identity"
	"github.com/dmitrymomot/apm/pkg/cache"
	"github.com/dmitrymomot/apm/pkg/db"
	"github.com/dmitrymomot/apm/pkg/effect"
	"github.com/dmitrymomot/apm/pkg/health"
	"github.com/dmitrymomot/apm/pkg/redis"
	"github.com/dmitrymomot/apm/pkg/store"
)

const cacheNamespace = "apm:catalog"

// App owns one store with the catalog and identity features, their effects
// and the backends behind them.
//
// Lifecycle: New opens the backends, Start begins reacting to triggers and
// loads the catalog, Shutdown stops the effects, disposes the store and
// closes the backends in reverse order.
type App struct {
	Store    *store.Store
	Catalog  *catalog.Selectors
	Identity *identity.Selectors
	Registry *prometheus.Registry

	logger  *slog.Logger
	runtime *effect.Runtime
	checks  health.Checks
	closers []func(context.Context) error
}

// New builds the application from cfg. Backends that fail to open are
// reported and everything opened before them is closed again.
func New(ctx context.Context, cfg config.Config, opts ...Option) (_ *App, err error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &App{
		Catalog:  catalog.NewSelectors(),
		Identity: identity.NewSelectors(),
		Registry: reg,
		logger:   o.logger,
		checks:   health.Checks{},
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, a.close(context.WithoutCancel(ctx)))
		}
	}()

	api := o.catalog
	if api == nil {
		if api, err = a.openCatalog(ctx, cfg); err != nil {
			return nil, err
		}
	}
	if api, err = a.cacheCatalog(ctx, cfg, api); err != nil {
		return nil, err
	}

	a.Store = store.New(
		store.Combine(catalog.Feature(), identity.Feature()),
		store.WithLogger(o.logger),
		store.WithRegisterer(reg),
	)
	a.checks["store"] = a.Store.Healthcheck()

	rtOpts := []effect.Option{effect.WithLogger(o.logger), effect.WithRegisterer(reg)}
	if o.tracer != nil {
		rtOpts = append(rtOpts, effect.WithTracer(o.tracer))
	}
	a.runtime = effect.New(a.Store, rtOpts...)
	a.checks["effects"] = a.runtime.Healthcheck()

	effects := boundWrites(catalog.Effects(api), cfg.Catalog.MaxConcurrentWrites)
	effects = append(effects, identity.Effects(o.auth)...)
	if err = a.runtime.Register(effects...); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) openCatalog(ctx context.Context, cfg config.Config) (catalog.API, error) {
	switch cfg.Catalog.Backend {
	case config.BackendPostgres:
		pool, err := db.Open(ctx, cfg.Database, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Closer(pool))
		a.checks["postgres"] = db.Healthcheck(pool)

		if cfg.Catalog.AutoMigrate {
			if err := db.Migrate(ctx, pool, postgres.Migrations(), cfg.Database.MigrationsTable, a.logger); err != nil {
				return nil, err
			}
		}
		a.logger.InfoContext(ctx, "catalog backend ready", slog.String("backend", "postgres"))
		return postgres.New(pool), nil

	default:
		a.logger.InfoContext(ctx, "catalog backend ready",
			slog.String("backend", "memory"),
			slog.Duration("latency", cfg.Catalog.Latency),
		)
		return memory.New(memory.WithLatency(cfg.Catalog.Latency)), nil
	}
}

func (a *App) cacheCatalog(ctx context.Context, cfg config.Config, api catalog.API) (catalog.API, error) {
	switch cfg.Catalog.Cache {
	case config.CacheRedis:
		client, err := redis.Open(ctx, cfg.Redis, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, redis.Closer(client))
		a.checks["redis"] = redis.Healthcheck(client)

		c, err := cache.NewRedis[[]catalog.Product](client, cacheNamespace)
		if err != nil {
			return nil, err
		}
		return catalog.NewCachedAPI(api, c, cfg.Catalog.CacheTTL), nil

	case config.CacheMemory:
		c := cache.NewMemory[[]catalog.Product](cache.WithMaxEntries(max(cfg.Catalog.CacheSize, 1)))
		a.closers = append(a.closers, func(context.Context) error { return c.Close() })
		return catalog.NewCachedAPI(api, c, cfg.Catalog.CacheTTL), nil

	default:
		return api, nil
	}
}

// boundWrites caps the merge effects (create and delete) at n concurrent runs.
func boundWrites(effects []effect.Effect, n int64) []effect.Effect {
	if n <= 0 {
		return effects
	}
	for i := range effects {
		if effects[i].Policy == effect.Merge {
			effects[i].MaxConcurrency = n
		}
	}
	return effects
}

// Start starts the effects and dispatches the initial catalog load.
func (a *App) Start(ctx context.Context) error {
	if err := a.runtime.Start(ctx); err != nil {
		return err
	}
	return a.Store.Dispatch(catalog.Load{})
}

// Checks returns the readiness checks of the store, the runtime and every
// opened backend.
func (a *App) Checks() health.Checks {
	return maps.Clone(a.checks)
}

// Shutdown stops the effects, disposes the store and closes the backends.
// It is safe to call once after New succeeded, started or not.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.runtime.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	a.Store.Dispose()
	errs = append(errs, a.close(ctx))
	return errors.Join(errs...)
}

func (a *App) close(ctx context.Context) error {
	var errs []error
	for _, fn := range slices.Backward(a.closers) {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	errs = append(errs, a.Catalog.Close())
	return errors.Join(errs...)
}
