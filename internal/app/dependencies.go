// Package app assembles the services shared by the API server and tools.
package app

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"

	"github.com/noah-isme/supermarket/internal/catalog"
	"github.com/noah-isme/supermarket/internal/config"
	"github.com/noah-isme/supermarket/internal/db"
	"github.com/noah-isme/supermarket/internal/health"
	"github.com/noah-isme/supermarket/internal/obs"
	"github.com/noah-isme/supermarket/internal/offer"
	"github.com/noah-isme/supermarket/internal/ratelimit"
	"github.com/noah-isme/supermarket/internal/resilience"
)

const (
	breakerMinRequests  = 10
	breakerFailureRatio = 0.5
)

// Options tunes optional instrumentation.
type Options struct {
	ApplicationName string
	RedisMetrics    bool
}

// Dependencies enumerates the services shared across handlers. DB, Redis,
// OfferStore, Tasks and Inspector stay nil when their backing service is
// not configured.
type Dependencies struct {
	Config     *config.Config
	Logger     zerolog.Logger
	DB         *pgxpool.Pool
	Redis      *redis.Client
	Catalog    catalog.Catalog
	Products   catalog.Lister
	Offers     *offer.Registry
	OfferStore *offer.Store
	Tasks      *asynq.Client
	Inspector  *asynq.Inspector
	Limiter    *limiter.Limiter
}

// Build connects to the configured backing services and assembles the
// catalog, offer registry, rate limiter and task client. Without
// DATABASE_URL the catalog and offers come from DefaultListings and
// DefaultOffers.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*Dependencies, error) {
	d := &Dependencies{Config: cfg, Logger: logger, Offers: offer.NewRegistry()}
	ok := false
	defer func() {
		if !ok {
			d.Close()
		}
	}()

	if cfg.DatabaseURL != "" {
		if cfg.MigrateOnStart {
			if err := db.Migrate(cfg.DatabaseURL); err != nil {
				return nil, err
			}
			logger.Info().Msg("migrations applied")
		}
		pool, err := NewPool(ctx, cfg, opts.ApplicationName)
		if err != nil {
			return nil, err
		}
		d.DB = pool
		store := catalog.NewStore(pool)
		d.Products = store
		d.Catalog = resilience.Catalog{
			Source:  store,
			Breaker: resilience.NewBreaker(breakerMinRequests, breakerFailureRatio, cfg.CatalogBreakerOpen).WithTarget("catalog_db"),
		}
		d.OfferStore = &offer.Store{DB: pool}
		n, err := d.OfferStore.LoadInto(ctx, d.Offers)
		if err != nil {
			return nil, err
		}
		logger.Info().Int("offers", n).Msg("offers loaded")
	} else {
		mem := catalog.NewMemory(DefaultListings()...)
		d.Catalog, d.Products = mem, mem
		for _, o := range DefaultOffers() {
			d.Offers.Set(o.Type, o.Product, o.Argument)
		}
		logger.Warn().Msg("DATABASE_URL not set; serving the built-in catalog")
	}

	if cfg.RedisURL != "" {
		client, err := NewRedis(ctx, cfg.RedisURL, opts.RedisMetrics, logger)
		if err != nil {
			return nil, err
		}
		d.Redis = client
		d.Catalog = catalog.Cached{
			Source:   d.Catalog,
			Cache:    catalog.NewCache(client, cfg.CatalogCacheTTL),
			OnLookup: obs.ObserveCatalogCache,
		}
	}

	l, err := ratelimit.New(cfg.CheckoutRateLimit, d.Redis, "ratelimit:checkout")
	if err != nil {
		return nil, err
	}
	d.Limiter = l

	if cfg.ReceiptPrintEnabled {
		redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url for tasks: %w", err)
		}
		d.Tasks = asynq.NewClient(redisOpt)
		d.Inspector = asynq.NewInspector(redisOpt)
	}

	ok = true
	return d, nil
}

// NewPool opens a traced pgx pool and verifies connectivity.
func NewPool(ctx context.Context, cfg *config.Config, applicationName string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if applicationName != "" {
		if poolConfig.ConnConfig.RuntimeParams == nil {
			poolConfig.ConnConfig.RuntimeParams = map[string]string{}
		}
		poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	if cfg.DBMaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.DBMaxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewRedis opens a traced Redis client and verifies connectivity.
func NewRedis(ctx context.Context, url string, metrics bool, logger zerolog.Logger) (*redis.Client, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Probes returns readiness probes; unconfigured services map to nil.
func (d *Dependencies) Probes() map[string]health.Probe {
	probes := map[string]health.Probe{"db": nil, "redis": nil}
	if d.DB != nil {
		probes["db"] = health.ProbeFunc(d.DB.Ping)
	}
	if d.Redis != nil {
		client := d.Redis
		probes["redis"] = health.ProbeFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}
	return probes
}

// Close releases every opened connection.
func (d *Dependencies) Close() {
	if d.Tasks != nil {
		if err := d.Tasks.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("close task client")
		}
	}
	if d.Inspector != nil {
		if err := d.Inspector.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("close task inspector")
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("close redis")
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
}
