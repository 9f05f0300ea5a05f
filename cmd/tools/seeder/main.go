package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/noah-isme/supermarket/internal/app"
	"github.com/noah-isme/supermarket/internal/catalog"
	"github.com/noah-isme/supermarket/internal/config"
	"github.com/noah-isme/supermarket/internal/db"
	"github.com/noah-isme/supermarket/internal/obs"
	"github.com/noah-isme/supermarket/internal/offer"
)

func main() {
	skipMigrations := flag.Bool("skip-migrations", false, "do not apply schema migrations first")
	withOffers := flag.Bool("offers", true, "also seed the default special offers")
	flag.Parse()

	logger := obs.NewLogger(envOrDefault("OBS_LOG_FORMAT", "console"), envOrDefault("OBS_LOG_LEVEL", "info")).
		With().Str("component", "seeder").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}

	if !*skipMigrations {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
		logger.Info().Msg("migrations applied")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := app.NewPool(ctx, cfg, "supermarket-seeder")
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	products := catalog.NewStore(pool)
	for _, l := range app.DefaultListings() {
		if err := products.Upsert(ctx, l); err != nil {
			logger.Fatal().Err(err).Msg("seed product")
		}
		logger.Info().Str("product", l.Product.Name).Str("unit", l.Product.Unit.String()).Float64("unit_price", l.UnitPrice).Msg("product seeded")
	}

	if *withOffers {
		offers := offer.Store{DB: pool}
		for _, o := range app.DefaultOffers() {
			if err := offers.Save(ctx, o); err != nil {
				logger.Fatal().Err(err).Msg("seed offer")
			}
			logger.Info().Str("product", o.Product.Name).Str("offer_type", o.Type.String()).Msg("offer seeded")
		}
	}

	logger.Info().Msg("seeding completed")
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
