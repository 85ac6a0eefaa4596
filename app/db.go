package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/yx-elite/social-media-content-generator/app/config"
	"github.com/yx-elite/social-media-content-generator/app/store"
)

// OpenStore connects to Postgres, or falls back to the in-memory store when
// no database is configured (local runs and tests).
func OpenStore(ctx context.Context, cfg config.PostgresConfig) (store.Store, func() error, error) {
	if cfg.DSN == "" && cfg.URL == "" {
		log.Warn().Msg("no database configured; using in-memory store")
		return store.NewMemory(), func() error { return nil }, nil
	}

	pg, err := store.OpenPostgres(ctx, cfg.PostgresDSN())
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pg.Migrate(ctx); err != nil {
		_ = pg.Close()
		return nil, nil, err
	}
	log.Info().Str("host", cfg.URL).Msg("Connected to Postgres")
	return pg, pg.Close, nil
}
