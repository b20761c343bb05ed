// Package backend opens the Store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sikndrR/fitnessApp/internal/config"
	"github.com/sikndrR/fitnessApp/internal/domain"
	"github.com/sikndrR/fitnessApp/internal/observability"
	"github.com/sikndrR/fitnessApp/internal/persistence/memory"
	"github.com/sikndrR/fitnessApp/internal/persistence/postgres"
	"github.com/sikndrR/fitnessApp/internal/persistence/sqlite"
)

// Open connects the configured backend and wraps it with metrics. The returned
// func releases the backend's resources.
func Open(ctx context.Context, cfg config.Config) (domain.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return observability.Instrument(memory.New(), cfg.StoreBackend), func() {}, nil

	case config.BackendSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		return observability.Instrument(store, cfg.StoreBackend), func() { _ = store.Close() }, nil

	case config.BackendPostgres:
		poolCfg, err := pgxpool.ParseConfig(cfg.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse postgres url: %w", err)
		}
		if cfg.PostgresMaxConns > 0 {
			poolCfg.MaxConns = int32(cfg.PostgresMaxConns)
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		store := postgres.NewStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return observability.Instrument(store, cfg.StoreBackend), pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
