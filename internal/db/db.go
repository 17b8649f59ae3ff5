package db

import (
	"context"
	"fmt"

	"papertrade/internal/store"
	"papertrade/internal/store/postgres"
	"papertrade/internal/store/sqlite"
	"papertrade/internal/types"

	"github.com/jackc/pgx/v5/pgxpool"
)

func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Open connects the configured driver and applies the schema.
func Open(ctx context.Context, driver types.StoreDriver, dsn string) (store.Store, error) {
	var s store.Store
	switch driver {
	case types.StoreDriverPostgres:
		pool, err := NewPool(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s = postgres.NewStore(pool)
	case types.StoreDriverSQLite:
		sq, err := sqlite.Open(dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		s = sq
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}
