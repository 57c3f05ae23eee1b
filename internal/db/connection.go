// Package db connects to the PostgreSQL database holding the sync state.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/catalog-sync/internal/config"
)

const (
	defaultMaxOpenConns    = 10
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnectTimeout  = 10 * time.Second
)

// NewPool opens a connection pool from the provided configuration and
// verifies it with a ping
func NewPool(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration is required")
	}

	connStr, err := cfg.GetConnectionString()
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database configuration: %w", err)
	}

	poolCfg.MaxConns = defaultMaxOpenConns
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = cfg.MaxOpenConns
	}

	lifetime, err := cfg.GetConnMaxLifetime()
	if err != nil {
		return nil, err
	}
	poolCfg.MaxConnLifetime = defaultConnMaxLifetime
	if lifetime > 0 {
		poolCfg.MaxConnLifetime = lifetime
	}
	poolCfg.ConnConfig.ConnectTimeout = defaultConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Database connection established",
		"user", cfg.User,
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Database)

	return pool, nil
}
