// Package db contains code for connecting to the PostgreSQL article mirror.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/articlesync/articlesync/internal/config"
	"github.com/articlesync/articlesync/internal/logging"
)

const (
	// A run publishes sequentially, so a small pool is enough
	defaultMaxConns       = 2
	defaultConnectTimeout = 10 * time.Second
)

// poolConfig validates cfg and builds the pool configuration
func poolConfig(cfg *config.DatabaseConfig) (*pgxpool.Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration is required")
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("database host is required")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("database user is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("database name is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString("postgres"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database connection string: %w", err)
	}
	poolCfg.MaxConns = defaultMaxConns
	poolCfg.ConnConfig.ConnectTimeout = defaultConnectTimeout
	return poolCfg, nil
}

// NewPool creates a connection pool and verifies the database is reachable
func NewPool(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.AWSRDSIAM != nil {
		iam, err := newRDSIAM(ctx, cfg)
		if err != nil {
			return nil, err
		}
		poolCfg.BeforeConnect = iam.beforeConnect
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logging.FromContext(ctx).Info("Database connection established",
		"user", cfg.User, "host", cfg.Host, "port", cfg.Port, "database", cfg.Database)
	return pool, nil
}
