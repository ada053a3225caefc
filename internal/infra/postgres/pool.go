package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultPingTimeout = 5 * time.Second

	errParseConfigFmt = "failed to parse database config: %w"
	errCreatePoolFmt  = "failed to create connection pool: %w"
	errPingFmt        = "failed to ping database: %w"
)

// Config holds PostgreSQL connection configuration
type Config struct {
	DSN         string
	MaxConns    int
	PingTimeout time.Duration
}

// NewPool opens a pgx pool and verifies the database is reachable.
func NewPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf(errParseConfigFmt, err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf(errCreatePoolFmt, err)
	}

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf(errPingFmt, err)
	}

	return pool, nil
}
