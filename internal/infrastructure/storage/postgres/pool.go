// Package postgres is the PostgreSQL side of bizbook: the pool, the
// transaction manager, the audit log, the outbox and the migrations.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"bizbook/pkg/logger"
)

// PoolConfig holds connection pool configuration.
type PoolConfig struct {
	DSN      string
	AppName  string // reported as application_name in pg_stat_activity
	MaxConns int32
	MinConns int32

	// ConnectAttempts is how often NewPool pings before giving up; the
	// database container may still be starting.
	ConnectAttempts int
	RetryDelay      time.Duration
}

// DefaultPoolConfig returns the API server defaults.
func DefaultPoolConfig(dsn string) PoolConfig {
	return PoolConfig{
		DSN:             dsn,
		AppName:         "bizbook",
		MaxConns:        25,
		MinConns:        5,
		ConnectAttempts: 5,
		RetryDelay:      2 * time.Second,
	}
}

// Pool wraps pgxpool.Pool. It satisfies the readiness Pinger.
type Pool struct {
	*pgxpool.Pool
}

// NewPool opens the pool and pings it, retrying while the server is not up.
func NewPool(ctx context.Context, cfg PoolConfig) (*Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = time.Hour
	pc.MaxConnIdleTime = 30 * time.Minute
	if cfg.AppName != "" {
		pc.ConnConfig.RuntimeParams["application_name"] = cfg.AppName
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	attempts := max(cfg.ConnectAttempts, 1)
	for attempt := 1; ; attempt++ {
		err = pool.Ping(ctx)
		if err == nil {
			return &Pool{Pool: pool}, nil
		}
		if attempt == attempts {
			break
		}
		logger.Warn(ctx, "database not ready, retrying", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(cfg.RetryDelay):
		}
	}

	pool.Close()
	return nil, fmt.Errorf("ping database after %d attempts: %w", attempts, err)
}
