package db

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PoolConfig describes the service's connection pool. Zero durations and
// attempts fall back to the defaults below.
type PoolConfig struct {
	URL               string
	MaxConns          int32
	MinConns          int32
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	// StatementTimeout is sent as the session statement_timeout when positive.
	StatementTimeout time.Duration
	AppName          string
	ConnectAttempts  int
	RetryDelay       time.Duration
}

const (
	defaultMaxConnIdleTime   = 5 * time.Minute
	defaultHealthCheckPeriod = time.Minute
	defaultRetryDelay        = 2 * time.Second
)

func (p PoolConfig) pgxConfig() (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(p.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if p.MaxConns > 0 {
		cfg.MaxConns = p.MaxConns
	}
	if p.MinConns > 0 {
		cfg.MinConns = p.MinConns
	}
	if cfg.MinConns > cfg.MaxConns {
		return nil, fmt.Errorf("min conns %d exceeds max conns %d", cfg.MinConns, cfg.MaxConns)
	}

	cfg.MaxConnIdleTime = orDefault(p.MaxConnIdleTime, defaultMaxConnIdleTime)
	cfg.HealthCheckPeriod = orDefault(p.HealthCheckPeriod, defaultHealthCheckPeriod)

	params := cfg.ConnConfig.RuntimeParams
	if p.AppName != "" {
		params["application_name"] = p.AppName
	}
	if p.StatementTimeout > 0 {
		params["statement_timeout"] = strconv.FormatInt(p.StatementTimeout.Milliseconds(), 10)
	}
	return cfg, nil
}

// NewPool opens the pool and pings until the database answers or
// ConnectAttempts is used up.
func NewPool(ctx context.Context, p PoolConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	cfg, err := p.pgxConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	attempts := p.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := orDefault(p.RetryDelay, defaultRetryDelay)

	for i := 1; ; i++ {
		err = pool.Ping(ctx)
		if err == nil {
			return pool, nil
		}
		if i >= attempts {
			break
		}
		logger.Warn().Err(err).
			Int("attempt", i).
			Int("max_attempts", attempts).
			Dur("retry_in", delay).
			Msg("database not ready")

		select {
		case <-ctx.Done():
			pool.Close()
			return nil, fmt.Errorf("ping database: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	pool.Close()
	return nil, fmt.Errorf("ping database after %d attempts: %w", attempts, err)
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
