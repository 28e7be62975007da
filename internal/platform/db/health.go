package db

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

const healthTimeout = 5 * time.Second

// PoolStats is the pool snapshot served by /api/health/db and the developer
// stats endpoint.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
	Healthy         bool   `json:"healthy"`
}

func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
		Healthy:         stat.TotalConns() > 0,
	}
}

// HealthSource is the slice of *pgxpool.Pool the health check needs.
type HealthSource interface {
	Ping(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SchemaStatus reads the version golang-migrate recorded and compares it with
// the migrations compiled into the binary. A database that was never migrated
// reports version 0.
func SchemaStatus(ctx context.Context, q HealthSource) (*MigrationStatus, error) {
	versions, err := EmbeddedVersions()
	if err != nil {
		return nil, err
	}

	var version int64
	var dirty bool
	err = q.QueryRow(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		version, dirty = 0, false
	case errors.As(err, &pgErr) && pgErr.Code == "42P01":
		version, dirty = 0, false
	case err != nil:
		return nil, err
	}
	return buildStatus(uint(version), dirty, versions), nil
}

// HealthHandler serves /api/health/db. A failed ping or a dirty schema is 503;
// pending migrations are reported as degraded with 200.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return healthHandler(pool, func() *PoolStats { return GetPoolStats(pool) })
}

func healthHandler(src HealthSource, stats func() *PoolStats) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()

		start := time.Now()
		err := src.Ping(ctx)
		latency := time.Since(start)
		ps := stats()

		if err != nil {
			ps.Healthy = false
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
				"pool":   ps,
			})
		}

		body := map[string]interface{}{
			"status":       "healthy",
			"ping_latency": latency.String(),
			"pool":         ps,
		}
		schema, err := SchemaStatus(ctx, src)
		switch {
		case err != nil:
			body["status"] = "degraded"
			body["schema_error"] = err.Error()
		case schema.Dirty:
			body["status"] = "unhealthy"
			body["schema"] = schema
			return c.JSON(http.StatusServiceUnavailable, body)
		case schema.Pending > 0:
			body["status"] = "degraded"
			body["schema"] = schema
		default:
			body["schema"] = schema
		}
		return c.JSON(http.StatusOK, body)
	}
}
