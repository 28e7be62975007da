package cbt

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healingspace/healingspace/internal/platform/db"
)

type queryable interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) Create(ctx context.Context, e *Entry) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO cbt_tool_entries (username, tool_type, data, mood_rating, notes)
		VALUES ($1, $2, $3::jsonb, $4, $5)
		RETURNING id, created_at, updated_at`,
		e.Username, e.ToolType, string(e.Data), e.MoodRating, e.Notes,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

func (r *repoPG) Latest(ctx context.Context, username, toolType string) (*Entry, error) {
	var e Entry
	var data []byte
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, username, tool_type, data, mood_rating, notes, created_at, updated_at
		FROM cbt_tool_entries
		WHERE username = $1 AND tool_type = $2
		ORDER BY updated_at DESC, id DESC
		LIMIT 1`, username, toolType,
	).Scan(&e.ID, &e.Username, &e.ToolType, &data, &e.MoodRating, &e.Notes, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoEntry
	}
	if err != nil {
		return nil, err
	}
	e.Data = data
	return &e, nil
}
