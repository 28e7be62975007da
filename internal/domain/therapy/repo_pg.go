package therapy

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healingspace/healingspace/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
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

func (r *repoPG) Create(ctx context.Context, m *ChatMessage) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO chat_history (session_id, sender, message)
		VALUES ($1, $2, $3)
		RETURNING id, timestamp`,
		m.SessionID, m.Sender, m.Message).Scan(&m.ID, &m.Timestamp)
}

func (r *repoPG) Recent(ctx context.Context, sessionID string, limit int) ([]*ChatMessage, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, session_id, sender, message, timestamp
		FROM chat_history WHERE session_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Sender, &m.Message, &m.Timestamp); err != nil {
			return nil, err
		}
		items = append(items, &m)
	}
	return items, rows.Err()
}
