package wellness

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

// limitArg renders LIMIT as a nullable parameter; LIMIT NULL means no
// limit in Postgres.
func limitArg(limit int) interface{} {
	if limit <= 0 {
		return nil
	}
	return limit
}

// =========== Mood Repository ===========

type moodRepoPG struct{ pool *pgxpool.Pool }

func NewMoodRepoPG(pool *pgxpool.Pool) MoodRepository {
	return &moodRepoPG{pool: pool}
}

func (r *moodRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *moodRepoPG) Create(ctx context.Context, m *MoodLog) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO mood_logs (username, mood_val, sleep_val, meds, notes, sentiment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, entry_timestamp`,
		m.Username, m.MoodVal, m.SleepVal, m.Meds, m.Notes, m.Sentiment,
	).Scan(&m.ID, &m.Timestamp)
}

func (r *moodRepoPG) ListByUser(ctx context.Context, username string, limit int) ([]*MoodLog, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, username, mood_val, sleep_val, meds, notes, sentiment, entry_timestamp
		FROM mood_logs WHERE username = $1
		ORDER BY entry_timestamp DESC, id DESC
		LIMIT $2`, username, limitArg(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*MoodLog
	for rows.Next() {
		var m MoodLog
		if err := rows.Scan(&m.ID, &m.Username, &m.MoodVal, &m.SleepVal, &m.Meds, &m.Notes, &m.Sentiment, &m.Timestamp); err != nil {
			return nil, err
		}
		items = append(items, &m)
	}
	return items, rows.Err()
}

// =========== Gratitude Repository ===========

type gratitudeRepoPG struct{ pool *pgxpool.Pool }

func NewGratitudeRepoPG(pool *pgxpool.Pool) GratitudeRepository {
	return &gratitudeRepoPG{pool: pool}
}

func (r *gratitudeRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *gratitudeRepoPG) Create(ctx context.Context, g *GratitudeLog) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO gratitude_logs (username, entry)
		VALUES ($1, $2)
		RETURNING id, entry_timestamp`,
		g.Username, g.Entry,
	).Scan(&g.ID, &g.Timestamp)
}

func (r *gratitudeRepoPG) ListByUser(ctx context.Context, username string, limit int) ([]*GratitudeLog, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, username, entry, entry_timestamp
		FROM gratitude_logs WHERE username = $1
		ORDER BY entry_timestamp DESC, id DESC
		LIMIT $2`, username, limitArg(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*GratitudeLog
	for rows.Next() {
		var g GratitudeLog
		if err := rows.Scan(&g.ID, &g.Username, &g.Entry, &g.Timestamp); err != nil {
			return nil, err
		}
		items = append(items, &g)
	}
	return items, rows.Err()
}
