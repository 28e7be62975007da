package developer

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) UsersByRole(ctx context.Context) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int64)
	for rows.Next() {
		var role string
		var n int64
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		out[role] = n
	}
	return out, rows.Err()
}

func (r *repoPG) Totals(ctx context.Context) (*Totals, error) {
	var t Totals
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM mood_logs),
			(SELECT COUNT(*) FROM gratitude_logs),
			(SELECT COUNT(*) FROM chat_history),
			(SELECT COUNT(*) FROM appointments),
			(SELECT COUNT(*) FROM notifications),
			(SELECT COUNT(*) FROM audit_logs),
			(SELECT COUNT(*) FROM risk_alerts)`,
	).Scan(&t.MoodLogs, &t.GratitudeLogs, &t.ChatMessages, &t.Appointments, &t.Notifications, &t.AuditEvents, &t.RiskAlerts)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
