package clinician

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healingspace/healingspace/internal/domain/safety"
	"github.com/healingspace/healingspace/internal/domain/therapy"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

// sessionIndex maps chat session ids back to their patients.
func sessionIndex(patients []string) ([]string, map[string]string) {
	ids := make([]string, len(patients))
	index := make(map[string]string, len(patients))
	for i, p := range patients {
		ids[i] = therapy.SessionID(p)
		index[ids[i]] = p
	}
	return ids, index
}

func (r *repoPG) ChattedSince(ctx context.Context, patients []string, since time.Time) (int, error) {
	ids, _ := sessionIndex(patients)
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT session_id) FROM chat_history
		WHERE session_id = ANY($1) AND sender = $2 AND timestamp >= $3`,
		ids, therapy.SenderUser, since).Scan(&n)
	return n, err
}

func (r *repoPG) CountAtRisk(ctx context.Context, patients []string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT patient_username) FROM risk_alerts
		WHERE patient_username = ANY($1) AND acknowledged = FALSE AND risk_level = ANY($2)`,
		patients, []string{safety.RiskHigh, safety.RiskCritical}).Scan(&n)
	return n, err
}

func (r *repoPG) Activity(ctx context.Context, patients []string) (map[string]Activity, error) {
	out := make(map[string]Activity, len(patients))

	ids, index := sessionIndex(patients)
	rows, err := r.pool.Query(ctx, `
		SELECT session_id, MAX(timestamp) FROM chat_history
		WHERE session_id = ANY($1) AND sender = $2
		GROUP BY session_id`, ids, therapy.SenderUser)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var sid string
		var last time.Time
		if err := rows.Scan(&sid, &last); err != nil {
			rows.Close()
			return nil, err
		}
		a := out[index[sid]]
		a.LastSession = &last
		out[index[sid]] = a
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT DISTINCT patient_username, risk_level FROM risk_alerts
		WHERE patient_username = ANY($1) AND acknowledged = FALSE`, patients)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var patient, level string
		if err := rows.Scan(&patient, &level); err != nil {
			return nil, err
		}
		a := out[patient]
		if safety.RiskRank(level) > safety.RiskRank(a.RiskLevel) {
			a.RiskLevel = level
		}
		out[patient] = a
	}
	return out, rows.Err()
}

func (r *repoPG) MoodAverage(ctx context.Context, patient string, since time.Time) (*float64, int, error) {
	var avg *float64
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT AVG(mood_val)::float8, COUNT(*) FROM mood_logs
		WHERE username = $1 AND entry_timestamp >= $2`, patient, since).Scan(&avg, &n)
	return avg, n, err
}

func (r *repoPG) ActiveSince(ctx context.Context, patients []string, since time.Time) ([]string, error) {
	ids, index := sessionIndex(patients)
	rows, err := r.pool.Query(ctx, `
		SELECT FALSE, username FROM mood_logs WHERE username = ANY($1) AND entry_timestamp >= $3
		UNION
		SELECT FALSE, username FROM gratitude_logs WHERE username = ANY($1) AND entry_timestamp >= $3
		UNION
		SELECT TRUE, session_id FROM chat_history WHERE session_id = ANY($2) AND timestamp >= $3`,
		patients, ids, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var isSession bool
		var v string
		if err := rows.Scan(&isSession, &v); err != nil {
			return nil, err
		}
		if isSession {
			v = index[v]
		}
		seen[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(seen))
	for u := range seen {
		out = append(out, u)
	}
	sort.Strings(out)
	return out, nil
}
