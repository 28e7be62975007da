package safety

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healingspace/healingspace/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
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

const alertCols = `id, patient_username, risk_level, trigger, acknowledged, COALESCE(acknowledged_by, ''), created_at`

func scanAlert(row pgx.Row) (*RiskAlert, error) {
	var a RiskAlert
	err := row.Scan(&a.ID, &a.PatientUsername, &a.RiskLevel, &a.Trigger, &a.Acknowledged, &a.AcknowledgedBy, &a.CreatedAt)
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *RiskAlert) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO risk_alerts (patient_username, risk_level, trigger)
		VALUES ($1, $2, $3)
		RETURNING id, acknowledged, created_at`,
		a.PatientUsername, a.RiskLevel, a.Trigger).Scan(&a.ID, &a.Acknowledged, &a.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*RiskAlert, error) {
	a, err := scanAlert(r.conn(ctx).QueryRow(ctx, `SELECT `+alertCols+` FROM risk_alerts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAlertNotFound
	}
	return a, err
}

func (r *repoPG) ListForClinician(ctx context.Context, clinician string) ([]*RiskAlert, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+alertCols+` FROM risk_alerts
		WHERE patient_username IN (
			SELECT patient_username FROM patient_approvals
			WHERE clinician_username = $1 AND status = 'approved'
		)
		ORDER BY created_at DESC, id DESC`, clinician)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*RiskAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *repoPG) Acknowledge(ctx context.Context, id int64, by string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE risk_alerts SET acknowledged = TRUE, acknowledged_by = $2
		WHERE id = $1`, id, by)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlertNotFound
	}
	return nil
}
