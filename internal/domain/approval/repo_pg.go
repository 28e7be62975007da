package approval

import (
	"context"
	"errors"
	"time"

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

func (r *repoPG) Create(ctx context.Context, a *PatientApproval) error {
	// ON CONFLICT keeps a surrounding transaction usable on duplicates.
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient_approvals (patient_username, clinician_username, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (patient_username, clinician_username) DO NOTHING
		RETURNING id, requested_at`,
		a.PatientUsername, a.ClinicianUsername, a.Status).Scan(&a.ID, &a.RequestedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAlreadyRequested
	}
	return err
}

func (r *repoPG) ListByClinician(ctx context.Context, clinician, status string) ([]*PatientApproval, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_username, clinician_username, status, requested_at, decided_at
		FROM patient_approvals
		WHERE clinician_username = $1 AND status = $2
		ORDER BY requested_at ASC, id ASC`, clinician, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*PatientApproval
	for rows.Next() {
		var a PatientApproval
		if err := rows.Scan(&a.ID, &a.PatientUsername, &a.ClinicianUsername, &a.Status, &a.RequestedAt, &a.DecidedAt); err != nil {
			return nil, err
		}
		items = append(items, &a)
	}
	return items, rows.Err()
}

func (r *repoPG) Decide(ctx context.Context, clinician, patient, status string, at time.Time) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient_approvals SET status = $3, decided_at = $4
		WHERE clinician_username = $1 AND patient_username = $2 AND status = 'pending'`,
		clinician, patient, status, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) IsApproved(ctx context.Context, clinician, patient string) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM patient_approvals
			WHERE clinician_username = $1 AND patient_username = $2 AND status = 'approved'
		)`, clinician, patient).Scan(&ok)
	return ok, err
}

func (r *repoPG) ApprovedPatients(ctx context.Context, clinician string) ([]string, error) {
	return r.usernames(ctx, `
		SELECT patient_username FROM patient_approvals
		WHERE clinician_username = $1 AND status = 'approved'
		ORDER BY patient_username`, clinician)
}

func (r *repoPG) ApprovedClinicians(ctx context.Context, patient string) ([]string, error) {
	return r.usernames(ctx, `
		SELECT clinician_username FROM patient_approvals
		WHERE patient_username = $1 AND status = 'approved'
		ORDER BY clinician_username`, patient)
}

func (r *repoPG) usernames(ctx context.Context, sql string, arg string) ([]string, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
