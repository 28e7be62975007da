package appointment

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

const apptCols = `id, clinician_username, patient_username, appointment_date, duration_minutes, notes,
	patient_response, attendance_status, attendance_confirmed_by, attendance_confirmed_at,
	reminder_sent, created_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.ClinicianUsername, &a.PatientUsername, &a.AppointmentDate, &a.DurationMinutes, &a.Notes,
		&a.PatientResponse, &a.AttendanceStatus, &a.AttendanceConfirmedBy, &a.AttendanceConfirmedAt,
		&a.ReminderSent, &a.CreatedAt)
	return &a, err
}

func (r *repoPG) list(ctx context.Context, sql string, args ...interface{}) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (clinician_username, patient_username, appointment_date, duration_minutes, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, patient_response, reminder_sent, created_at`,
		a.ClinicianUsername, a.PatientUsername, a.AppointmentDate, a.DurationMinutes, a.Notes,
	).Scan(&a.ID, &a.PatientResponse, &a.ReminderSent, &a.CreatedAt)
}

func (r *repoPG) get(ctx context.Context, sql string, id int64) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx, sql, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	return a, err
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	return r.get(ctx, `SELECT `+apptCols+` FROM appointments WHERE id = $1`, id)
}

func (r *repoPG) LockByID(ctx context.Context, id int64) (*Appointment, error) {
	if db.TxFromContext(ctx) == nil {
		return r.GetByID(ctx, id)
	}
	return r.get(ctx, `SELECT `+apptCols+` FROM appointments WHERE id = $1 FOR UPDATE`, id)
}

func (r *repoPG) ListByPatient(ctx context.Context, patient string) ([]*Appointment, error) {
	return r.list(ctx, `SELECT `+apptCols+` FROM appointments
		WHERE patient_username = $1 ORDER BY appointment_date, id`, patient)
}

func (r *repoPG) ListByClinician(ctx context.Context, clinician string) ([]*Appointment, error) {
	return r.list(ctx, `SELECT `+apptCols+` FROM appointments
		WHERE clinician_username = $1 ORDER BY appointment_date, id`, clinician)
}

func (r *repoPG) ListUpcoming(ctx context.Context, clinician, patient string, from time.Time) ([]*Appointment, error) {
	return r.list(ctx, `SELECT `+apptCols+` FROM appointments
		WHERE clinician_username = $1 AND patient_username = $2 AND appointment_date >= $3
		ORDER BY appointment_date, id`, clinician, patient, from)
}

func (r *repoPG) ListPast(ctx context.Context, clinician, patient string, before time.Time, limit int) ([]*Appointment, error) {
	return r.list(ctx, `SELECT `+apptCols+` FROM appointments
		WHERE clinician_username = $1 AND patient_username = $2 AND appointment_date < $3
		ORDER BY appointment_date DESC, id DESC
		LIMIT $4`, clinician, patient, before, limit)
}

func (r *repoPG) exec(ctx context.Context, sql string, args ...interface{}) error {
	tag, err := r.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *repoPG) SetResponse(ctx context.Context, id int64, response string) error {
	return r.exec(ctx, `UPDATE appointments SET patient_response = $2 WHERE id = $1`, id, response)
}

func (r *repoPG) SetAttendance(ctx context.Context, id int64, status, by string, at time.Time) error {
	return r.exec(ctx, `
		UPDATE appointments
		SET attendance_status = $2, attendance_confirmed_by = $3, attendance_confirmed_at = $4
		WHERE id = $1`, id, status, by, at)
}

func (r *repoPG) DueReminders(ctx context.Context, from, to time.Time) ([]*Appointment, error) {
	return r.list(ctx, `SELECT `+apptCols+` FROM appointments
		WHERE reminder_sent = FALSE AND appointment_date >= $1 AND appointment_date < $2
		ORDER BY appointment_date, id`, from, to)
}

func (r *repoPG) MarkReminderSent(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE appointments SET reminder_sent = TRUE WHERE id = $1`, id)
}
