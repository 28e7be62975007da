package appointment

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	// LockByID reads the row with FOR UPDATE when ctx carries a transaction.
	LockByID(ctx context.Context, id int64) (*Appointment, error)
	ListByPatient(ctx context.Context, patient string) ([]*Appointment, error)
	ListByClinician(ctx context.Context, clinician string) ([]*Appointment, error)
	// ListUpcoming returns the pair's appointments at or after from, soonest first.
	ListUpcoming(ctx context.Context, clinician, patient string, from time.Time) ([]*Appointment, error)
	// ListPast returns up to limit appointments before before, latest first.
	ListPast(ctx context.Context, clinician, patient string, before time.Time, limit int) ([]*Appointment, error)
	SetResponse(ctx context.Context, id int64, response string) error
	SetAttendance(ctx context.Context, id int64, status, by string, at time.Time) error
	// DueReminders lists appointments in [from, to) whose reminder is unsent.
	DueReminders(ctx context.Context, from, to time.Time) ([]*Appointment, error)
	MarkReminderSent(ctx context.Context, id int64) error
}
