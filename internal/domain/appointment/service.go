package appointment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/healingspace/healingspace/internal/domain/inbox"
	"github.com/healingspace/healingspace/internal/platform/apperr"
	"github.com/healingspace/healingspace/internal/platform/auth"
	"github.com/healingspace/healingspace/internal/platform/db"
	"github.com/healingspace/healingspace/internal/platform/hipaa"
	"github.com/healingspace/healingspace/internal/platform/notification"
)

var (
	ErrAppointmentNotFound = apperr.NotFound("Appointment not found")
	ErrNotOwner            = apperr.Forbidden("Not your appointment")
)

// AccessChecker reports whether clinician may act for patient.
type AccessChecker interface {
	CheckAccess(ctx context.Context, clinician, patient string) error
}

type Notifier interface {
	Notify(ctx context.Context, recipient string, typ notification.Type, data map[string]string) (*inbox.Notification, error)
}

type Service struct {
	repo     Repository
	access   AccessChecker
	notifier Notifier
	tx       db.TxRunner
	audit    hipaa.Auditor
	now      func() time.Time
}

func NewService(repo Repository, access AccessChecker, notifier Notifier, tx db.TxRunner) *Service {
	return &Service{
		repo:     repo,
		access:   access,
		notifier: notifier,
		tx:       tx,
		audit:    hipaa.NopAuditor{},
		now:      time.Now,
	}
}

func (s *Service) WithAuditor(a hipaa.Auditor) *Service {
	s.audit = a
	return s
}

func parseSchedule(req CreateRequest) (time.Time, int, error) {
	if req.Date == "" || req.Time == "" {
		return time.Time{}, 0, apperr.Invalid("date and time are required")
	}
	when, err := time.ParseInLocation(dateLayout+" "+timeLayout, req.Date+" "+req.Time, time.UTC)
	if err != nil {
		return time.Time{}, 0, apperr.Invalid("date must be YYYY-MM-DD and time HH:MM")
	}
	duration := req.Duration
	if duration == 0 {
		duration = DefaultDuration
	}
	if duration < 0 || duration > maxDuration {
		return time.Time{}, 0, apperr.Invalid("duration must be between 1 and %d minutes", maxDuration)
	}
	return when, duration, nil
}

// Create books an appointment for an approved patient and notifies them.
func (s *Service) Create(ctx context.Context, clinician, patient string, req CreateRequest) (*Appointment, error) {
	when, duration, err := parseSchedule(req)
	if err != nil {
		return nil, err
	}
	if err := s.access.CheckAccess(ctx, clinician, patient); err != nil {
		return nil, err
	}

	a := &Appointment{
		ClinicianUsername: clinician,
		PatientUsername:   patient,
		AppointmentDate:   when,
		DurationMinutes:   duration,
		Notes:             strings.TrimSpace(req.Notes),
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, a); err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		_, err := s.notifier.Notify(ctx, patient, notification.TypeAppointmentCreated, map[string]string{
			"clinician": clinician,
			"date":      a.dateString(),
			"time":      a.timeString(),
			"duration":  strconv.Itoa(duration),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.audit.Log(ctx, patient, clinician, "appointment_created", fmt.Sprintf("appointment_id=%d", a.ID))
	return a, nil
}

// List returns the caller's appointments: those they own as a clinician or
// attend as a patient.
func (s *Service) List(ctx context.Context, username, role string) ([]*Appointment, error) {
	switch role {
	case auth.RoleClinician:
		return s.repo.ListByClinician(ctx, username)
	case auth.RoleUser:
		return s.repo.ListByPatient(ctx, username)
	default:
		return nil, apperr.Forbidden("Appointments are not available for role %s", role)
	}
}

// Upcoming lists the pair's appointments from now on, soonest first.
func (s *Service) Upcoming(ctx context.Context, clinician, patient string) ([]*Appointment, error) {
	return s.repo.ListUpcoming(ctx, clinician, patient, s.now().UTC())
}

// RecentPast lists the pair's latest limit appointments before now.
func (s *Service) RecentPast(ctx context.Context, clinician, patient string, limit int) ([]*Appointment, error) {
	return s.repo.ListPast(ctx, clinician, patient, s.now().UTC(), limit)
}

// Respond records the patient's answer and notifies the clinician.
func (s *Service) Respond(ctx context.Context, patient string, id int64, response string) (*Appointment, error) {
	if response != ResponseAccepted && response != ResponseDeclined {
		return nil, apperr.Invalid("response must be accepted or declined")
	}
	var a *Appointment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if a, err = s.repo.LockByID(ctx, id); err != nil {
			return err
		}
		if a.PatientUsername != patient {
			return ErrNotOwner
		}
		if err := s.repo.SetResponse(ctx, id, response); err != nil {
			return err
		}
		a.PatientResponse = response
		_, err = s.notifier.Notify(ctx, a.ClinicianUsername, notification.TypeAppointmentResponse, map[string]string{
			"patient":  patient,
			"response": response,
			"date":     a.dateString(),
			"time":     a.timeString(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.audit.Log(ctx, patient, hipaa.ActorAPI, "appointment_response", fmt.Sprintf("appointment_id=%d response=%s", id, response))
	return a, nil
}

// ConfirmAttendance stamps the attendance outcome and notifies the patient
// exactly once per change. Repeating the current status changes nothing and
// reports updated=false.
func (s *Service) ConfirmAttendance(ctx context.Context, clinician string, id int64, status string) (a *Appointment, updated bool, err error) {
	if !validAttendance[status] {
		return nil, false, apperr.Invalid("status must be one of attended, missed, cancelled, late")
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if a, err = s.repo.LockByID(ctx, id); err != nil {
			return err
		}
		if a.ClinicianUsername != clinician {
			return ErrNotOwner
		}
		if a.AttendanceStatus != nil && *a.AttendanceStatus == status {
			return nil
		}
		at := s.now().UTC()
		if err := s.repo.SetAttendance(ctx, id, status, clinician, at); err != nil {
			return err
		}
		a.AttendanceStatus, a.AttendanceConfirmedBy, a.AttendanceConfirmedAt = &status, &clinician, &at
		updated = true
		_, err = s.notifier.Notify(ctx, a.PatientUsername, notification.TypeAppointmentAttendance, map[string]string{
			"clinician": clinician,
			"date":      a.dateString(),
			"status":    status,
		})
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if updated {
		s.audit.Log(ctx, a.PatientUsername, clinician, "appointment_attendance", fmt.Sprintf("appointment_id=%d status=%s", id, status))
	}
	return a, updated, nil
}

// SendReminders notifies patients of appointments starting within the next
// 24 hours and marks each reminded appointment. A failure on one appointment
// does not stop the others.
func (s *Service) SendReminders(ctx context.Context) (int, error) {
	now := s.now().UTC()
	due, err := s.repo.DueReminders(ctx, now, now.Add(reminderWindow))
	if err != nil {
		return 0, fmt.Errorf("load due reminders: %w", err)
	}

	sent := 0
	var errs []error
	for _, a := range due {
		err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
			_, err := s.notifier.Notify(ctx, a.PatientUsername, notification.TypeAppointmentReminder, map[string]string{
				"clinician": a.ClinicianUsername,
				"date":      a.dateString(),
				"time":      a.timeString(),
			})
			if err != nil {
				return err
			}
			return s.repo.MarkReminderSent(ctx, a.ID)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("appointment %d: %w", a.ID, err))
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}
