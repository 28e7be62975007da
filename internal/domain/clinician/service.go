package clinician

import (
	"context"
	"fmt"
	"time"

	"github.com/healingspace/healingspace/internal/domain/appointment"
	"github.com/healingspace/healingspace/internal/domain/identity"
	"github.com/healingspace/healingspace/internal/domain/safety"
	"github.com/healingspace/healingspace/internal/domain/wellness"
	"github.com/healingspace/healingspace/internal/platform/apperr"
)

// CareTeam resolves which patients a clinician may see.
type CareTeam interface {
	CheckAccess(ctx context.Context, clinician, patient string) error
	ApprovedPatients(ctx context.Context, clinician string) ([]string, error)
}

// Directory loads user profiles with PHI decrypted.
type Directory interface {
	GetUser(ctx context.Context, username string) (*identity.User, error)
}

type MoodJournal interface {
	MoodHistory(ctx context.Context, username string, limit int) ([]*wellness.MoodLog, error)
}

type Schedule interface {
	Upcoming(ctx context.Context, clinician, patient string) ([]*appointment.Appointment, error)
	RecentPast(ctx context.Context, clinician, patient string, limit int) ([]*appointment.Appointment, error)
}

type Service struct {
	repo     Repository
	team     CareTeam
	users    Directory
	moods    MoodJournal
	schedule Schedule
	now      func() time.Time
}

func NewService(repo Repository, team CareTeam, users Directory, moods MoodJournal, schedule Schedule) *Service {
	return &Service{
		repo:     repo,
		team:     team,
		users:    users,
		moods:    moods,
		schedule: schedule,
		now:      time.Now,
	}
}

func (s *Service) Summary(ctx context.Context, clinician string) (*Summary, error) {
	patients, err := s.team.ApprovedPatients(ctx, clinician)
	if err != nil {
		return nil, err
	}
	sum := &Summary{TotalPatients: len(patients)}
	if len(patients) == 0 {
		return sum, nil
	}
	if sum.SessionsThisWeek, err = s.repo.ChattedSince(ctx, patients, s.now().Add(-activityWindow)); err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	if sum.CriticalPatients, err = s.repo.CountAtRisk(ctx, patients); err != nil {
		return nil, fmt.Errorf("count at-risk patients: %w", err)
	}
	return sum, nil
}

// Patients lists the clinician's approved patients with their latest chat
// activity and open risk level.
func (s *Service) Patients(ctx context.Context, clinician string) ([]*PatientRow, error) {
	patients, err := s.team.ApprovedPatients(ctx, clinician)
	if err != nil || len(patients) == 0 {
		return nil, err
	}
	activity, err := s.repo.Activity(ctx, patients)
	if err != nil {
		return nil, fmt.Errorf("load activity: %w", err)
	}

	rows := make([]*PatientRow, 0, len(patients))
	for _, p := range patients {
		u, err := s.users.GetUser(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("load patient %s: %w", p, err)
		}
		first, last := splitName(u.FullName)
		row := &PatientRow{
			Username:    p,
			FirstName:   first,
			LastName:    last,
			Email:       u.Email,
			LastSession: activity[p].LastSession,
			RiskLevel:   activity[p].RiskLevel,
		}
		if row.RiskLevel == "" {
			row.RiskLevel = safety.RiskLow
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Service) PatientDetail(ctx context.Context, clinician, patient string) (*identity.User, error) {
	if err := s.team.CheckAccess(ctx, clinician, patient); err != nil {
		return nil, err
	}
	return s.users.GetUser(ctx, patient)
}

func (s *Service) PatientMoodLogs(ctx context.Context, clinician, patient string) ([]*wellness.MoodLog, error) {
	if err := s.team.CheckAccess(ctx, clinician, patient); err != nil {
		return nil, err
	}
	return s.moods.MoodHistory(ctx, patient, moodLogLimit)
}

func (s *Service) PatientAnalytics(ctx context.Context, clinician, patient string) (*PatientAnalytics, error) {
	if patient == "" {
		return nil, apperr.Invalid("patient username is required")
	}
	if err := s.team.CheckAccess(ctx, clinician, patient); err != nil {
		return nil, err
	}
	out := &PatientAnalytics{PatientUsername: patient}
	var err error
	if out.UpcomingAppointments, err = s.schedule.Upcoming(ctx, clinician, patient); err != nil {
		return nil, err
	}
	if out.RecentPastAppointments, err = s.schedule.RecentPast(ctx, clinician, patient, recentPastLimit); err != nil {
		return nil, err
	}
	if out.MoodAverage7d, out.MoodLogs7d, err = s.repo.MoodAverage(ctx, patient, s.now().Add(-activityWindow)); err != nil {
		return nil, err
	}
	if out.UpcomingAppointments == nil {
		out.UpcomingAppointments = []*appointment.Appointment{}
	}
	if out.RecentPastAppointments == nil {
		out.RecentPastAppointments = []*appointment.Appointment{}
	}
	return out, nil
}

// ActivePatients returns approved patients with any journal or chat entry in
// the last seven days.
func (s *Service) ActivePatients(ctx context.Context, clinician string) ([]string, error) {
	patients, err := s.team.ApprovedPatients(ctx, clinician)
	if err != nil || len(patients) == 0 {
		return nil, err
	}
	return s.repo.ActiveSince(ctx, patients, s.now().Add(-activityWindow))
}
