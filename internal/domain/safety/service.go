package safety

import (
	"context"
	"fmt"
	"strings"

	"github.com/healingspace/healingspace/internal/domain/inbox"
	"github.com/healingspace/healingspace/internal/platform/apperr"
	"github.com/healingspace/healingspace/internal/platform/db"
	"github.com/healingspace/healingspace/internal/platform/hipaa"
	"github.com/healingspace/healingspace/internal/platform/metrics"
	"github.com/healingspace/healingspace/internal/platform/notification"
)

var ErrAlertNotFound = apperr.NotFound("Risk alert not found")

// CareTeam answers who looks after a patient and whether a clinician may.
type CareTeam interface {
	ApprovedClinicians(ctx context.Context, patient string) ([]string, error)
	CheckAccess(ctx context.Context, clinician, patient string) error
}

type Notifier interface {
	Notify(ctx context.Context, recipient string, typ notification.Type, data map[string]string) (*inbox.Notification, error)
}

type Service struct {
	repo     Repository
	monitor  *Monitor
	team     CareTeam
	notifier Notifier
	tx       db.TxRunner
	metrics  *metrics.Metrics
	audit    hipaa.Auditor
}

func NewService(repo Repository, monitor *Monitor, team CareTeam, notifier Notifier, tx db.TxRunner) *Service {
	return &Service{
		repo:     repo,
		monitor:  monitor,
		team:     team,
		notifier: notifier,
		tx:       tx,
		audit:    hipaa.NopAuditor{},
	}
}

func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

func (s *Service) WithAuditor(a hipaa.Auditor) *Service {
	s.audit = a
	return s
}

// IsHighRisk reports whether text contains crisis language.
func (s *Service) IsHighRisk(text string) bool {
	return s.monitor.IsHighRisk(text)
}

// Check screens text written by username and raises an alert when it is
// high risk.
func (s *Service) Check(ctx context.Context, username, text string) (bool, error) {
	if strings.TrimSpace(text) == "" {
		return false, apperr.Invalid("Text required")
	}
	if !s.monitor.IsHighRisk(text) {
		return false, nil
	}
	if err := s.RaiseAlert(ctx, username, text); err != nil {
		return true, err
	}
	return true, nil
}

// RaiseAlert records a critical alert for patient and notifies every
// approved clinician. When ctx carries a transaction the writes join it.
func (s *Service) RaiseAlert(ctx context.Context, patient, trigger string) error {
	clinicians, err := s.team.ApprovedClinicians(ctx, patient)
	if err != nil {
		return fmt.Errorf("load care team: %w", err)
	}

	a := &RiskAlert{PatientUsername: patient, RiskLevel: RiskCritical, Trigger: truncateTrigger(strings.TrimSpace(trigger))}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, a); err != nil {
			return fmt.Errorf("create risk alert: %w", err)
		}
		for _, c := range clinicians {
			if _, err := s.notifier.Notify(ctx, c, notification.TypeCrisisAlert, map[string]string{"patient": patient}); err != nil {
				return err
			}
		}
		db.AfterCommit(ctx, s.metrics.CrisisAlertRaised)
		return nil
	})
	if err != nil {
		return err
	}
	s.audit.Log(ctx, patient, hipaa.ActorAPI, "crisis_alert", fmt.Sprintf("alert_id=%d clinicians=%d", a.ID, len(clinicians)))
	return nil
}

func (s *Service) ListAlerts(ctx context.Context, clinician string) ([]*RiskAlert, error) {
	return s.repo.ListForClinician(ctx, clinician)
}

// Acknowledge marks an alert handled. The clinician must be approved for the
// alert's patient.
func (s *Service) Acknowledge(ctx context.Context, clinician string, id int64) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.team.CheckAccess(ctx, clinician, a.PatientUsername); err != nil {
		return err
	}
	if err := s.repo.Acknowledge(ctx, id, clinician); err != nil {
		return err
	}
	s.audit.Log(ctx, clinician, hipaa.ActorAPI, "risk_alert_acknowledged", fmt.Sprintf("alert_id=%d patient=%s", id, a.PatientUsername))
	return nil
}
