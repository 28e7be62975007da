package approval

import (
	"context"
	"errors"
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
	ErrNotApproved       = apperr.Forbidden("Patient has not approved access")
	ErrAlreadyRequested  = apperr.New(apperr.ErrConflict, "Approval already requested")
	ErrClinicianNotFound = apperr.NotFound("Clinician not found")
	ErrNoPendingRequest  = apperr.NotFound("No pending approval request")
)

// Directory resolves a username to its role.
type Directory interface {
	Role(ctx context.Context, username string) (string, error)
}

type Notifier interface {
	Notify(ctx context.Context, recipient string, typ notification.Type, data map[string]string) (*inbox.Notification, error)
}

type Service struct {
	repo      Repository
	directory Directory
	notifier  Notifier
	tx        db.TxRunner
	audit     hipaa.Auditor
	now       func() time.Time
}

func NewService(repo Repository, directory Directory, notifier Notifier, tx db.TxRunner) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		notifier:  notifier,
		tx:        tx,
		audit:     hipaa.NopAuditor{},
		now:       time.Now,
	}
}

func (s *Service) WithAuditor(a hipaa.Auditor) *Service {
	s.audit = a
	return s
}

// Request opens a pending approval from patient to clinician and notifies the
// clinician. It returns ErrClinicianNotFound unless clinician is a clinician.
func (s *Service) Request(ctx context.Context, patient, clinician string) error {
	clinician = strings.TrimSpace(clinician)
	if clinician == "" {
		return apperr.Invalid("clinician_username is required")
	}
	role, err := s.directory.Role(ctx, clinician)
	if errors.Is(err, apperr.ErrNotFound) || (err == nil && role != auth.RoleClinician) {
		return ErrClinicianNotFound
	}
	if err != nil {
		return err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		a := &PatientApproval{PatientUsername: patient, ClinicianUsername: clinician, Status: StatusPending}
		if err := s.repo.Create(ctx, a); err != nil {
			return err
		}
		_, err := s.notifier.Notify(ctx, clinician, notification.TypeApprovalRequest, map[string]string{"patient": patient})
		return err
	})
	if err != nil {
		return err
	}
	s.audit.Log(ctx, patient, hipaa.ActorAPI, "approval_requested", "clinician="+clinician)
	return nil
}

func (s *Service) ListPending(ctx context.Context, clinician string) ([]*PatientApproval, error) {
	return s.repo.ListByClinician(ctx, clinician, StatusPending)
}

// Decide approves or rejects the pending request from patient.
func (s *Service) Decide(ctx context.Context, clinician, patient string, approve bool) error {
	status, decision := StatusRejected, "rejected"
	if approve {
		status, decision = StatusApproved, "approved"
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		ok, err := s.repo.Decide(ctx, clinician, patient, status, s.now())
		if err != nil {
			return err
		}
		if !ok {
			return ErrNoPendingRequest
		}
		_, err = s.notifier.Notify(ctx, patient, notification.TypeApprovalDecision, map[string]string{
			"clinician": clinician,
			"decision":  decision,
		})
		return err
	})
	if err != nil {
		return err
	}
	s.audit.Log(ctx, clinician, hipaa.ActorAPI, "approval_"+decision, "patient="+patient)
	return nil
}

// CheckAccess returns ErrNotApproved unless clinician holds an approved link
// to patient.
func (s *Service) CheckAccess(ctx context.Context, clinician, patient string) error {
	ok, err := s.repo.IsApproved(ctx, clinician, patient)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotApproved
	}
	return nil
}

func (s *Service) ApprovedPatients(ctx context.Context, clinician string) ([]string, error) {
	return s.repo.ApprovedPatients(ctx, clinician)
}

func (s *Service) ApprovedClinicians(ctx context.Context, patient string) ([]string, error) {
	return s.repo.ApprovedClinicians(ctx, patient)
}
