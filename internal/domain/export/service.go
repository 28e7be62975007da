// Package export renders a patient's record as a FHIR collection Bundle.
package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/healingspace/healingspace/internal/domain/identity"
	"github.com/healingspace/healingspace/internal/domain/wellness"
	"github.com/healingspace/healingspace/internal/platform/apperr"
	"github.com/healingspace/healingspace/internal/platform/auth"
	"github.com/healingspace/healingspace/internal/platform/fhir"
	"github.com/healingspace/healingspace/internal/platform/hipaa"
)

var (
	ErrDeveloperExport = apperr.Forbidden("Developers cannot export patient data")
	ErrOtherPatient    = apperr.Forbidden("You may only export your own data")
)

type Directory interface {
	GetUser(ctx context.Context, username string) (*identity.User, error)
}

type Journal interface {
	MoodHistory(ctx context.Context, username string, limit int) ([]*wellness.MoodLog, error)
	GratitudeHistory(ctx context.Context, username string, limit int) ([]*wellness.GratitudeLog, error)
}

type AccessChecker interface {
	CheckAccess(ctx context.Context, clinician, patient string) error
}

type Service struct {
	collector *fhir.Collector
	access    AccessChecker
	audit     hipaa.Auditor
}

func NewService(users Directory, journal Journal, access AccessChecker) *Service {
	c := fhir.NewCollector()
	c.Register("Patient", func(ctx context.Context, username string) ([]fhir.BundleEntry, error) {
		u, err := users.GetUser(ctx, username)
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		e, err := fhir.NewEntry("Patient", u.Username, toFHIRPatient(u))
		if err != nil {
			return nil, err
		}
		return []fhir.BundleEntry{e}, nil
	})
	c.Register("Observation/mood", func(ctx context.Context, username string) ([]fhir.BundleEntry, error) {
		logs, err := journal.MoodHistory(ctx, username, 0)
		if err != nil {
			return nil, err
		}
		out := make([]fhir.BundleEntry, 0, len(logs))
		for _, m := range logs {
			obs := moodObservation(username, m)
			e, err := fhir.NewEntry("Observation", obs.ID, obs)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		return out, nil
	})
	c.Register("Observation/gratitude", func(ctx context.Context, username string) ([]fhir.BundleEntry, error) {
		logs, err := journal.GratitudeHistory(ctx, username, 0)
		if err != nil {
			return nil, err
		}
		out := make([]fhir.BundleEntry, 0, len(logs))
		for _, g := range logs {
			obs := gratitudeObservation(username, g)
			e, err := fhir.NewEntry("Observation", obs.ID, obs)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		return out, nil
	})
	return &Service{collector: c, access: access, audit: hipaa.NopAuditor{}}
}

func (s *Service) WithAuditor(a hipaa.Auditor) *Service {
	s.audit = a
	return s
}

// Export builds the bundle for subject on behalf of the caller in ctx. An
// empty subject means the caller. Patients may export only themselves;
// clinicians need the patient's approval.
func (s *Service) Export(ctx context.Context, subject string) (*fhir.Bundle, error) {
	caller := auth.UserIDFromContext(ctx)
	if subject == "" {
		subject = caller
	}
	if subject == "" {
		return nil, apperr.Invalid("username is required")
	}
	switch {
	case auth.HasRole(ctx, auth.RoleDeveloper):
		return nil, ErrDeveloperExport
	case subject == caller:
	case auth.HasRole(ctx, auth.RoleClinician):
		if err := s.access.CheckAccess(ctx, caller, subject); err != nil {
			return nil, err
		}
	default:
		return nil, ErrOtherPatient
	}

	b, err := s.collector.Collect(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", subject, err)
	}
	s.audit.Log(ctx, subject, caller, "fhir_export", fmt.Sprintf("entries=%d", *b.Total))
	return b, nil
}
