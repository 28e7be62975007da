package approval

import (
	"context"
	"time"
)

type Repository interface {
	// Create returns ErrAlreadyRequested when the pair already has a row.
	Create(ctx context.Context, a *PatientApproval) error
	ListByClinician(ctx context.Context, clinician, status string) ([]*PatientApproval, error)
	// Decide moves a pending row to status and reports whether one existed.
	Decide(ctx context.Context, clinician, patient, status string, at time.Time) (bool, error)
	IsApproved(ctx context.Context, clinician, patient string) (bool, error)
	ApprovedPatients(ctx context.Context, clinician string) ([]string, error)
	ApprovedClinicians(ctx context.Context, patient string) ([]string, error)
}
