package safety

import "context"

type Repository interface {
	Create(ctx context.Context, a *RiskAlert) error
	// GetByID returns ErrAlertNotFound when no row matches.
	GetByID(ctx context.Context, id int64) (*RiskAlert, error)
	// ListForClinician returns alerts of the clinician's approved patients,
	// newest first.
	ListForClinician(ctx context.Context, clinician string) ([]*RiskAlert, error)
	Acknowledge(ctx context.Context, id int64, by string) error
}
