// Package seed loads the fixed development accounts and their care-team
// approvals.
package seed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/healingspace/healingspace/internal/platform/auth"
	"github.com/healingspace/healingspace/internal/platform/hipaa"
)

type Account struct {
	Username       string
	Role           string
	FullName       string
	Email          string
	ProfessionalID string
}

type Approval struct {
	Patient   string
	Clinician string
}

var Accounts = []Account{
	{Username: "test_clinician", Role: auth.RoleClinician, FullName: "Test Clinician", Email: "test_clinician@example.com", ProfessionalID: "HCPC-000001"},
	{Username: "dr_smith", Role: auth.RoleClinician, FullName: "Sarah Smith", Email: "dr_smith@example.com", ProfessionalID: "HCPC-000002"},
	{Username: "dr_jones", Role: auth.RoleClinician, FullName: "David Jones", Email: "dr_jones@example.com", ProfessionalID: "HCPC-000003"},
	{Username: "test_patient", Role: auth.RoleUser, FullName: "Test Patient", Email: "test_patient@example.com"},
	{Username: "patient1", Role: auth.RoleUser, FullName: "Alex Taylor", Email: "patient1@example.com"},
	{Username: "patient2", Role: auth.RoleUser, FullName: "Sam Morgan", Email: "patient2@example.com"},
	{Username: "test_dev", Role: auth.RoleDeveloper, FullName: "Test Developer", Email: "test_dev@example.com"},
}

var Approvals = []Approval{
	{Patient: "test_patient", Clinician: "test_clinician"},
	{Patient: "patient1", Clinician: "dr_smith"},
	{Patient: "patient2", Clinician: "dr_jones"},
}

// Result counts the rows actually inserted; existing rows are left alone.
type Result struct {
	Users     int64
	Approvals int64
}

type Seeder struct {
	db     *sql.DB
	phi    *hipaa.PHIEncryptor
	logger zerolog.Logger
}

// New builds a seeder. phi may be nil, in which case names are stored in
// plain text.
func New(db *sql.DB, phi *hipaa.PHIEncryptor, logger zerolog.Logger) *Seeder {
	return &Seeder{db: db, phi: phi, logger: logger.With().Str("component", "seed").Logger()}
}

// Run inserts every account and approval in one transaction. It is safe to
// run repeatedly.
func (s *Seeder) Run(ctx context.Context, password, pin string) (*Result, error) {
	pwHash, err := auth.HashSecret(password)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	pinHash, err := auth.HashSecret(pin)
	if err != nil {
		return nil, fmt.Errorf("hash seed pin: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res := &Result{}
	for _, a := range Accounts {
		name, err := s.phi.EncryptField(a.FullName)
		if err != nil {
			return nil, fmt.Errorf("encrypt name for %s: %w", a.Username, err)
		}
		r, err := tx.ExecContext(ctx, `
			INSERT INTO users (username, password, pin, role, full_name, email, professional_id, disclaimer_accepted)
			VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
			ON CONFLICT (username) DO NOTHING`,
			a.Username, pwHash, pinHash, a.Role, name, a.Email, a.ProfessionalID)
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", a.Username, err)
		}
		n, _ := r.RowsAffected()
		res.Users += n
	}

	for _, ap := range Approvals {
		r, err := tx.ExecContext(ctx, `
			INSERT INTO patient_approvals (patient_username, clinician_username, status, decided_at)
			VALUES ($1, $2, 'approved', NOW())
			ON CONFLICT (patient_username, clinician_username) DO NOTHING`,
			ap.Patient, ap.Clinician)
		if err != nil {
			return nil, fmt.Errorf("seed approval %s->%s: %w", ap.Patient, ap.Clinician, err)
		}
		n, _ := r.RowsAffected()
		res.Approvals += n
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit seed: %w", err)
	}
	s.logger.Info().Int64("users", res.Users).Int64("approvals", res.Approvals).Msg("seed complete")
	return res, nil
}
