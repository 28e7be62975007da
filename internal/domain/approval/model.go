package approval

import "time"

// Approval statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// PatientApproval links a patient to a clinician. Clinicians may only read
// patient data through an approved link.
type PatientApproval struct {
	ID                int64      `db:"id" json:"id"`
	PatientUsername   string     `db:"patient_username" json:"patient_username"`
	ClinicianUsername string     `db:"clinician_username" json:"clinician_username"`
	Status            string     `db:"status" json:"status"`
	RequestedAt       time.Time  `db:"requested_at" json:"requested_at"`
	DecidedAt         *time.Time `db:"decided_at" json:"decided_at,omitempty"`
}
