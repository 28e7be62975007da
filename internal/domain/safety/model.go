package safety

import "time"

// Risk levels, lowest first.
const (
	RiskLow      = "low"
	RiskModerate = "moderate"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

const maxTriggerLength = 200

// RiskAlert is raised when a patient's text matches crisis language.
type RiskAlert struct {
	ID              int64     `db:"id" json:"alert_id"`
	PatientUsername string    `db:"patient_username" json:"patient_username"`
	RiskLevel       string    `db:"risk_level" json:"risk_level"`
	Trigger         string    `db:"trigger" json:"trigger"`
	Acknowledged    bool      `db:"acknowledged" json:"acknowledged"`
	AcknowledgedBy  string    `db:"acknowledged_by" json:"acknowledged_by,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"date"`
}

// RiskRank orders levels so the highest can be picked; unknown levels rank 0.
func RiskRank(level string) int {
	switch level {
	case RiskLow:
		return 1
	case RiskModerate:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	}
	return 0
}

// truncateTrigger cuts s to maxTriggerLength runes.
func truncateTrigger(s string) string {
	r := []rune(s)
	if len(r) <= maxTriggerLength {
		return s
	}
	return string(r[:maxTriggerLength])
}
