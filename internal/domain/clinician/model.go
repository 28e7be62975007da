package clinician

import (
	"strings"
	"time"

	"github.com/healingspace/healingspace/internal/domain/appointment"
)

const (
	activityWindow  = 7 * 24 * time.Hour
	recentPastLimit = 10
	moodLogLimit    = 30
)

// Summary is the clinician dashboard header.
type Summary struct {
	TotalPatients    int `json:"total_patients"`
	SessionsThisWeek int `json:"sessions_this_week"`
	CriticalPatients int `json:"critical_patients"`
}

// PatientRow is one line of the clinician's patient list.
type PatientRow struct {
	Username    string     `json:"username"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	LastSession *time.Time `json:"last_session"`
	RiskLevel   string     `json:"risk_level"`
}

// Activity is what the read model knows about one patient.
type Activity struct {
	LastSession *time.Time
	// RiskLevel is the highest unacknowledged alert level, empty when none.
	RiskLevel string
}

type PatientAnalytics struct {
	PatientUsername        string                     `json:"patient_username"`
	UpcomingAppointments   []*appointment.Appointment `json:"upcoming_appointments"`
	RecentPastAppointments []*appointment.Appointment `json:"recent_past_appointments"`
	MoodAverage7d          *float64                   `json:"mood_average_7d"`
	MoodLogs7d             int                        `json:"mood_logs_7d"`
}

// splitName splits a full name at its first space.
func splitName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	if i := strings.IndexByte(full, ' '); i >= 0 {
		return full[:i], strings.TrimSpace(full[i+1:])
	}
	return full, ""
}
