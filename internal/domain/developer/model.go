package developer

import "github.com/healingspace/healingspace/internal/platform/db"

// Totals counts rows in the journal and messaging tables.
type Totals struct {
	MoodLogs      int64 `json:"mood_logs"`
	GratitudeLogs int64 `json:"gratitude_logs"`
	ChatMessages  int64 `json:"chat_messages"`
	Appointments  int64 `json:"appointments"`
	Notifications int64 `json:"notifications"`
	AuditEvents   int64 `json:"audit_events"`
	RiskAlerts    int64 `json:"risk_alerts"`
}

type Stats struct {
	UsersByRole map[string]int64 `json:"users_by_role"`
	TotalUsers  int64            `json:"total_users"`
	Totals      Totals           `json:"totals"`
	Pool        *db.PoolStats    `json:"pool,omitempty"`
}
