package appointment

import "time"

const (
	ResponsePending  = "pending"
	ResponseAccepted = "accepted"
	ResponseDeclined = "declined"
)

const (
	AttendanceAttended  = "attended"
	AttendanceMissed    = "missed"
	AttendanceCancelled = "cancelled"
	AttendanceLate      = "late"
)

const (
	DefaultDuration = 60
	maxDuration     = 480
	reminderWindow  = 24 * time.Hour

	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var validAttendance = map[string]bool{
	AttendanceAttended: true, AttendanceMissed: true,
	AttendanceCancelled: true, AttendanceLate: true,
}

type Appointment struct {
	ID                    int64      `json:"id"`
	ClinicianUsername     string     `json:"clinician_username"`
	PatientUsername       string     `json:"patient_username"`
	AppointmentDate       time.Time  `json:"appointment_date"`
	DurationMinutes       int        `json:"duration_minutes"`
	Notes                 string     `json:"notes"`
	PatientResponse       string     `json:"patient_response"`
	AttendanceStatus      *string    `json:"attendance_status"`
	AttendanceConfirmedBy *string    `json:"attendance_confirmed_by"`
	AttendanceConfirmedAt *time.Time `json:"attendance_confirmed_at"`
	ReminderSent          bool       `json:"reminder_sent"`
	CreatedAt             time.Time  `json:"created_at"`
}

// CreateRequest is a clinician's booking as submitted: a calendar date and a
// wall-clock time, both in UTC.
type CreateRequest struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Duration int    `json:"duration"`
	Notes    string `json:"notes"`
}

func (a *Appointment) dateString() string { return a.AppointmentDate.UTC().Format(dateLayout) }
func (a *Appointment) timeString() string { return a.AppointmentDate.UTC().Format(timeLayout) }
