package wellness

import "time"

const (
	MinMood = 1
	MaxMood = 10
	// MaxSleepHours bounds sleep_val.
	MaxSleepHours = 24

	defaultSentiment = "Neutral"
)

// MoodLog is one append-only mood journal entry.
type MoodLog struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"-"`
	MoodVal   int       `db:"mood_val" json:"mood_val"`
	SleepVal  float64   `db:"sleep_val" json:"sleep_val"`
	Meds      string    `db:"meds" json:"meds"`
	Notes     string    `db:"notes" json:"notes"`
	Sentiment string    `db:"sentiment" json:"-"`
	Timestamp time.Time `db:"entry_timestamp" json:"timestamp"`
}

// GratitudeLog is one append-only gratitude journal entry.
type GratitudeLog struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"-"`
	Entry     string    `db:"entry" json:"entry"`
	Timestamp time.Time `db:"entry_timestamp" json:"timestamp"`
}
