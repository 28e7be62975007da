package cbt

import (
	"encoding/json"
	"time"
)

const (
	MinMoodRating = 0
	MaxMoodRating = 10

	maxToolTypeLength = 64
	maxDataBytes      = 64 << 10
)

// Entry is one saved state of a CBT worksheet such as a thought record or
// a behavioural activation plan. Data is the tool's own JSON object.
type Entry struct {
	ID         int64           `db:"id" json:"id"`
	Username   string          `db:"username" json:"-"`
	ToolType   string          `db:"tool_type" json:"tool_type"`
	Data       json.RawMessage `db:"data" json:"data"`
	MoodRating *int            `db:"mood_rating" json:"mood_rating"`
	Notes      string          `db:"notes" json:"notes"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}
