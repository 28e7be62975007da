package clinician

import (
	"context"
	"time"
)

// Repository answers aggregate questions across the patient tables. Every
// method is scoped to the given patients, which callers restrict to a
// clinician's approved list.
type Repository interface {
	// ChattedSince counts patients who sent a chat message at or after since.
	ChattedSince(ctx context.Context, patients []string, since time.Time) (int, error)
	// CountAtRisk counts patients with an unacknowledged high or critical alert.
	CountAtRisk(ctx context.Context, patients []string) (int, error)
	Activity(ctx context.Context, patients []string) (map[string]Activity, error)
	MoodAverage(ctx context.Context, patient string, since time.Time) (*float64, int, error)
	// ActiveSince returns the patients with any mood, gratitude or chat entry at
	// or after since, sorted by username.
	ActiveSince(ctx context.Context, patients []string, since time.Time) ([]string, error)
}
