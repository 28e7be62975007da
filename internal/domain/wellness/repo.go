package wellness

import (
	"context"
)

type MoodRepository interface {
	Create(ctx context.Context, m *MoodLog) error
	// ListByUser returns username's logs newest first. A limit of zero or
	// less lists every row.
	ListByUser(ctx context.Context, username string, limit int) ([]*MoodLog, error)
}

type GratitudeRepository interface {
	Create(ctx context.Context, g *GratitudeLog) error
	ListByUser(ctx context.Context, username string, limit int) ([]*GratitudeLog, error)
}
