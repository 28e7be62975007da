package wellness

import (
	"context"
	"fmt"
	"strings"

	"github.com/healingspace/healingspace/internal/platform/apperr"
	"github.com/healingspace/healingspace/internal/platform/hipaa"
	"github.com/healingspace/healingspace/internal/platform/metrics"
)

const maxEntryLength = 5000

type Service struct {
	moods     MoodRepository
	gratitude GratitudeRepository
	metrics   *metrics.Metrics
	audit     hipaa.Auditor
}

func NewService(moods MoodRepository, gratitude GratitudeRepository) *Service {
	return &Service{moods: moods, gratitude: gratitude, audit: hipaa.NopAuditor{}}
}

func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

func (s *Service) WithAuditor(a hipaa.Auditor) *Service {
	s.audit = a
	return s
}

// -- Mood --

func (s *Service) LogMood(ctx context.Context, m *MoodLog) error {
	if m.MoodVal < MinMood || m.MoodVal > MaxMood {
		return apperr.Invalid("mood_val must be between %d and %d", MinMood, MaxMood)
	}
	if m.SleepVal < 0 || m.SleepVal > MaxSleepHours {
		return apperr.Invalid("sleep_val must be between 0 and %d", MaxSleepHours)
	}
	if len(m.Notes) > maxEntryLength {
		return apperr.Invalid("notes must be at most %d characters", maxEntryLength)
	}
	m.Meds = strings.TrimSpace(m.Meds)
	m.Notes = strings.TrimSpace(m.Notes)
	m.Sentiment = defaultSentiment

	if err := s.moods.Create(ctx, m); err != nil {
		return fmt.Errorf("create mood log: %w", err)
	}
	s.metrics.MoodLogged()
	s.audit.Log(ctx, m.Username, hipaa.ActorAPI, "mood_logged", fmt.Sprintf("log_id=%d", m.ID))
	return nil
}

func (s *Service) MoodHistory(ctx context.Context, username string, limit int) ([]*MoodLog, error) {
	return s.moods.ListByUser(ctx, username, limit)
}

// -- Gratitude --

func (s *Service) LogGratitude(ctx context.Context, g *GratitudeLog) error {
	g.Entry = strings.TrimSpace(g.Entry)
	if g.Entry == "" {
		return apperr.Invalid("entry is required")
	}
	if len(g.Entry) > maxEntryLength {
		return apperr.Invalid("entry must be at most %d characters", maxEntryLength)
	}
	if err := s.gratitude.Create(ctx, g); err != nil {
		return fmt.Errorf("create gratitude log: %w", err)
	}
	s.audit.Log(ctx, g.Username, hipaa.ActorAPI, "gratitude_logged", fmt.Sprintf("log_id=%d", g.ID))
	return nil
}

func (s *Service) GratitudeHistory(ctx context.Context, username string, limit int) ([]*GratitudeLog, error) {
	return s.gratitude.ListByUser(ctx, username, limit)
}
