package wellness

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/healingspace/healingspace/internal/platform/apperr"
	"github.com/healingspace/healingspace/internal/platform/metrics"
)

// -- Mock Repositories --

type mockMoodRepo struct {
	logs  []*MoodLog
	clock time.Time
}

func (m *mockMoodRepo) Create(_ context.Context, l *MoodLog) error {
	m.clock = m.clock.Add(time.Minute)
	l.ID = int64(len(m.logs) + 1)
	l.Timestamp = m.clock
	m.logs = append(m.logs, l)
	return nil
}

func (m *mockMoodRepo) ListByUser(_ context.Context, username string, limit int) ([]*MoodLog, error) {
	var out []*MoodLog
	for _, l := range m.logs {
		if l.Username == username {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type mockGratitudeRepo struct {
	logs []*GratitudeLog
}

func (m *mockGratitudeRepo) Create(_ context.Context, g *GratitudeLog) error {
	g.ID = int64(len(m.logs) + 1)
	g.Timestamp = time.Now()
	m.logs = append(m.logs, g)
	return nil
}

func (m *mockGratitudeRepo) ListByUser(_ context.Context, username string, limit int) ([]*GratitudeLog, error) {
	var out []*GratitudeLog
	for i := len(m.logs) - 1; i >= 0; i-- {
		if m.logs[i].Username == username {
			out = append(out, m.logs[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func newTestService() (*Service, *mockMoodRepo, *mockGratitudeRepo) {
	moods := &mockMoodRepo{clock: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	gratitude := &mockGratitudeRepo{}
	return NewService(moods, gratitude).WithMetrics(metrics.New()), moods, gratitude
}

// -- Mood --

func TestService_LogMood(t *testing.T) {
	svc, moods, _ := newTestService()

	m := &MoodLog{Username: "alice", MoodVal: 7, SleepVal: 6.5, Notes: "  ok day "}
	if err := svc.LogMood(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ID == 0 {
		t.Error("expected log id")
	}
	if m.Sentiment != "Neutral" {
		t.Errorf("expected Neutral sentiment, got %q", m.Sentiment)
	}
	if moods.logs[0].Notes != "ok day" {
		t.Errorf("expected trimmed notes, got %q", moods.logs[0].Notes)
	}
}

func TestService_LogMood_Bounds(t *testing.T) {
	svc, moods, _ := newTestService()
	cases := []*MoodLog{
		{Username: "alice", MoodVal: 0},
		{Username: "alice", MoodVal: 11},
		{Username: "alice", MoodVal: 5, SleepVal: -1},
		{Username: "alice", MoodVal: 5, SleepVal: 25},
	}
	for _, m := range cases {
		if err := svc.LogMood(context.Background(), m); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("mood=%d sleep=%v: expected validation error, got %v", m.MoodVal, m.SleepVal, err)
		}
	}
	if len(moods.logs) != 0 {
		t.Errorf("expected nothing stored, got %d", len(moods.logs))
	}
	for _, v := range []int{MinMood, MaxMood} {
		if err := svc.LogMood(context.Background(), &MoodLog{Username: "alice", MoodVal: v}); err != nil {
			t.Errorf("mood=%d: unexpected error %v", v, err)
		}
	}
}

func TestService_MoodHistory_ReverseChronological(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	for _, v := range []int{3, 5, 8} {
		svc.LogMood(ctx, &MoodLog{Username: "alice", MoodVal: v})
	}
	svc.LogMood(ctx, &MoodLog{Username: "bob", MoodVal: 1})

	logs, err := svc.MoodHistory(ctx, "alice", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("expected 3 logs, got %d", len(logs))
	}
	for i := 1; i < len(logs); i++ {
		if logs[i].Timestamp.After(logs[i-1].Timestamp) {
			t.Fatalf("logs not newest first: %v then %v", logs[i-1].Timestamp, logs[i].Timestamp)
		}
	}
	if logs[0].MoodVal != 8 {
		t.Errorf("expected latest mood 8 first, got %d", logs[0].MoodVal)
	}

	limited, _ := svc.MoodHistory(ctx, "alice", 2)
	if len(limited) != 2 {
		t.Errorf("expected limit 2 honored, got %d", len(limited))
	}
}

// -- Gratitude --

func TestService_LogGratitude(t *testing.T) {
	svc, _, gratitude := newTestService()

	if err := svc.LogGratitude(context.Background(), &GratitudeLog{Username: "alice", Entry: "  sunshine "}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gratitude.logs[0].Entry != "sunshine" {
		t.Errorf("expected trimmed entry, got %q", gratitude.logs[0].Entry)
	}
	if err := svc.LogGratitude(context.Background(), &GratitudeLog{Username: "alice", Entry: "   "}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}
