package cbt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/healingspace/healingspace/internal/platform/apperr"
)

type mockRepo struct {
	entries []*Entry
	clock   time.Time
}

func (m *mockRepo) Create(_ context.Context, e *Entry) error {
	m.clock = m.clock.Add(time.Minute)
	e.ID = int64(len(m.entries) + 1)
	e.CreatedAt, e.UpdatedAt = m.clock, m.clock
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockRepo) Latest(_ context.Context, username, toolType string) (*Entry, error) {
	var latest *Entry
	for _, e := range m.entries {
		if e.Username == username && e.ToolType == toolType && (latest == nil || e.UpdatedAt.After(latest.UpdatedAt)) {
			latest = e
		}
	}
	if latest == nil {
		return nil, ErrNoEntry
	}
	return latest, nil
}

func newTestService() (*Service, *mockRepo) {
	repo := &mockRepo{clock: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}
	return NewService(repo), repo
}

func intPtr(v int) *int { return &v }

func TestService_SaveAndLoad(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first := &Entry{Username: "alice", ToolType: "thought_record", Data: json.RawMessage(`{"situation":"exam"}`), MoodRating: intPtr(4)}
	if err := svc.Save(ctx, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := &Entry{Username: "alice", ToolType: "thought_record", Data: json.RawMessage(`{"situation":"interview"}`)}
	if err := svc.Save(ctx, second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.Load(ctx, "alice", "thought_record")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != second.ID {
		t.Errorf("expected latest entry %d, got %d", second.ID, got.ID)
	}
	if string(got.Data) != `{"situation":"interview"}` {
		t.Errorf("unexpected data %s", got.Data)
	}
}

func TestService_Load_None(t *testing.T) {
	svc, _ := newTestService()
	got, err := svc.Load(context.Background(), "alice", "worry_tree")
	if err != nil || got != nil {
		t.Fatalf("expected nil entry, got %+v (%v)", got, err)
	}
	if _, err := svc.Load(context.Background(), "alice", ""); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestService_Save_DefaultsEmptyData(t *testing.T) {
	svc, repo := newTestService()
	if err := svc.Save(context.Background(), &Entry{Username: "alice", ToolType: "breathing"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(repo.entries[0].Data) != "{}" {
		t.Errorf("expected {}, got %s", repo.entries[0].Data)
	}
}

func TestService_Save_Validation(t *testing.T) {
	svc, repo := newTestService()
	cases := map[string]*Entry{
		"missing tool":    {Username: "alice"},
		"rating too high": {Username: "alice", ToolType: "x", MoodRating: intPtr(11)},
		"negative rating": {Username: "alice", ToolType: "x", MoodRating: intPtr(-1)},
		"array data":      {Username: "alice", ToolType: "x", Data: json.RawMessage(`[1,2]`)},
		"invalid json":    {Username: "alice", ToolType: "x", Data: json.RawMessage(`{bad`)},
	}
	for name, e := range cases {
		t.Run(name, func(t *testing.T) {
			if err := svc.Save(context.Background(), e); !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
	if len(repo.entries) != 0 {
		t.Errorf("expected nothing stored, got %d", len(repo.entries))
	}
}
