package cbt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/healingspace/healingspace/internal/platform/apperr"
	"github.com/healingspace/healingspace/internal/platform/hipaa"
)

var ErrNoEntry = errors.New("no cbt entry")

type Service struct {
	repo  Repository
	audit hipaa.Auditor
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, audit: hipaa.NopAuditor{}}
}

func (s *Service) WithAuditor(a hipaa.Auditor) *Service {
	s.audit = a
	return s
}

func (s *Service) Save(ctx context.Context, e *Entry) error {
	e.ToolType = strings.TrimSpace(e.ToolType)
	if e.ToolType == "" {
		return apperr.Invalid("tool_type is required")
	}
	if len(e.ToolType) > maxToolTypeLength {
		return apperr.Invalid("tool_type must be at most %d characters", maxToolTypeLength)
	}
	if e.MoodRating != nil && (*e.MoodRating < MinMoodRating || *e.MoodRating > MaxMoodRating) {
		return apperr.Invalid("mood_rating must be between %d and %d", MinMoodRating, MaxMoodRating)
	}

	data := bytes.TrimSpace(e.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		data = []byte("{}")
	}
	if len(data) > maxDataBytes {
		return apperr.Invalid("data must be at most %d bytes", maxDataBytes)
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return apperr.Invalid("data must be a JSON object")
	}
	e.Data = data
	e.Notes = strings.TrimSpace(e.Notes)

	if err := s.repo.Create(ctx, e); err != nil {
		return fmt.Errorf("create cbt entry: %w", err)
	}
	s.audit.Log(ctx, e.Username, hipaa.ActorAPI, "cbt_saved", "tool_type="+e.ToolType)
	return nil
}

// Load returns the latest entry of toolType, or nil when there is none.
func (s *Service) Load(ctx context.Context, username, toolType string) (*Entry, error) {
	toolType = strings.TrimSpace(toolType)
	if toolType == "" {
		return nil, apperr.Invalid("tool_type is required")
	}
	e, err := s.repo.Latest(ctx, username, toolType)
	if errors.Is(err, ErrNoEntry) {
		return nil, nil
	}
	return e, err
}
