package therapy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/healingspace/healingspace/internal/platform/apperr"
	"github.com/healingspace/healingspace/internal/platform/db"
	"github.com/healingspace/healingspace/internal/platform/hipaa"
)

// AlertRaiser records a crisis alert for a patient.
type AlertRaiser interface {
	RaiseAlert(ctx context.Context, patient, trigger string) error
}

// Reply is the AI side of one chat exchange.
type Reply struct {
	Response  string    `json:"response"`
	Topic     Topic     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

type Service struct {
	repo      Repository
	responder *Responder
	alerts    AlertRaiser
	tx        db.TxRunner
	audit     hipaa.Auditor
	now       func() time.Time
}

func NewService(repo Repository, responder *Responder, alerts AlertRaiser, tx db.TxRunner) *Service {
	return &Service{
		repo:      repo,
		responder: responder,
		alerts:    alerts,
		tx:        tx,
		audit:     hipaa.NopAuditor{},
		now:       time.Now,
	}
}

func (s *Service) WithAuditor(a hipaa.Auditor) *Service {
	s.audit = a
	return s
}

// Chat answers message in username's session and stores both sides of the
// exchange in one transaction. Crisis messages also raise a safety alert.
func (s *Service) Chat(ctx context.Context, username, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperr.Invalid("message is required")
	}
	if len(message) > maxMessageLength {
		return nil, apperr.Invalid("message must be at most %d characters", maxMessageLength)
	}
	session := SessionID(username)

	history, err := s.History(ctx, username, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	response, topic := s.responder.Respond(message, history)

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, &ChatMessage{SessionID: session, Sender: SenderUser, Message: message}); err != nil {
			return fmt.Errorf("store user message: %w", err)
		}
		if err := s.repo.Create(ctx, &ChatMessage{SessionID: session, Sender: SenderAI, Message: response}); err != nil {
			return fmt.Errorf("store ai message: %w", err)
		}
		if topic == TopicCrisis && s.alerts != nil {
			return s.alerts.RaiseAlert(ctx, username, message)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, username, hipaa.ActorAPI, "therapy_chat", "topic="+string(topic))
	return &Reply{Response: response, Topic: topic, Timestamp: s.now().UTC()}, nil
}

// History returns up to limit of the latest messages in chronological order.
func (s *Service) History(ctx context.Context, username string, limit int) ([]*ChatMessage, error) {
	items, err := s.repo.Recent(ctx, SessionID(username), limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}
