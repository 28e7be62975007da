package inbox

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/healingspace/healingspace/internal/platform/apperr"
	"github.com/healingspace/healingspace/internal/platform/db"
	"github.com/healingspace/healingspace/internal/platform/hipaa"
	"github.com/healingspace/healingspace/internal/platform/metrics"
	"github.com/healingspace/healingspace/internal/platform/notification"
	"github.com/healingspace/healingspace/internal/platform/websocket"
)

const maxMessageLength = 5000

var ErrNotificationNotFound = apperr.NotFound("Notification not found")

// AccessChecker reports whether a clinician may contact a patient.
type AccessChecker interface {
	CheckAccess(ctx context.Context, clinician, patient string) error
}

type Service struct {
	notifications NotificationRepository
	messages      MessageRepository
	templates     *notification.TemplateEngine
	access        AccessChecker
	tx            db.TxRunner
	publisher     websocket.Publisher
	metrics       *metrics.Metrics
	audit         hipaa.Auditor
}

func NewService(
	notifications NotificationRepository,
	messages MessageRepository,
	templates *notification.TemplateEngine,
	access AccessChecker,
	tx db.TxRunner,
) *Service {
	return &Service{
		notifications: notifications,
		messages:      messages,
		templates:     templates,
		access:        access,
		tx:            tx,
		audit:         hipaa.NopAuditor{},
	}
}

// WithPublisher enables live websocket delivery.
func (s *Service) WithPublisher(p websocket.Publisher) *Service {
	s.publisher = p
	return s
}

func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

func (s *Service) WithAuditor(a hipaa.Auditor) *Service {
	s.audit = a
	return s
}

// -- Notifications --

// Notify renders the template for typ and stores a notification for
// recipient. When ctx carries a transaction the insert joins it, and the
// websocket push waits for the commit.
func (s *Service) Notify(ctx context.Context, recipient string, typ notification.Type, data map[string]string) (*Notification, error) {
	if recipient == "" {
		return nil, apperr.Invalid("recipient is required")
	}
	body, err := s.templates.Render(typ, data)
	if err != nil {
		return nil, err
	}

	n := &Notification{
		RecipientUsername: recipient,
		Message:           body,
		NotificationType:  string(typ),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	db.AfterCommit(ctx, func() {
		s.metrics.NotificationCreated(n.NotificationType)
		s.push(context.WithoutCancel(ctx), n)
	})
	return n, nil
}

func (s *Service) push(ctx context.Context, n *Notification) {
	if s.publisher == nil {
		return
	}
	data, err := json.Marshal(n)
	if err != nil {
		return
	}
	_ = s.publisher.Publish(ctx, websocket.Event{
		Type:      "notification",
		Topic:     websocket.UserTopic(n.RecipientUsername),
		Timestamp: n.CreatedAt,
		Data:      data,
	})
}

func (s *Service) ListNotifications(ctx context.Context, username string, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	return s.notifications.ListByRecipient(ctx, username, unreadOnly, limit, offset)
}

func (s *Service) UnreadCount(ctx context.Context, username string) (int, error) {
	return s.notifications.CountUnread(ctx, username)
}

// MarkRead only touches the caller's own notifications; anyone else's id is
// reported as not found.
func (s *Service) MarkRead(ctx context.Context, username string, id int64) error {
	ok, err := s.notifications.MarkRead(ctx, id, username)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

// -- Messages --

func (s *Service) SendClinicianMessage(ctx context.Context, clinician string, m *Message) error {
	m.RecipientUsername = strings.TrimSpace(m.RecipientUsername)
	m.Subject = strings.TrimSpace(m.Subject)
	m.Body = strings.TrimSpace(m.Body)
	if m.RecipientUsername == "" {
		return apperr.Invalid("recipient_username is required")
	}
	if m.Body == "" {
		return apperr.Invalid("message is required")
	}
	if len(m.Body) > maxMessageLength {
		return apperr.Invalid("message must be at most %d characters", maxMessageLength)
	}
	if err := s.access.CheckAccess(ctx, clinician, m.RecipientUsername); err != nil {
		return err
	}
	m.SenderUsername = clinician

	subject := m.Subject
	if subject == "" {
		subject = "New message"
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.messages.Create(ctx, m); err != nil {
			return fmt.Errorf("create message: %w", err)
		}
		_, err := s.Notify(ctx, m.RecipientUsername, notification.TypeClinicianMessage, map[string]string{
			"clinician": clinician,
			"subject":   subject,
		})
		return err
	})
	if err != nil {
		return err
	}

	s.audit.Log(ctx, clinician, hipaa.ActorAPI, "clinician_message", "recipient="+m.RecipientUsername)
	return nil
}

func (s *Service) ListMessages(ctx context.Context, username string, limit, offset int) ([]*Message, int, error) {
	return s.messages.ListByRecipient(ctx, username, limit, offset)
}
