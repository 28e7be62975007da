package inbox

import (
	"context"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	ListByRecipient(ctx context.Context, recipient string, unreadOnly bool, limit, offset int) ([]*Notification, int, error)
	// MarkRead reports whether a notification with id belonging to recipient
	// existed.
	MarkRead(ctx context.Context, id int64, recipient string) (bool, error)
	CountUnread(ctx context.Context, recipient string) (int, error)
}

type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	ListByRecipient(ctx context.Context, recipient string, limit, offset int) ([]*Message, int, error)
}
