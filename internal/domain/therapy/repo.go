package therapy

import "context"

type Repository interface {
	Create(ctx context.Context, m *ChatMessage) error
	// Recent returns up to limit messages of session, newest first.
	Recent(ctx context.Context, sessionID string, limit int) ([]*ChatMessage, error)
}
