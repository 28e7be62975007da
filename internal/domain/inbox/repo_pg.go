package inbox

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healingspace/healingspace/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Notification Repository ===========

type notificationRepoPG struct{ pool *pgxpool.Pool }

func NewNotificationRepoPG(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepoPG{pool: pool}
}

func (r *notificationRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const notificationCols = `id, recipient_username, message, notification_type, read, created_at`

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.RecipientUsername, &n.Message, &n.NotificationType, &n.Read, &n.CreatedAt)
	return &n, err
}

func (r *notificationRepoPG) Create(ctx context.Context, n *Notification) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO notifications (recipient_username, message, notification_type)
		VALUES ($1, $2, $3)
		RETURNING id, read, created_at`,
		n.RecipientUsername, n.Message, n.NotificationType).Scan(&n.ID, &n.Read, &n.CreatedAt)
}

func (r *notificationRepoPG) ListByRecipient(ctx context.Context, recipient string, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	where := `WHERE recipient_username = $1`
	if unreadOnly {
		where += ` AND read = FALSE`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM notifications `+where, recipient).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+notificationCols+` FROM notifications `+where+`
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`, recipient, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	return items, total, rows.Err()
}

func (r *notificationRepoPG) MarkRead(ctx context.Context, id int64, recipient string) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE notifications SET read = TRUE
		WHERE id = $1 AND recipient_username = $2`, id, recipient)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *notificationRepoPG) CountUnread(ctx context.Context, recipient string) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE recipient_username = $1 AND read = FALSE`,
		recipient).Scan(&n)
	return n, err
}

// =========== Message Repository ===========

type messageRepoPG struct{ pool *pgxpool.Pool }

func NewMessageRepoPG(pool *pgxpool.Pool) MessageRepository {
	return &messageRepoPG{pool: pool}
}

func (r *messageRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const messageCols = `id, sender_username, recipient_username, subject, body, read, created_at`

func (r *messageRepoPG) Create(ctx context.Context, m *Message) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO messages (sender_username, recipient_username, subject, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, read, created_at`,
		m.SenderUsername, m.RecipientUsername, m.Subject, m.Body).Scan(&m.ID, &m.Read, &m.CreatedAt)
}

func (r *messageRepoPG) ListByRecipient(ctx context.Context, recipient string, limit, offset int) ([]*Message, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM messages WHERE recipient_username = $1`, recipient).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+messageCols+` FROM messages
		WHERE recipient_username = $1
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`, recipient, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SenderUsername, &m.RecipientUsername, &m.Subject, &m.Body, &m.Read, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &m)
	}
	return items, total, rows.Err()
}
