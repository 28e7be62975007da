package inbox

import "time"

// Notification is an in-app notice shown in the recipient's bell menu and
// pushed over their websocket topic.
type Notification struct {
	ID                int64     `db:"id" json:"id"`
	RecipientUsername string    `db:"recipient_username" json:"recipient_username"`
	Message           string    `db:"message" json:"message"`
	NotificationType  string    `db:"notification_type" json:"notification_type"`
	Read              bool      `db:"read" json:"read"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// Message is a direct message from a clinician to one of their patients.
type Message struct {
	ID                int64     `db:"id" json:"id"`
	SenderUsername    string    `db:"sender_username" json:"sender_username"`
	RecipientUsername string    `db:"recipient_username" json:"recipient_username"`
	Subject           string    `db:"subject" json:"subject"`
	Body              string    `db:"body" json:"message"`
	Read              bool      `db:"read" json:"read"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}
