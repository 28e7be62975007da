package therapy

import "time"

// Chat senders.
const (
	SenderUser = "user"
	SenderAI   = "ai"
)

const (
	historyWindow    = 10
	maxMessageLength = 2000
)

// ChatMessage is one row of chat_history.
type ChatMessage struct {
	ID        int64     `db:"id" json:"-"`
	SessionID string    `db:"session_id" json:"-"`
	Sender    string    `db:"sender" json:"sender"`
	Message   string    `db:"message" json:"message"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// SessionID is the single chat session kept per user.
func SessionID(username string) string {
	return username + "_session"
}
