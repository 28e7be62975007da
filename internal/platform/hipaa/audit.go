package hipaa

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Actors recorded on audit events.
const (
	ActorAPI       = "api"
	ActorScheduler = "scheduler"
)

// AuditEvent is one row of the audit_logs table.
type AuditEvent struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

// Auditor records audit events. Implementations must never fail the caller.
type Auditor interface {
	Log(ctx context.Context, username, actor, action, details string)
}

// AuditStore persists audit events.
type AuditStore interface {
	Insert(ctx context.Context, e *AuditEvent) error
}

type auditStorePG struct{ pool *pgxpool.Pool }

// NewAuditStorePG writes through the pool directly, never through a
// request transaction: a failed audit insert must not abort the caller's tx.
func NewAuditStorePG(pool *pgxpool.Pool) AuditStore {
	return &auditStorePG{pool: pool}
}

func (s *auditStorePG) Insert(ctx context.Context, e *AuditEvent) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO audit_logs (username, actor, action, details, timestamp)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		e.Username, e.Actor, e.Action, e.Details, e.Timestamp).Scan(&e.ID)
}

// AuditLogger is the best-effort audit sink. Write failures are logged and
// swallowed.
type AuditLogger struct {
	store  AuditStore
	logger zerolog.Logger
	now    func() time.Time
}

func NewAuditLogger(store AuditStore, logger zerolog.Logger) *AuditLogger {
	return &AuditLogger{store: store, logger: logger, now: time.Now}
}

func (a *AuditLogger) Log(ctx context.Context, username, actor, action, details string) {
	e := &AuditEvent{
		Username:  username,
		Actor:     actor,
		Action:    action,
		Details:   details,
		Timestamp: a.now().UTC(),
	}

	// Detach from request cancellation so an audit write is not lost when the
	// client disconnects right after the response.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()

	if err := a.store.Insert(writeCtx, e); err != nil {
		a.logger.Warn().Err(err).
			Str("username", username).
			Str("action", action).
			Msg("audit write failed")
	}
}

// NopAuditor discards events.
type NopAuditor struct{}

func (NopAuditor) Log(context.Context, string, string, string, string) {}
