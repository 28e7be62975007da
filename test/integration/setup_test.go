//go:build integration

// Package integration runs the repositories and services against a real
// PostgreSQL migrated with the embedded schema. Run with:
//
//	go test -tags integration ./test/integration/...
//
// Set HEALINGSPACE_TEST_DATABASE_URL to use an existing database instead of
// starting a container.
package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/healingspace/healingspace/internal/domain/appointment"
	"github.com/healingspace/healingspace/internal/domain/approval"
	"github.com/healingspace/healingspace/internal/domain/export"
	"github.com/healingspace/healingspace/internal/domain/identity"
	"github.com/healingspace/healingspace/internal/domain/inbox"
	"github.com/healingspace/healingspace/internal/domain/wellness"
	"github.com/healingspace/healingspace/internal/platform/auth"
	"github.com/healingspace/healingspace/internal/platform/db"
	"github.com/healingspace/healingspace/internal/platform/hipaa"
	"github.com/healingspace/healingspace/internal/platform/notification"
)

const testPHIKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// testDB holds the shared database for the package.
type testDB struct {
	Pool    *pgxpool.Pool
	ConnStr string
}

var globalDB *testDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	tdb, cleanup, err := setupDatabase(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up database: %v\n", err)
		os.Exit(1)
	}

	globalDB = tdb
	code := m.Run()
	cleanup()
	os.Exit(code)
}

func setupDatabase(ctx context.Context) (*testDB, func(), error) {
	connStr := os.Getenv("HEALINGSPACE_TEST_DATABASE_URL")
	cleanup := func() {}
	if connStr == "" {
		var err error
		connStr, cleanup, err = startPostgresContainer(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("start postgres container: %w", err)
		}
	}

	if err := migrateUp(connStr); err != nil {
		cleanup()
		return nil, nil, err
	}

	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:             connStr,
		MaxConns:        10,
		MinConns:        1,
		AppName:         "healingspace-integration",
		ConnectAttempts: 3,
		RetryDelay:      time.Second,
	}, zerolog.Nop())
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("create pool: %w", err)
	}

	return &testDB{Pool: pool, ConnStr: connStr}, func() {
		pool.Close()
		cleanup()
	}, nil
}

func migrateUp(connStr string) error {
	m, err := db.NewMigrator(connStr)
	if err != nil {
		return fmt.Errorf("open migrator: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// resetDB empties every table so each test starts from a clean schema.
func resetDB(t *testing.T) {
	t.Helper()
	_, err := globalDB.Pool.Exec(context.Background(), `
		TRUNCATE users, patient_approvals, mood_logs, gratitude_logs, chat_history,
		         risk_alerts, cbt_tool_entries, appointments, notifications, messages,
		         audit_logs, pet
		RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("reset database: %v", err)
	}
}

// stack is the service graph main wires, built on the test pool.
type stack struct {
	Identity    *identity.Service
	Approval    *approval.Service
	Inbox       *inbox.Service
	Wellness    *wellness.Service
	Appointment *appointment.Service
	Export      *export.Service
}

type accessFunc func(ctx context.Context, clinician, patient string) error

func (f accessFunc) CheckAccess(ctx context.Context, clinician, patient string) error {
	return f(ctx, clinician, patient)
}

func newStack(t *testing.T) *stack {
	t.Helper()
	resetDB(t)

	pool := globalDB.Pool
	phi, err := hipaa.NewPHIEncryptorFromHex(testPHIKey)
	if err != nil {
		t.Fatalf("phi key: %v", err)
	}
	tx := db.NewTxRunner(pool)
	audit := hipaa.NewAuditLogger(hipaa.NewAuditStorePG(pool), zerolog.Nop())
	tokens := auth.NewTokenIssuer([]byte("integration-signing-key-0123456789abcdef"), "healingspace", time.Hour)

	s := &stack{}
	s.Identity = identity.NewService(identity.NewUserRepoPG(pool, phi), tokens, auth.NewTokenRevocationStore(), tx).
		WithAuditor(audit)
	s.Inbox = inbox.NewService(
		inbox.NewNotificationRepoPG(pool),
		inbox.NewMessageRepoPG(pool),
		notification.NewTemplateEngine(),
		accessFunc(func(ctx context.Context, clinician, patient string) error {
			return s.Approval.CheckAccess(ctx, clinician, patient)
		}),
		tx,
	).WithAuditor(audit)
	s.Approval = approval.NewService(approval.NewRepoPG(pool), s.Identity, s.Inbox, tx).WithAuditor(audit)
	s.Identity.WithApprovals(s.Approval)
	s.Wellness = wellness.NewService(wellness.NewMoodRepoPG(pool), wellness.NewGratitudeRepoPG(pool)).WithAuditor(audit)
	s.Appointment = appointment.NewService(appointment.NewRepoPG(pool), s.Approval, s.Inbox, tx).WithAuditor(audit)
	s.Export = export.NewService(s.Identity, s.Wellness, s.Approval).WithAuditor(audit)
	return s
}

func createUser(t *testing.T, s *stack, username, role string) *identity.User {
	t.Helper()
	req := &identity.RegisterRequest{
		Username: username,
		Password: "testpass",
		PIN:      "1234",
		Role:     role,
		FullName: "Test " + username,
	}
	if role == auth.RoleClinician {
		req.ProfessionalID = "GMC-" + username
	}
	u, err := s.Identity.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

// approve links patient to clinician through the request/decide workflow.
func approve(t *testing.T, s *stack, patient, clinician string) {
	t.Helper()
	ctx := context.Background()
	if err := s.Approval.Request(ctx, patient, clinician); err != nil {
		t.Fatalf("request approval: %v", err)
	}
	if err := s.Approval.Decide(ctx, clinician, patient, true); err != nil {
		t.Fatalf("approve: %v", err)
	}
}

func countNotifications(t *testing.T, recipient, typ string) int {
	t.Helper()
	var n int
	err := globalDB.Pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM notifications WHERE recipient_username = $1 AND notification_type = $2`,
		recipient, typ).Scan(&n)
	if err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	return n
}
