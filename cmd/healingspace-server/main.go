package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/healingspace/healingspace/internal/config"
	"github.com/healingspace/healingspace/internal/domain/appointment"
	"github.com/healingspace/healingspace/internal/domain/approval"
	"github.com/healingspace/healingspace/internal/domain/cbt"
	"github.com/healingspace/healingspace/internal/domain/clinician"
	"github.com/healingspace/healingspace/internal/domain/developer"
	"github.com/healingspace/healingspace/internal/domain/export"
	"github.com/healingspace/healingspace/internal/domain/identity"
	"github.com/healingspace/healingspace/internal/domain/inbox"
	"github.com/healingspace/healingspace/internal/domain/safety"
	"github.com/healingspace/healingspace/internal/domain/therapy"
	"github.com/healingspace/healingspace/internal/domain/wellness"
	"github.com/healingspace/healingspace/internal/platform/auth"
	"github.com/healingspace/healingspace/internal/platform/db"
	"github.com/healingspace/healingspace/internal/platform/hipaa"
	"github.com/healingspace/healingspace/internal/platform/metrics"
	"github.com/healingspace/healingspace/internal/platform/middleware"
	"github.com/healingspace/healingspace/internal/platform/notification"
	"github.com/healingspace/healingspace/internal/platform/scheduler"
	"github.com/healingspace/healingspace/internal/platform/websocket"
	"github.com/healingspace/healingspace/internal/seed"
)

const (
	serviceName    = "Healing Space Therapy API"
	serviceVersion = "1.0.0"

	jobTimeout       = time.Minute
	visitorIdleLimit = 10 * time.Minute
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "healingspace-server",
		Short: "Healing Space therapy API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(hashCredsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	withMigrator := func(fn func(m *db.Migrator) error) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		m, err := db.NewMigrator(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer m.Close()
		return fn(m)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *db.Migrator) error {
				if err := m.Up(); err != nil {
					return err
				}
				fmt.Println("Migrations applied.")
				return nil
			})
		},
	})

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			return withMigrator(func(m *db.Migrator) error {
				if err := m.Down(steps); err != nil {
					return err
				}
				fmt.Printf("Rolled back %d migration(s).\n", steps)
				return nil
			})
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migrations to roll back")
	cmd.AddCommand(downCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *db.Migrator) error {
				st, err := m.Status()
				if err != nil {
					return err
				}
				fmt.Printf("%-10s %-10s %-10s %s\n", "VERSION", "LATEST", "PENDING", "DIRTY")
				fmt.Printf("%-10d %-10d %-10d %t\n", st.Version, st.Latest, st.Pending, st.Dirty)
				return nil
			})
		},
	})

	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the development accounts and approvals",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			phi, err := phiEncryptor(cfg)
			if err != nil {
				return err
			}
			sqlDB, err := sql.Open("postgres", cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer sqlDB.Close()

			res, err := seed.New(sqlDB, phi, logger).Run(cmd.Context(), cfg.SeedPassword, cfg.SeedPIN)
			if err != nil {
				return err
			}
			fmt.Printf("Seeded %d user(s) and %d approval(s).\n", res.Users, res.Approvals)
			return nil
		},
	}
}

func hashCredsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-creds",
		Short: "Print bcrypt hashes of the seed password and PIN",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			for _, cred := range []struct{ name, secret string }{
				{"password", cfg.SeedPassword},
				{"pin", cfg.SeedPIN},
			} {
				h, err := auth.HashSecret(cred.secret)
				if err != nil {
					return fmt.Errorf("hash %s: %w", cred.name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", cred.name, h)
			}
			return nil
		},
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", "healingspace").Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).Level(level).With().Timestamp().Logger()
	}
	return logger
}

func phiEncryptor(cfg *config.Config) (*hipaa.PHIEncryptor, error) {
	if cfg.PHIEncryptionKey == "" {
		return nil, nil
	}
	return hipaa.NewPHIEncryptorFromHex(cfg.PHIEncryptionKey)
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:              cfg.DatabaseURL,
		MaxConns:         cfg.DBMaxConns,
		MinConns:         cfg.DBMinConns,
		StatementTimeout: cfg.DBStmtTimeout,
		AppName:          "healingspace-server",
		ConnectAttempts:  cfg.DBConnectTries,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	srv, err := newServer(cfg, logger, pool)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}
	srv.sched.Start()

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := srv.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.sched.Stop(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("scheduler shutdown failed")
	}
	if err := srv.echo.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

type server struct {
	echo  *echo.Echo
	sched *scheduler.Scheduler
}

// newServer wires every service and route. It performs no I/O, so pool may
// be nil in tests that never reach a repository.
func newServer(cfg *config.Config, logger zerolog.Logger, pool *pgxpool.Pool) (*server, error) {
	phi, err := phiEncryptor(cfg)
	if err != nil {
		return nil, fmt.Errorf("phi key: %w", err)
	}

	m := metrics.New()
	tx := db.NewTxRunner(pool)
	auditor := hipaa.NewAuditLogger(hipaa.NewAuditStorePG(pool), logger)
	hub := websocket.NewHub(logger)
	revocations := auth.NewTokenRevocationStore()
	tokens := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.TokenTTL)
	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	})

	// Services. Cross-domain dependencies are satisfied by interfaces the
	// consuming package declares.
	identitySvc := identity.NewService(identity.NewUserRepoPG(pool, phi), tokens, revocations, tx).
		WithAuditor(auditor)

	var approvalSvc *approval.Service
	inboxSvc := inbox.NewService(
		inbox.NewNotificationRepoPG(pool),
		inbox.NewMessageRepoPG(pool),
		notification.NewTemplateEngine(),
		accessFunc(func(ctx context.Context, clinician, patient string) error {
			return approvalSvc.CheckAccess(ctx, clinician, patient)
		}),
		tx,
	).WithPublisher(hub).WithMetrics(m).WithAuditor(auditor)

	approvalSvc = approval.NewService(approval.NewRepoPG(pool), identitySvc, inboxSvc, tx).WithAuditor(auditor)
	identitySvc.WithApprovals(approvalSvc)

	monitor := safety.NewMonitor()
	safetySvc := safety.NewService(safety.NewRepoPG(pool), monitor, approvalSvc, inboxSvc, tx).
		WithMetrics(m).WithAuditor(auditor)
	wellnessSvc := wellness.NewService(wellness.NewMoodRepoPG(pool), wellness.NewGratitudeRepoPG(pool)).
		WithMetrics(m).WithAuditor(auditor)
	therapySvc := therapy.NewService(therapy.NewRepoPG(pool), therapy.NewResponder(monitor), safetySvc, tx).
		WithAuditor(auditor)
	cbtSvc := cbt.NewService(cbt.NewRepoPG(pool)).WithAuditor(auditor)
	appointmentSvc := appointment.NewService(appointment.NewRepoPG(pool), approvalSvc, inboxSvc, tx).
		WithAuditor(auditor)
	clinicianSvc := clinician.NewService(clinician.NewRepoPG(pool), approvalSvc, identitySvc, wellnessSvc, appointmentSvc)
	developerSvc := developer.NewService(developer.NewRepoPG(pool), func() *db.PoolStats { return db.GetPoolStats(pool) })
	exportSvc := export.NewService(identitySvc, wellnessSvc, approvalSvc).WithAuditor(auditor)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.HTTPErrorHandler(logger, cfg.ExposeErrors)

	e.Use(middleware.Recovery(logger, m))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Metrics(m))
	e.Use(middleware.SecurityHeaders(middleware.DefaultHeaderPolicy(cfg.IsProduction())))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	api := e.Group("/api")
	api.Use(auth.JWTMiddleware(auth.JWTConfig{
		Issuer:      cfg.JWTIssuer,
		SigningKey:  []byte(cfg.JWTSecret),
		Revocations: revocations,
		Skipper:     auth.AuthSkipper,
	}))
	api.Use(limiter.Middleware())
	api.Use(middleware.Audit(auditor))

	api.GET("/health", healthHandler)
	if pool != nil {
		api.GET("/health/db", db.HealthHandler(pool))
	}

	identity.NewHandler(identitySvc).RegisterRoutes(api)
	approval.NewHandler(approvalSvc).RegisterRoutes(api)
	wellness.NewHandler(wellnessSvc).RegisterRoutes(api)
	therapy.NewHandler(therapySvc).RegisterRoutes(api)
	safety.NewHandler(safetySvc).RegisterRoutes(api)
	cbt.NewHandler(cbtSvc).RegisterRoutes(api)
	appointment.NewHandler(appointmentSvc).RegisterRoutes(api)
	inbox.NewHandler(inboxSvc).RegisterRoutes(api)
	clinician.NewHandler(clinicianSvc).RegisterRoutes(api)
	developer.NewHandler(developerSvc).RegisterRoutes(api)
	export.NewHandler(exportSvc, logger).RegisterRoutes(api)
	websocket.NewHandler(hub, logger, cfg.CORSOrigins).RegisterRoutes(api)

	// Scheduled jobs
	sched := scheduler.New(logger, m, jobTimeout)
	jobs := []struct {
		name, spec string
		fn         scheduler.JobFunc
	}{
		{"appointment_reminders", cfg.ReminderSchedule, func(ctx context.Context) error {
			n, err := appointmentSvc.SendReminders(ctx)
			if n > 0 {
				logger.Info().Int("sent", n).Msg("appointment reminders sent")
			}
			return err
		}},
		{"token_revocation_cleanup", "@every 10m", func(context.Context) error {
			revocations.Cleanup()
			return nil
		}},
		{"rate_limiter_prune", "@every 5m", func(context.Context) error {
			limiter.Prune(visitorIdleLimit)
			return nil
		}},
	}
	for _, j := range jobs {
		if err := sched.Add(j.name, j.spec, j.fn); err != nil {
			return nil, err
		}
	}

	return &server{echo: e, sched: sched}, nil
}

// accessFunc adapts a function to inbox.AccessChecker. The inbox is built
// before the approval service that answers its access checks.
type accessFunc func(ctx context.Context, clinician, patient string) error

func (f accessFunc) CheckAccess(ctx context.Context, clinician, patient string) error {
	return f(ctx, clinician, patient)
}

func healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   serviceName,
		"version":   serviceVersion,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
