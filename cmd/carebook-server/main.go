package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carebook/carebook/internal/config"
	"github.com/carebook/carebook/internal/domain/billing"
	"github.com/carebook/carebook/internal/domain/hospital"
	"github.com/carebook/carebook/internal/domain/identity"
	"github.com/carebook/carebook/internal/domain/messaging"
	"github.com/carebook/carebook/internal/domain/scheduling"
	"github.com/carebook/carebook/internal/domain/surgery"
	"github.com/carebook/carebook/internal/platform/auth"
	"github.com/carebook/carebook/internal/platform/csvexport"
	"github.com/carebook/carebook/internal/platform/db"
	"github.com/carebook/carebook/internal/platform/middleware"
	reminders "github.com/carebook/carebook/internal/platform/scheduling"
	"github.com/carebook/carebook/internal/platform/tasks"
	"github.com/carebook/carebook/internal/platform/whatsapp"
	"github.com/carebook/carebook/pkg/mailer"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "carebook-server",
		Short: "Hospital appointment booking API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tenantCmd())

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

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			fmt.Printf("Running migrations on schema: %s\n", schema)

			count, err := migrator.Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", "tenant_default", "Target schema for migrations")
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("schema", "tenant_default", "Target schema for migrations")
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Rollback last migration (not supported)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("WARNING: migrate down is destructive and not supported by the built-in runner.")
			fmt.Println("Roll back by applying a forward migration that reverses the change.")
			return nil
		},
	})

	return cmd
}

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new tenant schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			fmt.Printf("Creating tenant schema: tenant_%s\n", name)
			if err := db.CreateTenantSchema(ctx, pool, name, ""); err != nil {
				return err
			}
			fmt.Println("Tenant created successfully. Run migrations with: carebook-server migrate up --schema tenant_" + name)
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Tenant identifier (alphanumeric)")

	cmd.AddCommand(createCmd)
	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-Tenant-ID"},
	}))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	// Auth middleware; scoped to /api so the health check and public
	// payment endpoints stay reachable without a token.
	var authMW echo.MiddlewareFunc
	if cfg.IsDev() {
		authMW = auth.DevAuthMiddleware()
	} else {
		authMW = auth.JWTMiddleware(auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		})
	}

	// Authenticated API group
	api := e.Group("/api", authMW, db.TenantMiddleware(pool, cfg.DefaultTenant))
	api.Use(middleware.RateLimit(rateLimitCfg))

	// Unauthenticated endpoints used by the booking site.
	public := e.Group("/api/public")
	public.Use(middleware.RateLimit(rateLimitCfg))

	// Health check
	e.GET("/health", db.HealthHandler(pool))

	// Background task dispatcher for CSV exports, outbound messages and mail.
	// Each task runs on a connection pinned to the tenant that submitted it,
	// so repository calls inside tasks hit the tenant schema rather than the
	// bare pool.
	dispatcher := tasks.NewDispatcher(4, 256, logger, tasks.WithScope(
		func(base, submit context.Context) (context.Context, func(), error) {
			tenant := db.TenantFromContext(submit)
			if tenant == "" {
				tenant = cfg.DefaultTenant
			}
			return db.WithTenant(base, pool, tenant)
		}))

	// WhatsApp sessions talk to the external bridge gateway.
	sessions := whatsapp.NewSessionManager(
		whatsapp.NewBridgeFactory(cfg.WhatsAppBridgeURL, nil), logger)

	// -- Domain wiring --

	userSvc := identity.NewService(identity.NewUserRepoPG(pool))
	userHandler := identity.NewHandler(userSvc)
	userHandler.RegisterRoutes(api)

	mail := mailer.NewClient(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPUser)
	hospSvc := hospital.NewService(hospital.NewRepoPG(pool), sessions, mail, dispatcher, cfg.AdminEmail, logger)
	hospHandler := hospital.NewHandler(hospSvc)
	hospHandler.RegisterRoutes(api)

	// Message log service doubles as the delivery recorder: every send
	// attempt the sender makes is written to the per-hospital log.
	msgSvc := messaging.NewService(messaging.NewLogRepoPG(pool), hospSvc)
	msgHandler := messaging.NewHandler(msgSvc)
	msgHandler.RegisterRoutes(api)

	sender := whatsapp.NewSender(sessions, msgSvc, logger,
		whatsapp.WithSendTimeout(cfg.WhatsAppSendTimeout),
		whatsapp.WithMaxRetries(cfg.WhatsAppMaxRetries))

	exporter := csvexport.NewExporter(cfg.ExportDir)
	apptRepo := scheduling.NewAppointmentRepoPG(pool)
	schedSvc := scheduling.NewService(apptRepo, userSvc, hospSvc, exporter, sender, dispatcher, logger)
	schedHandler := scheduling.NewHandler(schedSvc)
	schedHandler.RegisterRoutes(api)

	opRepo := surgery.NewOperationRepoPG(pool)
	surgSvc := surgery.NewService(opRepo, userSvc)
	surgHandler := surgery.NewHandler(surgSvc)
	surgHandler.RegisterRoutes(api)

	billSvc := billing.NewService(billing.NewPaymentRepoPG(pool), apptRepo, opRepo, hospSvc)
	billHandler := billing.NewHandler(billSvc)
	billHandler.RegisterRoutes(api)
	billHandler.RegisterPublicRoutes(public)

	// Reminder jobs: next-day appointment reminders and follow-up notices.
	// Sweeps run against the default tenant schema on a tenant-pinned
	// connection; without one the queries would miss the tenant tables.
	inTenant := func(run func(ctx context.Context, now time.Time) error) func(context.Context, time.Time) error {
		return func(ctx context.Context, now time.Time) error {
			tctx, release, err := db.WithTenant(ctx, pool, cfg.DefaultTenant)
			if err != nil {
				return err
			}
			defer release()
			return run(tctx, now)
		}
	}
	scheduler := reminders.New(cfg.ReminderInterval, logger)
	scheduler.Register(reminders.Job{Name: "appointment-reminders", Run: inTenant(schedSvc.SendReminders)})
	scheduler.Register(reminders.Job{Name: "followup-reminders", Run: inTenant(schedSvc.SendFollowUps)})
	schedCtx, schedCancel := context.WithCancel(ctx)
	scheduler.Start(schedCtx)

	// Start server
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}

	schedCancel()
	scheduler.Wait()

	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("task dispatcher shutdown error")
	}

	sessions.CloseAll(shutdownCtx)

	logger.Info().Msg("shutdown complete")
	return nil
}
