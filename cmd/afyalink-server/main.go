// afyalink-server is the AfyaLink API server: a medical tourism backend
// covering consultation requests, hospital catalog browsing, medical document
// storage, and realtime status feeds.
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

	"github.com/afyalink/afyalink-api/internal/config"
	"github.com/afyalink/afyalink-api/internal/domain/consultation"
	"github.com/afyalink/afyalink-api/internal/domain/document"
	"github.com/afyalink/afyalink-api/internal/domain/hospital"
	"github.com/afyalink/afyalink-api/internal/domain/identity"
	"github.com/afyalink/afyalink-api/internal/platform/analytics"
	"github.com/afyalink/afyalink-api/internal/platform/auth"
	"github.com/afyalink/afyalink-api/internal/platform/blobstore"
	"github.com/afyalink/afyalink-api/internal/platform/db"
	"github.com/afyalink/afyalink-api/internal/platform/middleware"
	"github.com/afyalink/afyalink-api/internal/platform/notification"
	"github.com/afyalink/afyalink-api/internal/platform/realtime"
)

var migrationsDir string

func main() {
	rootCmd := &cobra.Command{
		Use:   "afyalink-server",
		Short: "AfyaLink medical tourism API server",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}
	migrateCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "./migrations", "migrations directory")

	migrateUpCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), func(ctx context.Context, m *db.Migrator) error {
				applied, err := m.Up(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("applied %d migration(s)\n", applied)
				return nil
			})
		},
	}

	migrateStatusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return err
				}
				for _, s := range statuses {
					state := "pending"
					if s.Applied {
						state = "applied"
						if s.AppliedAt != nil {
							state = fmt.Sprintf("applied at %s", s.AppliedAt.Format(time.RFC3339))
						}
					}
					fmt.Printf("%03d %-40s %s\n", s.Version, s.Name, state)
				}
				return nil
			})
		},
	}

	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runMigrate(ctx context.Context, fn func(context.Context, *db.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, db.NewMigrator(pool, migrationsDir))
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	logger := newLogger(cfg)
	logger.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("starting afyalink-server")

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	// Blob storage: S3 in production, in-memory for local development.
	var store blobstore.BlobStore
	if cfg.IsDev() {
		store = blobstore.NewInMemoryStore()
		logger.Warn().Msg("using in-memory blob store, uploads are lost on restart")
	} else {
		s3Store, err := blobstore.NewS3Store(ctx)
		if err != nil {
			return fmt.Errorf("init blob store: %w", err)
		}
		store = s3Store
	}

	// Email: Resend when a key is configured, otherwise log-only.
	var sender notification.EmailSender
	if cfg.ResendAPIKey != "" {
		sender = notification.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom)
	} else {
		sender = notification.NewLogSender(logger)
	}

	hub := realtime.NewHub()
	sink := analytics.NewPGSink(pool)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(middleware.BodyLimit("1M", "20M"))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		}))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	rateCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateCfg.RequestsPerSecond <= 0 {
		rateCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1 := e.Group("/api/v1", middleware.RateLimit(rateCfg))

	// Domain wiring. The identity service doubles as the contact directory
	// for consultation emails, and the consultation repository scopes
	// document access to the owning patient.
	identityRepo := identity.NewPGRepository(pool)
	identitySvc := identity.NewService(identityRepo, logger)

	consultationRepo := consultation.NewPGRepository(pool)
	consultationSvc := consultation.NewService(consultationRepo, identitySvc, sender, hub, sink, logger)

	documentRepo := document.NewPGRepository(pool)
	documentSvc := document.NewService(documentRepo, consultationRepo, store, cfg.DocumentBucket, sink, logger)

	hospitalRepo := hospital.NewPGRepository(pool)
	hospitalSvc := hospital.NewService(hospitalRepo, store, cfg.ImageBucket, logger)

	identity.NewHandler(identitySvc).RegisterRoutes(apiV1)
	consultation.NewHandler(consultationSvc).RegisterRoutes(apiV1)
	document.NewHandler(documentSvc).RegisterRoutes(apiV1)
	hospital.NewHandler(hospitalSvc).RegisterRoutes(apiV1)
	realtime.NewHandler(hub).RegisterRoutes(apiV1)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
