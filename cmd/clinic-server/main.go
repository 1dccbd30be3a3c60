package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mamacare/clinic/internal/config"
	"github.com/mamacare/clinic/internal/domain/billing"
	"github.com/mamacare/clinic/internal/domain/dashboard"
	"github.com/mamacare/clinic/internal/domain/obstetrics"
	"github.com/mamacare/clinic/internal/domain/patient"
	"github.com/mamacare/clinic/internal/domain/scheduling"
	"github.com/mamacare/clinic/internal/platform/auth"
	"github.com/mamacare/clinic/internal/platform/db"
	"github.com/mamacare/clinic/internal/platform/logging"
	"github.com/mamacare/clinic/internal/platform/metrics"
	"github.com/mamacare/clinic/internal/platform/middleware"
	"github.com/mamacare/clinic/migrations"
)

const version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "clinic-server",
		Short:        "Maternal clinic records API server",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(tokenCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (zerolog.Logger, io.Closer) {
	return logging.New(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Console: cfg.IsDev(),
	})
}

func openPool(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*pgxpool.Pool, error) {
	return db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
		Logger:   logger,
	})
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := openPool(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, migrations.FS).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := openPool(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrations.FS).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printStatuses(cmd.OutOrStdout(), statuses)
			return nil
		},
	})

	return cmd
}

func printStatuses(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage staff access tokens",
	}

	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue a signed staff bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, _ := cmd.Flags().GetString("subject")
			name, _ := cmd.Flags().GetString("name")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if subject == "" {
				return fmt.Errorf("--subject is required")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.AuthSigningKey == "" {
				return fmt.Errorf("AUTH_SIGNING_KEY is not set")
			}

			tok, err := auth.IssueToken(authConfig(cfg), subject, name, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	issue.Flags().String("subject", "", "Staff identifier placed in the sub claim")
	issue.Flags().String("name", "", "Display name")
	issue.Flags().Duration("ttl", 12*time.Hour, "Token lifetime")
	cmd.AddCommand(issue)

	return cmd
}

func authConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		SigningKey: []byte(cfg.AuthSigningKey),
		Issuer:     cfg.AuthIssuer,
		Dev:        cfg.IsDev(),
	}
}

// app holds everything the HTTP server is built from.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	pool    *pgxpool.Pool
	metrics *metrics.Metrics
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, closer := newLogger(cfg)
	defer closer.Close()

	ctx := context.Background()
	pool, err := openPool(ctx, cfg, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e, err := newServer(&app{
		cfg:     cfg,
		logger:  logger,
		pool:    pool,
		metrics: metrics.New(prometheus.NewRegistry()),
	})
	if err != nil {
		return err
	}

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("version", version).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newServer wires repositories, services and handlers onto a new Echo
// instance. It does not touch the database.
func newServer(a *app) (*echo.Echo, error) {
	cfg := a.cfg
	charge, err := cfg.ChargeAmount()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(a.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.Sanitize(a.logger))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader},
	}))
	e.Use(a.metrics.Middleware())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(a.pool, func() *db.PoolStats { return db.GetPoolStats(a.pool) }))
	e.GET("/metrics", echo.WrapHandler(a.metrics.Handler()))

	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	apiV1.Use(auth.Middleware(authConfig(cfg)))
	apiV1.Use(middleware.Audit(a.logger))

	tx := db.NewTransactor(a.pool)

	patientSvc := patient.NewService(patient.NewRepoPG(a.pool), cfg.PhoneRegion)
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)

	schedulingSvc := scheduling.NewService(scheduling.NewRepoPG(a.pool), patientSvc)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(apiV1)

	billingSvc := billing.NewService(billing.NewRepoPG(a.pool), patientSvc, charge, a.metrics)
	billing.NewHandler(billingSvc).RegisterRoutes(apiV1)

	obstetricsSvc := obstetrics.NewService(
		obstetrics.NewDeliveryRepoPG(a.pool),
		obstetrics.NewDischargeRepoPG(a.pool),
		patientSvc,
		billingSvc,
		tx,
		a.metrics,
		a.logger,
	)
	obstetrics.NewHandler(obstetricsSvc).RegisterRoutes(apiV1)

	dashboardSvc := dashboard.NewService(patientSvc, schedulingSvc, obstetricsSvc, billingSvc, tx, loc)
	dashboard.NewHandler(dashboardSvc).RegisterRoutes(apiV1)

	return e, nil
}
