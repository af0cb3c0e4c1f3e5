package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	portsrepo "github.com/kobisoft/mutabakat_app/internal/core/ports/repositories"
	"github.com/kobisoft/mutabakat_app/internal/core/services"
	"github.com/kobisoft/mutabakat_app/internal/handlers"
	"github.com/kobisoft/mutabakat_app/internal/middleware"
	"github.com/kobisoft/mutabakat_app/internal/platform/config"
	"github.com/kobisoft/mutabakat_app/internal/repositories/database/pgsql"
	"github.com/kobisoft/mutabakat_app/internal/utils"
	"github.com/kobisoft/mutabakat_app/pkg/database"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// @title Mutabakat Backend API
// @version 1.0
// @description Reconciliation document lifecycle and bulk import backend.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established")

	if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, logger)
	defer posthogClient.Close()

	r := gin.New()

	// Global middleware (logging, recovery, CORS, analytics)
	r.Use(
		middleware.StructuredLoggingMiddleware(logger),
		gin.Recovery(),
		cors.Default(),
		middleware.PosthogMiddleware(posthogClient),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repos := pgsql.NewRepositoryProvider(dbPool)
	serviceContainer := services.NewServiceContainer(cfg, &repos)

	handlers.RegisterRoutes(r, cfg, serviceContainer)

	scheduler := startTokenPurgeJob(cfg, &repos, logger)
	defer scheduler.Stop()

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runMigrations applies all pending "up" migrations through a temporary
// database/sql connection compatible with the main pgx pool.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	upErr := m.Up()
	if upErr != nil && upErr != migrate.ErrNoChange {
		return upErr
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if upErr == migrate.ErrNoChange {
		logger.Info("No new migrations to apply")
	} else {
		logger.Info("Database migrations applied successfully")
	}
	return nil
}

// startTokenPurgeJob schedules the nightly cleanup of consumed approval
// tokens past the retention window.
func startTokenPurgeJob(cfg *config.Config, repos *portsrepo.RepositoryProvider, logger *slog.Logger) *cron.Cron {
	scheduler := cron.New()
	retention := time.Duration(cfg.TokenRetentionDays) * 24 * time.Hour

	_, err := scheduler.AddFunc("0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		cutoff := time.Now().UTC().Add(-retention)
		purged, err := repos.TokenRepo.PurgeConsumedBefore(ctx, cutoff)
		if err != nil {
			logger.Error("Failed to purge consumed approval tokens", slog.String("error", err.Error()))
			return
		}
		logger.Info("Purged consumed approval tokens",
			slog.Int64("count", purged),
			slog.Time("cutoff", cutoff))
	})
	if err != nil {
		logger.Error("Failed to schedule token purge job", slog.String("error", err.Error()))
	}

	scheduler.Start()
	return scheduler
}
