package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/manorfm/cpa-auth/internal/application"
	"github.com/manorfm/cpa-auth/internal/infrastructure/config"
	"github.com/manorfm/cpa-auth/internal/infrastructure/database"
	"github.com/manorfm/cpa-auth/internal/infrastructure/instrumentation"
	"github.com/manorfm/cpa-auth/internal/infrastructure/jwt"
	"github.com/manorfm/cpa-auth/internal/infrastructure/repository"
	httprouter "github.com/manorfm/cpa-auth/internal/interfaces/http"
	"go.uber.org/zap"
)

// @title CPA Authorization Server API
// @version 1.0
// @description Companion device pairing and OAuth token endpoints
// @host localhost:8080
// @BasePath /
func main() {
	migrateOnStart := flag.Bool("migrate", false, "Apply pending migrations before serving")
	migrationDir := flag.String("migrations", "migrations", "Migration directory path")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *migrateOnStart {
		if err := database.RunMigrations(cfg, *migrationDir, logger); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	// Create database connection
	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	metrics, err := instrumentation.NewMetrics()
	if err != nil {
		logger.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	sessions := jwt.NewSessionManager(cfg.SessionSecret, cfg.SessionDuration, logger)

	cleanup := application.NewCleanupService(
		repository.NewOAuth2Repository(db, logger),
		cfg.CleanupSchedule,
		metrics,
		logger,
		sessions.PurgeBlacklist,
	)
	if err := cleanup.Start(); err != nil {
		logger.Fatal("Failed to start cleanup", zap.Error(err))
	}
	defer cleanup.Stop()

	// Create router
	router := httprouter.NewRouter(db, sessions, cfg, metrics, logger)
	defer router.Close()

	// Start server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", zap.Int("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("Server exited properly")
}
