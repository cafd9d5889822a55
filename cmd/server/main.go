package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"vidvault/internal/api/handler"
	"vidvault/internal/api/router"
	"vidvault/internal/config"
	"vidvault/internal/fetch"
	"vidvault/internal/orchestrator"
	"vidvault/internal/reclaim"
	"vidvault/internal/store"
	"vidvault/shared/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("VIDVAULT_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/server/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting server",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Prepare artifact storage
	if err := os.MkdirAll(cfg.Storage.DownloadDir, 0o755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	// Make sure a yt-dlp binary is available before accepting work
	installCtx, installCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer installCancel()
	if err := fetch.Install(installCtx); err != nil {
		return err
	}

	appLogger.Info("Fetch backend ready")

	// Build the core: stores, backend, orchestrator, reclaimer
	jobs := store.NewJobStore()
	tokens := store.NewTokenStore(cfg.Retention.TokenTTL)
	backend := fetch.NewYTDLP(appLogger.Logger)

	orch := orchestrator.New(&orchestrator.Config{
		Logger:      appLogger.Logger,
		Jobs:        jobs,
		Tokens:      tokens,
		Backend:     backend,
		DownloadDir: cfg.Storage.DownloadDir,
		Concurrency: cfg.Fetch.Concurrency,
	})

	reclaimer := reclaim.New(&reclaim.Config{
		Logger:      appLogger.Logger,
		Jobs:        jobs,
		Tokens:      tokens,
		DownloadDir: cfg.Storage.DownloadDir,
		Interval:    cfg.Retention.SweepInterval,
		TokenTTL:    cfg.Retention.TokenTTL,
		JobTTL:      cfg.Retention.JobTTL,
	})

	reclaimCtx, stopReclaimer := context.WithCancel(context.Background())
	defer stopReclaimer()
	go reclaimer.Run(reclaimCtx)

	// Initialize router
	r := initRouter(cfg, appLogger.Logger, orch, tokens)

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed to start",
				slog.Any("error", err),
			)
			os.Exit(1)
		}
	}()

	appLogger.Info("Server is running",
		slog.String("address", addr),
	)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop background activity first: no new reclaim cycles, let in-flight
	// jobs finish or get cancelled at the deadline.
	stopReclaimer()
	if err := orch.Shutdown(ctx); err != nil {
		appLogger.Warn("Orchestrator shutdown incomplete",
			slog.Any("error", err),
		)
	}

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown",
			slog.Any("error", err),
		)
		return err
	}

	appLogger.Info("Server shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(cfg *config.Config, logger *slog.Logger, orch *orchestrator.Orchestrator, tokens *store.TokenStore) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	deps := &handler.Dependencies{
		Logger:       logger,
		Orchestrator: orch,
		Tokens:       tokens,
		Quality:      cfg.Fetch.DefaultQuality,
	}

	return router.SetupRouter(deps)
}
