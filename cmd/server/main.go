/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the attendance, ranking and payroll server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env and the YAML config
  2. Build the logger
  3. Initialize SQLite store
  4. Create API handler with dependencies
  5. Configure HTTP router
  6. Start the draft scheduler if enabled
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML config file (optional)
  -port    HTTP server port, overrides the config file
  -db      SQLite database path, overrides the config file
           Use ":memory:" for in-memory database

ENVIRONMENT:
  ATTENDANCE_PORT, ATTENDANCE_DB, ATTENDANCE_LOG_LEVEL
  A .env file in the working directory is loaded first.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (server.shutdown_timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with a config file
  ./server -config=./config.yaml

  # Run with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - config/config.go: Configuration sources
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/config"
	"github.com/warp/attendance-engine/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML config file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		logrus.Fatalf("Failed to load .env: %v", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	logger := cfg.Log.NewLogger(os.Stdout)

	// Initialize store
	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			logger.Fatalf("Failed to create database directory: %v", err)
		}
	}
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store, logger, api.Options{
		Engine:          cfg.Engine,
		Settings:        cfg.Settings,
		Holidays:        cfg.HolidayDates,
		CalendarWorkers: cfg.Server.CalendarWorkers,
	})

	// Create router
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins)

	scheduler := api.NewDraftScheduler(handler)
	scheduler.Enabled = cfg.Scheduler.Enabled
	scheduler.CheckInterval = cfg.Scheduler.Interval
	scheduler.Start()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.WithFields(logrus.Fields{
			"port":     cfg.Server.Port,
			"database": cfg.Database.Path,
		}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
		return
	}

	logger.Info("server stopped")
}
