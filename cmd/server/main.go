/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the shift payroll server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env file, then environment, then flags)
  2. Initialize SQLite store and seed the job configuration
  3. Create API handler with dependencies
  4. Start the calendar sync when a calendar token is configured
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides APP_ADDR)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for in-memory database
  -env     Dotenv file (default: .env)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the calendar sync
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/payroll.db"

  # Run with in-memory database and the demo scenarios
  ./server -db=":memory:"

  # Run on different port
  ./server -port=3000

ENVIRONMENT:
  See package config for the full list.

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
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
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/shift-payroll/api"
	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/config"
	"github.com/warp/shift-payroll/factory"
	"github.com/warp/shift-payroll/jobs"
	"github.com/warp/shift-payroll/logging"
	"github.com/warp/shift-payroll/payroll"
	"github.com/warp/shift-payroll/store"
	"github.com/warp/shift-payroll/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// Flags
	port := flag.Int("port", 0, "HTTP server port")
	dbPath := flag.String("db", "", "SQLite database path")
	envFile := flag.String("env", ".env", "dotenv file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *port != 0 {
		cfg.Addr = fmt.Sprintf(":%d", *port)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	logger, err := logging.New(cfg.Environment)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	// Initialize store
	st, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer st.Close()

	seed, err := seedConfig(cfg.JobsFile)
	if err != nil {
		return err
	}
	jobCfg, err := store.EnsureConfig(context.Background(), st, seed)
	if err != nil {
		return fmt.Errorf("seed job configuration: %w", err)
	}
	logger.Info("job configuration loaded", zap.Int("jobs", len(jobCfg.Jobs)), zap.Bool("dotenv", cfg.DotEnvLoaded))

	hash, err := cfg.SettingsHash()
	if err != nil {
		return fmt.Errorf("hash settings password: %w", err)
	}
	if hash == "" {
		logger.Warn("no settings password configured, wage edits are disabled")
	}

	// Initialize handler
	handler := api.NewHandler(st, logger, api.AuthConfig{
		PasswordHash: hash,
		Secret:       cfg.JWTSecret,
		TokenTTL:     cfg.TokenTTL,
	})
	handler.DemoScenarios = !cfg.IsProduction()

	if cfg.CalendarSyncEnabled() {
		sync := api.NewCalendarSync(st, calendar.HTTPSource{
			CalendarID:  cfg.CalendarID,
			AccessToken: cfg.CalendarToken,
			Client:      &http.Client{Timeout: 30 * time.Second},
			Jobs:        &jobCfg,
		}, logger)
		sync.CheckInterval = cfg.CalendarInterval
		sync.Start()
		defer sync.Stop()
	}

	// Create router
	router := api.NewRouter(handler, cfg.CORSOrigins)

	// Create server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Addr), zap.String("env", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// seedConfig returns the configuration stored on first start.
func seedConfig(path string) (payroll.Config, error) {
	if path == "" {
		return jobs.Default(), nil
	}
	cfg, err := factory.NewJobFactory().LoadFile(path)
	if err != nil {
		return payroll.Config{}, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}
