// Package cli provides common CLI initialization utilities shared by
// cmd/salesdash and cmd/salesdash-import.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"salesdash/internal/config"
	applog "salesdash/internal/log"
	"salesdash/internal/storage"
)

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT
// and installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	level, err := applog.ParseLevel(cfg.LogLevel)
	logger := applog.New(applog.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: component,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info log level", "error", err)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// MustLoadConfig is LoadAndValidateConfig for main functions: it sets up
// logging and exits the process when the configuration is invalid.
func MustLoadConfig(component string) (*config.Config, *applog.Logger) {
	LoadEnvFile()
	cfg, err := LoadAndValidateConfig()
	logger := SetupLogger(cfg, component)
	if err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg, logger
}

// InitSQLite initializes a SQLite repository with the given path.
func InitSQLite(logger *applog.Logger, dbPath string) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", dbPath)
		return nil, fmt.Errorf("init sqlite: %w", err)
	}
	return repo, nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM.
// The returned stop function releases the signal handler.
func GracefulShutdown(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)
	}()
	return ctx, stop
}
