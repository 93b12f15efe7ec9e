// Package cli holds the startup and shutdown steps shared by cmd/finanzas
// and cmd/finanzas-worker.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finanzas/internal/config"
	applog "finanzas/internal/log"
)

// SetupLogger builds the process logger at the LOG_LEVEL from the
// environment and installs it as the slog default.
func SetupLogger(component string) *applog.Logger {
	return setupLogger(os.Stdout, os.Getenv("LOG_LEVEL"), component)
}

func setupLogger(out io.Writer, level, component string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Component: component,
		Output:    out,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig exits the process when the web server settings
// are invalid.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	return loadOrExit(logger, (*config.Config).Validate)
}

// LoadAndValidateWorkerConfig is LoadAndValidateConfig for the sheets worker.
func LoadAndValidateWorkerConfig(logger *applog.Logger) *config.Config {
	return loadOrExit(logger, (*config.Config).ValidateWorker)
}

func loadOrExit(logger *applog.Logger, validate func(*config.Config) error) *config.Config {
	cfg := config.Load()
	if err := validate(cfg); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// SessionSecret returns the configured secret, or a random one when the
// memory backend runs without SESSION_SECRET.
func SessionSecret(logger *applog.Logger, cfg *config.Config) (string, error) {
	if !cfg.EphemeralSecret() {
		return cfg.SessionSecret, nil
	}
	secret, err := randomSecret()
	if err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	logger.Warn("SESSION_SECRET not set, using a per-process secret; sessions end on restart")
	return secret, nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. After
// the signal, cleanup runs with a context bounded by timeout and the
// returned channel closes once it has finished.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return ctx, runOnCancel(ctx, stop, logger, timeout, cleanup)
}

func runOnCancel(ctx context.Context, stop context.CancelFunc, logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		stop()
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
			return
		}
		logger.Info("Shutdown complete")
	}()
	return done
}
