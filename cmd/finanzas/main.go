package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finanzas/internal/auth"
	"finanzas/internal/backend"
	"finanzas/internal/cli"
	apphttp "finanzas/internal/http"
	applog "finanzas/internal/log"
	"finanzas/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).Create(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	secret, err := cli.SessionSecret(logger, cfg)
	if err != nil {
		logger.Error("Failed to prepare session secret", applog.FieldError, err)
		os.Exit(1)
	}
	sessions, err := auth.NewSessionManager(secret, cfg.SessionTTL)
	if err != nil {
		logger.Error("Failed to initialize sessions", applog.FieldError, err)
		os.Exit(1)
	}

	dashboards := services.NewDashboardService(res.Store, res.Store, cfg.DashboardCacheSize, cfg.DashboardCacheTTL)
	transactions := services.NewTransactionService(res.Store, res.Publisher, dashboards)

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		CookieSecure:       cfg.CookieSecure,
	}, apphttp.Deps{
		Auth:         auth.NewService(res.Store, sessions),
		Transactions: transactions,
		Dashboards:   dashboards,
		Store:        res.Store,
		Logger:       logger,
	})
	if err != nil {
		logger.Error("Failed to create HTTP server", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	logger.Info("Starting finanzas server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events_enabled", res.Publisher != nil,
		applog.FieldOperation, applog.OpStartup)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	<-done
	logger.Info("Server stopped gracefully")
}
