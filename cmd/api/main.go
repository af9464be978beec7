// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Api is the entry point for the Aegis HTTP API server.

The server provides a backend for account registration, authentication, and
administrative user management: email/phone verification, password recovery,
and a role-hierarchy-enforced admin surface.

Usage:

	go run cmd/api/main.go [flags]

The flags/environment variables are:

	PORT              Port to listen on (default: 8080)
	APP_ENV           deployment environment (development, production)
	DATABASE_URL      Postgres connection string (assembled from DB_* vars)
	REDIS_URL         Redis connection string (required)
	JWT_SECRET        HMAC signing secret for all bearer tokens (required)

Startup Sequence:

 1. Logger: Initialize structured JSON logging (slog).
 2. Config: Load and validate environment variables.
 3. Storage: Establish connections to Postgres and Redis.
 4. Migration: Run idempotent schema updates.
 5. Wiring: Inject dependencies into domain services/handlers.
 6. Server: Bind HTTP listener and handle graceful shutdown.

No business logic lives here. This file is strictly for orchestration and wiring.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/aegis/internal/api"
	"github.com/taibuivan/aegis/internal/identity"
	"github.com/taibuivan/aegis/internal/platform/config"
	"github.com/taibuivan/aegis/internal/platform/constants"
	"github.com/taibuivan/aegis/internal/platform/migration"
	"github.com/taibuivan/aegis/internal/platform/notify"
	pgstore "github.com/taibuivan/aegis/internal/platform/postgres"
	redisstore "github.com/taibuivan/aegis/internal/platform/redis"
	"github.com/taibuivan/aegis/internal/platform/sec"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application_startup_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// # 1. Logger
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries for trace correlation
	log := rawLog.With(slog.String("app", "aegis"))
	slog.SetDefault(log)

	log.Info("[Aegis] service_initializing")

	// # 2. Configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.Port),
	)

	// Root context for startup. A 30s deadline prevents the app from hanging.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// # 3. PostgreSQL
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseDSN(), cfg.DBMaxConns, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// # 4. Redis
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// # 5. Migrations
	if err := migration.RunUp(cfg.DatabaseDSN(), cfg.MigrationPath, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// # 6. Platform Services
	tokenSvc, err := sec.NewTokenService(cfg.JWTSecret, constants.AuthIssuer)
	if err != nil {
		return fmt.Errorf("initialize token service: %w", err)
	}
	limiter := redisstore.NewLimiter(rdb)
	algo := sec.HashAlgo(cfg.PasswordHashAlgo)
	mailer := &notify.LoggingMailer{Logger: log, From: cfg.MailFromAddress}
	smsGateway := &notify.LoggingSMSGateway{Logger: log, From: cfg.SMSFromNumber}
	clock := notify.SystemClock{}

	// # 7. Health Wiring
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// # 8. Identity Domain Wiring
	store := identity.NewPostgresStore(pool)
	credentialSvc := identity.NewCredentialService(store, tokenSvc, mailer, clock, limiter, algo, cfg.AppBaseURL, log)
	verificationSvc := identity.NewVerificationService(store, mailer, smsGateway, clock, limiter, cfg.AppBaseURL, cfg.SMSFromNumber, log)
	accountSvc := identity.NewAccountService(store, algo)

	authHdl := identity.NewAuthHandler(credentialSvc, verificationSvc, accountSvc)
	adminHdl := identity.NewAdminHandler(accountSvc)

	// # 9. API Assembly
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHdl,
		Admin:     adminHdl,
	}

	// Create a background context for the whole application lifecycle
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	server := api.NewServer(appCtx, cfg, log, tokenSvc, handlers)

	// # 10. Lifecycle Handling
	shutdownErr := make(chan error, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			shutdownErr <- fmt.Errorf("http_server_crash: %w", err)
		}
	}()

	log.Info("aegis_api_running", slog.String("port", cfg.Port))

	// Block until signal or error
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-shutdownErr:
		return err
	}

	// Start Graceful Shutdown Sequence
	appCancel() // Signal background workers to stop

	log.Info("shutting_down_api_server", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		return fmt.Errorf("server_shutdown_failed: %w", err)
	}

	log.Info("graceful_shutdown_complete")
	return nil
}
