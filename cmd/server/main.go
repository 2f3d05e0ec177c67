// Package main is the entry point for the bizbook API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"bizbook/internal/config"
	"bizbook/internal/domain/auth"
	"bizbook/internal/domain/ledger"
	v1 "bizbook/internal/infrastructure/http/v1"
	"bizbook/internal/infrastructure/http/v1/handlers"
	"bizbook/internal/infrastructure/http/v1/middleware"
	"bizbook/internal/infrastructure/lock"
	"bizbook/internal/infrastructure/mail"
	"bizbook/internal/infrastructure/rules"
	"bizbook/internal/infrastructure/storage/postgres"
	"bizbook/internal/infrastructure/storage/postgres/auth_repo"
	"bizbook/pkg/logger"
	"bizbook/pkg/numerator"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()
	log.Infow("starting bizbook server", "version", version, "env", cfg.Env)

	// --- Migrations ---
	migrator := postgres.NewMigrator(cfg.Database.URL, cfg.Migrations.Path)
	if cfg.Migrations.Auto {
		status, err := migrator.Up()
		if err != nil {
			log.Fatalw("failed to apply migrations", "error", err)
		}
		log.Infow("database schema ready", "version", status.Version, "applied", status.Applied)
	}

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	audit, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}

	checks := map[string]handlers.Pinger{"postgres": pool}

	// --- Locks ---
	var locker ledger.Locker = lock.NewLocalLocker()
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		locker = lock.NewRedisLocker(rdb)
		checks["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		log.Infow("redis locks enabled", "addr", cfg.Redis.Addr)
	}

	// --- Auth ---
	jwtConfig := auth.DefaultJWTConfig(cfg.Auth.JWTSecret)
	jwtConfig.AccessTokenTTL = cfg.Auth.AccessTTL
	jwtService := auth.NewJWTService(jwtConfig)

	authConfig := auth.DefaultServiceConfig()
	authConfig.RefreshTokenExpiry = cfg.Auth.RefreshTTL
	authService := auth.NewService(
		auth_repo.NewUserRepo(txManager),
		auth_repo.NewRoleRepo(txManager),
		auth_repo.NewTokenRepo(txManager),
		txManager,
		jwtService,
		authConfig,
	)

	authLimiter, err := middleware.NewIPLimiter(cfg.Auth.RateLimit)
	if err != nil {
		log.Fatalw("invalid AUTH_RATE_LIMIT", "value", cfg.Auth.RateLimit, "error", err)
	}

	// --- Business rules ---
	approver, err := rules.NewExpenseApprover(cfg.ExpenseAutoApproveRule)
	if err != nil {
		log.Fatalw("invalid EXPENSE_AUTO_APPROVE_RULE", "error", err)
	}

	// Strict numbers are allocated on the business transaction.
	numeratorService := numerator.NewWithQuerier(func(ctx context.Context) numerator.Querier {
		return txManager.GetQuerier(ctx)
	})

	mailer := mail.NewSMTPSender(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	if cfg.SMTP.Host == "" {
		log.Warn("SMTP_HOST is not set; email delivery will fail")
	}

	// --- Router ---
	router, err := v1.NewRouter(v1.RouterConfig{
		Logger:           log,
		Version:          version,
		TxManager:        txManager,
		Numerator:        numeratorService,
		Audit:            audit,
		Outbox:           postgres.NewOutboxPublisher(txManager),
		Locker:           locker,
		AuthService:      authService,
		IdempotencyStore: postgres.NewIdempotencyStore(txManager, cfg.IdempotencyTTL),
		AuthLimiter:      authLimiter,
		Mailer:           mailer,
		ExpenseApprover:  approver,
		Migrator:         migrator,
		HealthChecks:     checks,
		CORSOrigins:      cfg.CORSAllowedOrigins,
		PhoneRegion:      cfg.PhoneDefaultRegion,
	})
	if err != nil {
		log.Fatalw("failed to build router", "error", err)
	}

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
