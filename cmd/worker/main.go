// Package main is the entry point for the bizbook background worker.
// It relays the outbox to Redis and runs the periodic maintenance jobs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"bizbook/internal/config"
	"bizbook/internal/core/apperror"
	appctx "bizbook/internal/core/context"
	"bizbook/internal/domain/auth"
	"bizbook/internal/domain/ledger"
	"bizbook/internal/infrastructure/events"
	"bizbook/internal/infrastructure/lock"
	"bizbook/internal/infrastructure/storage/postgres"
	"bizbook/internal/infrastructure/storage/postgres/auth_repo"
	"bizbook/internal/infrastructure/storage/postgres/ledger_repo"
	"bizbook/pkg/logger"
)

const publishedRetention = 7 * 24 * time.Hour

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting bizbook worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.AppName = "bizbook-worker"
	poolCfg.MaxConns = 5
	poolCfg.MinConns = 1
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	audit, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}

	w := &Worker{
		log:         log.WithComponent("worker"),
		idempotency: postgres.NewIdempotencyStore(txManager, cfg.IdempotencyTTL),
	}

	var locker ledger.Locker = lock.NewLocalLocker()
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		locker = lock.NewRedisLocker(rdb)
		w.relay = postgres.NewOutboxRelay(txManager, 100, events.NewRedisHandler(rdb, cfg.Redis.OutboxChannel))
	} else {
		log.Warn("REDIS_ADDR is not set; outbox relay disabled")
	}

	w.ledger = ledger.NewService(ledger.Config{
		Stores:    ledger_repo.NewStores(txManager),
		TxManager: txManager,
		Audit:     audit,
		Outbox:    postgres.NewOutboxPublisher(txManager),
		Locker:    locker,
	})

	w.auth = auth.NewService(
		auth_repo.NewUserRepo(txManager),
		auth_repo.NewRoleRepo(txManager),
		auth_repo.NewTokenRepo(txManager),
		txManager,
		auth.NewJWTService(auth.DefaultJWTConfig(cfg.Auth.JWTSecret)),
		auth.DefaultServiceConfig(),
	)

	var wg sync.WaitGroup
	for _, j := range w.jobs() {
		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			w.run(ctx, j)
		}(j)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Worker holds the services the background jobs call.
type Worker struct {
	log         *logger.Logger
	relay       *postgres.OutboxRelay
	idempotency *postgres.IdempotencyStore
	ledger      *ledger.Service
	auth        *auth.Service
}

type job struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context) (int64, error)
}

func (w *Worker) jobs() []job {
	jobs := []job{
		{name: "overdue", interval: 15 * time.Minute, fn: func(ctx context.Context) (int64, error) {
			return w.ledger.RefreshOverdue(ctx, time.Now())
		}},
		{name: "recount", interval: 6 * time.Hour, fn: func(ctx context.Context) (int64, error) {
			totals, err := w.ledger.RecalculateCounters(ctx)
			return totals.Products, err
		}},
		{name: "idempotency_cleanup", interval: time.Hour, fn: w.idempotency.CleanupExpired},
		{name: "token_cleanup", interval: time.Hour, fn: w.auth.CleanupExpiredTokens},
	}

	if w.relay != nil {
		jobs = append(jobs,
			job{name: "outbox", interval: 500 * time.Millisecond, fn: func(ctx context.Context) (int64, error) {
				n, err := w.relay.ProcessBatch(ctx)
				return int64(n), err
			}},
			job{name: "outbox_dlq", interval: time.Hour, fn: w.relay.MoveToDLQ},
			job{name: "outbox_purge", interval: time.Hour, fn: func(ctx context.Context) (int64, error) {
				return w.relay.PurgePublished(ctx, publishedRetention)
			}},
		)
	}
	return jobs
}

// run executes j once at start and then on every tick until ctx is done.
func (w *Worker) run(ctx context.Context, j job) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		w.runOnce(ctx, j)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) runOnce(ctx context.Context, j job) {
	n, err := j.fn(appctx.WithJob(ctx, j.name))
	switch {
	case err == nil:
		if n > 0 {
			w.log.Infow("job done", "job", j.name, "count", n)
		}
	case ctx.Err() != nil:
	case apperror.HasCode(err, apperror.CodeConflict):
		// Another instance holds the job lock.
		w.log.Debugw("job skipped", "job", j.name, "reason", err.Error())
	default:
		w.log.Errorw("job failed", "job", j.name, "error", err)
	}
}
