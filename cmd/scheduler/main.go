package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hooknotify_backend/internal/adapters/storage"
	"hooknotify_backend/internal/notification"
	"hooknotify_backend/internal/scheduler"
	"hooknotify_backend/platform/config"
	"hooknotify_backend/platform/db"
	"hooknotify_backend/platform/logger"
	"hooknotify_backend/platform/secretbox"
	"hooknotify_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "cron", cfg.GetMaintenanceCron())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	box, err := secretbox.New(cfg.GetSecretEncryptionKey())
	if err != nil {
		panic("failed to initialize credential encryption: " + err.Error())
	}

	notificationModule, err := notification.New(pool, box, cfg, validator.New(), log)
	if err != nil {
		log.Error("failed to initialize notification module", "error", err)
		panic("failed to initialize notification module: " + err.Error())
	}
	if cfg.IsMinIOEnabled() {
		billets, err := storage.NewMinIOBilletStore(cfg)
		if err != nil {
			log.Error("failed to initialize billet store", "error", err)
			panic("failed to initialize billet store: " + err.Error())
		}
		notificationModule.SetBilletStore(billets)
	}

	lock, err := scheduler.NewRunLock(cfg)
	if err != nil {
		log.Error("failed to initialize maintenance run lock", "error", err)
		panic("failed to initialize maintenance run lock: " + err.Error())
	}
	defer func() { _ = lock.Close() }()
	notificationModule.SetDailyLock(lock)

	worker, err := scheduler.NewWorker(cfg, notificationModule.Maintenance(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	periodic, err := scheduler.NewPeriodic(cfg, log)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		return periodic.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		log.Error("scheduler stopped", "error", err)
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
