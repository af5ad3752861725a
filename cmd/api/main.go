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

	"hooknotify_backend/internal/adapters/storage"
	"hooknotify_backend/internal/events"
	apphttp "hooknotify_backend/internal/http"
	"hooknotify_backend/internal/http/router"
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

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

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
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	box, err := secretbox.New(cfg.GetSecretEncryptionKey())
	if err != nil {
		panic("failed to initialize credential encryption: " + err.Error())
	}

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	notificationModule, err := notification.New(pool, box, cfg, val, log)
	if err != nil {
		log.Error("failed to initialize notification module", "error", err)
		panic("failed to initialize notification module: " + err.Error())
	}
	if err := notificationModule.SeedTemplates(ctx); err != nil {
		log.Error("failed to seed message templates", "error", err)
		panic("failed to seed message templates: " + err.Error())
	}

	if billets := initBilletStore(ctx, cfg, log); billets != nil {
		notificationModule.SetBilletStore(billets)
	}

	closeScheduler := initScheduling(cfg, notificationModule, log)
	defer closeScheduler()

	notificationModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules:  []apphttp.Module{notificationModule},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
}

func initBilletStore(ctx context.Context, cfg config.StorageConfig, log *logger.Logger) notification.BilletStore {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; payment slip attachments disabled")
		return nil
	}

	store, err := storage.NewMinIOBilletStore(cfg)
	if err != nil {
		log.Error("failed to initialize billet store", "error", err)
		panic("failed to initialize billet store: " + err.Error())
	}
	if err := withRetry(ctx, log, "ensure billets bucket", 5, 2*time.Second, func() error {
		return store.EnsureBucketExists(ctx)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinIOBucketBillets())
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("billet store initialized", "bucket", cfg.GetMinIOBucketBillets())
	return store
}

// initScheduling moves maintenance onto the worker and shares its daily lock.
// Without redis the module runs maintenance inline.
func initScheduling(cfg config.SchedulerConfig, module *notification.Module, log *logger.Logger) func() {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; daily maintenance runs in-process")
		return func() {}
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize maintenance scheduler client", "error", err)
		return func() {}
	}
	lock, err := scheduler.NewRunLock(cfg)
	if err != nil {
		log.Error("failed to initialize maintenance run lock", "error", err)
		_ = client.Close()
		return func() {}
	}

	module.SetMaintenanceEnqueuer(client)
	module.SetDailyLock(lock)

	return func() {
		_ = client.Close()
		_ = lock.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
