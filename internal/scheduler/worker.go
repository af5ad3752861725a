package scheduler

import (
	"context"
	"fmt"

	"hooknotify_backend/internal/notification"
	"hooknotify_backend/platform/config"
	"hooknotify_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// MaintenanceRunner performs the daily maintenance job.
type MaintenanceRunner interface {
	Run(ctx context.Context) (notification.MaintenanceReport, error)
}

type Worker struct {
	server      *asynq.Server
	mux         *asynq.ServeMux
	maintenance MaintenanceRunner
	log         *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, maintenance MaintenanceRunner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 2
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:      server,
		mux:         mux,
		maintenance: maintenance,
		log:         log,
	}

	mux.HandleFunc(TaskDailyMaintenance, w.handleDailyMaintenance)

	return w, nil
}

// Run processes tasks until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("start scheduler worker: %w", err)
	}
	w.log.Info("scheduler worker started")

	<-ctx.Done()
	w.server.Shutdown()
	return nil
}

func (w *Worker) handleDailyMaintenance(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDailyMaintenancePayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	report, err := w.maintenance.Run(ctx)
	if err != nil {
		return err
	}

	w.log.Info("daily maintenance finished",
		"source", payload.Source,
		"skipped", report.Skipped,
		"logsPurged", report.LogsPurged,
		"accountUpdated", report.AccountUpdated,
	)
	return nil
}
