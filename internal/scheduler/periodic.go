package scheduler

import (
	"context"
	"fmt"
	"time"

	"hooknotify_backend/platform/config"
	"hooknotify_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Periodic enqueues the daily maintenance task on its cron schedule.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*Periodic, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	cronSpec := cfg.GetMaintenanceCron()
	if cronSpec == "" {
		return nil, fmt.Errorf("maintenance cron not configured")
	}

	s := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		Location: time.Local,
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				log.Warn("periodic enqueue failed", "error", err)
				return
			}
			log.Debug("periodic task enqueued", "task", info.Type, "id", info.ID)
		},
	})

	task, err := NewDailyMaintenanceTask(DailyMaintenancePayload{Source: "cron"})
	if err != nil {
		return nil, err
	}
	if _, err := s.Register(cronSpec, task, asynq.Queue(queueName(cfg)), asynq.MaxRetry(3)); err != nil {
		return nil, fmt.Errorf("register maintenance schedule %q: %w", cronSpec, err)
	}

	return &Periodic{scheduler: s, log: log}, nil
}

// Run starts the scheduler and stops it when ctx is done.
func (p *Periodic) Run(ctx context.Context) error {
	if err := p.scheduler.Start(); err != nil {
		return err
	}
	p.log.Info("periodic scheduler started")

	<-ctx.Done()
	p.scheduler.Shutdown()
	return nil
}
