package scheduler

import (
	"context"
	"fmt"
	"time"

	"hooknotify_backend/platform/config"

	"github.com/redis/go-redis/v9"
)

const (
	runLockPrefix = "hooknotify:maintenance:"
	// runLockTTL outlives the day so a late run cannot take it again.
	runLockTTL = 36 * time.Hour
)

// RunLock lets one maintenance run per calendar day through across every
// API and worker process sharing the redis instance.
type RunLock struct {
	client *redis.Client
}

func NewRunLock(cfg config.SchedulerConfig) (*RunLock, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	opt.TLSConfig = tlsConfig(opt.TLSConfig, cfg.GetRedisTLSInsecure())

	return NewRunLockWithClient(redis.NewClient(opt)), nil
}

func NewRunLockWithClient(client *redis.Client) *RunLock {
	return &RunLock{client: client}
}

// Acquire reports whether the caller is the first to claim day.
func (l *RunLock) Acquire(ctx context.Context, day string) (bool, error) {
	ok, err := l.client.SetNX(ctx, runLockPrefix+day, time.Now().UTC().Format(time.RFC3339), runLockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("acquire maintenance lock: %w", err)
	}
	return ok, nil
}

// Release gives day back so a retry of a failed run can acquire it.
func (l *RunLock) Release(ctx context.Context, day string) error {
	if err := l.client.Del(ctx, runLockPrefix+day).Err(); err != nil {
		return fmt.Errorf("release maintenance lock: %w", err)
	}
	return nil
}

func (l *RunLock) Close() error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Close()
}
