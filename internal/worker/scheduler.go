package worker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jimdaga/viralpilot/internal/config"
)

// StartScheduler registers the periodic trend scout on cfg.TrendSchedule
// (a cron spec) and starts the scheduler. Returns a stop function for
// graceful shutdown.
func StartScheduler(cfg *config.Config, logger *slog.Logger) (stop func(), err error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
			Logger:   &asynqLoggerAdapter{logger: logger},
		},
	)

	task, err := newTask(
		TaskScoutTrends,
		scoutPayload{Niche: cfg.TrendNiche},
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
		asynq.Unique(time.Hour),
	)
	if err != nil {
		return nil, err
	}

	entryID, err := scheduler.Register(cfg.TrendSchedule, task)
	if err != nil {
		return nil, fmt.Errorf("failed to register trend schedule: %w", err)
	}

	if err := scheduler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Info(
		"Scheduler started",
		"schedule", cfg.TrendSchedule,
		"niche", cfg.TrendNiche,
		"entry_id", entryID,
	)
	return func() { scheduler.Shutdown() }, nil
}
