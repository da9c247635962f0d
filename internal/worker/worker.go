package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jimdaga/viralpilot/internal/config"
	"github.com/jimdaga/viralpilot/internal/service"
	"github.com/jimdaga/viralpilot/internal/store"
)

// Concurrency is the number of tasks a worker processes at once
const Concurrency = 5

// Processor carries out the work behind each task type. *service.Service
// implements it.
type Processor interface {
	ProcessVideo(ctx context.Context, job service.MediaJob) error
	ProcessAudio(ctx context.Context, job service.MediaJob) error
	ProcessPublish(ctx context.Context, job service.PublishJob) error
	ScoutScheduled(ctx context.Context, niche string) (store.TrendReport, error)
}

// asynqLoggerAdapter wraps slog.Logger to implement asynq.Logger interface
type asynqLoggerAdapter struct {
	logger *slog.Logger
}

func (a *asynqLoggerAdapter) Debug(args ...interface{}) {
	a.logger.Debug(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Info(args ...interface{}) {
	a.logger.Info(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Warn(args ...interface{}) {
	a.logger.Warn(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Error(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Fatal(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
	panic(fmt.Sprint(args...))
}

// Run starts the worker server and blocks until a shutdown signal.
// Use this for standalone worker mode.
func Run(cfg *config.Config, proc Processor, logger *slog.Logger) error {
	srv, mux, err := newServer(cfg, proc, logger)
	if err != nil {
		return err
	}
	return srv.Run(mux)
}

// Start starts the worker in non-blocking mode and returns a stop function.
// Use this for embedded mode so the caller can coordinate shutdown.
func Start(cfg *config.Config, proc Processor, logger *slog.Logger) (stop func(), err error) {
	srv, mux, err := newServer(cfg, proc, logger)
	if err != nil {
		return nil, err
	}
	if err := srv.Start(mux); err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}
	return func() { srv.Shutdown() }, nil
}

func newServer(cfg *config.Config, proc Processor, logger *slog.Logger) (*asynq.Server, *asynq.ServeMux, error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     Concurrency,
			ShutdownTimeout: 30 * time.Second,
			ErrorHandler:    asynq.ErrorHandlerFunc(makeErrorHandler(logger)),
			Logger:          &asynqLoggerAdapter{logger: logger},
		},
	)

	logger.Info("Worker starting", "concurrency", Concurrency)
	return srv, newMux(proc, logger), nil
}

func newMux(proc Processor, logger *slog.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskGenerateVideo, handleMedia(logger, TaskGenerateVideo, proc.ProcessVideo))
	mux.HandleFunc(TaskSynthesizeAudio, handleMedia(logger, TaskSynthesizeAudio, proc.ProcessAudio))
	mux.HandleFunc(TaskPublishWordPress, handlePublish(logger, proc))
	mux.HandleFunc(TaskScoutTrends, handleScout(logger, proc))
	return mux
}

// handleMedia runs one media task. Bad payloads and jobs whose post is gone
// or no longer in progress are not retried.
func handleMedia(logger *slog.Logger, taskType string, process func(context.Context, service.MediaJob) error) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		// Parse task payload
		var job service.MediaJob
		if err := json.Unmarshal(task.Payload(), &job); err != nil {
			return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
		}

		logger.Info("Processing task", "task_type", taskType, "campaign_id", job.CampaignID, "post", job.PostIndex, "user_id", job.UserID)
		if err := process(ctx, job); err != nil {
			return classify(err)
		}
		logger.Info("Task completed", "task_type", taskType, "campaign_id", job.CampaignID, "post", job.PostIndex)
		return nil
	}
}

func handlePublish(logger *slog.Logger, proc Processor) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var job service.PublishJob
		if err := json.Unmarshal(task.Payload(), &job); err != nil {
			return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
		}

		logger.Info("Processing task", "task_type", TaskPublishWordPress, "campaign_id", job.CampaignID, "post", job.PostIndex, "variation", job.VariationIndex)
		// A retry could create a second draft
		if err := proc.ProcessPublish(ctx, job); err != nil {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return nil
	}
}

func handleScout(logger *slog.Logger, proc Processor) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload scoutPayload
		if len(task.Payload()) > 0 {
			if err := json.Unmarshal(task.Payload(), &payload); err != nil {
				return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
			}
		}

		report, err := proc.ScoutScheduled(ctx, payload.Niche)
		if err != nil {
			return classify(err)
		}
		logger.Info("Scheduled trend scout completed", "niche", report.Niche, "posts", len(report.Posts))
		return nil
	}
}

func classify(err error) error {
	if service.IsRetryable(err) {
		return err
	}
	return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
}

// makeErrorHandler creates an error handler function with logger closure.
func makeErrorHandler(logger *slog.Logger) func(context.Context, *asynq.Task, error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		logger.Error(
			"Task execution failed",
			"task_type", task.Type(),
			"error", err.Error(),
			"retry_count", retried,
			"max_retry", maxRetry,
		)

		if retried >= maxRetry {
			logger.Error(
				"Task moved to dead letter queue (all retries exhausted)",
				"task_type", task.Type(),
				"payload", string(task.Payload()),
			)
		}
	}
}
