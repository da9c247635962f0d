package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jimdaga/viralpilot/internal/service"
)

// Task type constants
const (
	TaskGenerateVideo    = "media:video"
	TaskSynthesizeAudio  = "media:audio"
	TaskPublishWordPress = "wordpress:publish"
	TaskScoutTrends      = "trends:scout"
)

// Client enqueues background work. It satisfies service.Enqueuer.
type Client struct {
	client *asynq.Client
}

var _ service.Enqueuer = (*Client)(nil)

// NewClient connects an enqueueing client to the Redis instance at redisURL.
func NewClient(redisURL string) (*Client, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return &Client{client: asynq.NewClient(opt)}, nil
}

// Close closes the client connection gracefully.
func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueVideo schedules video generation for one post. Video polling can
// take minutes, so the task gets a longer timeout than the others.
func (c *Client) EnqueueVideo(ctx context.Context, job service.MediaJob) error {
	return c.enqueue(ctx, TaskGenerateVideo, job, asynq.MaxRetry(2), asynq.Timeout(10*time.Minute))
}

// EnqueueAudio schedules speech synthesis for one post.
func (c *Client) EnqueueAudio(ctx context.Context, job service.MediaJob) error {
	return c.enqueue(ctx, TaskSynthesizeAudio, job, asynq.MaxRetry(3), asynq.Timeout(2*time.Minute))
}

// EnqueuePublish schedules a WordPress draft. Publishing is never retried
// because a partial upload would leave duplicates behind.
func (c *Client) EnqueuePublish(ctx context.Context, job service.PublishJob) error {
	return c.enqueue(ctx, TaskPublishWordPress, job, asynq.MaxRetry(0), asynq.Timeout(2*time.Minute))
}

// EnqueueScout schedules a trend scout for niche.
func (c *Client) EnqueueScout(ctx context.Context, niche string) error {
	return c.enqueue(ctx, TaskScoutTrends, scoutPayload{Niche: niche}, asynq.MaxRetry(3), asynq.Timeout(5*time.Minute))
}

func (c *Client) enqueue(ctx context.Context, taskType string, payload any, opts ...asynq.Option) error {
	task, err := newTask(taskType, payload, opts...)
	if err != nil {
		return err
	}
	if _, err := c.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", taskType, err)
	}
	return nil
}

type scoutPayload struct {
	Niche string `json:"niche"`
}

// newTask builds a task with a JSON payload, retained for a day after completion.
func newTask(taskType string, payload any, opts ...asynq.Option) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", taskType, err)
	}
	opts = append(opts, asynq.Retention(24*time.Hour))
	return asynq.NewTask(taskType, data, opts...), nil
}
