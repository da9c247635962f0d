package streams

import (
	"context"
	"fmt"
	"time"

	"github.com/jimdaga/viralpilot/internal/campaign"
	"github.com/redis/go-redis/v9"
)

// Connect opens a Redis client whose read timeout exceeds the blocking read window.
func Connect(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	opts.ReadTimeout = 2 * blockTimeout
	return redis.NewClient(opts), nil
}

// Publisher appends run events to per-run streams
type Publisher struct {
	rdb    *redis.Client
	maxLen int64
	ttl    time.Duration
}

// NewPublisher creates a Publisher on rdb
func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb, maxLen: DefaultMaxLen, ttl: DefaultTTL}
}

// PublishEvent appends ev to the run's stream and returns the entry id.
func (p *Publisher) PublishEvent(ctx context.Context, runID string, ev campaign.Event) (string, error) {
	payload, err := campaign.MarshalEvent(ev)
	if err != nil {
		return "", err
	}
	return p.add(ctx, runID, map[string]interface{}{
		"kind":    kindEvent,
		"payload": string(payload),
	})
}

// PublishEnd closes the run's stream. errMsg is empty for runs that finished.
func (p *Publisher) PublishEnd(ctx context.Context, runID, errMsg string) (string, error) {
	return p.add(ctx, runID, map[string]interface{}{
		"kind":  kindEnd,
		"error": errMsg,
	})
}

func (p *Publisher) add(ctx context.Context, runID string, values map[string]interface{}) (string, error) {
	values["published_at"] = time.Now().Unix()
	values["schema_version"] = SchemaVersionV1

	stream := RunStream(runID)
	id, err := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: p.maxLen,
		Approx: true,
		ID:     "*",
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish to stream: %w", err)
	}

	if err := p.rdb.Expire(ctx, stream, p.ttl).Err(); err != nil {
		return id, fmt.Errorf("failed to set stream expiry: %w", err)
	}
	return id, nil
}

// Close closes the Redis client connection
func (p *Publisher) Close() error {
	return p.rdb.Close()
}
