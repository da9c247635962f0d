package streams

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/jimdaga/viralpilot/internal/campaign"
	"github.com/redis/go-redis/v9"
)

// ErrStopFollowing can be returned by a Follow handler to stop without error
var ErrStopFollowing = errors.New("stop following")

// Follower reads run streams from a given position
type Follower struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewFollower creates a Follower on rdb
func NewFollower(rdb *redis.Client, logger *slog.Logger) *Follower {
	if logger == nil {
		logger = slog.Default()
	}
	return &Follower{rdb: rdb, logger: logger}
}

// Follow delivers every entry of the run after fromID ("0" for the start)
// to handler, blocking for new entries until the end marker arrives or ctx
// is cancelled.
func (f *Follower) Follow(ctx context.Context, runID, fromID string, handler func(Message) error) error {
	if fromID == "" {
		fromID = "0"
	}
	stream := RunStream(runID)
	lastID := fromID

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		streams, err := f.rdb.XRead(ctx, &redis.XReadArgs{
			Streams: []string{stream, lastID},
			Count:   50,
			Block:   blockTimeout,
		}).Result()

		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Blocking reads time out on idle streams; that is not an error.
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return fmt.Errorf("failed to read from stream: %w", err)
		}

		for _, s := range streams {
			for _, entry := range s.Messages {
				lastID = entry.ID
				msg, err := decodeMessage(entry)
				if err != nil {
					f.logger.Error("Skipping invalid stream entry", "stream", stream, "message_id", entry.ID, "error", err)
					continue
				}
				if err := handler(msg); err != nil {
					if errors.Is(err, ErrStopFollowing) {
						return nil
					}
					return err
				}
				if msg.End {
					return nil
				}
			}
		}
	}
}

func decodeMessage(entry redis.XMessage) (Message, error) {
	kind, _ := entry.Values["kind"].(string)
	switch kind {
	case kindEnd:
		errMsg, _ := entry.Values["error"].(string)
		return Message{ID: entry.ID, End: true, Error: errMsg}, nil
	case kindEvent:
		payload, ok := entry.Values["payload"].(string)
		if !ok {
			return Message{}, fmt.Errorf("missing payload")
		}
		ev, err := campaign.UnmarshalEvent([]byte(payload))
		if err != nil {
			return Message{}, err
		}
		return Message{ID: entry.ID, Event: ev}, nil
	default:
		return Message{}, fmt.Errorf("unknown entry kind %q", kind)
	}
}
