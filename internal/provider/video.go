package provider

import (
	"context"
	"time"
)

// ErrVideoTimeout is returned when a video is still pending after MaxAttempts polls.
var ErrVideoTimeout = &Error{Kind: KindTransient, Message: "video generation did not finish in time"}

// VideoPoller drives a long-running video operation from submitted to
// ready or failed, bounded by MaxAttempts polls spaced Interval apart.
type VideoPoller struct {
	Gateway     Gateway
	Interval    time.Duration
	MaxAttempts int
}

// Generate submits the request and waits for the result.
func (p VideoPoller) Generate(ctx context.Context, req VideoRequest) (VideoOperation, error) {
	op, err := p.Gateway.StartVideo(ctx, req)
	if err != nil {
		return op, err
	}
	if op.State == "" {
		op.State = VideoSubmitted
	}
	return p.Await(ctx, op)
}

// Await polls op until it settles. A failed operation is returned as a
// fatal error carrying the provider's reason.
func (p VideoPoller) Await(ctx context.Context, op VideoOperation) (VideoOperation, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 60
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 0; ; attempt++ {
		switch op.State {
		case VideoReady:
			return op, nil
		case VideoFailed:
			return op, &Error{Kind: KindFatal, Message: "video generation failed: " + op.Error}
		}
		if attempt >= maxAttempts {
			return op, ErrVideoTimeout
		}

		select {
		case <-ctx.Done():
			return op, wrapTransport(ctx.Err())
		case <-ticker.C:
		}

		next, err := p.Gateway.PollVideo(ctx, op)
		if err != nil {
			return op, err
		}
		op = next
	}
}
