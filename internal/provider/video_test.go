package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// pollGateway becomes ready after readyAfter polls, or fails if failWith is set.
type pollGateway struct {
	StubGateway
	readyAfter int
	failWith   string
	polls      int
}

func (p *pollGateway) StartVideo(ctx context.Context, req VideoRequest) (VideoOperation, error) {
	return VideoOperation{ID: "op-1", State: VideoSubmitted}, nil
}

func (p *pollGateway) PollVideo(ctx context.Context, op VideoOperation) (VideoOperation, error) {
	p.polls++
	if p.failWith != "" {
		op.State = VideoFailed
		op.Error = p.failWith
		return op, nil
	}
	if p.polls >= p.readyAfter {
		op.State = VideoReady
		op.Data = []byte("mp4")
		return op, nil
	}
	op.State = VideoPending
	return op, nil
}

func TestVideoPollerReady(t *testing.T) {
	defer goleak.VerifyNone(t)

	gw := &pollGateway{readyAfter: 3}
	op, err := VideoPoller{Gateway: gw, Interval: time.Millisecond, MaxAttempts: 5}.Generate(context.Background(), VideoRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, VideoReady, op.State)
	assert.Equal(t, 3, gw.polls)
}

func TestVideoPollerTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	gw := &pollGateway{readyAfter: 100}
	_, err := VideoPoller{Gateway: gw, Interval: time.Millisecond, MaxAttempts: 2}.Generate(context.Background(), VideoRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrVideoTimeout))
	assert.True(t, IsTransient(err))
	assert.Equal(t, 2, gw.polls)
}

func TestVideoPollerFailed(t *testing.T) {
	gw := &pollGateway{failWith: "safety filter"}
	_, err := VideoPoller{Gateway: gw, Interval: time.Millisecond, MaxAttempts: 2}.Generate(context.Background(), VideoRequest{})
	require.Error(t, err)
	assert.Equal(t, KindFatal, KindOf(err))
	assert.Contains(t, err.Error(), "safety filter")
}

func TestVideoPollerCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := VideoPoller{Gateway: &pollGateway{readyAfter: 1}, Interval: time.Hour, MaxAttempts: 2}.Generate(ctx, VideoRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
