package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGateway fails CompleteStructured with a fixed error and counts calls.
type scriptedGateway struct {
	StubGateway
	err   error
	calls int
}

func (s *scriptedGateway) CompleteStructured(ctx context.Context, req StructuredRequest) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return `{"ok":true}`, nil
}

func TestBreakerOpensOnTransientFailures(t *testing.T) {
	next := &scriptedGateway{err: statusError(503, "overloaded", nil)}
	b := NewBreaker(next, BreakerConfig{FailureThreshold: 2, Window: 2, Delay: time.Minute}, nil)

	for i := 0; i < 2; i++ {
		_, err := b.CompleteStructured(context.Background(), StructuredRequest{})
		require.Error(t, err)
	}
	assert.True(t, b.IsOpen())

	_, err := b.CompleteStructured(context.Background(), StructuredRequest{})
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Equal(t, 2, next.calls, "open circuit must not reach the provider")
}

func TestBreakerIgnoresAuthFailures(t *testing.T) {
	next := &scriptedGateway{err: statusError(401, "bad key", nil)}
	b := NewBreaker(next, BreakerConfig{FailureThreshold: 1, Window: 1, Delay: time.Minute}, nil)

	for i := 0; i < 3; i++ {
		_, err := b.CompleteStructured(context.Background(), StructuredRequest{})
		assert.True(t, IsAuth(err))
	}
	assert.False(t, b.IsOpen())
	assert.Equal(t, 3, next.calls)
}

func TestBreakerPassesResults(t *testing.T) {
	b := NewBreaker(&scriptedGateway{}, DefaultBreakerConfig(), nil)
	out, err := b.CompleteStructured(context.Background(), StructuredRequest{})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)

	assert.True(t, b.ValidateCredential(context.Background(), Credential{}).Valid)
}
