package provider

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
)

// BreakerConfig configures the circuit breaker placed in front of a provider.
type BreakerConfig struct {
	// FailureThreshold transient failures within Window calls open the circuit.
	FailureThreshold uint
	Window           uint
	// Delay is how long the circuit stays open before a trial call.
	Delay time.Duration
}

// DefaultBreakerConfig returns the breaker settings used in production.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		Window:           10,
		Delay:            30 * time.Second,
	}
}

// Breaker wraps a Gateway with a circuit breaker. Only transient failures
// count against the circuit; auth and fatal errors pass straight through.
type Breaker struct {
	next Gateway
	cb   circuitbreaker.CircuitBreaker[any]
}

// NewBreaker wraps next. State changes are logged at warn level.
func NewBreaker(next Gateway, cfg BreakerConfig, logger *slog.Logger) *Breaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Window < cfg.FailureThreshold {
		cfg.Window = cfg.FailureThreshold
	}
	if cfg.Delay <= 0 {
		cfg.Delay = 30 * time.Second
	}

	builder := circuitbreaker.NewBuilder[any]().
		WithFailureThresholdRatio(cfg.FailureThreshold, cfg.Window).
		WithDelay(cfg.Delay).
		WithSuccessThreshold(1).
		HandleIf(func(_ any, err error) bool {
			return IsTransient(err)
		})
	if logger != nil {
		builder = builder.OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
			logger.Warn("Provider circuit breaker state change",
				"from_state", stateName(event.OldState),
				"to_state", stateName(event.NewState),
			)
		})
	}

	return &Breaker{next: next, cb: builder.Build()}
}

func stateName(state circuitbreaker.State) string {
	switch state {
	case circuitbreaker.OpenState:
		return "open"
	case circuitbreaker.HalfOpenState:
		return "half-open"
	default:
		return "closed"
	}
}

// IsOpen reports whether calls are currently being rejected.
func (b *Breaker) IsOpen() bool {
	return b.cb.IsOpen()
}

func guarded[T any](ctx context.Context, b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	result, err := failsafe.With(b.cb).WithContext(ctx).Get(func() (any, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return zero, &Error{Kind: KindTransient, Message: "provider temporarily unavailable (circuit open)", Err: err}
		}
		return zero, err
	}
	out, _ := result.(T)
	return out, nil
}

func (b *Breaker) CompleteStructured(ctx context.Context, req StructuredRequest) (string, error) {
	return guarded(ctx, b, func() (string, error) { return b.next.CompleteStructured(ctx, req) })
}

func (b *Breaker) CompleteGrounded(ctx context.Context, req GroundedRequest) (GroundedResponse, error) {
	return guarded(ctx, b, func() (GroundedResponse, error) { return b.next.CompleteGrounded(ctx, req) })
}

func (b *Breaker) GenerateImage(ctx context.Context, req ImageRequest) (Image, error) {
	return guarded(ctx, b, func() (Image, error) { return b.next.GenerateImage(ctx, req) })
}

func (b *Breaker) StartVideo(ctx context.Context, req VideoRequest) (VideoOperation, error) {
	return guarded(ctx, b, func() (VideoOperation, error) { return b.next.StartVideo(ctx, req) })
}

func (b *Breaker) PollVideo(ctx context.Context, op VideoOperation) (VideoOperation, error) {
	return guarded(ctx, b, func() (VideoOperation, error) { return b.next.PollVideo(ctx, op) })
}

func (b *Breaker) SynthesizeSpeech(ctx context.Context, req SpeechRequest) (Audio, error) {
	return guarded(ctx, b, func() (Audio, error) { return b.next.SynthesizeSpeech(ctx, req) })
}

// ValidateCredential bypasses the circuit; a user checking a new key should
// not be blocked by failures of the old one.
func (b *Breaker) ValidateCredential(ctx context.Context, cred Credential) Validation {
	return b.next.ValidateCredential(ctx, cred)
}
