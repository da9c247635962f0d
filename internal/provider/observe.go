package provider

import (
	"context"
	"time"
)

// Observer receives one record per gateway call
type Observer interface {
	ObserveCall(capability string, outcome string, elapsed time.Duration)
}

// Outcome labels used when reporting calls
const OutcomeOK = "ok"

type instrumented struct {
	next Gateway
	obs  Observer
}

// Instrument reports every call on next to obs.
func Instrument(next Gateway, obs Observer) Gateway {
	if obs == nil {
		return next
	}
	return &instrumented{next: next, obs: obs}
}

func (i *instrumented) record(capability string, start time.Time, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = string(KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	i.obs.ObserveCall(capability, outcome, time.Since(start))
}

func (i *instrumented) CompleteStructured(ctx context.Context, req StructuredRequest) (string, error) {
	start := time.Now()
	out, err := i.next.CompleteStructured(ctx, req)
	i.record("structured", start, err)
	return out, err
}

func (i *instrumented) CompleteGrounded(ctx context.Context, req GroundedRequest) (GroundedResponse, error) {
	start := time.Now()
	out, err := i.next.CompleteGrounded(ctx, req)
	i.record("grounded", start, err)
	return out, err
}

func (i *instrumented) GenerateImage(ctx context.Context, req ImageRequest) (Image, error) {
	start := time.Now()
	out, err := i.next.GenerateImage(ctx, req)
	i.record("image", start, err)
	return out, err
}

func (i *instrumented) StartVideo(ctx context.Context, req VideoRequest) (VideoOperation, error) {
	start := time.Now()
	out, err := i.next.StartVideo(ctx, req)
	i.record("video_start", start, err)
	return out, err
}

func (i *instrumented) PollVideo(ctx context.Context, op VideoOperation) (VideoOperation, error) {
	start := time.Now()
	out, err := i.next.PollVideo(ctx, op)
	i.record("video_poll", start, err)
	return out, err
}

func (i *instrumented) SynthesizeSpeech(ctx context.Context, req SpeechRequest) (Audio, error) {
	start := time.Now()
	out, err := i.next.SynthesizeSpeech(ctx, req)
	i.record("speech", start, err)
	return out, err
}

func (i *instrumented) ValidateCredential(ctx context.Context, cred Credential) Validation {
	start := time.Now()
	v := i.next.ValidateCredential(ctx, cred)
	outcome := OutcomeOK
	if !v.Valid {
		outcome = "invalid"
	}
	i.obs.ObserveCall("validate", outcome, time.Since(start))
	return v
}
