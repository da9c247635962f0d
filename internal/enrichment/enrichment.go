// Package enrichment generates media (images, video, audio) for the posts of
// a finished campaign.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jimdaga/viralpilot/internal/campaign"
	"github.com/jimdaga/viralpilot/internal/media"
	"github.com/jimdaga/viralpilot/internal/provider"
)

// DefaultConcurrency bounds concurrent image generations per campaign
const DefaultConcurrency = 4

// Media kinds reported to the Recorder
const (
	KindImage = "image"
	KindVideo = "video"
	KindAudio = "audio"
)

// Recorder receives the outcome of every media task
type Recorder interface {
	ObserveEnrichment(kind string, status campaign.TaskStatus)
}

// Options tune an Enricher
type Options struct {
	Concurrency       int
	VideoPollInterval time.Duration
	VideoMaxPolls     int
	Recorder          Recorder
}

// Enricher runs media tasks against a provider gateway
type Enricher struct {
	gateway provider.Gateway
	store   media.Store
	opts    Options
	logger  *slog.Logger
	now     func() time.Time
}

// New creates an Enricher.
func New(gateway provider.Gateway, store media.Store, opts Options, logger *slog.Logger) *Enricher {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{gateway: gateway, store: store, opts: opts, logger: logger, now: time.Now}
}

// EnrichImages generates one image per post with at most Concurrency calls
// in flight. Each task patches only its own post; a failed task marks that
// post's image as error and never affects the others. observe is called
// once per settled post, serialised, with a copy of that post. The returned
// campaign has every image task settled.
func (e *Enricher) EnrichImages(ctx context.Context, c campaign.Campaign, observe func(index int, post campaign.Post)) campaign.Campaign {
	out := c.Clone()

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(e.opts.Concurrency)

	for i := range out.Posts {
		post := out.Posts[i]
		if post.Image.Settled() {
			continue
		}
		g.Go(func() error {
			patched := e.imageTask(ctx, post)

			mu.Lock()
			defer mu.Unlock()
			out.Posts[i] = patched
			if observe != nil {
				observe(i, patched.Clone())
			}
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (e *Enricher) imageTask(ctx context.Context, post campaign.Post) campaign.Post {
	task, err := claim(post.Image, e.now())
	if err != nil {
		return post
	}
	defer func() { e.record(KindImage, post.Image.Status) }()

	if post.ImagePrompt == "" {
		post.Image, _ = task.Fail("post has no image prompt", e.now())
		return post
	}

	img, err := e.gateway.GenerateImage(ctx, provider.ImageRequest{
		Prompt:      post.ImagePrompt,
		MIMEType:    provider.DefaultImageMIME,
		AspectRatio: provider.DefaultImageAspect,
	})
	if err != nil {
		e.logger.Warn("Image generation failed", "platform", post.Platform, "error", err)
		post.Image, _ = task.Fail(failureReason(err), e.now())
		return post
	}

	url, err := e.store.Put(ctx, KindImage, img.MIMEType, img.Data)
	if err != nil {
		post.Image, _ = task.Fail(err.Error(), e.now())
		return post
	}
	post.Image, _ = task.Complete(url, media.EncodeDataURL(img.MIMEType, img.Data), e.now())
	return post
}

// GenerateVideo renders the post's VIDEO script with the bounded poller.
// The post's video task must be idle or already claimed (in_progress); any
// other state returns an ErrPrecondition-wrapped error and the post unchanged.
// Provider failures are recorded on the task, not returned.
func (e *Enricher) GenerateVideo(ctx context.Context, post campaign.Post) (campaign.Post, error) {
	task, err := claim(post.Video, e.now())
	if err != nil {
		return post, err
	}
	defer func() { e.record(KindVideo, post.Video.Status) }()

	poller := provider.VideoPoller{
		Gateway:     e.gateway,
		Interval:    e.opts.VideoPollInterval,
		MaxAttempts: e.opts.VideoMaxPolls,
	}
	op, err := poller.Generate(ctx, provider.VideoRequest{
		Prompt:      videoPrompt(post),
		Resolution:  provider.DefaultVideoRes,
		AspectRatio: provider.DefaultVideoAspect,
	})
	if err != nil {
		e.logger.Warn("Video generation failed", "platform", post.Platform, "error", err)
		post.Video, _ = task.Fail(failureReason(err), e.now())
		return post, nil
	}

	url, err := e.store.Put(ctx, KindVideo, op.MIMEType, op.Data)
	if err != nil {
		post.Video, _ = task.Fail(err.Error(), e.now())
		return post, nil
	}
	post.Video, _ = task.Complete(url, "", e.now())
	return post, nil
}

// SynthesizeAudio reads the post's first variation aloud. State rules match
// GenerateVideo.
func (e *Enricher) SynthesizeAudio(ctx context.Context, post campaign.Post) (campaign.Post, error) {
	task, err := claim(post.Audio, e.now())
	if err != nil {
		return post, err
	}
	defer func() { e.record(KindAudio, post.Audio.Status) }()

	if len(post.Variations) == 0 || post.Variations[0].Text == "" {
		post.Audio, _ = task.Fail("post has no text to read", e.now())
		return post, nil
	}

	audio, err := e.gateway.SynthesizeSpeech(ctx, provider.SpeechRequest{
		Text:  post.Variations[0].Text,
		Voice: provider.DefaultVoice,
	})
	if err != nil {
		e.logger.Warn("Speech synthesis failed", "platform", post.Platform, "error", err)
		post.Audio, _ = task.Fail(failureReason(err), e.now())
		return post, nil
	}

	url, err := e.store.Put(ctx, KindAudio, audio.MIMEType, audio.Data)
	if err != nil {
		post.Audio, _ = task.Fail(err.Error(), e.now())
		return post, nil
	}
	post.Audio, _ = task.Complete(url, "", e.now())
	return post, nil
}

func (e *Enricher) record(kind string, status campaign.TaskStatus) {
	if e.opts.Recorder != nil {
		e.opts.Recorder.ObserveEnrichment(kind, status)
	}
}

// claim returns an in-progress task, beginning it when idle.
func claim(task campaign.MediaTask, now time.Time) (campaign.MediaTask, error) {
	running, err := task.Begin(now)
	if errors.Is(err, campaign.ErrTaskInProgress) {
		return task, nil
	}
	return running, err
}

func videoPrompt(post campaign.Post) string {
	for _, v := range post.Variations {
		if v.Framework == campaign.FrameworkVideo && v.Text != "" {
			return v.Text
		}
	}
	return post.ImagePrompt
}

// failureReason turns a provider error into text shown on the post.
func failureReason(err error) string {
	var pe *provider.Error
	if errors.As(err, &pe) {
		switch pe.Kind {
		case provider.KindAuth:
			return "Authentication failed. Check your API key."
		case provider.KindUnsupported:
			return pe.Message
		}
		return fmt.Sprintf("%s (%s)", pe.Message, pe.Kind)
	}
	return err.Error()
}
