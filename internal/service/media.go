package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jimdaga/viralpilot/internal/campaign"
	"github.com/jimdaga/viralpilot/internal/enrichment"
	"github.com/jimdaga/viralpilot/internal/store"
)

// RequestVideo marks the post's video task in progress and schedules the
// generation. A failed task may be requested again; a completed one may not.
func (s *Service) RequestVideo(ctx context.Context, job MediaJob) (campaign.Post, error) {
	return s.requestMedia(ctx, job, enrichment.KindVideo)
}

// RequestAudio is RequestVideo for the spoken rendition of the post.
func (s *Service) RequestAudio(ctx context.Context, job MediaJob) (campaign.Post, error) {
	return s.requestMedia(ctx, job, enrichment.KindAudio)
}

func (s *Service) requestMedia(ctx context.Context, job MediaJob, kind string) (campaign.Post, error) {
	post, err := s.store.UpdatePost(ctx, job.UserID, job.CampaignID, job.PostIndex, func(p *campaign.Post) error {
		task := mediaTask(p, kind)
		if task.Status == campaign.TaskError {
			*task = campaign.MediaTask{}
		}
		next, err := task.Begin(s.now())
		if err != nil {
			return err
		}
		*task = next
		return nil
	})
	if err != nil {
		return post, err
	}

	if s.jobs == nil {
		go s.runDetached(ctx, job, kind)
		return post, nil
	}

	enqueue := s.jobs.EnqueueVideo
	if kind == enrichment.KindAudio {
		enqueue = s.jobs.EnqueueAudio
	}
	if err := enqueue(ctx, job); err != nil {
		s.logger.Error("Failed to enqueue media job", "kind", kind, "campaign_id", job.CampaignID, "error", err)
		return s.failTask(ctx, job, kind, "Could not schedule generation. Please try again.")
	}
	return post, nil
}

func (s *Service) runDetached(ctx context.Context, job MediaJob, kind string) {
	ctx = context.WithoutCancel(ctx)
	var err error
	if kind == enrichment.KindVideo {
		err = s.ProcessVideo(ctx, job)
	} else {
		err = s.ProcessAudio(ctx, job)
	}
	if err != nil {
		s.logger.Error("Media generation failed", "kind", kind, "campaign_id", job.CampaignID, "error", err)
	}
}

// ProcessVideo generates the video for a post whose task was claimed by
// RequestVideo and stores the outcome.
func (s *Service) ProcessVideo(ctx context.Context, job MediaJob) error {
	return s.processMedia(ctx, job, enrichment.KindVideo)
}

// ProcessAudio synthesizes speech for a post whose task was claimed by RequestAudio.
func (s *Service) ProcessAudio(ctx context.Context, job MediaJob) error {
	return s.processMedia(ctx, job, enrichment.KindAudio)
}

func (s *Service) processMedia(ctx context.Context, job MediaJob, kind string) error {
	post, err := s.loadPost(ctx, job)
	if err != nil {
		return err
	}
	if status := mediaTask(&post, kind).Status; status != campaign.TaskInProgress {
		return fmt.Errorf("%s task for post %d is %q: %w", kind, job.PostIndex, status, campaign.ErrPrecondition)
	}

	gw, err := s.Gateway(ctx, job.UserID)
	if err != nil {
		if _, ferr := s.failTask(ctx, job, kind, err.Error()); ferr != nil {
			return ferr
		}
		return err
	}

	enricher := s.enricher(gw)
	var out campaign.Post
	if kind == enrichment.KindVideo {
		out, err = enricher.GenerateVideo(ctx, post)
	} else {
		out, err = enricher.SynthesizeAudio(ctx, post)
	}
	if err != nil {
		return err
	}

	result := *mediaTask(&out, kind)
	_, err = s.store.UpdatePost(context.WithoutCancel(ctx), job.UserID, job.CampaignID, job.PostIndex, func(p *campaign.Post) error {
		*mediaTask(p, kind) = result
		return nil
	})
	return err
}

// failTask settles an in-progress task as failed.
func (s *Service) failTask(ctx context.Context, job MediaJob, kind, reason string) (campaign.Post, error) {
	return s.store.UpdatePost(context.WithoutCancel(ctx), job.UserID, job.CampaignID, job.PostIndex, func(p *campaign.Post) error {
		task := mediaTask(p, kind)
		failed, err := task.Fail(reason, s.now())
		if err != nil {
			return err
		}
		*task = failed
		return nil
	})
}

func (s *Service) loadPost(ctx context.Context, job MediaJob) (campaign.Post, error) {
	c, err := s.store.GetCampaign(ctx, job.UserID, job.CampaignID)
	if err != nil {
		return campaign.Post{}, err
	}
	if job.PostIndex < 0 || job.PostIndex >= len(c.Posts) {
		return campaign.Post{}, fmt.Errorf("post %d of campaign %s: %w", job.PostIndex, job.CampaignID, store.ErrNotFound)
	}
	return c.Posts[job.PostIndex], nil
}

const kindPublish = "publish"

func mediaTask(p *campaign.Post, kind string) *campaign.MediaTask {
	switch kind {
	case enrichment.KindImage:
		return &p.Image
	case enrichment.KindVideo:
		return &p.Video
	case enrichment.KindAudio:
		return &p.Audio
	case kindPublish:
		return &p.Publish
	}
	panic(fmt.Sprintf("unknown media kind %q", kind))
}

// IsRetryable reports whether a failed job may succeed if run again.
func IsRetryable(err error) bool {
	return err != nil &&
		!errors.Is(err, campaign.ErrPrecondition) &&
		!errors.Is(err, store.ErrNotFound)
}
