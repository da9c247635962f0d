package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jimdaga/viralpilot/internal/campaign"
	"github.com/jimdaga/viralpilot/internal/store"
	"github.com/jimdaga/viralpilot/internal/wordpress"
)

// RequestPublish checks that the post can be published to the user's
// WordPress site, marks its publish task in progress and schedules the
// upload. A settled publish task may be requested again, which creates a
// new draft.
func (s *Service) RequestPublish(ctx context.Context, job PublishJob) (campaign.Post, error) {
	if _, err := s.wordPressSite(ctx, job.UserID); err != nil {
		return campaign.Post{}, err
	}

	post, err := s.store.UpdatePost(ctx, job.UserID, job.CampaignID, job.PostIndex, func(p *campaign.Post) error {
		if p.Image.Status != campaign.TaskCompleted || p.Image.Payload == "" {
			return fmt.Errorf("%w: post has no generated image", campaign.ErrPrecondition)
		}
		if job.VariationIndex < 0 || job.VariationIndex >= len(p.Variations) {
			return fmt.Errorf("%w: variation %d does not exist", campaign.ErrPrecondition, job.VariationIndex)
		}
		task := p.Publish
		if task.Settled() {
			task = campaign.MediaTask{}
		}
		next, err := task.Begin(s.now())
		if err != nil {
			return err
		}
		p.Publish = next
		return nil
	})
	if err != nil {
		return post, err
	}

	if s.jobs == nil {
		go func() {
			if err := s.ProcessPublish(context.WithoutCancel(ctx), job); err != nil {
				s.logger.Error("Publishing failed", "campaign_id", job.CampaignID, "error", err)
			}
		}()
		return post, nil
	}
	if err := s.jobs.EnqueuePublish(ctx, job); err != nil {
		s.logger.Error("Failed to enqueue publish job", "campaign_id", job.CampaignID, "error", err)
		return s.failTask(ctx, job.MediaJob, kindPublish, "Could not schedule publishing. Please try again.")
	}
	return post, nil
}

// ProcessPublish uploads the post's image and creates the draft. Remote
// failures are recorded on the post's publish task, not returned, so a
// partially created draft is never duplicated by a retry.
func (s *Service) ProcessPublish(ctx context.Context, job PublishJob) error {
	post, err := s.loadPost(ctx, job.MediaJob)
	if err != nil {
		return err
	}
	if post.Publish.Status != campaign.TaskInProgress {
		return fmt.Errorf("publish task for post %d is %q: %w", job.PostIndex, post.Publish.Status, campaign.ErrPrecondition)
	}

	site, err := s.wordPressSite(ctx, job.UserID)
	if err != nil {
		_, ferr := s.failTask(ctx, job.MediaJob, kindPublish, err.Error())
		return errors.Join(err, ferr)
	}

	link, err := s.wp.Publish(ctx, post, job.VariationIndex, site)
	if err != nil {
		s.logger.Warn("WordPress publish failed", "campaign_id", job.CampaignID, "post", job.PostIndex, "error", err)
		_, ferr := s.failTask(ctx, job.MediaJob, kindPublish, err.Error())
		return ferr
	}

	_, err = s.store.UpdatePost(context.WithoutCancel(ctx), job.UserID, job.CampaignID, job.PostIndex, func(p *campaign.Post) error {
		done, err := p.Publish.Complete(link, "", s.now())
		if err != nil {
			return err
		}
		p.Publish = done
		return nil
	})
	if err == nil {
		s.logger.Info("Published draft to WordPress", "campaign_id", job.CampaignID, "post", job.PostIndex, "link", link)
	}
	return err
}

func (s *Service) wordPressSite(ctx context.Context, userID uint) (wordpress.Config, error) {
	saved, err := s.store.WordPressConfig(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return wordpress.Config{}, fmt.Errorf("%w: WordPress is not configured", campaign.ErrPrecondition)
	}
	if err != nil {
		return wordpress.Config{}, err
	}
	if !saved.Validated {
		return wordpress.Config{}, fmt.Errorf("%w: WordPress credentials have not been validated", campaign.ErrPrecondition)
	}
	return saved.Config, nil
}
