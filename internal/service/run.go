package service

import (
	"context"
	"errors"
	"iter"

	"github.com/google/uuid"
	"github.com/jimdaga/viralpilot/internal/aggregator"
	"github.com/jimdaga/viralpilot/internal/campaign"
	"github.com/jimdaga/viralpilot/internal/pipeline"
)

// RunCampaign generates a campaign for the user, then enriches every post
// with an image. observe receives a snapshot after every pipeline event and
// after every settled image. The finished run is saved to the user's
// history; failed or abandoned runs save nothing.
func (s *Service) RunCampaign(ctx context.Context, userID uint, req pipeline.Request, observe func(aggregator.Snapshot)) (campaign.Campaign, error) {
	if err := req.Validate(s.catalog); err != nil {
		return campaign.Campaign{}, err
	}
	return s.run(ctx, userID, req.Subject(), observe, func(p *pipeline.Pipeline, liked []campaign.LikedVariation) iter.Seq2[campaign.Event, error] {
		return p.Stream(ctx, req, liked)
	})
}

// ResumeCampaign retries content generation from the checkpoint carried by
// a failed run's PhaseError, reusing its research.
func (s *Service) ResumeCampaign(ctx context.Context, userID uint, cp pipeline.Checkpoint, observe func(aggregator.Snapshot)) (campaign.Campaign, error) {
	if err := cp.Request.Validate(s.catalog); err != nil {
		return campaign.Campaign{}, err
	}
	return s.run(ctx, userID, cp.Request.Subject(), observe, func(p *pipeline.Pipeline, liked []campaign.LikedVariation) iter.Seq2[campaign.Event, error] {
		return p.ResumeFrom(ctx, cp, liked)
	})
}

// Preflight reports the error RunCampaign would fail with before calling
// any provider, so callers can reject a request before streaming begins.
func (s *Service) Preflight(ctx context.Context, userID uint, req *pipeline.Request) error {
	if err := req.Validate(s.catalog); err != nil {
		return err
	}
	_, err := s.Gateway(ctx, userID)
	return err
}

type streamFunc func(p *pipeline.Pipeline, liked []campaign.LikedVariation) iter.Seq2[campaign.Event, error]

func (s *Service) run(ctx context.Context, userID uint, title string, observe func(aggregator.Snapshot), stream streamFunc) (campaign.Campaign, error) {
	gw, err := s.Gateway(ctx, userID)
	if err != nil {
		return campaign.Campaign{}, err
	}
	liked, err := s.store.LikedVariations(ctx, userID)
	if err != nil {
		return campaign.Campaign{}, err
	}

	id := uuid.New().String()
	logger := s.logger.With("campaign_id", id, "user_id", userID)
	logger.Info("Campaign run started", "subject", title)

	p := pipeline.New(gw, s.catalog, s.opts.Pipeline, logger)
	agg := aggregator.New(id, title, s.now())

	c, err := agg.Run(ctx, s.mirror(ctx, id, stream(p, liked)), observe, s.store.History(userID))
	if err != nil {
		outcome := OutcomeFailed
		if errors.Is(err, context.Canceled) {
			outcome = OutcomeAbandoned
		}
		logger.Warn("Campaign run did not complete", "outcome", outcome, "step", agg.Step(), "error", err)
		s.observeRun(outcome)
		s.publishEnd(ctx, id, err.Error())
		return c, err
	}

	// Images outlive the caller: a dropped stream still leaves publishable
	// posts. Each provider call is bounded by its own timeout.
	enrichCtx := context.WithoutCancel(ctx)
	current := c.Clone()
	c = s.enricher(gw).EnrichImages(enrichCtx, c, func(index int, post campaign.Post) {
		// Patch only the image; video, audio and publish requests may have
		// landed on the stored post since it reached history.
		if _, err := s.store.UpdatePost(enrichCtx, userID, id, index, func(p *campaign.Post) error {
			p.Image = post.Image
			return nil
		}); err != nil {
			logger.Error("Failed to save post image", "post_index", index, "error", err)
		}
		current.Posts[index] = post
		if observe != nil {
			observe(aggregator.Snapshot{Step: campaign.StepDone, Campaign: current.Clone()})
		}
	})

	s.observeRun(OutcomeCompleted)
	s.publishEnd(ctx, id, "")
	logger.Info("Campaign run completed", "posts", len(c.Posts))
	return c, nil
}

// mirror passes seq through unchanged while copying each event to the run
// stream and counting phases.
func (s *Service) mirror(ctx context.Context, runID string, seq iter.Seq2[campaign.Event, error]) iter.Seq2[campaign.Event, error] {
	return func(yield func(campaign.Event, error) bool) {
		for ev, err := range seq {
			if err == nil {
				if step, ok := ev.(campaign.StepEvent); ok && s.observer != nil {
					s.observer.ObservePhase(string(step.Step))
				}
				if s.events != nil {
					if _, perr := s.events.PublishEvent(ctx, runID, ev); perr != nil {
						s.logger.Warn("Failed to mirror run event", "campaign_id", runID, "error", perr)
					}
				}
			}
			if !yield(ev, err) {
				return
			}
		}
	}
}

func (s *Service) publishEnd(ctx context.Context, runID, errMsg string) {
	if s.events == nil {
		return
	}
	if _, err := s.events.PublishEnd(context.WithoutCancel(ctx), runID, errMsg); err != nil {
		s.logger.Warn("Failed to close run stream", "campaign_id", runID, "error", err)
	}
}

func (s *Service) observeRun(outcome string) {
	if s.observer != nil {
		s.observer.ObserveRun(outcome)
	}
}
