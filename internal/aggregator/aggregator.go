// Package aggregator folds pipeline events into a Campaign and records
// finished campaigns into history.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/jimdaga/viralpilot/internal/campaign"
)

// ErrPostBeforeAnalysis is returned when a post arrives before the topic analysis.
var ErrPostBeforeAnalysis = errors.New("post event received before analysis")

// Snapshot is the consumer-visible state after one event
type Snapshot struct {
	Step     campaign.Step     `json:"step"`
	Campaign campaign.Campaign `json:"campaign"`
}

// Aggregator owns the Campaign being built by one run. It is not safe for
// concurrent use; observers only ever see deep copies.
type Aggregator struct {
	current     campaign.Campaign
	step        campaign.Step
	hasAnalysis bool
	now         func() time.Time
}

// New starts an empty campaign.
func New(id, title string, createdAt time.Time) *Aggregator {
	return &Aggregator{
		current: campaign.Campaign{ID: id, Title: title, CreatedAt: createdAt, Posts: []campaign.Post{}},
		now:     time.Now,
	}
}

// Step returns the most recent phase reported.
func (a *Aggregator) Step() campaign.Step {
	return a.step
}

// Campaign returns a deep copy of the current state.
func (a *Aggregator) Campaign() campaign.Campaign {
	return a.current.Clone()
}

// Fold applies one event and returns a deep copy of the updated campaign.
func (a *Aggregator) Fold(ev campaign.Event) (campaign.Campaign, error) {
	switch e := ev.(type) {
	case campaign.StepEvent:
		a.step = e.Step
	case campaign.VoiceProfileEvent:
		profile := e.Profile
		a.current.VoiceProfile = &profile
	case campaign.AnalysisEvent:
		a.current.Analysis = e.Analysis
		a.hasAnalysis = true
	case campaign.GroundingEvent:
		grounding := e.Grounding
		a.current.Grounding = &grounding
	case campaign.PostEvent:
		if !a.hasAnalysis {
			return a.current.Clone(), ErrPostBeforeAnalysis
		}
		if e.Index != len(a.current.Posts) {
			return a.current.Clone(), fmt.Errorf("post event out of order: got index %d, have %d posts", e.Index, len(a.current.Posts))
		}
		post := e.Post.Clone()
		post.Image = campaign.MediaTask{Status: campaign.TaskInProgress, UpdatedAt: a.now()}
		post.Video = campaign.MediaTask{Status: campaign.TaskIdle}
		post.Audio = campaign.MediaTask{Status: campaign.TaskIdle}
		post.Publish = campaign.MediaTask{Status: campaign.TaskIdle}
		a.current.Posts = append(a.current.Posts, post)
	case nil:
		return a.current.Clone(), errors.New("nil event")
	default:
		return a.current.Clone(), fmt.Errorf("unknown event type %T", ev)
	}
	return a.current.Clone(), nil
}

// Run folds seq to completion, calling observe after every event. On a
// stream error the partial campaign is returned with the error and nothing
// is recorded; on success the campaign is passed to recorder when non-nil.
func (a *Aggregator) Run(ctx context.Context, seq iter.Seq2[campaign.Event, error], observe func(Snapshot), recorder HistoryRecorder) (campaign.Campaign, error) {
	for ev, err := range seq {
		if err != nil {
			return a.current.Clone(), err
		}
		snapshot, err := a.Fold(ev)
		if err != nil {
			return snapshot, err
		}
		if observe != nil {
			observe(Snapshot{Step: a.step, Campaign: snapshot})
		}
		if err := ctx.Err(); err != nil {
			return a.current.Clone(), err
		}
	}

	if a.step != campaign.StepDone {
		return a.current.Clone(), fmt.Errorf("run ended at %q without completing", a.step)
	}

	final := a.current.Clone()
	if recorder != nil {
		if err := recorder.Record(ctx, final); err != nil {
			return final, fmt.Errorf("failed to record campaign: %w", err)
		}
	}
	return final, nil
}
