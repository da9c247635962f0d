package aggregator

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimdaga/viralpilot/internal/campaign"
	"github.com/jimdaga/viralpilot/internal/catalog"
	"github.com/jimdaga/viralpilot/internal/pipeline"
	"github.com/jimdaga/viralpilot/internal/provider"
)

func events(evs ...campaign.Event) iter.Seq2[campaign.Event, error] {
	return func(yield func(campaign.Event, error) bool) {
		for _, ev := range evs {
			if !yield(ev, nil) {
				return
			}
		}
	}
}

func failingAfter(err error, evs ...campaign.Event) iter.Seq2[campaign.Event, error] {
	return func(yield func(campaign.Event, error) bool) {
		for _, ev := range evs {
			if !yield(ev, nil) {
				return
			}
		}
		yield(nil, err)
	}
}

func samplePost(text string) campaign.Post {
	return campaign.Post{
		Platform:   campaign.PlatformLinkedIn,
		Variations: []campaign.Variation{{Framework: campaign.FrameworkAIDA, Text: text}},
	}
}

func TestFoldBuildsCampaign(t *testing.T) {
	a := New("c1", "Launch", time.Now())

	_, err := a.Fold(campaign.StepEvent{Step: campaign.StepResearch})
	require.NoError(t, err)
	_, err = a.Fold(campaign.AnalysisEvent{Analysis: campaign.TopicAnalysis{CampaignStrategy: "s"}})
	require.NoError(t, err)
	_, err = a.Fold(campaign.GroundingEvent{Grounding: campaign.GroundingMetadata{Citations: []campaign.Citation{{URI: "u"}}}})
	require.NoError(t, err)
	c, err := a.Fold(campaign.PostEvent{Index: 0, Post: samplePost("hello")})
	require.NoError(t, err)

	assert.Equal(t, "s", c.Analysis.CampaignStrategy)
	require.NotNil(t, c.Grounding)
	require.Len(t, c.Posts, 1)
	assert.Equal(t, campaign.TaskInProgress, c.Posts[0].Image.Status)
	assert.Equal(t, campaign.TaskIdle, c.Posts[0].Video.Status)
	assert.Equal(t, campaign.TaskIdle, c.Posts[0].Publish.Status)
	assert.Equal(t, campaign.StepResearch, a.Step())
}

func TestFoldRejectsPostBeforeAnalysis(t *testing.T) {
	a := New("c1", "t", time.Now())
	c, err := a.Fold(campaign.PostEvent{Index: 0, Post: samplePost("x")})
	assert.ErrorIs(t, err, ErrPostBeforeAnalysis)
	assert.Empty(t, c.Posts)
}

func TestFoldRejectsOutOfOrderPost(t *testing.T) {
	a := New("c1", "t", time.Now())
	_, _ = a.Fold(campaign.AnalysisEvent{})
	_, err := a.Fold(campaign.PostEvent{Index: 1, Post: samplePost("x")})
	assert.Error(t, err)
}

func TestSnapshotsDoNotAlias(t *testing.T) {
	a := New("c1", "t", time.Now())
	_, _ = a.Fold(campaign.AnalysisEvent{Analysis: campaign.TopicAnalysis{ViralHooks: []string{"h"}}})
	snap, err := a.Fold(campaign.PostEvent{Index: 0, Post: samplePost("original")})
	require.NoError(t, err)

	snap.Posts[0].Variations[0].Text = "mutated"
	snap.Analysis.ViralHooks[0] = "mutated"
	snap.Posts = append(snap.Posts, campaign.Post{})

	current := a.Campaign()
	assert.Equal(t, "original", current.Posts[0].Variations[0].Text)
	assert.Equal(t, "h", current.Analysis.ViralHooks[0])
	assert.Len(t, current.Posts, 1)
}

func TestRunRecordsOnlyCompletedCampaigns(t *testing.T) {
	history := NewMemoryHistory(5)
	var observed []campaign.Step

	final, err := New("c1", "t", time.Now()).Run(context.Background(), events(
		campaign.StepEvent{Step: campaign.StepResearch},
		campaign.AnalysisEvent{},
		campaign.PostEvent{Index: 0, Post: samplePost("a")},
		campaign.PostEvent{Index: 1, Post: samplePost("b")},
		campaign.StepEvent{Step: campaign.StepDone},
	), func(s Snapshot) { observed = append(observed, s.Step) }, history)
	require.NoError(t, err)
	assert.Len(t, final.Posts, 2)
	assert.Len(t, observed, 5)
	assert.Len(t, history.List(), 1)

	boom := errors.New("boom")
	partial, err := New("c2", "t", time.Now()).Run(context.Background(), failingAfter(boom,
		campaign.StepEvent{Step: campaign.StepResearch},
		campaign.AnalysisEvent{Analysis: campaign.TopicAnalysis{CampaignStrategy: "kept"}},
	), nil, history)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "kept", partial.Analysis.CampaignStrategy)
	assert.Len(t, history.List(), 1, "failed runs are not recorded")
}

func TestRunIncompleteStreamIsNotRecorded(t *testing.T) {
	history := NewMemoryHistory(5)
	_, err := New("c1", "t", time.Now()).Run(context.Background(), events(
		campaign.StepEvent{Step: campaign.StepResearch},
	), nil, history)
	assert.Error(t, err)
	assert.Empty(t, history.List())
}

func TestRunWithPipelineScenario(t *testing.T) {
	p := pipeline.New(provider.NewStubGateway(0), catalog.Default(), pipeline.Options{}, nil)
	req := pipeline.Request{
		Mode:       pipeline.ModeTopic,
		Topic:      "remote work",
		Platforms:  []campaign.Platform{campaign.PlatformLinkedIn, campaign.PlatformThreads},
		PostCount:  3,
		TrendBoost: true,
	}
	history := NewMemoryHistory(0)

	final, err := New("c1", "remote work", time.Now()).Run(context.Background(), p.Stream(context.Background(), req, nil), nil, history)
	require.NoError(t, err)
	assert.Len(t, final.Posts, 3)
	assert.NotEmpty(t, final.Analysis.CampaignStrategy)
	require.Len(t, history.List(), 1)
	assert.Equal(t, "c1", history.List()[0].ID)
}

func TestHistoryNewestFirstDedupAndCap(t *testing.T) {
	h := NewMemoryHistory(3)
	ctx := context.Background()
	for i := 1; i <= 4; i++ {
		require.NoError(t, h.Record(ctx, campaign.Campaign{ID: fmt.Sprintf("c%d", i)}))
	}
	require.NoError(t, h.Record(ctx, campaign.Campaign{ID: "c3", Title: "again"}))

	list := h.List()
	require.Len(t, list, 3)
	assert.Equal(t, "c3", list[0].ID)
	assert.Equal(t, "again", list[0].Title)
	assert.Equal(t, "c4", list[1].ID)
	assert.Equal(t, "c2", list[2].ID)
}
