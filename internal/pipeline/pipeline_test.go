package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimdaga/viralpilot/internal/campaign"
	"github.com/jimdaga/viralpilot/internal/catalog"
	"github.com/jimdaga/viralpilot/internal/decoder"
	"github.com/jimdaga/viralpilot/internal/provider"
)

// fakeGateway delegates to the stub unless a hook is set, and records prompts.
type fakeGateway struct {
	*provider.StubGateway

	mu         sync.Mutex
	structured func(req provider.StructuredRequest) (string, error)
	grounded   func(req provider.GroundedRequest) (provider.GroundedResponse, error)
	prompts    []string
	groundedN  int
}

func newFake() *fakeGateway {
	return &fakeGateway{StubGateway: provider.NewStubGateway(0)}
}

func (f *fakeGateway) CompleteStructured(ctx context.Context, req provider.StructuredRequest) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, req.Prompt)
	hook := f.structured
	f.mu.Unlock()
	if hook != nil {
		return hook(req)
	}
	return f.StubGateway.CompleteStructured(ctx, req)
}

func (f *fakeGateway) CompleteGrounded(ctx context.Context, req provider.GroundedRequest) (provider.GroundedResponse, error) {
	f.mu.Lock()
	f.groundedN++
	hook := f.grounded
	f.mu.Unlock()
	if hook != nil {
		return hook(req)
	}
	return f.StubGateway.CompleteGrounded(ctx, req)
}

func newTestPipeline(gw provider.Gateway, profile campaign.Profile) *Pipeline {
	return New(gw, catalog.Default(), Options{Profile: profile, SettleDelay: 0}, nil)
}

func baseRequest() Request {
	return Request{
		Mode:       ModeTopic,
		Topic:      "AI for small business marketing",
		Platforms:  []campaign.Platform{"linkedin", "Twitter"},
		Tone:       "Professional",
		Goal:       "Brand Awareness",
		PostCount:  3,
		TrendBoost: true,
	}
}

func collect(t *testing.T, seq func(func(campaign.Event, error) bool)) ([]campaign.Event, error) {
	t.Helper()
	var events []campaign.Event
	for ev, err := range seq {
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func TestStreamScenarioThreePostsTwoPlatforms(t *testing.T) {
	p := newTestPipeline(newFake(), campaign.ProfileFull)

	events, err := collect(t, p.Stream(context.Background(), baseRequest(), nil))
	require.NoError(t, err)

	var analyses, posts, groundings int
	firstPost, analysisAt := -1, -1
	for i, ev := range events {
		switch e := ev.(type) {
		case campaign.AnalysisEvent:
			analyses++
			analysisAt = i
		case campaign.GroundingEvent:
			groundings++
		case campaign.PostEvent:
			if firstPost < 0 {
				firstPost = i
			}
			assert.Equal(t, posts, e.Index)
			assert.Len(t, e.Post.Variations, 5)
			assert.Equal(t, campaign.TaskStatus(""), e.Post.Image.Status)
			posts++
		}
	}
	assert.Equal(t, 1, analyses)
	assert.Equal(t, 1, groundings)
	assert.Equal(t, 3, posts)
	assert.Less(t, analysisAt, firstPost)
	assert.Equal(t, campaign.StepEvent{Step: campaign.StepDone}, events[len(events)-1])
}

func TestStreamStepOrder(t *testing.T) {
	for _, profile := range []campaign.Profile{campaign.ProfileFull, campaign.ProfileMinimal} {
		t.Run(string(profile), func(t *testing.T) {
			p := newTestPipeline(newFake(), profile)
			events, err := collect(t, p.Stream(context.Background(), baseRequest(), nil))
			require.NoError(t, err)

			var steps []campaign.Step
			for _, ev := range events {
				if s, ok := ev.(campaign.StepEvent); ok {
					steps = append(steps, s.Step)
				}
			}
			assert.Equal(t, profile.Steps(), steps)
		})
	}
}

func TestStreamPlatformsCanonicalised(t *testing.T) {
	f := newFake()
	p := newTestPipeline(f, campaign.ProfileMinimal)
	_, err := collect(t, p.Stream(context.Background(), baseRequest(), nil))
	require.NoError(t, err)

	require.NotEmpty(t, f.prompts)
	assert.Contains(t, f.prompts[len(f.prompts)-1], "PLATFORMS: LinkedIn, Twitter")
	assert.Contains(t, f.prompts[len(f.prompts)-1], "TREND BOOST")
}

func TestStreamRangedConcurrently(t *testing.T) {
	p := newTestPipeline(newFake(), campaign.ProfileMinimal)
	req := baseRequest()
	seq := p.Stream(context.Background(), req, nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	posts := make([]int, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			events, err := collect(t, seq)
			errs[i] = err
			for _, ev := range events {
				if _, ok := ev.(campaign.PostEvent); ok {
					posts[i]++
				}
			}
		}()
	}
	wg.Wait()

	for i := range errs {
		assert.NoError(t, errs[i])
		assert.Equal(t, 3, posts[i])
	}
	assert.Equal(t, []campaign.Platform{"linkedin", "Twitter"}, req.Platforms)
}

func TestStreamMissingFrameworkFailsBeforePosts(t *testing.T) {
	f := newFake()
	f.structured = func(req provider.StructuredRequest) (string, error) {
		raw, err := provider.NewStubGateway(0).CompleteStructured(context.Background(), req)
		if err != nil {
			return "", err
		}
		return strings.Replace(raw, `"archetype":"BAB"`, `"archetype":"STORY"`, 1), nil
	}
	p := newTestPipeline(f, campaign.ProfileFull)

	events, err := collect(t, p.Stream(context.Background(), baseRequest(), nil))
	require.Error(t, err)
	assert.True(t, decoder.IsContractViolation(err))

	var pe *PhaseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, campaign.StepContent, pe.Step)
	require.NotNil(t, pe.Checkpoint)
	assert.NotEmpty(t, pe.Checkpoint.Analysis.CampaignStrategy)

	for _, ev := range events {
		_, isPost := ev.(campaign.PostEvent)
		assert.False(t, isPost, "no post may be emitted when the batch violates the contract")
	}
}

func TestStreamWrongPostCount(t *testing.T) {
	f := newFake()
	f.structured = func(req provider.StructuredRequest) (string, error) {
		req.Prompt = strings.Replace(req.Prompt, "POSTS REQUIRED: 3", "POSTS REQUIRED: 2", 1)
		return provider.NewStubGateway(0).CompleteStructured(context.Background(), req)
	}
	p := newTestPipeline(f, campaign.ProfileMinimal)

	_, err := collect(t, p.Stream(context.Background(), baseRequest(), nil))
	require.Error(t, err)
	var cv *decoder.ContractViolationError
	require.ErrorAs(t, err, &cv)
	assert.Contains(t, cv.Violations[0], "expected 3 posts, got 2")
}

func TestStreamVoiceFailureIsFatal(t *testing.T) {
	f := newFake()
	f.structured = func(req provider.StructuredRequest) (string, error) {
		return "", &provider.Error{Kind: provider.KindTransient, Status: 503, Message: "overloaded"}
	}
	req := baseRequest()
	req.BrandVoiceSample = "We ship fast. We ship often."

	events, err := collect(t, newTestPipeline(f, campaign.ProfileFull).Stream(context.Background(), req, nil))
	require.Error(t, err)
	assert.Empty(t, events)
	assert.True(t, provider.IsTransient(err))

	var pe *PhaseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, StepVoiceAnalysis, pe.Step)
	assert.Nil(t, pe.Checkpoint)
	assert.Zero(t, f.groundedN)
}

func TestStreamVoiceProfileFirst(t *testing.T) {
	f := newFake()
	req := baseRequest()
	req.BrandVoiceSample = strings.Repeat("é", 1500)

	events, err := collect(t, newTestPipeline(f, campaign.ProfileMinimal).Stream(context.Background(), req, nil))
	require.NoError(t, err)
	_, ok := events[0].(campaign.VoiceProfileEvent)
	assert.True(t, ok)
	assert.Contains(t, f.prompts[0], strings.Repeat("é", 1000))
	assert.NotContains(t, f.prompts[0], strings.Repeat("é", 1001))
	assert.Contains(t, f.prompts[1], "BRAND VOICE")
}

func TestStreamMalformedResearch(t *testing.T) {
	f := newFake()
	f.grounded = func(req provider.GroundedRequest) (provider.GroundedResponse, error) {
		return provider.GroundedResponse{Text: "I could not find anything useful, sorry."}, nil
	}

	events, err := collect(t, newTestPipeline(f, campaign.ProfileFull).Stream(context.Background(), baseRequest(), nil))
	require.Error(t, err)
	assert.True(t, decoder.IsMalformed(err))
	var pe *PhaseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, campaign.StepFactCheck, pe.Step)
	assert.Equal(t, []campaign.Event{
		campaign.StepEvent{Step: campaign.StepResearch},
		campaign.StepEvent{Step: campaign.StepFactCheck},
	}, events)
}

func TestStreamValidationBeforeProviderCalls(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"no subject", func(r *Request) { r.Topic = "" }},
		{"no platforms", func(r *Request) { r.Platforms = nil }},
		{"unknown platform", func(r *Request) { r.Platforms = []campaign.Platform{"MySpace"} }},
		{"zero posts", func(r *Request) { r.PostCount = 0 }},
		{"too many posts", func(r *Request) { r.PostCount = 21 }},
		{"unknown tone", func(r *Request) { r.Tone = "Sarcastic" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFake()
			req := baseRequest()
			tt.mutate(&req)

			events, err := collect(t, newTestPipeline(f, campaign.ProfileFull).Stream(context.Background(), req, nil))
			require.Error(t, err)
			assert.ErrorIs(t, err, campaign.ErrPrecondition)
			assert.Empty(t, events)
			assert.Empty(t, f.prompts)
			assert.Zero(t, f.groundedN)
		})
	}
}

func TestStreamAbandonStopsProviderCalls(t *testing.T) {
	f := newFake()
	p := newTestPipeline(f, campaign.ProfileFull)

	for ev, err := range p.Stream(context.Background(), baseRequest(), nil) {
		require.NoError(t, err)
		if ev == (campaign.StepEvent{Step: campaign.StepResearch}) {
			break
		}
	}
	assert.Zero(t, f.groundedN)
}

func TestStreamCancelledDuringSettle(t *testing.T) {
	f := newFake()
	p := New(f, catalog.Default(), Options{SettleDelay: time.Hour}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var last campaign.Event
	var gotErr error
	for ev, err := range p.Stream(ctx, baseRequest(), nil) {
		if err != nil {
			gotErr = err
			break
		}
		last = ev
		if ev == (campaign.StepEvent{Step: campaign.StepCritique}) {
			cancel()
		}
	}
	assert.Equal(t, campaign.StepEvent{Step: campaign.StepCritique}, last)
	assert.ErrorIs(t, gotErr, context.Canceled)
}

func TestStreamUsesFirstThreeLikedVariations(t *testing.T) {
	f := newFake()
	var liked []campaign.LikedVariation
	for i := 0; i < 5; i++ {
		liked = append(liked, campaign.LikedVariation{ID: fmt.Sprint(i), Text: fmt.Sprintf("liked-text-%d", i)})
	}

	_, err := collect(t, newTestPipeline(f, campaign.ProfileMinimal).Stream(context.Background(), baseRequest(), liked))
	require.NoError(t, err)

	prompt := f.prompts[len(f.prompts)-1]
	assert.Contains(t, prompt, "liked-text-2")
	assert.NotContains(t, prompt, "liked-text-3")
}

func TestResumeFromSkipsResearch(t *testing.T) {
	f := newFake()
	p := newTestPipeline(f, campaign.ProfileFull)
	req := baseRequest()
	cp := Checkpoint{
		Request:   req,
		Analysis:  campaign.TopicAnalysis{CampaignStrategy: "resume"},
		Grounding: &campaign.GroundingMetadata{Citations: []campaign.Citation{{URI: "https://x"}}},
	}

	events, err := collect(t, p.ResumeFrom(context.Background(), cp, nil))
	require.NoError(t, err)
	assert.Zero(t, f.groundedN)

	assert.Equal(t, campaign.AnalysisEvent{Analysis: cp.Analysis}, events[0])
	_, ok := events[1].(campaign.GroundingEvent)
	assert.True(t, ok)
	assert.Equal(t, campaign.StepEvent{Step: campaign.StepStrategy}, events[2])
	assert.Equal(t, campaign.StepEvent{Step: campaign.StepDone}, events[len(events)-1])
}

func TestScoresAreClamped(t *testing.T) {
	raw := `{"posts":[{"platform":"linkedin","image_prompt":"x","viral_score":140,
		"viral_breakdown":{"emotional_resonance":-5,"platform_optimization":50,"content_value":101,"engagement_triggers":100},
		"variations":[
			{"archetype":"[aida]","post_text":"a"},{"archetype":"PAS","post_text":"b"},{"archetype":"BAB","post_text":"c"},
			{"archetype":"Contrarian","post_text":"d"},{"archetype":"VIDEO","post_text":"e"},{"archetype":"POLL","post_text":"f"}]}]}`
	req := baseRequest()
	req.PostCount = 1

	posts, err := decodePosts(raw, req, catalog.Default())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, campaign.PlatformLinkedIn, posts[0].Platform)
	assert.Equal(t, 100.0, posts[0].ViralScore)
	assert.Equal(t, 0.0, posts[0].ViralBreakdown.EmotionalResonance)
	assert.Equal(t, 100.0, posts[0].ViralBreakdown.ContentValue)
	assert.Equal(t, campaign.FrameworkAIDA, posts[0].Variations[0].Framework)
	assert.Equal(t, campaign.FrameworkPoll, posts[0].Variations[5].Framework)
}

func TestPhaseErrorUnwraps(t *testing.T) {
	inner := errors.New("boom")
	err := error(&PhaseError{Step: campaign.StepResearch, Err: inner})
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "RESEARCH failed: boom", err.Error())
}
