// Package pipeline runs the staged campaign generation and reports progress
// as a lazy stream of campaign events.
package pipeline

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/jimdaga/viralpilot/internal/campaign"
	"github.com/jimdaga/viralpilot/internal/catalog"
	"github.com/jimdaga/viralpilot/internal/decoder"
	"github.com/jimdaga/viralpilot/internal/provider"
)

// StepVoiceAnalysis labels failures of the optional brand voice phase that
// runs before RESEARCH. It is not part of the reported phase order.
const StepVoiceAnalysis campaign.Step = "VOICE_ANALYSIS"

// Defaults
const (
	DefaultSettleDelay = 1500 * time.Millisecond
	DefaultLikedLimit  = 3
)

// PhaseError reports the phase a run failed in. Checkpoint is set once
// research has completed, so the run can be resumed at STRATEGY.
type PhaseError struct {
	Step       campaign.Step
	Err        error
	Checkpoint *Checkpoint
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// Checkpoint holds the research output of a run so content generation can
// be retried without repeating research.
type Checkpoint struct {
	Request      Request                     `json:"request"`
	Analysis     campaign.TopicAnalysis      `json:"topic_analysis"`
	Grounding    *campaign.GroundingMetadata `json:"grounding_metadata,omitempty"`
	VoiceProfile *campaign.BrandVoiceProfile `json:"voice_profile,omitempty"`
}

// Options tune a Pipeline
type Options struct {
	Profile     campaign.Profile
	SettleDelay time.Duration
	LikedLimit  int
}

// Pipeline turns requests into event streams. It is safe for concurrent use;
// every Stream call is an independent run.
type Pipeline struct {
	gateway provider.Gateway
	catalog *catalog.Catalog
	opts    Options
	logger  *slog.Logger
}

// New creates a pipeline. An empty Profile means full and a zero
// SettleDelay disables the critique pause.
func New(gateway provider.Gateway, cat *catalog.Catalog, opts Options, logger *slog.Logger) *Pipeline {
	if opts.Profile == "" {
		opts.Profile = campaign.ProfileFull
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	if opts.LikedLimit <= 0 {
		opts.LikedLimit = DefaultLikedLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{gateway: gateway, catalog: cat, opts: opts, logger: logger}
}

// Stream returns the event sequence for one run. Nothing happens until the
// sequence is ranged over; ranging twice runs twice. Breaking out of the loop
// or cancelling ctx abandons the run. A non-nil error is always the last
// element yielded.
func (p *Pipeline) Stream(ctx context.Context, req Request, liked []campaign.LikedVariation) iter.Seq2[campaign.Event, error] {
	return func(yield func(campaign.Event, error) bool) {
		// Validate canonicalises in place; each range works on its own copy.
		req := req
		if err := req.Validate(p.catalog); err != nil {
			yield(nil, err)
			return
		}
		r := &run{p: p, ctx: ctx, yield: yield, req: req, liked: p.likedSample(liked)}
		r.full()
	}
}

// ResumeFrom replays the checkpointed research as events and continues the
// run from STRATEGY.
func (p *Pipeline) ResumeFrom(ctx context.Context, cp Checkpoint, liked []campaign.LikedVariation) iter.Seq2[campaign.Event, error] {
	return func(yield func(campaign.Event, error) bool) {
		req := cp.Request
		if err := req.Validate(p.catalog); err != nil {
			yield(nil, err)
			return
		}
		r := &run{p: p, ctx: ctx, yield: yield, req: req, liked: p.likedSample(liked)}
		r.voice = cp.VoiceProfile
		r.analysis = cp.Analysis
		r.grounding = cp.Grounding
		r.researched = true

		if r.voice != nil && !r.emit(campaign.VoiceProfileEvent{Profile: *r.voice}) {
			return
		}
		if !r.emitAnalysis() {
			return
		}
		r.content()
	}
}

func (p *Pipeline) likedSample(liked []campaign.LikedVariation) []campaign.LikedVariation {
	if len(liked) > p.opts.LikedLimit {
		return liked[:p.opts.LikedLimit]
	}
	return liked
}

// run is the state of a single Stream invocation
type run struct {
	p     *Pipeline
	ctx   context.Context
	yield func(campaign.Event, error) bool
	req   Request
	liked []campaign.LikedVariation

	voice      *campaign.BrandVoiceProfile
	analysis   campaign.TopicAnalysis
	grounding  *campaign.GroundingMetadata
	researched bool
	stopped    bool
}

func (r *run) full() {
	start := time.Now()
	r.p.logger.Info("Campaign run started",
		"subject", r.req.Subject(),
		"platforms", len(r.req.Platforms),
		"post_count", r.req.PostCount,
		"profile", r.p.opts.Profile,
	)

	if r.req.BrandVoiceSample != "" && !r.analyzeVoice() {
		return
	}
	if !r.research() {
		return
	}
	if r.content() {
		r.p.logger.Info("Campaign run completed", "duration", time.Since(start))
	}
}

// emit yields ev and reports whether the consumer wants more.
func (r *run) emit(ev campaign.Event) bool {
	if r.stopped {
		return false
	}
	if err := r.ctx.Err(); err != nil {
		r.fail("", err)
		return false
	}
	if !r.yield(ev, nil) {
		r.stopped = true
		r.p.logger.Debug("Campaign run abandoned by consumer")
		return false
	}
	return true
}

// step emits a StepEvent when the profile reports s.
func (r *run) step(s campaign.Step) bool {
	if !r.p.opts.Profile.Includes(s) {
		return !r.stopped
	}
	r.p.logger.Debug("Campaign phase started", "step", s)
	return r.emit(campaign.StepEvent{Step: s})
}

// fail yields the terminal error. Context errors are passed through
// unwrapped so callers can tell abandonment from failure.
func (r *run) fail(s campaign.Step, err error) {
	if r.stopped {
		return
	}
	r.stopped = true
	if s == "" {
		r.yield(nil, err)
		return
	}
	pe := &PhaseError{Step: s, Err: err}
	if r.researched {
		pe.Checkpoint = &Checkpoint{Request: r.req, Analysis: r.analysis, Grounding: r.grounding, VoiceProfile: r.voice}
	}
	r.p.logger.Warn("Campaign run failed", "step", s, "error", err)
	r.yield(nil, pe)
}

func (r *run) analyzeVoice() bool {
	raw, err := r.p.gateway.CompleteStructured(r.ctx, provider.StructuredRequest{
		System: voiceSystem,
		Prompt: voicePrompt(r.req.BrandVoiceSample),
	})
	if err != nil {
		r.fail(StepVoiceAnalysis, err)
		return false
	}
	profile, err := decoder.Decode[campaign.BrandVoiceProfile](raw, decoder.WithSchema("voice_profile"))
	if err != nil {
		r.fail(StepVoiceAnalysis, err)
		return false
	}
	r.voice = &profile
	return r.emit(campaign.VoiceProfileEvent{Profile: profile})
}

type analysisDocument struct {
	CampaignTitle string                 `json:"campaign_title"`
	TopicAnalysis campaign.TopicAnalysis `json:"topic_analysis"`
}

func (r *run) research() bool {
	if !r.step(campaign.StepResearch) {
		return false
	}
	resp, err := r.p.gateway.CompleteGrounded(r.ctx, provider.GroundedRequest{Prompt: analysisPrompt(r.req)})
	if err != nil {
		r.fail(campaign.StepResearch, err)
		return false
	}

	if !r.step(campaign.StepFactCheck) {
		return false
	}
	doc, err := decoder.Decode[analysisDocument](resp.Text, decoder.WithSchema("topic_analysis"))
	if err != nil {
		r.fail(campaign.StepFactCheck, err)
		return false
	}
	r.analysis = normalizeAnalysis(doc.TopicAnalysis)
	if len(resp.Citations) > 0 {
		r.grounding = &campaign.GroundingMetadata{Citations: resp.Citations}
	}
	r.researched = true

	for _, s := range []campaign.Step{campaign.StepCompetitorIntel, campaign.StepAudienceMapping, campaign.StepSEOAnalysis} {
		if !r.step(s) {
			return false
		}
	}
	return r.emitAnalysis()
}

func (r *run) emitAnalysis() bool {
	if !r.emit(campaign.AnalysisEvent{Analysis: r.analysis}) {
		return false
	}
	if r.grounding != nil && len(r.grounding.Citations) > 0 {
		return r.emit(campaign.GroundingEvent{Grounding: *r.grounding})
	}
	return true
}

type postsDocument struct {
	Posts []campaign.Post `json:"posts"`
}

func (r *run) content() bool {
	if !r.step(campaign.StepStrategy) || !r.step(campaign.StepContent) {
		return false
	}

	raw, err := r.p.gateway.CompleteStructured(r.ctx, provider.StructuredRequest{
		System: contentSystem,
		Prompt: postsPrompt(r.req, r.p.catalog, r.analysis, r.liked, r.voice),
	})
	if err != nil {
		r.fail(campaign.StepContent, err)
		return false
	}
	posts, err := decodePosts(raw, r.req, r.p.catalog)
	if err != nil {
		r.fail(campaign.StepContent, err)
		return false
	}

	if !r.step(campaign.StepCritique) {
		return false
	}
	if !r.settle() {
		return false
	}
	for _, s := range []campaign.Step{campaign.StepRevision, campaign.StepAEOOptimize, campaign.StepPolish} {
		if !r.step(s) {
			return false
		}
	}

	for i, post := range posts {
		if !r.emit(campaign.PostEvent{Index: i, Post: post}) {
			return false
		}
	}
	return r.step(campaign.StepDone)
}

// settle waits out the critique delay unless the run is cancelled.
func (r *run) settle() bool {
	if r.p.opts.SettleDelay == 0 {
		return true
	}
	timer := time.NewTimer(r.p.opts.SettleDelay)
	defer timer.Stop()
	select {
	case <-r.ctx.Done():
		r.fail("", r.ctx.Err())
		return false
	case <-timer.C:
		return true
	}
}

// decodePosts parses the content response and enforces the post contract:
// exactly PostCount posts, each with at least five variations covering every
// mandatory framework. Violations fail the whole batch.
func decodePosts(raw string, req Request, cat *catalog.Catalog) ([]campaign.Post, error) {
	doc, err := decoder.Decode[postsDocument](raw, decoder.WithSchema("posts"))
	if err != nil {
		return nil, err
	}

	var violations []string
	if len(doc.Posts) != req.PostCount {
		violations = append(violations, fmt.Sprintf("expected %d posts, got %d", req.PostCount, len(doc.Posts)))
	}

	posts := make([]campaign.Post, 0, len(doc.Posts))
	for i, post := range doc.Posts {
		if info, ok := cat.Platform(string(post.Platform)); ok {
			post.Platform = campaign.Platform(info.Name)
		}
		for j := range post.Variations {
			post.Variations[j].Framework = normalizeFramework(post.Variations[j].Framework)
		}
		if len(post.Variations) < len(campaign.MandatoryFrameworks) {
			violations = append(violations, fmt.Sprintf("post %d: expected at least %d variations, got %d",
				i+1, len(campaign.MandatoryFrameworks), len(post.Variations)))
		}
		if missing := missingFrameworks(post.Variations); len(missing) > 0 {
			violations = append(violations, fmt.Sprintf("post %d: missing frameworks %s", i+1, strings.Join(missing, ", ")))
		}

		post.ViralScore = clampScore(post.ViralScore)
		post.ViralBreakdown = campaign.ViralBreakdown{
			EmotionalResonance:   clampScore(post.ViralBreakdown.EmotionalResonance),
			PlatformOptimization: clampScore(post.ViralBreakdown.PlatformOptimization),
			ContentValue:         clampScore(post.ViralBreakdown.ContentValue),
			EngagementTriggers:   clampScore(post.ViralBreakdown.EngagementTriggers),
		}
		post.Image, post.Video, post.Audio, post.Publish = campaign.MediaTask{}, campaign.MediaTask{}, campaign.MediaTask{}, campaign.MediaTask{}
		if req.Mode == ModeURL {
			post.SourceURL = req.SourceURL
		}
		posts = append(posts, post)
	}

	if len(violations) > 0 {
		return nil, &decoder.ContractViolationError{Schema: "posts", Violations: violations}
	}
	return posts, nil
}

func missingFrameworks(variations []campaign.Variation) []string {
	present := make(map[campaign.Framework]bool, len(variations))
	for _, v := range variations {
		present[v.Framework] = true
	}
	var missing []string
	for _, fw := range campaign.MandatoryFrameworks {
		if !present[fw] {
			missing = append(missing, string(fw))
		}
	}
	return missing
}

// normalizeFramework accepts "[AIDA]", "aida" or "AIDA".
func normalizeFramework(fw campaign.Framework) campaign.Framework {
	return campaign.Framework(strings.ToUpper(strings.Trim(string(fw), "[] ")))
}

func normalizeAnalysis(a campaign.TopicAnalysis) campaign.TopicAnalysis {
	if a.FactCheck != nil {
		a.FactCheck.CredibilityScore = clampScore(a.FactCheck.CredibilityScore)
	}
	return a
}

func clampScore(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
