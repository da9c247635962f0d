package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jimdaga/viralpilot/internal/campaign"
)

// Prompt markers the stub reads to shape its canned responses. The pipeline
// writes these lines into every content prompt.
const (
	PlatformsMarker = "PLATFORMS:"
	PostCountMarker = "POSTS REQUIRED:"
)

var (
	platformsLine = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(PlatformsMarker) + `\s*(.+)$`)
	postCountLine = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(PostCountMarker) + `\s*(\d+)\s*$`)
)

// 1x1 transparent PNG
const stubPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

// StubGateway returns deterministic canned responses after a simulated delay.
// It lets the whole service run offline, mirroring a webhook stub mode.
type StubGateway struct {
	delay  time.Duration
	videos atomic.Int64
}

// NewStubGateway creates a stub gateway with the given per-call delay.
func NewStubGateway(delay time.Duration) *StubGateway {
	return &StubGateway{delay: delay}
}

func (s *StubGateway) wait(ctx context.Context) error {
	if s.delay <= 0 {
		if err := ctx.Err(); err != nil {
			return wrapTransport(err)
		}
		return nil
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return wrapTransport(ctx.Err())
	case <-timer.C:
		return nil
	}
}

// CompleteStructured picks a canned document by the prompt's requested shape.
func (s *StubGateway) CompleteStructured(ctx context.Context, req StructuredRequest) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	switch {
	case strings.Contains(req.Prompt, "viral_posts"):
		return stubViralPosts, nil
	case strings.Contains(req.Prompt, "persuasion_tactics"):
		return stubVoiceProfile, nil
	case postCountLine.MatchString(req.Prompt):
		return stubPosts(req.Prompt)
	default:
		return `{"ok":true}`, nil
	}
}

// CompleteGrounded returns a fenced analysis document with two citations.
func (s *StubGateway) CompleteGrounded(ctx context.Context, req GroundedRequest) (GroundedResponse, error) {
	if err := s.wait(ctx); err != nil {
		return GroundedResponse{}, err
	}
	return GroundedResponse{
		Text: "```json\n" + stubAnalysis + "\n```",
		Citations: []campaign.Citation{
			{URI: "https://example.com/trend-report", Title: "Trend Report"},
			{URI: "https://example.com/industry-survey", Title: "Industry Survey"},
		},
	}, nil
}

// GenerateImage returns a 1x1 PNG.
func (s *StubGateway) GenerateImage(ctx context.Context, req ImageRequest) (Image, error) {
	if err := s.wait(ctx); err != nil {
		return Image{}, err
	}
	data, _ := base64.StdEncoding.DecodeString(stubPNG)
	return Image{Data: data, MIMEType: "image/png"}, nil
}

// StartVideo returns a pending operation that completes on the first poll.
func (s *StubGateway) StartVideo(ctx context.Context, req VideoRequest) (VideoOperation, error) {
	if err := s.wait(ctx); err != nil {
		return VideoOperation{}, err
	}
	id := s.videos.Add(1)
	return VideoOperation{ID: fmt.Sprintf("stub-video-%d", id), State: VideoPending}, nil
}

// PollVideo marks the operation ready with a placeholder payload.
func (s *StubGateway) PollVideo(ctx context.Context, op VideoOperation) (VideoOperation, error) {
	if err := s.wait(ctx); err != nil {
		return op, err
	}
	op.State = VideoReady
	op.MIMEType = "video/mp4"
	op.Data = []byte("stub-video:" + op.ID)
	return op, nil
}

// SynthesizeSpeech returns a short silent WAV clip.
func (s *StubGateway) SynthesizeSpeech(ctx context.Context, req SpeechRequest) (Audio, error) {
	if err := s.wait(ctx); err != nil {
		return Audio{}, err
	}
	return Audio{Data: pcmToWAV(make([]byte, defaultSampleRate/5), defaultSampleRate), MIMEType: "audio/wav"}, nil
}

// ValidateCredential accepts any key.
func (s *StubGateway) ValidateCredential(ctx context.Context, cred Credential) Validation {
	return Validation{Valid: true}
}

type stubVariation struct {
	Name         string   `json:"variation_name"`
	Archetype    string   `json:"archetype"`
	Title        string   `json:"post_title"`
	Text         string   `json:"post_text"`
	CallToAction string   `json:"call_to_action"`
	ShareSnippet string   `json:"share_snippet"`
	ViralTrigger string   `json:"viral_trigger"`
	PollOptions  []string `json:"poll_options,omitempty"`
}

func stubPosts(prompt string) (string, error) {
	count := 1
	if m := postCountLine.FindStringSubmatch(prompt); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			count = n
		}
	}
	platforms := []string{string(campaign.PlatformLinkedIn)}
	if m := platformsLine.FindStringSubmatch(prompt); m != nil {
		platforms = platforms[:0]
		for _, p := range strings.Split(m[1], ",") {
			if p = strings.TrimSpace(p); p != "" {
				platforms = append(platforms, p)
			}
		}
	}

	posts := make([]map[string]any, 0, count)
	for i := 0; i < count; i++ {
		platform := platforms[i%len(platforms)]
		variations := make([]stubVariation, 0, len(campaign.MandatoryFrameworks))
		for _, fw := range campaign.MandatoryFrameworks {
			variations = append(variations, stubVariation{
				Name:         fmt.Sprintf("%s angle", fw),
				Archetype:    string(fw),
				Title:        fmt.Sprintf("%s post %d", platform, i+1),
				Text:         fmt.Sprintf("[%s] Draft %d for %s.", fw, i+1, platform),
				CallToAction: "Share your take below.",
				ShareSnippet: "Worth a read.",
				ViralTrigger: "Curiosity gap",
			})
		}
		posts = append(posts, map[string]any{
			"platform":           platform,
			"variations":         variations,
			"image_prompt":       fmt.Sprintf("Minimal flat illustration for %s post %d", platform, i+1),
			"viral_score":        80 + i%20,
			"viral_breakdown":    map[string]int{"emotional_resonance": 80, "platform_optimization": 85, "content_value": 78, "engagement_triggers": 82},
			"optimization_notes": "Lead with the statistic.",
			"hashtag_strategy":   map[string][]string{"core": {"#marketing"}, "niche": {"#growth"}, "trending": {"#ai"}},
			"funnel_stage":       "awareness",
		})
	}

	out, err := json.Marshal(map[string]any{"posts": posts})
	if err != nil {
		return "", &Error{Kind: KindFatal, Message: "failed to build stub posts", Err: err}
	}
	return string(out), nil
}

const stubVoiceProfile = `{
  "archetype": "The Sage",
  "sentence_structure": "Short declarative sentences with an occasional long explanation.",
  "vocabulary_level": "Plain English, light jargon",
  "banned_words": ["synergy", "leverage"],
  "emoji_usage": "Sparse (1 per post)",
  "persuasion_tactics": ["Social proof", "Open loops"]
}`

const stubAnalysis = `{
  "campaign_title": "Offline Demo Campaign",
  "topic_analysis": {
    "campaign_strategy": "Position the topic as an early-adopter advantage.",
    "trend_alignment": "Rising search interest over the last quarter.",
    "audience_resonance": "Practitioners want concrete numbers.",
    "content_gaps": "Few posts show before/after results.",
    "viral_hooks": ["Nobody talks about this", "I tried it for 30 days"],
    "predictive_metrics": {
      "estimated_engagement_rate": "4.2%",
      "virality_probability": "High",
      "audience_sentiment_forecast": "Positive",
      "predicted_ctr": "2.1%"
    },
    "fact_check_analysis": {
      "credibility_score": 92,
      "verified_claims": ["Adoption doubled year over year"],
      "potential_misinformation": [],
      "content_warnings": [],
      "citations": ["https://example.com/trend-report"]
    },
    "competitor_analysis": {
      "summary": "Incumbents post generic tips.",
      "strengths": ["Large audiences"],
      "weaknesses": ["Low specificity"],
      "opportunities": ["Data-led storytelling"],
      "threats": ["Algorithm changes"]
    },
    "audience_persona_details": {
      "name": "Growth-minded Gwen",
      "demographics": "28-40, marketing lead",
      "summary": "Needs proof before pitching internally.",
      "goals": ["Hit pipeline targets"],
      "pain_points": ["No time for research"]
    },
    "seo_keywords": {
      "primary": ["ai marketing"],
      "secondary": ["content automation"],
      "lsi": ["social media strategy"]
    }
  }
}`

const stubViralPosts = `{
  "viral_posts": [
    {"platform": "TikTok", "post_text": "Stop scrolling if you still write captions by hand.", "neuro_score": 91, "viral_trigger": "Pattern interrupt"},
    {"platform": "LinkedIn", "post_text": "I replaced my content calendar with one prompt. Results:", "neuro_score": 86, "viral_trigger": "Curiosity gap"}
  ]
}`
