// Package campaign defines the campaign domain records and the event union
// produced by the generation pipeline.
package campaign

import "time"

// Platform identifies a social network a post is written for
type Platform string

const (
	PlatformFacebook  Platform = "Facebook"
	PlatformInstagram Platform = "Instagram"
	PlatformPinterest Platform = "Pinterest"
	PlatformLinkedIn  Platform = "LinkedIn"
	PlatformTwitter   Platform = "Twitter"
	PlatformTikTok    Platform = "TikTok"
	PlatformYouTube   Platform = "YouTube"
	PlatformThreads   Platform = "Threads"
)

// Framework is the persuasion structure a variation is built on.
// Values outside the constants below are accepted as free-form labels.
type Framework string

const (
	FrameworkAIDA       Framework = "AIDA"
	FrameworkPAS        Framework = "PAS"
	FrameworkBAB        Framework = "BAB"
	FrameworkContrarian Framework = "CONTRARIAN"
	FrameworkVideo      Framework = "VIDEO"
	FrameworkPoll       Framework = "POLL"
)

// MandatoryFrameworks must each appear once in every generated post.
var MandatoryFrameworks = []Framework{
	FrameworkAIDA,
	FrameworkPAS,
	FrameworkBAB,
	FrameworkContrarian,
	FrameworkVideo,
}

// Campaign is the aggregate built from one generation run
type Campaign struct {
	ID           string             `json:"id"`
	Title        string             `json:"campaign_title"`
	CreatedAt    time.Time          `json:"timestamp"`
	Analysis     TopicAnalysis      `json:"topic_analysis"`
	Posts        []Post             `json:"posts"`
	Grounding    *GroundingMetadata `json:"grounding_metadata,omitempty"`
	VoiceProfile *BrandVoiceProfile `json:"voice_profile,omitempty"`
}

// TopicAnalysis is the research and strategy document for a campaign.
// Every pointer block is optional; nil means the block was not computed.
type TopicAnalysis struct {
	CampaignStrategy  string              `json:"campaign_strategy"`
	TrendAlignment    string              `json:"trend_alignment"`
	AudienceResonance string              `json:"audience_resonance"`
	ContentGaps       string              `json:"content_gaps"`
	ViralHooks        []string            `json:"viral_hooks"`
	SEOKeywords       *SEOKeywords        `json:"seo_keywords,omitempty"`
	PredictiveMetrics *PredictiveMetrics  `json:"predictive_metrics,omitempty"`
	FactCheck         *FactCheckAnalysis  `json:"fact_check_analysis,omitempty"`
	Competitor        *CompetitorAnalysis `json:"competitor_analysis,omitempty"`
	AudiencePersona   *AudiencePersona    `json:"audience_persona_details,omitempty"`
}

// SEOKeywords groups keyword clusters by intent
type SEOKeywords struct {
	Primary   []string `json:"primary"`
	Secondary []string `json:"secondary"`
	LSI       []string `json:"lsi"`
}

// PredictiveMetrics is the provider's performance forecast
type PredictiveMetrics struct {
	EstimatedEngagementRate   string `json:"estimated_engagement_rate"`
	ViralityProbability       string `json:"virality_probability"`
	AudienceSentimentForecast string `json:"audience_sentiment_forecast"`
	PredictedCTR              string `json:"predicted_ctr"`
}

// FactCheckAnalysis summarizes claim verification
type FactCheckAnalysis struct {
	CredibilityScore        float64  `json:"credibility_score"`
	VerifiedClaims          []string `json:"verified_claims"`
	PotentialMisinformation []string `json:"potential_misinformation"`
	ContentWarnings         []string `json:"content_warnings"`
	Citations               []string `json:"citations"`
}

// CompetitorAnalysis is a SWOT over the competitive landscape
type CompetitorAnalysis struct {
	Summary       string   `json:"summary"`
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

// AudiencePersona describes the target reader
type AudiencePersona struct {
	Name         string   `json:"name"`
	Demographics string   `json:"demographics"`
	Summary      string   `json:"summary"`
	Goals        []string `json:"goals"`
	PainPoints   []string `json:"pain_points"`
}

// Citation is one web source returned by a grounded completion
type Citation struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// GroundingMetadata holds the sources backing the topic analysis
type GroundingMetadata struct {
	Citations []Citation `json:"citations"`
}

// ViralBreakdown is the sub-score breakdown of a post's viral score.
// Each component is bounded to 0..100 independently.
type ViralBreakdown struct {
	EmotionalResonance   float64 `json:"emotional_resonance"`
	PlatformOptimization float64 `json:"platform_optimization"`
	ContentValue         float64 `json:"content_value"`
	EngagementTriggers   float64 `json:"engagement_triggers"`
}

// HashtagStrategy splits hashtags into disjoint categories
type HashtagStrategy struct {
	Core     []string `json:"core"`
	Niche    []string `json:"niche"`
	Trending []string `json:"trending"`
}

// All flattens the strategy in core, niche, trending order.
func (h HashtagStrategy) All() []string {
	tags := make([]string, 0, len(h.Core)+len(h.Niche)+len(h.Trending))
	tags = append(tags, h.Core...)
	tags = append(tags, h.Niche...)
	tags = append(tags, h.Trending...)
	return tags
}

// Variation is one framework-specific rendering of a post
type Variation struct {
	Name         string    `json:"variation_name"`
	Framework    Framework `json:"archetype"`
	Title        string    `json:"post_title"`
	Text         string    `json:"post_text"`
	CallToAction string    `json:"call_to_action"`
	ShareSnippet string    `json:"share_snippet"`
	ViralTrigger string    `json:"viral_trigger"`
	PollOptions  []string  `json:"poll_options,omitempty"`
}

// Post is one generated social post with its variations and media enrichment state.
// Variations and scores are fixed once the pipeline emits the post; only the
// MediaTask fields change afterwards.
type Post struct {
	Platform          Platform        `json:"platform"`
	Variations        []Variation     `json:"variations"`
	ImagePrompt       string          `json:"image_prompt"`
	ViralScore        float64         `json:"viral_score"`
	ViralBreakdown    ViralBreakdown  `json:"viral_breakdown"`
	OptimizationNotes string          `json:"optimization_notes"`
	HashtagStrategy   HashtagStrategy `json:"hashtag_strategy"`
	FunnelStage       string          `json:"funnel_stage,omitempty"`
	SourceURL         string          `json:"source_url,omitempty"`

	Image   MediaTask `json:"image"`
	Video   MediaTask `json:"video"`
	Audio   MediaTask `json:"audio"`
	Publish MediaTask `json:"publish"`
}

// BrandVoiceProfile is the stylistic fingerprint extracted from a writing sample
type BrandVoiceProfile struct {
	Archetype         string   `json:"archetype"`
	SentenceStructure string   `json:"sentence_structure"`
	VocabularyLevel   string   `json:"vocabulary_level"`
	BannedWords       []string `json:"banned_words"`
	EmojiUsage        string   `json:"emoji_usage"`
	PersuasionTactics []string `json:"persuasion_tactics"`
}

// LikedVariation is a variation the user marked as on-brand
type LikedVariation struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Tone      string    `json:"tone"`
	Platform  string    `json:"platform"`
	CreatedAt time.Time `json:"timestamp"`
}

// Clone returns a deep copy so snapshots never alias the aggregator's state.
func (c Campaign) Clone() Campaign {
	out := c
	out.Analysis = c.Analysis.clone()
	if c.Posts != nil {
		out.Posts = make([]Post, len(c.Posts))
		for i, p := range c.Posts {
			out.Posts[i] = p.Clone()
		}
	}
	if c.Grounding != nil {
		g := GroundingMetadata{Citations: append([]Citation(nil), c.Grounding.Citations...)}
		out.Grounding = &g
	}
	if c.VoiceProfile != nil {
		v := c.VoiceProfile.clone()
		out.VoiceProfile = &v
	}
	return out
}

// Clone returns a deep copy of the post.
// WithoutPayloads returns c with every inline media payload dropped. Task
// URLs are kept. The result shares everything except Posts with c.
func (c Campaign) WithoutPayloads() Campaign {
	if c.Posts == nil {
		return c
	}
	posts := make([]Post, len(c.Posts))
	for i, p := range c.Posts {
		p.Image.Payload = ""
		p.Video.Payload = ""
		p.Audio.Payload = ""
		p.Publish.Payload = ""
		posts[i] = p
	}
	c.Posts = posts
	return c
}

func (p Post) Clone() Post {
	out := p
	if p.Variations != nil {
		out.Variations = make([]Variation, len(p.Variations))
		for i, v := range p.Variations {
			v.PollOptions = cloneStrings(v.PollOptions)
			out.Variations[i] = v
		}
	}
	out.HashtagStrategy = HashtagStrategy{
		Core:     cloneStrings(p.HashtagStrategy.Core),
		Niche:    cloneStrings(p.HashtagStrategy.Niche),
		Trending: cloneStrings(p.HashtagStrategy.Trending),
	}
	return out
}

func (a TopicAnalysis) clone() TopicAnalysis {
	out := a
	out.ViralHooks = cloneStrings(a.ViralHooks)
	if a.SEOKeywords != nil {
		k := SEOKeywords{
			Primary:   cloneStrings(a.SEOKeywords.Primary),
			Secondary: cloneStrings(a.SEOKeywords.Secondary),
			LSI:       cloneStrings(a.SEOKeywords.LSI),
		}
		out.SEOKeywords = &k
	}
	if a.PredictiveMetrics != nil {
		m := *a.PredictiveMetrics
		out.PredictiveMetrics = &m
	}
	if a.FactCheck != nil {
		f := *a.FactCheck
		f.VerifiedClaims = cloneStrings(f.VerifiedClaims)
		f.PotentialMisinformation = cloneStrings(f.PotentialMisinformation)
		f.ContentWarnings = cloneStrings(f.ContentWarnings)
		f.Citations = cloneStrings(f.Citations)
		out.FactCheck = &f
	}
	if a.Competitor != nil {
		c := *a.Competitor
		c.Strengths = cloneStrings(c.Strengths)
		c.Weaknesses = cloneStrings(c.Weaknesses)
		c.Opportunities = cloneStrings(c.Opportunities)
		c.Threats = cloneStrings(c.Threats)
		out.Competitor = &c
	}
	if a.AudiencePersona != nil {
		p := *a.AudiencePersona
		p.Goals = cloneStrings(p.Goals)
		p.PainPoints = cloneStrings(p.PainPoints)
		out.AudiencePersona = &p
	}
	return out
}

func (v BrandVoiceProfile) clone() BrandVoiceProfile {
	out := v
	out.BannedWords = cloneStrings(v.BannedWords)
	out.PersuasionTactics = cloneStrings(v.PersuasionTactics)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
