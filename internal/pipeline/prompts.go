package pipeline

import (
	"fmt"
	"strings"

	"github.com/jimdaga/viralpilot/internal/campaign"
	"github.com/jimdaga/viralpilot/internal/catalog"
	"github.com/jimdaga/viralpilot/internal/provider"
)

const voiceSystem = "You are a computational linguist who extracts a writer's brand DNA."

func voicePrompt(sample string) string {
	return fmt.Sprintf(`Analyze the writing sample below and describe its style.

SAMPLE: %q

Respond with JSON only:
{
  "archetype": "e.g. The Rebel, The Sage, The Jester",
  "sentence_structure": "how sentences are built and paced",
  "vocabulary_level": "reading level and register",
  "banned_words": ["generic words that do not fit this voice"],
  "emoji_usage": "how often and where emoji appear",
  "persuasion_tactics": ["techniques the writer relies on"]
}`, truncateRunes(sample, voiceSampleLimit))
}

func analysisPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the lead strategist of a marketing agency.\n")
	fmt.Fprintf(&b, "Research and fact-check the subject: %q.\n\n", req.Subject())
	b.WriteString("Instructions:\n")
	b.WriteString("1. Use web search to find current trends and statistics.\n")
	b.WriteString("2. Verify claims and flag likely misinformation.\n")
	b.WriteString("3. Forecast engagement for the campaign.\n")
	b.WriteString("4. Run a competitor SWOT analysis and define the audience persona.\n")
	if req.Location != "" {
		fmt.Fprintf(&b, "Focus the research on this market: %s.\n", req.Location)
	}
	if req.CompetitorURL != "" {
		fmt.Fprintf(&b, "Include this competitor in the SWOT: %s.\n", req.CompetitorURL)
	}
	if req.AudiencePersona != "" {
		fmt.Fprintf(&b, "The intended audience is: %s.\n", req.AudiencePersona)
	}
	b.WriteString(`
Respond with JSON only, matching:
{
  "campaign_title": "...",
  "topic_analysis": {
    "campaign_strategy": "...",
    "trend_alignment": "...",
    "audience_resonance": "...",
    "content_gaps": "...",
    "viral_hooks": ["..."],
    "predictive_metrics": {"estimated_engagement_rate": "...", "virality_probability": "...", "audience_sentiment_forecast": "...", "predicted_ctr": "..."},
    "fact_check_analysis": {"credibility_score": 0, "verified_claims": ["..."], "potential_misinformation": [], "content_warnings": [], "citations": ["..."]},
    "competitor_analysis": {"summary": "...", "strengths": [], "weaknesses": [], "opportunities": [], "threats": []},
    "audience_persona_details": {"name": "...", "demographics": "...", "summary": "...", "goals": [], "pain_points": []},
    "seo_keywords": {"primary": [], "secondary": [], "lsi": []}
  }
}`)
	return b.String()
}

const contentSystem = "You write high-performing social media campaigns. Every post uses each mandatory framework exactly once."

func postsPrompt(req Request, cat *catalog.Catalog, analysis campaign.TopicAnalysis, liked []campaign.LikedVariation, voice *campaign.BrandVoiceProfile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "SUBJECT: %s\n", req.Subject())
	fmt.Fprintf(&b, "STRATEGY: %s\n", analysis.CampaignStrategy)
	if len(analysis.ViralHooks) > 0 {
		fmt.Fprintf(&b, "HOOKS: %s\n", strings.Join(analysis.ViralHooks, " | "))
	}
	if req.Tone != "" {
		fmt.Fprintf(&b, "TONE: %s\n", req.Tone)
	}
	if req.Goal != "" {
		fmt.Fprintf(&b, "GOAL: %s\n", req.Goal)
	}
	if req.TrendBoost {
		b.WriteString("TREND BOOST: tie every post to a currently trending conversation or format.\n")
	}

	names := make([]string, len(req.Platforms))
	for i, p := range req.Platforms {
		names[i] = string(p)
	}
	fmt.Fprintf(&b, "%s %s\n", provider.PlatformsMarker, strings.Join(names, ", "))
	fmt.Fprintf(&b, "%s %d\n", provider.PostCountMarker, req.PostCount)
	b.WriteString("Spread the posts across the platforms in the order listed.\n\n")

	b.WriteString("PLATFORM RULES:\n")
	for _, p := range req.Platforms {
		if info, ok := cat.Platform(string(p)); ok {
			fmt.Fprintf(&b, "- %s: max %d characters; formats %s; %s\n",
				info.Name, info.MaxChars, strings.Join(info.BestFormats, ", "), info.AlgorithmTip)
		}
	}

	if len(liked) > 0 {
		b.WriteString("\nMIMIC THE USER'S PREFERRED STYLE:\n")
		for i, v := range liked {
			if i > 0 {
				b.WriteString("---\n")
			}
			b.WriteString(v.Text)
			b.WriteString("\n")
		}
	}

	if voice != nil {
		b.WriteString("\nBRAND VOICE (mandatory):\n")
		fmt.Fprintf(&b, "Archetype: %s\n", voice.Archetype)
		fmt.Fprintf(&b, "Structure: %s\n", voice.SentenceStructure)
		fmt.Fprintf(&b, "Vocabulary: %s\n", voice.VocabularyLevel)
		if len(voice.BannedWords) > 0 {
			fmt.Fprintf(&b, "Never use: %s\n", strings.Join(voice.BannedWords, ", "))
		}
		fmt.Fprintf(&b, "Emoji: %s\n", voice.EmojiUsage)
		if len(voice.PersuasionTactics) > 0 {
			fmt.Fprintf(&b, "Persuasion: %s\n", strings.Join(voice.PersuasionTactics, ", "))
		}
	}

	b.WriteString(`
MANDATORY VARIATION FRAMEWORKS (one variation each, "archetype" set to the tag):
AIDA - attention, interest, desire, action.
PAS - problem, agitation, solution.
BAB - before, after, bridge.
CONTRARIAN - challenge common wisdom with a data-backed angle.
VIDEO - a fast vertical video script.

Respond with JSON only:
{
  "posts": [
    {
      "platform": "...",
      "funnel_stage": "awareness | consideration | conversion",
      "image_prompt": "...",
      "viral_score": 0,
      "viral_breakdown": {"emotional_resonance": 0, "platform_optimization": 0, "content_value": 0, "engagement_triggers": 0},
      "optimization_notes": "...",
      "hashtag_strategy": {"core": [], "niche": [], "trending": []},
      "variations": [
        {"variation_name": "...", "archetype": "AIDA", "post_title": "...", "post_text": "...", "call_to_action": "...", "share_snippet": "...", "viral_trigger": "..."}
      ]
    }
  ]
}`)
	return b.String()
}
