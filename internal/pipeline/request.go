package pipeline

import (
	"fmt"
	"strings"

	"github.com/jimdaga/viralpilot/internal/campaign"
	"github.com/jimdaga/viralpilot/internal/catalog"
)

// InputMode says whether the campaign starts from a topic or a source URL
type InputMode string

const (
	ModeTopic InputMode = "topic"
	ModeURL   InputMode = "url"
)

// Post count bounds
const (
	MinPostCount = 1
	MaxPostCount = 20
)

// voiceSampleLimit is the number of runes of the brand voice sample sent to the provider.
const voiceSampleLimit = 1000

// Request is one user request for a campaign
type Request struct {
	Mode             InputMode           `json:"input_mode"`
	Topic            string              `json:"topic"`
	SourceURL        string              `json:"source_url"`
	Platforms        []campaign.Platform `json:"platforms"`
	Tone             string              `json:"tone"`
	Goal             string              `json:"campaign_goal"`
	PostCount        int                 `json:"post_count"`
	TrendBoost       bool                `json:"trend_boost"`
	Location         string              `json:"location,omitempty"`
	CompetitorURL    string              `json:"competitor_url,omitempty"`
	AudiencePersona  string              `json:"audience_persona,omitempty"`
	BrandVoiceSample string              `json:"brand_voice_sample,omitempty"`
}

// Subject returns the topic, or the source URL in URL mode.
func (r Request) Subject() string {
	if r.Mode == ModeURL && strings.TrimSpace(r.SourceURL) != "" {
		return strings.TrimSpace(r.SourceURL)
	}
	if t := strings.TrimSpace(r.Topic); t != "" {
		return t
	}
	return strings.TrimSpace(r.SourceURL)
}

// Validate rejects requests that cannot produce a campaign. Errors wrap
// campaign.ErrPrecondition and are returned before any provider call.
// Platform names are canonicalised against the catalog in place.
func (r *Request) Validate(cat *catalog.Catalog) error {
	if r.Subject() == "" {
		return fmt.Errorf("%w: a topic or source URL is required", campaign.ErrPrecondition)
	}
	if len(r.Platforms) == 0 {
		return fmt.Errorf("%w: at least one platform is required", campaign.ErrPrecondition)
	}
	if r.PostCount < MinPostCount || r.PostCount > MaxPostCount {
		return fmt.Errorf("%w: post count must be between %d and %d, got %d",
			campaign.ErrPrecondition, MinPostCount, MaxPostCount, r.PostCount)
	}

	seen := make(map[campaign.Platform]bool, len(r.Platforms))
	platforms := make([]campaign.Platform, 0, len(r.Platforms))
	for _, p := range r.Platforms {
		info, ok := cat.Platform(string(p))
		if !ok {
			return fmt.Errorf("%w: unknown platform %q", campaign.ErrPrecondition, p)
		}
		canonical := campaign.Platform(info.Name)
		if !seen[canonical] {
			seen[canonical] = true
			platforms = append(platforms, canonical)
		}
	}
	r.Platforms = platforms

	if r.Tone != "" {
		if _, ok := cat.Tone(r.Tone); !ok {
			return fmt.Errorf("%w: unknown tone %q", campaign.ErrPrecondition, r.Tone)
		}
	}
	if r.Goal != "" {
		if _, ok := cat.Goal(r.Goal); !ok {
			return fmt.Errorf("%w: unknown campaign goal %q", campaign.ErrPrecondition, r.Goal)
		}
	}
	return nil
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
