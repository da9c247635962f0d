// Package trends scouts emerging viral hooks for a niche.
package trends

import (
	"context"
	"fmt"
	"strings"

	"github.com/jimdaga/viralpilot/internal/decoder"
	"github.com/jimdaga/viralpilot/internal/provider"
)

// DefaultNiche is scouted when none is configured
const DefaultNiche = "Affiliate Marketing"

// ViralPost is one hook the scout expects to take off
type ViralPost struct {
	Platform     string  `json:"platform"`
	Text         string  `json:"post_text"`
	NeuroScore   float64 `json:"neuro_score"`
	ViralTrigger string  `json:"viral_trigger"`
}

type report struct {
	Posts []ViralPost `json:"viral_posts"`
}

// Scout asks the provider for trending hooks in niche.
func Scout(ctx context.Context, gw provider.Gateway, model, niche string) ([]ViralPost, error) {
	niche = strings.TrimSpace(niche)
	if niche == "" {
		niche = DefaultNiche
	}

	raw, err := gw.CompleteStructured(ctx, provider.StructuredRequest{
		Model:  model,
		Prompt: prompt(niche),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scout trends for %q: %w", niche, err)
	}

	doc, err := decoder.Decode[report](raw, decoder.WithSchema("viral_posts"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode trends for %q: %w", niche, err)
	}
	for i := range doc.Posts {
		doc.Posts[i].NeuroScore = min(max(doc.Posts[i].NeuroScore, 0), 100)
	}
	return doc.Posts, nil
}

func prompt(niche string) string {
	return fmt.Sprintf(`Scout emerging viral hooks for: %q.
Respond with JSON only. Output key: "viral_posts", an array of
{"platform": "...", "post_text": "...", "neuro_score": 0-100, "viral_trigger": "..."}`, niche)
}
