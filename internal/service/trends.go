package service

import (
	"context"
	"strings"

	"github.com/jimdaga/viralpilot/internal/provider"
	"github.com/jimdaga/viralpilot/internal/store"
	"github.com/jimdaga/viralpilot/internal/trends"
)

// ScoutTrends scouts niche with the user's provider and saves the report.
func (s *Service) ScoutTrends(ctx context.Context, userID uint, niche string) (store.TrendReport, error) {
	gw, err := s.Gateway(ctx, userID)
	if err != nil {
		return store.TrendReport{}, err
	}
	return s.scout(ctx, gw, niche)
}

// ScoutScheduled scouts niche with the server's own provider configuration.
func (s *Service) ScoutScheduled(ctx context.Context, niche string) (store.TrendReport, error) {
	gw, err := s.DefaultGateway(ctx)
	if err != nil {
		return store.TrendReport{}, err
	}
	return s.scout(ctx, gw, niche)
}

// Trends returns the newest saved report for niche.
func (s *Service) Trends(ctx context.Context, niche string) (store.TrendReport, error) {
	return s.store.LatestTrends(ctx, nicheOrDefault(niche))
}

func (s *Service) scout(ctx context.Context, gw provider.Gateway, niche string) (store.TrendReport, error) {
	niche = nicheOrDefault(niche)
	posts, err := trends.Scout(ctx, gw, "", niche)
	if err != nil {
		return store.TrendReport{}, err
	}
	if err := s.store.SaveTrendReport(ctx, niche, posts); err != nil {
		return store.TrendReport{}, err
	}
	s.logger.Info("Trends scouted", "niche", niche, "posts", len(posts))
	return store.TrendReport{Niche: niche, Posts: posts, ScoutedAt: s.now()}, nil
}

func nicheOrDefault(niche string) string {
	if n := strings.TrimSpace(niche); n != "" {
		return n
	}
	return trends.DefaultNiche
}
