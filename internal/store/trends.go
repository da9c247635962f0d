package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jimdaga/viralpilot/internal/models"
	"github.com/jimdaga/viralpilot/internal/trends"
	"gorm.io/datatypes"
)

// TrendReport is the latest scouting result for a niche
type TrendReport struct {
	Niche     string             `json:"niche"`
	Posts     []trends.ViralPost `json:"viral_posts"`
	ScoutedAt time.Time          `json:"scouted_at"`
}

// SaveTrendReport appends a scouting result.
func (s *Store) SaveTrendReport(ctx context.Context, niche string, posts []trends.ViralPost) error {
	data, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("failed to marshal trends: %w", err)
	}
	record := models.TrendReport{
		Niche: strings.ToLower(strings.TrimSpace(niche)),
		Posts: datatypes.JSON(data),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to save trend report: %w", err)
	}
	return nil
}

// LatestTrends returns the newest report for niche.
func (s *Store) LatestTrends(ctx context.Context, niche string) (TrendReport, error) {
	var record models.TrendReport
	if err := s.db.WithContext(ctx).
		Where("niche = ?", strings.ToLower(strings.TrimSpace(niche))).
		Order("created_at DESC, id DESC").
		First(&record).Error; err != nil {
		return TrendReport{}, notFound(err)
	}

	var posts []trends.ViralPost
	if err := json.Unmarshal(record.Posts, &posts); err != nil {
		return TrendReport{}, fmt.Errorf("failed to decode trend report: %w", err)
	}
	return TrendReport{Niche: niche, Posts: posts, ScoutedAt: record.CreatedAt}, nil
}
