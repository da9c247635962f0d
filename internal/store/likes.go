package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jimdaga/viralpilot/internal/campaign"
	"github.com/jimdaga/viralpilot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeVariation stores v at the front of the user's liked list, keeping at
// most the liked limit. Liking the same id twice is a no-op.
func (s *Store) LikeVariation(ctx context.Context, userID uint, v campaign.LikedVariation) (campaign.LikedVariation, error) {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = s.now()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := models.LikedVariation{
			VariationID: v.ID,
			UserID:      userID,
			Text:        v.Text,
			Tone:        v.Tone,
			Platform:    v.Platform,
		}
		record.CreatedAt = v.CreatedAt
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
			return fmt.Errorf("failed to save liked variation: %w", err)
		}

		var ids []uint
		if err := tx.Model(&models.LikedVariation{}).
			Where("user_id = ?", userID).
			Order("created_at DESC, id DESC").
			Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("failed to list liked variations: %w", err)
		}
		if len(ids) <= s.likedLimit {
			return nil
		}
		return tx.Unscoped().Delete(&models.LikedVariation{}, ids[s.likedLimit:]).Error
	})
	if err != nil {
		return campaign.LikedVariation{}, err
	}
	return v, nil
}

// LikedVariations returns the user's liked variations newest first.
func (s *Store) LikedVariations(ctx context.Context, userID uint) ([]campaign.LikedVariation, error) {
	var records []models.LikedVariation
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(s.likedLimit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list liked variations: %w", err)
	}

	out := make([]campaign.LikedVariation, len(records))
	for i, r := range records {
		out[i] = campaign.LikedVariation{
			ID:        r.VariationID,
			Text:      r.Text,
			Tone:      r.Tone,
			Platform:  r.Platform,
			CreatedAt: r.CreatedAt,
		}
	}
	return out, nil
}

// UnlikeVariation removes one liked variation.
func (s *Store) UnlikeVariation(ctx context.Context, userID uint, id string) error {
	result := s.db.WithContext(ctx).Unscoped().
		Where("variation_id = ? AND user_id = ?", id, userID).
		Delete(&models.LikedVariation{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete liked variation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
