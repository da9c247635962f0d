package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jimdaga/viralpilot/internal/aggregator"
	"github.com/jimdaga/viralpilot/internal/campaign"
	"github.com/jimdaga/viralpilot/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaveCampaign upserts c for the user, moves it to the front of the
// history and evicts the oldest entries beyond the history limit.
func (s *Store) SaveCampaign(ctx context.Context, userID uint, c campaign.Campaign) error {
	content, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal campaign: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.Campaign
		err := tx.Where("campaign_id = ? AND user_id = ?", c.ID, userID).First(&record).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up campaign: %w", err)
		}

		// Upsert; an existing row keeps its primary key
		record.CampaignID = c.ID
		record.UserID = userID
		record.Title = c.Title
		record.Content = datatypes.JSON(content)
		if err := tx.Save(&record).Error; err != nil {
			return fmt.Errorf("failed to save campaign: %w", err)
		}

		// Evict everything past the history limit
		var ids []uint
		if err := tx.Model(&models.Campaign{}).
			Where("user_id = ?", userID).
			Order("updated_at DESC, id DESC").
			Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("failed to list campaigns: %w", err)
		}
		if len(ids) <= s.historyLimit {
			return nil
		}
		if err := tx.Unscoped().Delete(&models.Campaign{}, ids[s.historyLimit:]).Error; err != nil {
			return fmt.Errorf("failed to evict old campaigns: %w", err)
		}
		return nil
	})
}

// ListCampaigns returns the user's campaigns newest first.
func (s *Store) ListCampaigns(ctx context.Context, userID uint) ([]campaign.Campaign, error) {
	var records []models.Campaign
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC, id DESC").
		Limit(s.historyLimit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	out := make([]campaign.Campaign, 0, len(records))
	for _, r := range records {
		c, err := decodeCampaign(r)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// GetCampaign loads one campaign owned by the user.
func (s *Store) GetCampaign(ctx context.Context, userID uint, id string) (campaign.Campaign, error) {
	var record models.Campaign
	if err := s.db.WithContext(ctx).
		Where("campaign_id = ? AND user_id = ?", id, userID).
		First(&record).Error; err != nil {
		return campaign.Campaign{}, notFound(err)
	}
	return decodeCampaign(record)
}

// DeleteCampaign removes a campaign from the user's history.
func (s *Store) DeleteCampaign(ctx context.Context, userID uint, id string) error {
	result := s.db.WithContext(ctx).Unscoped().
		Where("campaign_id = ? AND user_id = ?", id, userID).
		Delete(&models.Campaign{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete campaign: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePost applies fn to one post of a stored campaign inside a
// transaction and returns the updated post. The campaign keeps its place in
// the history.
func (s *Store) UpdatePost(ctx context.Context, userID uint, campaignID string, index int, fn func(*campaign.Post) error) (campaign.Post, error) {
	var updated campaign.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Row lock so concurrent task updates serialise
		query := tx
		if tx.Dialector.Name() == "postgres" {
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var record models.Campaign
		if err := query.
			Where("campaign_id = ? AND user_id = ?", campaignID, userID).
			First(&record).Error; err != nil {
			return notFound(err)
		}

		c, err := decodeCampaign(record)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(c.Posts) {
			return fmt.Errorf("post %d of campaign %s: %w", index, campaignID, ErrNotFound)
		}
		if err := fn(&c.Posts[index]); err != nil {
			return err
		}

		content, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal campaign: %w", err)
		}
		if err := tx.Model(&record).UpdateColumn("content", datatypes.JSON(content)).Error; err != nil {
			return fmt.Errorf("failed to update campaign: %w", err)
		}
		updated = c.Posts[index]
		return nil
	})
	return updated, err
}

// History returns a recorder that saves finished runs for the user.
func (s *Store) History(userID uint) aggregator.HistoryRecorder {
	return userHistory{store: s, userID: userID}
}

type userHistory struct {
	store  *Store
	userID uint
}

func (h userHistory) Record(ctx context.Context, c campaign.Campaign) error {
	return h.store.SaveCampaign(ctx, h.userID, c)
}

func decodeCampaign(r models.Campaign) (campaign.Campaign, error) {
	var c campaign.Campaign
	if err := json.Unmarshal(r.Content, &c); err != nil {
		return campaign.Campaign{}, fmt.Errorf("failed to decode campaign %s: %w", r.CampaignID, err)
	}
	return c, nil
}
