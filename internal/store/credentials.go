package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jimdaga/viralpilot/internal/models"
	"github.com/jimdaga/viralpilot/internal/provider"
	"github.com/jimdaga/viralpilot/internal/wordpress"
	"gorm.io/gorm"
)

// AIConfig is a saved provider credential
type AIConfig struct {
	Credential  provider.Credential `json:"credential"`
	Validated   bool                `json:"validated"`
	ValidatedAt *time.Time          `json:"validated_at,omitempty"`
}

// WordPressConfig is a saved WordPress site
type WordPressConfig struct {
	Config      wordpress.Config `json:"config"`
	Validated   bool             `json:"validated"`
	ValidatedAt *time.Time       `json:"validated_at,omitempty"`
}

// SaveAIConfig replaces the user's AI credential.
func (s *Store) SaveAIConfig(ctx context.Context, userID uint, cred provider.Credential, validated bool) error {
	return s.saveCredential(ctx, userID, models.CredentialAI, validated, func(c *models.Credential) {
		c.Provider = cred.Provider
		c.Model = cred.Model
		c.BaseURL = cred.BaseURL
		c.Username = ""
		c.Secret = cred.APIKey
	})
}

// AIConfig loads the user's AI credential.
func (s *Store) AIConfig(ctx context.Context, userID uint) (AIConfig, error) {
	c, err := s.credential(ctx, userID, models.CredentialAI)
	if err != nil {
		return AIConfig{}, err
	}
	return AIConfig{
		Credential: provider.Credential{
			Provider: c.Provider,
			APIKey:   c.Secret,
			Model:    c.Model,
			BaseURL:  c.BaseURL,
		},
		Validated:   c.Validated,
		ValidatedAt: c.ValidatedAt,
	}, nil
}

// SaveWordPressConfig replaces the user's WordPress site.
func (s *Store) SaveWordPressConfig(ctx context.Context, userID uint, cfg wordpress.Config, validated bool) error {
	return s.saveCredential(ctx, userID, models.CredentialWordPress, validated, func(c *models.Credential) {
		c.Provider = ""
		c.Model = ""
		c.BaseURL = cfg.URL
		c.Username = cfg.Username
		c.Secret = cfg.Password
	})
}

// WordPressConfig loads the user's WordPress site.
func (s *Store) WordPressConfig(ctx context.Context, userID uint) (WordPressConfig, error) {
	c, err := s.credential(ctx, userID, models.CredentialWordPress)
	if err != nil {
		return WordPressConfig{}, err
	}
	return WordPressConfig{
		Config: wordpress.Config{
			URL:      c.BaseURL,
			Username: c.Username,
			Password: c.Secret,
		},
		Validated:   c.Validated,
		ValidatedAt: c.ValidatedAt,
	}, nil
}

func (s *Store) saveCredential(ctx context.Context, userID uint, kind string, validated bool, apply func(*models.Credential)) error {
	var record models.Credential
	err := s.db.WithContext(ctx).Where("user_id = ? AND kind = ?", userID, kind).First(&record).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up %s credential: %w", kind, err)
	}

	record.UserID = userID
	record.Kind = kind
	apply(&record)
	record.Validated = validated
	record.ValidatedAt = nil
	if validated {
		now := s.now()
		record.ValidatedAt = &now
	}

	if err := s.db.WithContext(ctx).Save(&record).Error; err != nil {
		return fmt.Errorf("failed to save %s credential: %w", kind, err)
	}
	return nil
}

func (s *Store) credential(ctx context.Context, userID uint, kind string) (models.Credential, error) {
	var record models.Credential
	if err := s.db.WithContext(ctx).Where("user_id = ? AND kind = ?", userID, kind).First(&record).Error; err != nil {
		return models.Credential{}, notFound(err)
	}
	return record, nil
}
