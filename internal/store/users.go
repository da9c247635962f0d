package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jimdaga/viralpilot/internal/models"
	"gorm.io/gorm"
)

// Identity is the OAuth account a login came from
type Identity struct {
	Provider       string
	ProviderUserID string
	AccessToken    string
	RefreshToken   string
	ExpiresAt      time.Time
}

// UpsertUser finds or creates the user for email and stamps the login time.
func (s *Store) UpsertUser(ctx context.Context, email, name string) (uint, error) {
	now := s.now()
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{Email: email, Name: name, LastLoginAt: &now}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return 0, fmt.Errorf("failed to create user: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("failed to look up user: %w", err)
	default:
		updates := map[string]interface{}{"last_login_at": now}
		if name != "" {
			updates["name"] = name
		}
		if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			return 0, fmt.Errorf("failed to update user: %w", err)
		}
	}
	return user.ID, nil
}

// SaveIdentity records the OAuth tokens for a user, encrypted at rest.
func (s *Store) SaveIdentity(ctx context.Context, userID uint, id Identity) error {
	var identity models.AuthIdentity
	err := s.db.WithContext(ctx).
		Where("provider = ? AND provider_user_id = ?", id.Provider, id.ProviderUserID).
		First(&identity).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up identity: %w", err)
	}

	identity.UserID = userID
	identity.Provider = id.Provider
	identity.ProviderUserID = id.ProviderUserID
	identity.AccessToken = id.AccessToken
	identity.RefreshToken = id.RefreshToken
	identity.TokenExpiry = nil
	if !id.ExpiresAt.IsZero() {
		expiry := id.ExpiresAt
		identity.TokenExpiry = &expiry
	}
	if err := s.db.WithContext(ctx).Save(&identity).Error; err != nil {
		return fmt.Errorf("failed to save identity: %w", err)
	}
	return nil
}
