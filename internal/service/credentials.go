package service

import (
	"context"

	"github.com/jimdaga/viralpilot/internal/provider"
	"github.com/jimdaga/viralpilot/internal/wordpress"
)

// SaveAIConfig checks cred against its provider and saves it with the outcome.
// A failed check still saves the credential so the user can correct it.
func (s *Service) SaveAIConfig(ctx context.Context, userID uint, cred provider.Credential) (provider.Validation, error) {
	v := s.ValidateAI(ctx, cred)
	if err := s.store.SaveAIConfig(ctx, userID, cred, v.Valid); err != nil {
		return v, err
	}
	s.logger.Info("AI provider saved", "user_id", userID, "provider", cred.Provider, "valid", v.Valid)
	return v, nil
}

// ValidateAI checks cred without saving it.
func (s *Service) ValidateAI(ctx context.Context, cred provider.Credential) provider.Validation {
	return provider.Validate(ctx, cred, s.opts.Provider)
}

// SaveWordPressConfig checks the site credentials and saves them with the outcome.
func (s *Service) SaveWordPressConfig(ctx context.Context, userID uint, cfg wordpress.Config) (wordpress.Validation, error) {
	v := s.wp.Validate(ctx, cfg)
	if err := s.store.SaveWordPressConfig(ctx, userID, cfg, v.Valid); err != nil {
		return v, err
	}
	s.logger.Info("WordPress site saved", "user_id", userID, "url", cfg.URL, "valid", v.Valid)
	return v, nil
}

// ValidateWordPress checks site credentials without saving them.
func (s *Service) ValidateWordPress(ctx context.Context, cfg wordpress.Config) wordpress.Validation {
	return s.wp.Validate(ctx, cfg)
}
