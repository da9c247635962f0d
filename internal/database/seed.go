package database

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jimdaga/viralpilot/internal/models"
	"gorm.io/gorm"
)

// DevUserEmail is the account used when Google login is not configured
const DevUserEmail = "dev@viralpilot.local"

// SeedDevData creates the development user with a validated stub AI
// credential so campaigns can run offline. Idempotent.
func SeedDevData(db *gorm.DB) error {
	var existing models.User
	err := db.Where("email = ?", DevUserEmail).First(&existing).Error
	if err == nil {
		slog.Debug("Seed data already exists, skipping")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up dev user: %w", err)
	}

	now := time.Now()
	return db.Transaction(func(tx *gorm.DB) error {
		user := models.User{Email: DevUserEmail, Name: "Dev User"}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		cred := models.Credential{
			UserID:      user.ID,
			Kind:        models.CredentialAI,
			Provider:    "stub",
			Model:       "stub-1",
			Validated:   true,
			ValidatedAt: &now,
		}
		if err := tx.Create(&cred).Error; err != nil {
			return err
		}

		slog.Info("Seeded development data", "user_id", user.ID, "email", DevUserEmail)
		return nil
	})
}
