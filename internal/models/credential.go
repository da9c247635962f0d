package models

import (
	"time"

	"gorm.io/gorm"
)

// Credential kinds
const (
	CredentialAI        = "ai"
	CredentialWordPress = "wordpress"
)

// Credential is a user's saved AI provider key or WordPress application
// password. Validated gates whether the pipeline or publisher may use it.
type Credential struct {
	ID          uint `gorm:"primarykey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
	UserID      uint           `gorm:"not null;uniqueIndex:idx_credentials_user_kind"`
	Kind        string         `gorm:"not null;uniqueIndex:idx_credentials_user_kind"`
	Provider    string
	Model       string
	BaseURL     string
	Username    string
	Secret      string `gorm:"type:text"` // stored encrypted
	Validated   bool   `gorm:"not null;default:false"`
	ValidatedAt *time.Time
}

// BeforeSave encrypts the secret
func (c *Credential) BeforeSave(tx *gorm.DB) error {
	return sealFields(&c.Secret)
}

// AfterFind decrypts the secret
func (c *Credential) AfterFind(tx *gorm.DB) error {
	return openFields(&c.Secret)
}

// All lists every model for schema migration.
func All() []any {
	return []any{
		&User{},
		&AuthIdentity{},
		&Campaign{},
		&LikedVariation{},
		&Credential{},
		&TrendReport{},
	}
}
