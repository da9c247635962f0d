package models

import (
	"time"

	"github.com/jimdaga/viralpilot/internal/crypto"
	"gorm.io/gorm"
)

var encryptor *crypto.TokenEncryptor

// InitEncryption initializes the encryptor used for OAuth tokens and saved
// provider secrets. Without it secrets are stored as given.
func InitEncryption(encryptionKey string) error {
	var err error
	encryptor, err = crypto.NewTokenEncryptor(encryptionKey)
	return err
}

// AuthIdentity represents a user's OAuth identity with encrypted token storage
type AuthIdentity struct {
	gorm.Model
	UserID         uint   `gorm:"not null;index"`
	Provider       string `gorm:"not null;uniqueIndex:idx_auth_identities_provider_user"` // e.g., "google"
	ProviderUserID string `gorm:"not null;uniqueIndex:idx_auth_identities_provider_user"`
	AccessToken    string `gorm:"type:text"` // stored encrypted
	RefreshToken   string `gorm:"type:text"` // stored encrypted
	TokenExpiry    *time.Time
}

// BeforeSave encrypts tokens before saving to database.
func (a *AuthIdentity) BeforeSave(tx *gorm.DB) error {
	return sealFields(&a.AccessToken, &a.RefreshToken)
}

// AfterFind decrypts tokens after loading from database
func (a *AuthIdentity) AfterFind(tx *gorm.DB) error {
	return openFields(&a.AccessToken, &a.RefreshToken)
}

// sealFields encrypts every non-empty field in place.
// GCM uses a random nonce so the same value never encrypts the same way twice.
func sealFields(fields ...*string) error {
	if encryptor == nil {
		return nil
	}
	for _, f := range fields {
		if *f == "" {
			continue
		}
		encrypted, err := encryptor.Encrypt(*f)
		if err != nil {
			return err
		}
		*f = encrypted
	}
	return nil
}

func openFields(fields ...*string) error {
	if encryptor == nil {
		return nil
	}
	for _, f := range fields {
		if *f == "" {
			continue
		}
		decrypted, err := encryptor.Decrypt(*f)
		if err != nil {
			return err
		}
		*f = decrypted
	}
	return nil
}
