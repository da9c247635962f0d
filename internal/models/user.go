package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an application user; every campaign, like and credential is scoped to one
type User struct {
	gorm.Model
	Email       string `gorm:"uniqueIndex:idx_users_email;not null"`
	Name        string `gorm:"not null;default:''"`
	LastLoginAt *time.Time

	// Associations
	AuthIdentities  []AuthIdentity   `gorm:"constraint:OnDelete:CASCADE;"`
	Campaigns       []Campaign       `gorm:"constraint:OnDelete:CASCADE;"`
	LikedVariations []LikedVariation `gorm:"constraint:OnDelete:CASCADE;"`
	Credentials     []Credential     `gorm:"constraint:OnDelete:CASCADE;"`
}
