package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Campaign stores one finished generation run as a JSON document.
// CampaignID is the public id carried inside Content; UpdatedAt orders history.
type Campaign struct {
	gorm.Model
	CampaignID string         `gorm:"uniqueIndex;not null"`
	UserID     uint           `gorm:"not null;index"`
	Title      string         `gorm:"not null;default:''"`
	Content    datatypes.JSON `gorm:"type:jsonb"`
}

// LikedVariation is a post variation a user marked as on-brand
type LikedVariation struct {
	gorm.Model
	VariationID string `gorm:"uniqueIndex;not null"`
	UserID      uint   `gorm:"not null;index"`
	Text        string `gorm:"type:text;not null"`
	Tone        string
	Platform    string
}

// TrendReport is one scouting pass over a niche
type TrendReport struct {
	gorm.Model
	Niche string         `gorm:"not null;index"`
	Posts datatypes.JSON `gorm:"type:jsonb"`
}
