package models

import (
	"time"

	"gorm.io/gorm"
)

// Clan mirrors the clan registry owned by the profile service.
// We only keep what the review pipeline and the schedulers need.
type Clan struct {
	ID   string `json:"id" gorm:"primaryKey;type:uuid"`
	Name string `json:"name" gorm:"not null"`
	Tag  string `json:"tag" gorm:"size:8"`

	Timestamps
}

// GameAccount is one row of a clan's roster (account id ↔ in-game display name).
// The roster sync worker keeps this table current; the matching engine only ever
// reads accounts with is_active = true.
type GameAccount struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid"`
	ClanID      string     `json:"clan_id" gorm:"not null;index"`
	DisplayName string     `json:"display_name" gorm:"not null"`
	IsActive    bool       `json:"is_active" gorm:"default:true;index"`
	LeftAt      *time.Time `json:"left_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
