package models

import (
	"time"

	"gorm.io/gorm"
)

// PlayerRating is the published rating of a player. It is created once per
// account and afterwards written only by match settlement; tournament and
// league consumers read it.
type PlayerRating struct {
	ID     string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID string `gorm:"uniqueIndex;not null" json:"user_id"` // links to profile service

	Rating      int   `gorm:"not null;default:1500" json:"rating"`
	GamesPlayed int64 `gorm:"not null;default:0" json:"games_played"`
	GamesWon    int64 `gorm:"not null;default:0" json:"games_won"`

	LastRatedAt *time.Time `json:"last_rated_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
