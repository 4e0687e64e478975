package models

import (
	"time"
)

// PlayerProfile is a local snapshot of the identity data this service needs
// (display names for session handles). Populated by the player sync worker
// from the profile service.
type PlayerProfile struct {
	ID                string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ExternalUserID    string    `gorm:"uniqueIndex;not null" json:"external_user_id"` // The profile service's UUID
	Username          string    `gorm:"index;not null" json:"username"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
	IsBanned          bool      `json:"is_banned" gorm:"default:false"`
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
