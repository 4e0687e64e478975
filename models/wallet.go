package models

import "time"

// Wallet holds a player's in-platform currency balance used for wagers.
// Table name: wallets
type Wallet struct {
	ID      string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID  string `gorm:"uniqueIndex;not null" json:"user_id"` // External user ID
	Balance int64  `gorm:"not null;default:0;check:balance >= 0" json:"balance"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
