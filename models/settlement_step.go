package models

import "time"

// SettlementStepName names one replay-safe sub-step of match settlement.
type SettlementStepName string

const (
	StepWager  SettlementStepName = "wager"
	StepRating SettlementStepName = "rating"
)

// SettlementStep marks a settlement sub-step as applied for a session. The
// marker is inserted in the same transaction as the step's writes, so a
// replayed settlement finds it and skips the step.
type SettlementStep struct {
	SessionID string             `gorm:"primaryKey;type:varchar(36)" json:"session_id"`
	Step      SettlementStepName `gorm:"primaryKey;type:varchar(16)" json:"step"`
	AppliedAt time.Time          `gorm:"autoCreateTime" json:"applied_at"`
}
