package models

import "time"

// LedgerReason categorises a balance-affecting event.
type LedgerReason string

const (
	LedgerReasonWagerWon  LedgerReason = "wager_won"
	LedgerReasonWagerLost LedgerReason = "wager_lost"
)

// LedgerEntry is an append-only record of one balance change tied to a
// session. Entries are never updated or deleted; at most one exists per
// (session, user).
type LedgerEntry struct {
	ID               string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID           string       `gorm:"not null;index;uniqueIndex:idx_ledger_session_user" json:"user_id"`
	RelatedSessionID string       `gorm:"not null;uniqueIndex:idx_ledger_session_user" json:"related_session_id"`
	Reason           LedgerReason `gorm:"type:varchar(16);not null" json:"reason"`
	Amount           int64        `gorm:"not null" json:"amount"` // signed
	ResultingBalance int64        `gorm:"not null" json:"resulting_balance"`
	CreatedAt        time.Time    `gorm:"autoCreateTime" json:"created_at"`
}
