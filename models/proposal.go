package models

// ProposalStatus tracks a direct challenge between two players.
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalDeclined ProposalStatus = "declined"
)

// GameProposal is a challenge from one player to another. Accepting it
// instantiates exactly one MatchSession; SessionID is the field that records
// that it already happened.
type GameProposal struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ChallengerID string         `gorm:"index;not null" json:"challenger_id"`
	OpponentID   string         `gorm:"index;not null" json:"opponent_id"`
	Wager        int64          `gorm:"not null;default:0" json:"wager"`
	IsRated      bool           `gorm:"not null;default:false" json:"is_rated"`
	TargetScore  int            `gorm:"not null;default:1" json:"target_score"`
	Status       ProposalStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	SessionID    *string        `gorm:"index" json:"session_id,omitempty"`

	Timestamps
}
