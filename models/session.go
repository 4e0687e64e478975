package models

import (
	"time"

	"backgammon-platform/dice"

	"gorm.io/datatypes"
)

// SessionStatus is the lifecycle state of a match session. Transitions only
// move forward: awaiting_opponent → awaiting_start → in_progress → completed.
type SessionStatus string

const (
	StatusAwaitingOpponent SessionStatus = "awaiting_opponent"
	StatusAwaitingStart    SessionStatus = "awaiting_start"
	StatusInProgress       SessionStatus = "in_progress"
	StatusCompleted        SessionStatus = "completed"
)

// Seat identifies one of the two seated players.
type Seat string

const (
	SeatNone Seat = ""
	SeatA    Seat = "A"
	SeatB    Seat = "B"
)

// Other returns the opposing seat.
func (s Seat) Other() Seat {
	switch s {
	case SeatA:
		return SeatB
	case SeatB:
		return SeatA
	}
	return SeatNone
}

// MatchSession is one backgammon match between two seated players.
type MatchSession struct {
	ID     string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Handle string `gorm:"type:varchar(128);index" json:"handle"`

	PlayerAID string        `gorm:"index;not null" json:"player_a_id"`
	PlayerBID string        `gorm:"index" json:"player_b_id,omitempty"` // empty while awaiting an opponent
	Status    SessionStatus `gorm:"type:varchar(24);index;not null" json:"status"`

	// Turn state. The zero dice pair means the current mover has not rolled.
	Die1       int                      `gorm:"not null;default:0" json:"die1"`
	Die2       int                      `gorm:"not null;default:0" json:"die2"`
	MoveBudget datatypes.JSONSlice[int] `json:"move_budget"`
	Turn       Seat                     `gorm:"type:varchar(1)" json:"turn,omitempty"`

	// Terms
	Wager       int64 `gorm:"not null;default:0" json:"wager"`
	IsRated     bool  `gorm:"not null;default:false" json:"is_rated"`
	TargetScore int   `gorm:"not null;default:1" json:"target_score"`

	PlayerAReady bool `gorm:"not null;default:false" json:"player_a_ready"`
	PlayerBReady bool `gorm:"not null;default:false" json:"player_b_ready"`

	// Display-only tiebreak values and the one-shot "opening move" flag.
	OpeningDieA int  `gorm:"not null;default:0" json:"opening_die_a,omitempty"`
	OpeningDieB int  `gorm:"not null;default:0" json:"opening_die_b,omitempty"`
	OpeningMove bool `gorm:"not null;default:false" json:"opening_move"`

	Board     datatypes.JSON `json:"board,omitempty"`
	CubeValue int            `gorm:"not null;default:1" json:"cube_value"`
	CubeOwner Seat           `gorm:"type:varchar(1)" json:"cube_owner,omitempty"` // empty = centered

	WinnerID    *string    `gorm:"index" json:"winner_id,omitempty"`
	ProposalID  *string    `gorm:"index" json:"proposal_id,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ArchivedAt  *time.Time `gorm:"index" json:"archived_at,omitempty"`

	Timestamps
}

// SeatOf returns the seat held by userID, or SeatNone.
func (s *MatchSession) SeatOf(userID string) Seat {
	switch {
	case userID == "":
		return SeatNone
	case userID == s.PlayerAID:
		return SeatA
	case userID == s.PlayerBID:
		return SeatB
	}
	return SeatNone
}

// PlayerAt returns the user seated at seat.
func (s *MatchSession) PlayerAt(seat Seat) string {
	switch seat {
	case SeatA:
		return s.PlayerAID
	case SeatB:
		return s.PlayerBID
	}
	return ""
}

// HasRolled reports whether the current mover already holds dice.
func (s *MatchSession) HasRolled() bool {
	return dice.IsRolled(s.Die1, s.Die2)
}

// OpeningRolls returns the display-only tiebreak pair, if one was recorded.
func (s *MatchSession) OpeningRolls() (a, b int, ok bool) {
	if s.OpeningDieA == 0 && s.OpeningDieB == 0 {
		return 0, 0, false
	}
	return s.OpeningDieA, s.OpeningDieB, true
}
