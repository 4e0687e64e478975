package services

import (
	"context"
	"errors"
	"fmt"

	"backgammon-platform/logging"
	"backgammon-platform/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MatchTerms are the settlement terms fixed when a session is created.
type MatchTerms struct {
	Wager       int64 `json:"wager"`
	IsRated     bool  `json:"is_rated"`
	TargetScore int   `json:"target_score"`
}

func (t MatchTerms) validate() error {
	if t.Wager < 0 {
		return newError(KindInvalidState, "wager must not be negative")
	}
	if t.TargetScore < 0 {
		return newError(KindInvalidState, "target score must not be negative")
	}
	return nil
}

func (t MatchTerms) target() int {
	if t.TargetScore == 0 {
		return 1
	}
	return t.TargetScore
}

// LobbyService hands sessions to the controller: open seats that a second
// player joins, and direct proposals that instantiate a session on accept.
type LobbyService struct {
	DB *gorm.DB
}

func NewLobbyService(db *gorm.DB) *LobbyService {
	return &LobbyService{DB: db}
}

// OpenSession creates a session with hostID in seat A, awaiting an opponent.
func (s *LobbyService) OpenSession(ctx context.Context, hostID string, terms MatchTerms) (*models.MatchSession, error) {
	if hostID == "" {
		return nil, ErrUnauthorized
	}
	if err := terms.validate(); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)

	id := uuid.NewString()
	sess := &models.MatchSession{
		ID:          id,
		Handle:      s.handle(db, id, hostID, ""),
		PlayerAID:   hostID,
		Status:      models.StatusAwaitingOpponent,
		Wager:       terms.Wager,
		IsRated:     terms.IsRated,
		TargetScore: terms.target(),
		CubeValue:   1,
	}
	if err := db.Create(sess).Error; err != nil {
		return nil, internalError("failed to open session", err)
	}
	logging.Log.Info("session opened", zap.String("session_id", id), zap.String("user_id", hostID))
	return sess, nil
}

// JoinSession seats callerID as player B. Joining again as the same player
// returns the session unchanged.
func (s *LobbyService) JoinSession(ctx context.Context, sessionID, callerID string) (*models.MatchSession, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}
	db := s.DB.WithContext(ctx)

	sess, err := loadSession(db, sessionID)
	if err != nil {
		return nil, err
	}
	switch sess.SeatOf(callerID) {
	case models.SeatB:
		return sess, nil
	case models.SeatA:
		return nil, newError(KindForbidden, "host cannot join their own session")
	}
	if sess.Status != models.StatusAwaitingOpponent {
		return nil, newError(KindInvalidState, "session is %s", sess.Status)
	}

	won, err := LinearizationField{
		Model:    &models.MatchSession{},
		Column:   "player_b_id",
		Open:     "status = ? AND (player_b_id = '' OR player_b_id IS NULL)",
		OpenArgs: []any{models.StatusAwaitingOpponent},
	}.Commit(db, sess.ID, map[string]any{
		"player_b_id": callerID,
		"status":      models.StatusAwaitingStart,
		"handle":      s.handle(db, sess.ID, sess.PlayerAID, callerID),
	})
	if err != nil {
		return nil, internalError("failed to join session", err)
	}
	if sess, err = loadSession(db, sessionID); err != nil {
		return nil, err
	}
	if !won {
		if sess.PlayerBID == callerID {
			return sess, nil
		}
		return nil, newError(KindInvalidState, "session already has an opponent")
	}
	logging.Log.Info("opponent joined", zap.String("session_id", sess.ID), zap.String("user_id", callerID))
	return sess, nil
}

// ProposeGame records a direct challenge from challengerID to opponentID.
func (s *LobbyService) ProposeGame(ctx context.Context, challengerID, opponentID string, terms MatchTerms) (*models.GameProposal, error) {
	if challengerID == "" {
		return nil, ErrUnauthorized
	}
	if opponentID == "" || opponentID == challengerID {
		return nil, newError(KindInvalidState, "a proposal needs a distinct opponent")
	}
	if err := terms.validate(); err != nil {
		return nil, err
	}

	p := &models.GameProposal{
		ID:           uuid.NewString(),
		ChallengerID: challengerID,
		OpponentID:   opponentID,
		Wager:        terms.Wager,
		IsRated:      terms.IsRated,
		TargetScore:  terms.target(),
		Status:       models.ProposalPending,
	}
	if err := s.DB.WithContext(ctx).Create(p).Error; err != nil {
		return nil, internalError("failed to create proposal", err)
	}
	return p, nil
}

// AcceptProposal instantiates the proposal's session. Duplicate accepts
// return the session created by the first. An accept that loses the final
// write discards its own session, and fails if a decline won.
func (s *LobbyService) AcceptProposal(ctx context.Context, proposalID, callerID string) (*models.MatchSession, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}
	db := s.DB.WithContext(ctx)

	p, err := loadProposal(db, proposalID)
	if err != nil {
		return nil, err
	}
	if p.OpponentID != callerID {
		return nil, newError(KindForbidden, "only the challenged player can accept")
	}
	if p.Status == models.ProposalDeclined {
		return nil, newError(KindInvalidState, "proposal was declined")
	}

	guard := proposalUninstantiated()
	done, err := guard.Done(db, p.ID)
	if err != nil {
		return nil, internalError("failed to recheck proposal", err)
	}
	if done {
		return s.proposalSession(db, p.ID)
	}

	id := uuid.NewString()
	sess := &models.MatchSession{
		ID:          id,
		Handle:      s.handle(db, id, p.ChallengerID, p.OpponentID),
		PlayerAID:   p.ChallengerID,
		PlayerBID:   p.OpponentID,
		Status:      models.StatusAwaitingStart,
		Wager:       p.Wager,
		IsRated:     p.IsRated,
		TargetScore: p.TargetScore,
		CubeValue:   1,
		ProposalID:  &p.ID,
	}
	if err := db.Create(sess).Error; err != nil {
		return nil, internalError("failed to create session", err)
	}

	won, err := guard.Commit(db, p.ID, map[string]any{
		"session_id": id,
		"status":     models.ProposalAccepted,
	})
	if err != nil {
		return nil, internalError("failed to link proposal", err)
	}
	if !won {
		if err := db.Delete(sess).Error; err != nil {
			logging.Log.Warn("failed to discard losing session", zap.String("session_id", id), zap.Error(err))
		}
		return s.proposalSession(db, p.ID)
	}

	logging.Log.Info("proposal accepted",
		zap.String("proposal_id", p.ID),
		zap.String("session_id", id))
	return sess, nil
}

// DeclineProposal closes a pending proposal. Declining twice is a no-op.
func (s *LobbyService) DeclineProposal(ctx context.Context, proposalID, callerID string) (*models.GameProposal, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}
	db := s.DB.WithContext(ctx)

	p, err := loadProposal(db, proposalID)
	if err != nil {
		return nil, err
	}
	if p.OpponentID != callerID && p.ChallengerID != callerID {
		return nil, ErrForbidden
	}
	switch p.Status {
	case models.ProposalDeclined:
		return p, nil
	case models.ProposalAccepted:
		return nil, newError(KindInvalidState, "proposal already accepted")
	}

	won, err := LinearizationField{
		Model:    &models.GameProposal{},
		Column:   "status",
		Open:     "status = ? AND session_id IS NULL",
		OpenArgs: []any{models.ProposalPending},
	}.Commit(db, p.ID, map[string]any{"status": models.ProposalDeclined})
	if err != nil {
		return nil, internalError("failed to decline proposal", err)
	}
	if p, err = loadProposal(db, proposalID); err != nil {
		return nil, err
	}
	if !won && p.Status != models.ProposalDeclined {
		return nil, newError(KindInvalidState, "proposal already accepted")
	}
	return p, nil
}

func (s *LobbyService) proposalSession(db *gorm.DB, proposalID string) (*models.MatchSession, error) {
	p, err := loadProposal(db, proposalID)
	if err != nil {
		return nil, err
	}
	if p.Status == models.ProposalDeclined {
		return nil, newError(KindInvalidState, "proposal was declined")
	}
	if p.SessionID == nil {
		return nil, newError(KindInvalidState, "proposal %s has no session", proposalID)
	}
	return loadSession(db, *p.SessionID)
}

// handle builds a readable session slug such as "alice-vs-bob-3f2a91".
func (s *LobbyService) handle(db *gorm.DB, sessionID, playerA, playerB string) string {
	name := displayName(db, playerA)
	if playerB != "" {
		name += " vs " + displayName(db, playerB)
	}
	return slug.Make(fmt.Sprintf("%s %s", name, sessionID[:6]))
}

func displayName(db *gorm.DB, userID string) string {
	var p models.PlayerProfile
	if err := db.Select("username").Where("external_user_id = ?", userID).First(&p).Error; err == nil && p.Username != "" {
		return p.Username
	}
	if len(userID) > 8 {
		return userID[:8]
	}
	return userID
}

func loadProposal(db *gorm.DB, id string) (*models.GameProposal, error) {
	var p models.GameProposal
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "proposal %s not found", id)
		}
		return nil, internalError("failed to load proposal", err)
	}
	return &p, nil
}
