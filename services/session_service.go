package services

import (
	"context"
	"errors"
	"strconv"

	"backgammon-platform/dice"
	"backgammon-platform/logging"
	"backgammon-platform/models"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SessionService drives a match from the ready handshake through the
// roll/end-turn cycle. Every transition is written through a guarded,
// conditional update; nothing is held in memory between requests.
type SessionService struct {
	DB   *gorm.DB
	Dice dice.Source
}

func NewSessionService(db *gorm.DB, src dice.Source) *SessionService {
	return &SessionService{DB: db, Dice: src}
}

// GetSession returns the session to one of its seated players.
func (s *SessionService) GetSession(ctx context.Context, sessionID, callerID string) (*models.MatchSession, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}
	sess, err := loadSession(s.DB.WithContext(ctx), sessionID)
	if err != nil {
		return nil, err
	}
	if sess.SeatOf(callerID) == models.SeatNone {
		return nil, ErrForbidden
	}
	return sess, nil
}

// RequestReady marks the caller ready. The call that makes both players
// ready also starts the match: opening roll, starting board, centered cube.
func (s *SessionService) RequestReady(ctx context.Context, sessionID, callerID string) (*models.MatchSession, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}
	db := s.DB.WithContext(ctx)

	sess, err := loadSession(db, sessionID)
	if err != nil {
		return nil, err
	}
	seat := sess.SeatOf(callerID)
	if seat == models.SeatNone {
		return nil, ErrForbidden
	}
	switch sess.Status {
	case models.StatusInProgress, models.StatusCompleted:
		return sess, nil
	case models.StatusAwaitingStart:
	default:
		return nil, newError(KindInvalidState, "session is %s", sess.Status)
	}

	if !readyFlag(sess, seat) {
		column := "player_a_ready"
		if seat == models.SeatB {
			column = "player_b_ready"
		}
		// Only the caller's own column is written, so two players readying at
		// once never overwrite each other.
		won, err := sessionStatusIs(models.StatusAwaitingStart).Commit(db, sess.ID, map[string]any{column: true})
		if err != nil {
			return nil, internalError("failed to mark ready", err)
		}
		if sess, err = loadSession(db, sessionID); err != nil {
			return nil, err
		}
		if !won {
			// The session left awaiting_start underneath us.
			if sess.Status == models.StatusInProgress || sess.Status == models.StatusCompleted {
				return sess, nil
			}
			return nil, newError(KindInvalidState, "session is %s", sess.Status)
		}
		logging.Log.Info("player ready",
			zap.String("session_id", sess.ID),
			zap.String("user_id", callerID),
			zap.String("seat", string(seat)))
	}

	if !(sess.PlayerAReady && sess.PlayerBReady) {
		return sess, nil
	}
	return s.start(db, sess)
}

// start runs the awaiting_start → in_progress transition. Concurrent callers
// may each draw an opening roll, but only one conditional write lands; the
// rest re-read and return the winner's session.
func (s *SessionService) start(db *gorm.DB, sess *models.MatchSession) (*models.MatchSession, error) {
	opening := dice.ResolveOpening(s.Dice)
	first := models.SeatB
	if opening.AFirst() {
		first = models.SeatA
	}

	won, err := sessionStatusIs(models.StatusAwaitingStart).Commit(db, sess.ID, map[string]any{
		"status":        models.StatusInProgress,
		"turn":          first,
		"die1":          opening.DieA,
		"die2":          opening.DieB,
		"move_budget":   datatypes.JSONSlice[int](opening.Budget()),
		"opening_die_a": opening.DieA,
		"opening_die_b": opening.DieB,
		"opening_move":  true,
		"board":         datatypes.JSON(models.StartingBoard().JSON()),
		"cube_value":    1,
		"cube_owner":    models.SeatNone,
	})
	if err != nil {
		return nil, internalError("failed to start session", err)
	}
	started, err := loadSession(db, sess.ID)
	if err != nil {
		return nil, err
	}
	if !won {
		logging.Log.Info("session already started by concurrent ready", zap.String("session_id", sess.ID))
		return started, nil
	}

	sessionsStarted.Inc()
	logging.Log.Info("session started",
		zap.String("session_id", sess.ID),
		zap.Int("opening_die_a", opening.DieA),
		zap.Int("opening_die_b", opening.DieB),
		zap.Int("opening_redraws", opening.Redraws),
		zap.String("first_turn", string(first)))
	return started, nil
}

// RollDice draws the current mover's dice. The first turn of a match never
// rolls here; it plays the opening dice stored by the start transition.
func (s *SessionService) RollDice(ctx context.Context, sessionID, callerID string) (*models.MatchSession, error) {
	sess, err := s.checkMover(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}
	if sess.HasRolled() {
		return nil, ErrAlreadyRolled
	}
	return s.commitRoll(ctx, sess, dice.RollTurn(s.Dice))
}

// commitRoll stores roll for the turn observed in sess. The write is a
// compare-and-swap on the zero dice pair, so of two racing rolls exactly one
// lands and the stored budget is never a mix of both.
func (s *SessionService) commitRoll(ctx context.Context, sess *models.MatchSession, roll dice.Turn) (*models.MatchSession, error) {
	db := s.DB.WithContext(ctx)
	won, err := turnUnrolled(sess.Turn).Commit(db, sess.ID, map[string]any{
		"die1":        roll.Die1,
		"die2":        roll.Die2,
		"move_budget": datatypes.JSONSlice[int](roll.Budget),
	})
	if err != nil {
		return nil, internalError("failed to store roll", err)
	}
	if !won {
		rollConflicts.Inc()
		current, err := loadSession(db, sess.ID)
		if err != nil {
			return nil, err
		}
		if current.Status == models.StatusInProgress && current.Turn == sess.Turn {
			return nil, ErrAlreadyRolled
		}
		return nil, ErrNotYourTurn
	}

	diceRolled.WithLabelValues(strconv.FormatBool(roll.IsDoubles())).Inc()
	logging.Log.Debug("dice rolled",
		zap.String("session_id", sess.ID),
		zap.String("seat", string(sess.Turn)),
		zap.Ints("move_budget", roll.Budget))
	return loadSession(db, sess.ID)
}

// EndTurn clears the mover's dice and hands the turn to the opponent. It does
// not check that the budget was used up; the rules engine calls it only once
// moves are exhausted or forfeited.
func (s *SessionService) EndTurn(ctx context.Context, sessionID, callerID string) (*models.MatchSession, error) {
	sess, err := s.checkMover(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)

	won, err := turnOwnedBy(sess.Turn).Commit(db, sess.ID, map[string]any{
		"die1":         0,
		"die2":         0,
		"move_budget":  datatypes.JSONSlice[int]{},
		"turn":         sess.Turn.Other(),
		"opening_move": false,
	})
	if err != nil {
		return nil, internalError("failed to end turn", err)
	}
	if !won {
		// A duplicate endTurn already handed the turn over.
		return nil, ErrNotYourTurn
	}
	logging.Log.Debug("turn ended",
		zap.String("session_id", sess.ID),
		zap.String("next_turn", string(sess.Turn.Other())))
	return loadSession(db, sess.ID)
}

// checkMover loads the session and verifies the caller may act this turn.
func (s *SessionService) checkMover(ctx context.Context, sessionID, callerID string) (*models.MatchSession, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}
	sess, err := loadSession(s.DB.WithContext(ctx), sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.StatusInProgress {
		return nil, newError(KindInvalidState, "session is %s", sess.Status)
	}
	if seat := sess.SeatOf(callerID); seat == models.SeatNone || seat != sess.Turn {
		return nil, ErrNotYourTurn
	}
	return sess, nil
}

func readyFlag(sess *models.MatchSession, seat models.Seat) bool {
	if seat == models.SeatA {
		return sess.PlayerAReady
	}
	return sess.PlayerBReady
}

func loadSession(db *gorm.DB, id string) (*models.MatchSession, error) {
	var sess models.MatchSession
	if err := db.First(&sess, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "session %s not found", id)
		}
		return nil, internalError("failed to load session", err)
	}
	return &sess, nil
}
