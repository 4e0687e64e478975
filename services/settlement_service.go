package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"backgammon-platform/logging"
	"backgammon-platform/models"
	"backgammon-platform/rating"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettlementService finalizes a match: wager transfer, rating update and the
// terminal status write. Settlement is a sequence of steps keyed by session
// id; each step commits its own marker row, so a retried or crashed call
// resumes without applying anything twice.
type SettlementService struct {
	DB *gorm.DB

	inflight singleflight.Group
}

func NewSettlementService(db *gorm.DB) *SettlementService {
	return &SettlementService{DB: db}
}

// CompleteMatch settles the session with winnerID as the winner. Calling it
// again after completion returns the stored session unchanged.
func (s *SettlementService) CompleteMatch(ctx context.Context, sessionID, winnerID string) (*models.MatchSession, error) {
	// Identical in-process calls share one run; the store guards the rest.
	v, err, _ := s.inflight.Do(sessionID+":"+winnerID, func() (any, error) {
		// Callers that joined this run must not fail because the first one left.
		return s.complete(context.WithoutCancel(ctx), sessionID, winnerID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.MatchSession), nil
}

func (s *SettlementService) complete(ctx context.Context, sessionID, winnerID string) (*models.MatchSession, error) {
	db := s.DB.WithContext(ctx)

	sess, err := loadSession(db, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == models.StatusCompleted {
		settlements.WithLabelValues("replay").Inc()
		return sess, nil
	}
	if sess.Status == models.StatusAwaitingOpponent {
		return nil, newError(KindInvalidState, "session has no opponent yet")
	}
	if sess.SeatOf(winnerID) == models.SeatNone {
		return nil, ErrForbidden
	}

	if _, err := s.loadRatings(db, sess.PlayerAID, sess.PlayerBID); err != nil {
		return nil, err
	}

	// The first caller to name a winner fixes it. A crashed settlement that
	// is retried, or a racing call naming the other player, finishes the
	// settlement already begun instead of mixing two outcomes.
	if sess.WinnerID == nil {
		if _, err := winnerUnclaimed().Commit(db, sess.ID, map[string]any{"winner_id": winnerID}); err != nil {
			return nil, internalError("failed to record winner", err)
		}
		if sess, err = loadSession(db, sessionID); err != nil {
			return nil, err
		}
		if sess.Status == models.StatusCompleted {
			settlements.WithLabelValues("replay").Inc()
			return sess, nil
		}
	}
	winner := *sess.WinnerID
	if winner != winnerID {
		logging.Log.Warn("completeMatch named a different winner than the settlement in progress",
			zap.String("session_id", sess.ID),
			zap.String("requested_winner", winnerID),
			zap.String("winner_id", winner))
	}
	loser := sess.PlayerAt(sess.SeatOf(winner).Other())

	if sess.Wager > 0 {
		if err := s.applyStep(db, sess.ID, models.StepWager, func(tx *gorm.DB) error {
			return settleWager(tx, sess, winner, loser)
		}); err != nil {
			return nil, err
		}
	}
	if sess.IsRated {
		if err := s.applyStep(db, sess.ID, models.StepRating, func(tx *gorm.DB) error {
			return s.settleRating(tx, winner, loser)
		}); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	won, err := sessionNotCompleted().Commit(db, sess.ID, map[string]any{
		"status":       models.StatusCompleted,
		"winner_id":    winner,
		"completed_at": &now,
	})
	if err != nil {
		return nil, internalError("failed to finalize session", err)
	}
	if won {
		settlements.WithLabelValues("settled").Inc()
		logging.Log.Info("match settled",
			zap.String("session_id", sess.ID),
			zap.String("winner_id", winner),
			zap.String("loser_id", loser),
			zap.Int64("wager", sess.Wager),
			zap.Bool("rated", sess.IsRated))
	} else {
		settlements.WithLabelValues("replay").Inc()
	}
	return loadSession(db, sess.ID)
}

// applyStep runs fn and inserts the step's marker in one transaction. When
// the marker already exists the step was applied earlier and fn is skipped.
func (s *SettlementService) applyStep(db *gorm.DB, sessionID string, step models.SettlementStepName, fn func(tx *gorm.DB) error) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.SettlementStep{SessionID: sessionID, Step: step})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			logging.Log.Info("settlement step already applied",
				zap.String("session_id", sessionID),
				zap.String("step", string(step)))
			return nil
		}
		return fn(tx)
	})
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			return e
		}
		return internalError(fmt.Sprintf("settlement step %s failed", step), err)
	}
	return nil
}

// settleWager credits the winner the full wager and debits the loser at most
// their balance. When the loser cannot cover the wager the platform absorbs
// the difference.
func settleWager(tx *gorm.DB, sess *models.MatchSession, winnerID, loserID string) error {
	wallets, err := lockWallets(tx, winnerID, loserID)
	if err != nil {
		return err
	}
	winnerWallet, loserWallet := wallets[0], wallets[1]

	debit := min(sess.Wager, loserWallet.Balance)
	winnerBalance := winnerWallet.Balance + sess.Wager
	loserBalance := loserWallet.Balance - debit

	if err := tx.Model(winnerWallet).Update("balance", winnerBalance).Error; err != nil {
		return fmt.Errorf("credit winner: %w", err)
	}
	if err := tx.Model(loserWallet).Update("balance", loserBalance).Error; err != nil {
		return fmt.Errorf("debit loser: %w", err)
	}

	entries := []models.LedgerEntry{
		{
			ID:               uuid.NewString(),
			UserID:           winnerID,
			RelatedSessionID: sess.ID,
			Reason:           models.LedgerReasonWagerWon,
			Amount:           sess.Wager,
			ResultingBalance: winnerBalance,
		},
		{
			ID:               uuid.NewString(),
			UserID:           loserID,
			RelatedSessionID: sess.ID,
			Reason:           models.LedgerReasonWagerLost,
			Amount:           -debit,
			ResultingBalance: loserBalance,
		},
	}
	if err := tx.Create(&entries).Error; err != nil {
		return fmt.Errorf("append ledger entries: %w", err)
	}
	if debit < sess.Wager {
		logging.Log.Warn("loser balance short of wager; debit clamped",
			zap.String("session_id", sess.ID),
			zap.String("user_id", loserID),
			zap.Int64("wager", sess.Wager),
			zap.Int64("debited", debit))
	}
	return nil
}

func (s *SettlementService) settleRating(tx *gorm.DB, winnerID, loserID string) error {
	ratings, err := s.lockRatings(tx, winnerID, loserID)
	if err != nil {
		return err
	}
	w, l := ratings[0], ratings[1]
	upd := rating.Elo(w.Rating, l.Rating)
	now := time.Now()

	if err := tx.Model(w).Updates(map[string]any{
		"rating":        upd.WinnerNew,
		"games_played":  gorm.Expr("games_played + 1"),
		"games_won":     gorm.Expr("games_won + 1"),
		"last_rated_at": &now,
	}).Error; err != nil {
		return fmt.Errorf("update winner rating: %w", err)
	}
	if err := tx.Model(l).Updates(map[string]any{
		"rating":        upd.LoserNew,
		"games_played":  gorm.Expr("games_played + 1"),
		"last_rated_at": &now,
	}).Error; err != nil {
		return fmt.Errorf("update loser rating: %w", err)
	}

	logging.Log.Info("ratings updated",
		zap.String("winner_id", winnerID),
		zap.Int("winner_rating", upd.WinnerNew),
		zap.String("loser_id", loserID),
		zap.Int("loser_rating", upd.LoserNew),
		zap.Int("delta", upd.Delta))
	return nil
}

// loadRatings returns the ratings of the given users in order. A missing
// rating is a data integrity fault; it is never defaulted.
func (s *SettlementService) loadRatings(db *gorm.DB, userIDs ...string) ([]*models.PlayerRating, error) {
	out := make([]*models.PlayerRating, 0, len(userIDs))
	for _, id := range userIDs {
		var r models.PlayerRating
		if err := ratingOf(db, id, &r).Error; err != nil {
			return nil, ratingError(id, err)
		}
		out = append(out, &r)
	}
	return out, nil
}

// lockRatings is loadRatings for use inside a settlement transaction. The rows
// stay locked until the transaction ends.
func (s *SettlementService) lockRatings(tx *gorm.DB, userIDs ...string) ([]*models.PlayerRating, error) {
	out := make([]*models.PlayerRating, len(userIDs))
	for _, i := range lockOrder(userIDs) {
		var r models.PlayerRating
		if err := ratingOf(forUpdate(tx), userIDs[i], &r).Error; err != nil {
			return nil, ratingError(userIDs[i], err)
		}
		out[i] = &r
	}
	return out, nil
}

func ratingOf(db *gorm.DB, userID string, r *models.PlayerRating) *gorm.DB {
	return db.Where("user_id = ?", userID).First(r)
}

func ratingError(userID string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newError(KindDataIntegrity, "no rating record for player %s", userID)
	}
	return internalError("failed to load rating", err)
}

// lockWallets returns the users' wallets in argument order, creating empty
// ones on first use. The rows stay locked until the transaction ends.
func lockWallets(tx *gorm.DB, userIDs ...string) ([]*models.Wallet, error) {
	out := make([]*models.Wallet, len(userIDs))
	for _, i := range lockOrder(userIDs) {
		w, err := walletFor(tx, userIDs[i])
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

// walletFor returns the user's wallet locked for update, creating an empty
// one on first use.
func walletFor(tx *gorm.DB, userID string) (*models.Wallet, error) {
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&models.Wallet{ID: uuid.NewString(), UserID: userID}).Error
	if err != nil {
		return nil, fmt.Errorf("create wallet for %s: %w", userID, err)
	}

	var w models.Wallet
	if err := lockedWallet(tx, userID, &w).Error; err != nil {
		return nil, fmt.Errorf("load wallet for %s: %w", userID, err)
	}
	return &w, nil
}

func lockedWallet(tx *gorm.DB, userID string, w *models.Wallet) *gorm.DB {
	return forUpdate(tx).Where("user_id = ?", userID).First(w)
}

func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// lockOrder returns the indexes of ids sorted by id. Settlements that share
// players take their row locks in the same order.
func lockOrder(ids []string) []int {
	idx := make([]int, len(ids))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return ids[idx[a]] < ids[idx[b]] })
	return idx
}
