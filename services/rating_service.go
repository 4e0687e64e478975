package services

import (
	"context"
	"errors"

	"backgammon-platform/models"
	"backgammon-platform/rating"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RatingService is the read side of ratings and wallets, plus the one-time
// creation of a player's rating and wallet rows.
type RatingService struct {
	DB *gorm.DB
}

func NewRatingService(db *gorm.DB) *RatingService {
	return &RatingService{DB: db}
}

// EnsurePlayer creates the rating (1500) and wallet (0) rows for a player if
// they do not exist yet. Existing rows are never overwritten.
func (s *RatingService) EnsurePlayer(ctx context.Context, userID string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).Create(&models.PlayerRating{
			ID:     uuid.NewString(),
			UserID: userID,
			Rating: rating.Default,
		}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).Create(&models.Wallet{
			ID:     uuid.NewString(),
			UserID: userID,
		}).Error
	})
}

// GetRating returns a player's published rating.
func (s *RatingService) GetRating(ctx context.Context, userID string) (*models.PlayerRating, error) {
	var r models.PlayerRating
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "no rating for player %s", userID)
		}
		return nil, internalError("failed to load rating", err)
	}
	return &r, nil
}

// Leaderboard lists the highest rated players that have played at least one
// rated game.
func (s *RatingService) Leaderboard(ctx context.Context, limit int) ([]models.PlayerRating, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []models.PlayerRating
	err := s.DB.WithContext(ctx).
		Where("games_played > 0").
		Order("rating DESC").Order("games_won DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, internalError("failed to load leaderboard", err)
	}
	return out, nil
}

// LedgerPage is a player's balance together with their recent ledger entries.
type LedgerPage struct {
	Balance int64                `json:"balance"`
	Entries []models.LedgerEntry `json:"entries"`
}

// GetLedger returns the caller's balance and latest ledger entries, newest first.
func (s *RatingService) GetLedger(ctx context.Context, userID string, limit int) (*LedgerPage, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	db := s.DB.WithContext(ctx)

	page := &LedgerPage{Entries: []models.LedgerEntry{}}
	var w models.Wallet
	err := db.Where("user_id = ?", userID).First(&w).Error
	switch {
	case err == nil:
		page.Balance = w.Balance
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, internalError("failed to load wallet", err)
	}

	if err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&page.Entries).Error; err != nil {
		return nil, internalError("failed to load ledger", err)
	}
	return page, nil
}
