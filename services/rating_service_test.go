package services

import (
	"context"
	"testing"

	"backgammon-platform/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsurePlayerNeverOverwrites(t *testing.T) {
	db := newTestDB(t)
	svc := NewRatingService(db)
	ctx := context.Background()

	require.NoError(t, svc.EnsurePlayer(ctx, "alice"))
	r, err := svc.GetRating(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1500, r.Rating)

	require.NoError(t, db.Model(&models.PlayerRating{}).Where("user_id = ?", "alice").Update("rating", 1612).Error)
	require.NoError(t, db.Model(&models.Wallet{}).Where("user_id = ?", "alice").Update("balance", 40).Error)
	require.NoError(t, svc.EnsurePlayer(ctx, "alice"))

	r, err = svc.GetRating(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1612, r.Rating)
	page, err := svc.GetLedger(ctx, "alice", 0)
	require.NoError(t, err)
	assert.EqualValues(t, 40, page.Balance)
	assert.Empty(t, page.Entries)
}

func TestGetRatingNotFound(t *testing.T) {
	_, err := NewRatingService(newTestDB(t)).GetRating(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLeaderboardOrder(t *testing.T) {
	db := newTestDB(t)
	svc := NewRatingService(db)
	for _, r := range []models.PlayerRating{
		{UserID: "low", Rating: 1450, GamesPlayed: 3},
		{UserID: "high", Rating: 1620, GamesPlayed: 5, GamesWon: 4},
		{UserID: "fresh", Rating: 1700},
		{UserID: "mid", Rating: 1510, GamesPlayed: 1, GamesWon: 1},
	} {
		r.ID = uuid.NewString()
		require.NoError(t, db.Create(&r).Error)
	}

	board, err := svc.Leaderboard(context.Background(), 10)
	require.NoError(t, err)
	ids := make([]string, len(board))
	for i, r := range board {
		ids[i] = r.UserID
	}
	assert.Equal(t, []string{"high", "mid", "low"}, ids)
}

func TestGetLedgerAfterSettlement(t *testing.T) {
	db := newTestDB(t)
	seedPlayer(t, db, "alice", 1500, 0)
	seedPlayer(t, db, "bob", 1500, 8)
	sess := seedSession(t, db, func(m *models.MatchSession) {
		inProgress(models.SeatA)(m)
		m.Wager = 8
	})
	_, err := NewSettlementService(db).CompleteMatch(context.Background(), sess.ID, "alice")
	require.NoError(t, err)

	page, err := NewRatingService(db).GetLedger(context.Background(), "bob", 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, page.Balance)
	require.Len(t, page.Entries, 1)
	assert.EqualValues(t, -8, page.Entries[0].Amount)
	assert.Equal(t, sess.ID, page.Entries[0].RelatedSessionID)

	_, err = NewRatingService(db).GetLedger(context.Background(), "", 10)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
