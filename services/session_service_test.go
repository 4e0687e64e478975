package services

import (
	"context"
	"encoding/json"
	"testing"

	"backgammon-platform/dice"
	"backgammon-platform/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestReadyStartsMatchWhenBothReady(t *testing.T) {
	db := newTestDB(t)
	src := dieFaces(3, 3, 6, 2)
	svc := NewSessionService(db, src)
	sess := seedSession(t, db, nil)
	ctx := context.Background()

	got, err := svc.RequestReady(ctx, sess.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingStart, got.Status)
	assert.True(t, got.PlayerAReady)
	assert.False(t, got.PlayerBReady)
	assert.Zero(t, src.Calls())

	got, err = svc.RequestReady(ctx, sess.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, got.Status)
	assert.Equal(t, models.SeatA, got.Turn)
	assert.Equal(t, 6, got.Die1)
	assert.Equal(t, 2, got.Die2)
	assert.Equal(t, []int{6, 2}, []int(got.MoveBudget))
	assert.True(t, got.OpeningMove)
	assert.Equal(t, 1, got.CubeValue)
	assert.Equal(t, models.SeatNone, got.CubeOwner)

	a, b, ok := got.OpeningRolls()
	require.True(t, ok)
	assert.Equal(t, 6, a)
	assert.Equal(t, 2, b)

	var board models.Board
	require.NoError(t, json.Unmarshal(got.Board, &board))
	assert.Equal(t, models.CheckersPerSide, board.Count(models.SeatA))
	assert.Equal(t, models.CheckersPerSide, board.Count(models.SeatB))
}

func TestRequestReadyOpeningWinnerB(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionService(db, dieFaces(1, 4))
	sess := seedSession(t, db, func(s *models.MatchSession) { s.PlayerAReady = true })

	got, err := svc.RequestReady(context.Background(), sess.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.SeatB, got.Turn)
	assert.Equal(t, []int{4, 1}, []int(got.MoveBudget))
}

func TestRequestReadyRejectsUnseatedCaller(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionService(db, dieFaces())
	sess := seedSession(t, db, func(s *models.MatchSession) { s.PlayerAReady = true })

	_, err := svc.RequestReady(context.Background(), sess.ID, "mallory")
	require.ErrorIs(t, err, ErrForbidden)

	after := reload(t, db, sess.ID)
	assert.Equal(t, models.StatusAwaitingStart, after.Status)
	assert.True(t, after.PlayerAReady)
	assert.False(t, after.PlayerBReady)
}

func TestRequestReadyTwiceDoesNotRollAgain(t *testing.T) {
	db := newTestDB(t)
	src := dieFaces(5, 2)
	svc := NewSessionService(db, src)
	sess := seedSession(t, db, nil)
	ctx := context.Background()

	_, err := svc.RequestReady(ctx, sess.ID, "alice")
	require.NoError(t, err)
	again, err := svc.RequestReady(ctx, sess.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingStart, again.Status)
	assert.Zero(t, src.Calls())

	started, err := svc.RequestReady(ctx, sess.ID, "bob")
	require.NoError(t, err)
	require.Equal(t, models.StatusInProgress, started.Status)

	for _, caller := range []string{"alice", "bob"} {
		got, err := svc.RequestReady(ctx, sess.ID, caller)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInProgress, got.Status)
		assert.Equal(t, started.Die1, got.Die1)
		assert.Equal(t, started.Die2, got.Die2)
	}
	assert.Equal(t, 2, src.Calls(), "opening roll must be drawn once")
}

func TestRequestReadyErrors(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionService(db, dieFaces())
	ctx := context.Background()

	open := seedSession(t, db, func(s *models.MatchSession) {
		s.Status = models.StatusAwaitingOpponent
		s.PlayerBID = ""
	})
	done := seedSession(t, db, func(s *models.MatchSession) { s.Status = models.StatusCompleted })

	_, err := svc.RequestReady(ctx, open.ID, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.RequestReady(ctx, open.ID, "alice")
	assert.Equal(t, KindInvalidState, KindOf(err))

	_, err = svc.RequestReady(ctx, "missing", "alice")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.RequestReady(ctx, done.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
}

func TestRollDice(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionService(db, dieFaces(5, 5, 3, 1))
	sess := seedSession(t, db, inProgress(models.SeatA))
	ctx := context.Background()

	_, err := svc.RollDice(ctx, sess.ID, "bob")
	assert.ErrorIs(t, err, ErrNotYourTurn)

	got, err := svc.RollDice(ctx, sess.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, []int{5, 5, 5, 5}, []int(got.MoveBudget))

	_, err = svc.RollDice(ctx, sess.ID, "alice")
	assert.ErrorIs(t, err, ErrAlreadyRolled)

	_, err = svc.EndTurn(ctx, sess.ID, "alice")
	require.NoError(t, err)

	got, err = svc.RollDice(ctx, sess.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1}, []int(got.MoveBudget))
	assert.Equal(t, 3, got.Die1)
	assert.Equal(t, 1, got.Die2)
}

func TestRollDiceOpeningTurnAlreadyHasDice(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionService(db, dieFaces(4, 2))
	sess := seedSession(t, db, func(s *models.MatchSession) { s.PlayerAReady = true })
	ctx := context.Background()

	started, err := svc.RequestReady(ctx, sess.ID, "bob")
	require.NoError(t, err)

	_, err = svc.RollDice(ctx, sess.ID, started.PlayerAt(started.Turn))
	assert.ErrorIs(t, err, ErrAlreadyRolled)
}

func TestRollDiceRequiresInProgress(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionService(db, dieFaces())
	sess := seedSession(t, db, nil)

	_, err := svc.RollDice(context.Background(), sess.ID, "alice")
	assert.Equal(t, KindInvalidState, KindOf(err))
	_, err = svc.RollDice(context.Background(), sess.ID, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRacingRollsStoreExactlyOnePair(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionService(db, dieFaces())
	sess := seedSession(t, db, inProgress(models.SeatB))
	ctx := context.Background()

	// Both callers observed the unrolled turn before either wrote.
	first := reload(t, db, sess.ID)
	second := reload(t, db, sess.ID)
	require.False(t, first.HasRolled())
	require.False(t, second.HasRolled())

	got, err := svc.commitRoll(ctx, first, dice.Turn{Die1: 4, Die2: 2, Budget: []int{4, 2}})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 2}, []int(got.MoveBudget))

	_, err = svc.commitRoll(ctx, second, dice.Turn{Die1: 6, Die2: 6, Budget: []int{6, 6, 6, 6}})
	assert.ErrorIs(t, err, ErrAlreadyRolled)

	stored := reload(t, db, sess.ID)
	assert.Equal(t, 4, stored.Die1)
	assert.Equal(t, 2, stored.Die2)
	assert.Equal(t, []int{4, 2}, []int(stored.MoveBudget))
}

func TestEndTurnFlipsOnce(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionService(db, dieFaces())
	sess := seedSession(t, db, func(s *models.MatchSession) {
		inProgress(models.SeatA)(s)
		s.Die1, s.Die2 = 6, 1
		s.MoveBudget = []int{6, 1}
		s.OpeningMove = true
	})
	ctx := context.Background()

	got, err := svc.EndTurn(ctx, sess.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.SeatB, got.Turn)
	assert.Zero(t, got.Die1)
	assert.Zero(t, got.Die2)
	assert.Empty(t, got.MoveBudget)
	assert.False(t, got.OpeningMove)

	_, err = svc.EndTurn(ctx, sess.ID, "alice")
	assert.ErrorIs(t, err, ErrNotYourTurn)
	assert.Equal(t, models.SeatB, reload(t, db, sess.ID).Turn)

	_, err = svc.EndTurn(ctx, sess.ID, "mallory")
	assert.ErrorIs(t, err, ErrNotYourTurn)
}

func TestGetSession(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionService(db, dieFaces())
	sess := seedSession(t, db, nil)

	got, err := svc.GetSession(context.Background(), sess.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)

	_, err = svc.GetSession(context.Background(), sess.ID, "mallory")
	assert.ErrorIs(t, err, ErrForbidden)
}
