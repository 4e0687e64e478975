package services

import (
	"sync"
	"testing"

	"backgammon-platform/models"
	"backgammon-platform/storage/storagetest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// scriptedDice returns queued faces in order and counts draws.
type scriptedDice struct {
	mu    sync.Mutex
	faces []int
	calls int
}

func dieFaces(faces ...int) *scriptedDice { return &scriptedDice{faces: faces} }

func (s *scriptedDice) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls >= len(s.faces) {
		panic("scripted dice exhausted")
	}
	v := s.faces[s.calls] - 1
	s.calls++
	return v
}

func (s *scriptedDice) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestDB(t *testing.T) *gorm.DB {
	return storagetest.Open(t)
}

// seedSession stores an alice-vs-bob session awaiting start, adjusted by mutate.
func seedSession(t *testing.T, db *gorm.DB, mutate func(*models.MatchSession)) *models.MatchSession {
	t.Helper()
	sess := &models.MatchSession{
		ID:          uuid.NewString(),
		PlayerAID:   "alice",
		PlayerBID:   "bob",
		Status:      models.StatusAwaitingStart,
		CubeValue:   1,
		TargetScore: 1,
	}
	if mutate != nil {
		mutate(sess)
	}
	require.NoError(t, db.Create(sess).Error)
	return sess
}

func inProgress(turn models.Seat) func(*models.MatchSession) {
	return func(s *models.MatchSession) {
		s.Status = models.StatusInProgress
		s.Turn = turn
	}
}

func seedPlayer(t *testing.T, db *gorm.DB, userID string, rating int, balance int64) {
	t.Helper()
	require.NoError(t, db.Create(&models.PlayerRating{ID: uuid.NewString(), UserID: userID, Rating: rating}).Error)
	require.NoError(t, db.Create(&models.Wallet{ID: uuid.NewString(), UserID: userID, Balance: balance}).Error)
}

func reload(t *testing.T, db *gorm.DB, id string) *models.MatchSession {
	t.Helper()
	var sess models.MatchSession
	require.NoError(t, db.First(&sess, "id = ?", id).Error)
	return &sess
}
