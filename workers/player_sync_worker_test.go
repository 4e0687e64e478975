package workers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"backgammon-platform/models"
	"backgammon-platform/services"
	"backgammon-platform/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncOnceMirrorsProfilesAndProvisionsPlayers(t *testing.T) {
	db := storagetest.Open(t)
	var round atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.Header.Get("X-Service-Token"))
		assert.Equal(t, "/api/v1/public/profiles", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("since"))
		w.Header().Set("Content-Type", "application/json")
		if round.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"users":[
				{"external_id":"u-1","username":"alice","account_status":"active","updated_at":"2026-01-02T10:00:00Z"},
				{"external_id":"u-2","username":"bob","account_status":"active","updated_at":"2026-01-02T11:00:00Z"}
			]}`))
			return
		}
		_, _ = w.Write([]byte(`{"users":[
			{"external_id":"u-1","username":"alice_b","account_status":"banned","updated_at":"2026-01-03T10:00:00Z"}
		]}`))
	}))
	defer srv.Close()

	w := NewPlayerSyncWorker(db, services.NewRatingService(db), srv.URL, "/api/v1/public/profiles", "tok", time.Minute)
	ctx := context.Background()

	require.NoError(t, w.SyncOnce(ctx, time.Time{}))

	var ratings []models.PlayerRating
	require.NoError(t, db.Order("user_id").Find(&ratings).Error)
	require.Len(t, ratings, 2)
	assert.Equal(t, 1500, ratings[0].Rating)

	var wallets int64
	require.NoError(t, db.Model(&models.Wallet{}).Count(&wallets).Error)
	assert.EqualValues(t, 2, wallets)

	// Settlement moved the rating; a later sync must not reset it.
	require.NoError(t, db.Model(&models.PlayerRating{}).Where("user_id = ?", "u-1").Update("rating", 1530).Error)
	require.NoError(t, w.SyncOnce(ctx, w.lastSyncTime()))

	var profile models.PlayerProfile
	require.NoError(t, db.Where("external_user_id = ?", "u-1").First(&profile).Error)
	assert.Equal(t, "alice_b", profile.Username)
	assert.True(t, profile.IsBanned)

	var r models.PlayerRating
	require.NoError(t, db.Where("user_id = ?", "u-1").First(&r).Error)
	assert.Equal(t, 1530, r.Rating)
}

func TestSyncOnceReportsServiceErrors(t *testing.T) {
	db := storagetest.Open(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	w := NewPlayerSyncWorker(db, services.NewRatingService(db), srv.URL, "/profiles", "tok", 0)
	err := w.SyncOnce(context.Background(), time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
