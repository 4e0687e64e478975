// workers/player_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"backgammon-platform/logging"
	"backgammon-platform/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileChange is one user record from the profile sync service.
type ProfileChange struct {
	ExternalID        string    `json:"external_id"`
	Username          string    `json:"username"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
	AccountStatus     string    `json:"account_status"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// GetUserChangesResponse is the top-level structure of the sync service response.
type GetUserChangesResponse struct {
	Users []ProfileChange `json:"users"`
}

// PlayerProvisioner creates the per-player rows a new account needs.
type PlayerProvisioner interface {
	EnsurePlayer(ctx context.Context, userID string) error
}

// PlayerSyncWorker mirrors profile changes into player_profiles and makes
// sure every known player has a rating and a wallet.
type PlayerSyncWorker struct {
	db           *gorm.DB
	players      PlayerProvisioner
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8500"
	endpointPath string // e.g., "/api/v1/public/profiles"
	serviceToken string
	httpClient   *http.Client
}

func NewPlayerSyncWorker(db *gorm.DB, players PlayerProvisioner, syncServiceBaseURL, endpointPath, serviceToken string, interval time.Duration) *PlayerSyncWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &PlayerSyncWorker{
		db:           db,
		players:      players,
		interval:     interval,
		baseURL:      syncServiceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *PlayerSyncWorker) Start(ctx context.Context) {
	logging.Log.Info("starting player sync worker", zap.Duration("interval", w.interval))
	go w.run(ctx)
}

func (w *PlayerSyncWorker) run(ctx context.Context) {
	// Initial sync backfills from the beginning of time.
	if err := w.SyncOnce(ctx, time.Time{}); err != nil {
		logging.Log.Warn("[SYNC] initial sync failed", zap.Error(err))
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.SyncOnce(ctx, w.lastSyncTime()); err != nil {
				logging.Log.Warn("[SYNC] batch failed", zap.Error(err))
			}
		case <-ctx.Done():
			logging.Log.Info("player sync worker stopped")
			return
		}
	}
}

// lastSyncTime is the newest updated_at mirrored so far.
func (w *PlayerSyncWorker) lastSyncTime() time.Time {
	var latest models.PlayerProfile
	if err := w.db.Order("updated_at DESC").First(&latest).Error; err != nil {
		return time.Unix(0, 0)
	}
	return latest.UpdatedAt
}

// SyncOnce fetches profile changes since the given time and applies them.
func (w *PlayerSyncWorker) SyncOnce(ctx context.Context, since time.Time) error {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid sync service URL %q: %w", w.baseURL, err)
	}
	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpointURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpointURL.String(), nil)
	if err != nil {
		return fmt.Errorf("build sync request: %w", err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request to sync service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sync service non-200 response: %d: %s", resp.StatusCode, body)
	}

	var response GetUserChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode sync service response: %w", err)
	}
	if len(response.Users) == 0 {
		return nil
	}

	var upserted, failed int
	for _, remote := range response.Users {
		if remote.ExternalID == "" {
			continue
		}
		if err := w.apply(ctx, remote); err != nil {
			failed++
			logging.Log.Warn("[SYNC] failed to apply profile",
				zap.String("user_id", remote.ExternalID),
				zap.Error(err))
			continue
		}
		upserted++
	}
	logging.Log.Info("[SYNC] profiles synced",
		zap.Int("received", len(response.Users)),
		zap.Int("upserted", upserted),
		zap.Int("failed", failed))
	return nil
}

func (w *PlayerSyncWorker) apply(ctx context.Context, remote ProfileChange) error {
	profile := models.PlayerProfile{
		ID:                uuid.NewString(),
		ExternalUserID:    remote.ExternalID,
		Username:          remote.Username,
		ProfilePictureURL: remote.ProfilePictureURL,
		IsBanned:          remote.AccountStatus == "suspended" || remote.AccountStatus == "banned",
		UpdatedAt:         remote.UpdatedAt,
	}
	if err := w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "profile_picture_url", "is_banned", "updated_at"}),
	}).Create(&profile).Error; err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return w.players.EnsurePlayer(ctx, remote.ExternalID)
}
