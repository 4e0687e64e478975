// services/scheduler.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backgammon-platform/logging"
	"backgammon-platform/models"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ArchiveUploader stores a JSON object and returns where it lives.
type ArchiveUploader interface {
	UploadJSON(ctx context.Context, key string, body []byte) (string, error)
}

// SessionArchive is the snapshot written for a completed session.
type SessionArchive struct {
	Session    models.MatchSession  `json:"session"`
	Ledger     []models.LedgerEntry `json:"ledger"`
	ArchivedAt time.Time            `json:"archived_at"`
}

type ArchiveService struct {
	DB       *gorm.DB
	Uploader ArchiveUploader
	Batch    int
}

func NewArchiveService(db *gorm.DB, uploader ArchiveUploader) *ArchiveService {
	return &ArchiveService{DB: db, Uploader: uploader, Batch: 50}
}

// StartArchiveScheduler runs ArchiveCompleted every interval until the
// returned scheduler is shut down.
func (s *ArchiveService) StartArchiveScheduler(interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			n, err := s.ArchiveCompleted(ctx)
			if err != nil {
				logging.Log.Error("[Scheduler] archive run failed", zap.Error(err))
				return
			}
			if n > 0 {
				logging.Log.Info("[Scheduler] archived sessions", zap.Int("count", n))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}
	sched.Start()
	return sched, nil
}

// ArchiveCompleted uploads snapshots of completed sessions that were not
// archived yet and stamps archived_at. It returns how many were archived.
func (s *ArchiveService) ArchiveCompleted(ctx context.Context) (int, error) {
	db := s.DB.WithContext(ctx)

	var sessions []models.MatchSession
	err := db.Where("status = ? AND archived_at IS NULL", models.StatusCompleted).
		Order("completed_at ASC").
		Limit(s.Batch).
		Find(&sessions).Error
	if err != nil {
		return 0, fmt.Errorf("list completed sessions: %w", err)
	}

	archived := 0
	for _, sess := range sessions {
		var ledger []models.LedgerEntry
		if err := db.Where("related_session_id = ?", sess.ID).Order("created_at ASC").Find(&ledger).Error; err != nil {
			return archived, fmt.Errorf("load ledger for %s: %w", sess.ID, err)
		}

		now := time.Now()
		body, err := json.Marshal(SessionArchive{Session: sess, Ledger: ledger, ArchivedAt: now})
		if err != nil {
			return archived, err
		}
		url, err := s.Uploader.UploadJSON(ctx, fmt.Sprintf("archives/sessions/%s.json", sess.ID), body)
		if err != nil {
			logging.Log.Warn("[Scheduler] archive upload failed", zap.String("session_id", sess.ID), zap.Error(err))
			continue
		}

		if err := db.Model(&models.MatchSession{}).
			Where("id = ? AND archived_at IS NULL", sess.ID).
			UpdateColumn("archived_at", &now).Error; err != nil {
			return archived, fmt.Errorf("stamp archive for %s: %w", sess.ID, err)
		}
		archived++
		logging.Log.Debug("session archived", zap.String("session_id", sess.ID), zap.String("url", url))
	}
	return archived, nil
}
