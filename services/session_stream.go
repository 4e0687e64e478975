package services

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"backgammon-platform/logging"
	"backgammon-platform/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StreamPollInterval is how often a stream re-reads its session.
var StreamPollInterval = 2 * time.Second

// StreamSession streams the session to a seated player as server-sent events.
// A "session" event is sent on connect and whenever the record changes. The
// stream closes once a completed session has been sent.
func (s *SessionService) StreamSession(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	sessionID := c.Params("id")

	// Authorize before switching to a stream so errors keep their status code.
	sess, err := s.GetSession(c.UserContext(), sessionID, userID)
	if err != nil {
		return err
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(StreamPollInterval)
		defer ticker.Stop()

		last := sess.UpdatedAt
		if !writeSessionEvent(w, sess) || sess.Status == models.StatusCompleted {
			return
		}

		for {
			select {
			case <-ticker.C:
				var current models.MatchSession
				if err := s.DB.First(&current, "id = ?", sessionID).Error; err != nil {
					logging.Log.Warn("session stream query failed", zap.String("session_id", sessionID), zap.Error(err))
					continue
				}
				if !current.UpdatedAt.After(last) {
					// keepalive comment
					if _, err := w.WriteString(":\n\n"); err != nil || w.Flush() != nil {
						return
					}
					continue
				}
				last = current.UpdatedAt
				if !writeSessionEvent(w, &current) {
					return
				}
				if current.Status == models.StatusCompleted {
					return
				}
			case <-c.Context().Done():
				return
			}
		}
	})
	return nil
}

// writeSessionEvent reports false once the client has gone away.
func writeSessionEvent(w *bufio.Writer, sess *models.MatchSession) bool {
	payload, err := json.Marshal(sess)
	if err != nil {
		logging.Log.Error("session stream encode failed", zap.String("session_id", sess.ID), zap.Error(err))
		return false
	}
	fmt.Fprintf(w, "event: session\ndata: %s\n\n", payload)
	return w.Flush() == nil
}
