// middleware/sse_auth.go
package middleware

import (
	"context"
	"strings"

	"backgammon-platform/logging"
	"backgammon-platform/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// TokenValidator checks an end-user access token.
type TokenValidator interface {
	ValidateToken(ctx context.Context, accessToken, deviceID string) (*services.ValidateResponse, error)
}

// SSEAuthMiddleware validates `token` and `device_id` from query params.
// Browsers cannot set headers on an EventSource, so the session stream is
// authenticated this way instead of through the gateway headers.
//
// Usage:
//
//	app.Get("/sessions/:id/stream", middleware.SSEAuthMiddleware(authClient), sessionService.StreamSession)
func SSEAuthMiddleware(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := strings.TrimSpace(c.Query("token"))
		deviceID := strings.TrimSpace(c.Query("device_id"))

		if accessToken == "" || deviceID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": fiber.Map{"kind": "unauthorized", "message": "missing token or device_id in query"},
			})
		}

		resp, err := validator.ValidateToken(c.UserContext(), accessToken, deviceID)
		if err != nil {
			logging.Log.Warn("[SSEAuth] validation failed",
				zap.String("device_id", deviceID),
				zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": fiber.Map{"kind": "unauthorized", "message": "invalid access token"},
			})
		}

		c.Locals("user_id", resp.UserID)
		c.Locals("device_id", resp.DeviceID)
		c.Locals("user_roles", resp.Roles)
		return c.Next()
	}
}
