// middleware/auth.go
package middleware

import (
	"strings"

	"backgammon-platform/logging"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UserContextMiddleware extracts the caller identity set by the gateway. Every
// session operation needs a verified caller, so a missing X-User-ID is rejected.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get("X-User-ID"))
		if userID == "" {
			logging.Log.Warn("[USER_CTX] X-User-ID missing", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": fiber.Map{
					"kind":    "unauthorized",
					"message": "missing X-User-ID; request must come through the gateway with auth context",
				},
			})
		}

		var roles []string
		for _, r := range strings.Split(c.Get("X-User-Roles"), ",") {
			if r = strings.TrimSpace(r); r != "" {
				roles = append(roles, r)
			}
		}

		c.Locals("user_id", userID)
		c.Locals("user_roles", roles)

		logging.Log.Debug("[USER_CTX] caller",
			zap.String("user_id", userID),
			zap.Strings("roles", roles),
			zap.String("path", c.Path()))
		return c.Next()
	}
}
