// handlers/errors.go
package handlers

import (
	"errors"

	"backgammon-platform/logging"
	"backgammon-platform/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var statusByKind = map[services.Kind]int{
	services.KindUnauthorized:  fiber.StatusUnauthorized,
	services.KindForbidden:     fiber.StatusForbidden,
	services.KindNotYourTurn:   fiber.StatusForbidden,
	services.KindNotFound:      fiber.StatusNotFound,
	services.KindInvalidState:  fiber.StatusConflict,
	services.KindAlreadyRolled: fiber.StatusConflict,
	services.KindDataIntegrity: fiber.StatusInternalServerError,
	services.KindInternal:      fiber.StatusInternalServerError,
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind services.Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// writeError renders err as {"error": {"kind", "message"}}. Internal details
// are logged, not returned.
func writeError(c *fiber.Ctx, err error) error {
	kind := services.KindOf(err)
	status := StatusFor(kind)
	message := err.Error()

	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}
	if status >= fiber.StatusInternalServerError {
		logging.Log.Error("request failed",
			zap.String("path", c.Path()),
			zap.String("kind", string(kind)),
			zap.Error(err))
		if kind == services.KindInternal {
			message = "internal error"
		}
	}

	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{"kind": kind, "message": message},
	})
}

// ErrorHandler is the fiber error handler. Service errors keep their kind;
// fiber's own errors (404 route, bad body) keep their status.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error": fiber.Map{"kind": kindForStatus(fe.Code), "message": fe.Message},
		})
	}
	return writeError(c, err)
}

func kindForStatus(status int) services.Kind {
	switch status {
	case fiber.StatusUnauthorized:
		return services.KindUnauthorized
	case fiber.StatusForbidden:
		return services.KindForbidden
	case fiber.StatusNotFound:
		return services.KindNotFound
	case fiber.StatusConflict, fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return services.KindInvalidState
	}
	return services.KindInternal
}

func callerID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
