// handlers/session.go
package handlers

import (
	"backgammon-platform/middleware"
	"backgammon-platform/models"
	"backgammon-platform/services"

	"github.com/gofiber/fiber/v2"
)

type SessionHandler struct {
	Sessions   *services.SessionService
	Settlement *services.SettlementService
	Lobby      *services.LobbyService
}

func SetupSessionRoutes(app *fiber.App, h *SessionHandler, validator middleware.TokenValidator) {
	// Registered ahead of the user-context group: the stream authenticates
	// with query parameters.
	app.Get("/sessions/:id/stream", middleware.SSEAuthMiddleware(validator), h.Sessions.StreamSession)

	secured := app.Group("/sessions", middleware.UserContextMiddleware())
	secured.Post("/", h.Open)
	secured.Get("/:id", h.Get)
	secured.Post("/:id/join", h.Join)
	secured.Post("/:id/ready", h.Ready)
	secured.Post("/:id/roll", h.Roll)
	secured.Post("/:id/end-turn", h.EndTurn)
	secured.Post("/:id/complete", h.Complete)
}

func sessionResponse(c *fiber.Ctx, sess *models.MatchSession, err error) error {
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"session": sess})
}

func (h *SessionHandler) Open(c *fiber.Ctx) error {
	var terms services.MatchTerms
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&terms); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}
	sess, err := h.Lobby.OpenSession(c.UserContext(), callerID(c), terms)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": sess})
}

func (h *SessionHandler) Get(c *fiber.Ctx) error {
	sess, err := h.Sessions.GetSession(c.UserContext(), c.Params("id"), callerID(c))
	return sessionResponse(c, sess, err)
}

func (h *SessionHandler) Join(c *fiber.Ctx) error {
	sess, err := h.Lobby.JoinSession(c.UserContext(), c.Params("id"), callerID(c))
	return sessionResponse(c, sess, err)
}

func (h *SessionHandler) Ready(c *fiber.Ctx) error {
	sess, err := h.Sessions.RequestReady(c.UserContext(), c.Params("id"), callerID(c))
	return sessionResponse(c, sess, err)
}

func (h *SessionHandler) Roll(c *fiber.Ctx) error {
	sess, err := h.Sessions.RollDice(c.UserContext(), c.Params("id"), callerID(c))
	return sessionResponse(c, sess, err)
}

func (h *SessionHandler) EndTurn(c *fiber.Ctx) error {
	sess, err := h.Sessions.EndTurn(c.UserContext(), c.Params("id"), callerID(c))
	return sessionResponse(c, sess, err)
}

// Complete is called by the rules engine once the match has an outcome.
func (h *SessionHandler) Complete(c *fiber.Ctx) error {
	var req struct {
		WinnerID string `json:"winner_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.WinnerID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "winner_id is required")
	}
	sess, err := h.Settlement.CompleteMatch(c.UserContext(), c.Params("id"), req.WinnerID)
	return sessionResponse(c, sess, err)
}
