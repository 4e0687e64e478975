// handlers/proposal.go
package handlers

import (
	"backgammon-platform/middleware"
	"backgammon-platform/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProposalRoutes(app *fiber.App, lobby *services.LobbyService) {
	secured := app.Group("/proposals", middleware.UserContextMiddleware())

	secured.Post("/", func(c *fiber.Ctx) error {
		var req struct {
			OpponentID string `json:"opponent_id"`
			services.MatchTerms
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		p, err := lobby.ProposeGame(c.UserContext(), callerID(c), req.OpponentID, req.MatchTerms)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"proposal": p})
	})

	secured.Post("/:id/accept", func(c *fiber.Ctx) error {
		sess, err := lobby.AcceptProposal(c.UserContext(), c.Params("id"), callerID(c))
		return sessionResponse(c, sess, err)
	})

	secured.Post("/:id/decline", func(c *fiber.Ctx) error {
		p, err := lobby.DeclineProposal(c.UserContext(), c.Params("id"), callerID(c))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"proposal": p})
	})
}
