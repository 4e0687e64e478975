// handlers/rating.go
package handlers

import (
	"backgammon-platform/middleware"
	"backgammon-platform/services"

	"github.com/gofiber/fiber/v2"
)

func SetupRatingRoutes(app *fiber.App, ratings *services.RatingService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/ratings", func(c *fiber.Ctx) error {
		board, err := ratings.Leaderboard(c.UserContext(), c.QueryInt("limit", 50))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"ratings": board})
	})

	secured.Get("/ratings/:user_id", func(c *fiber.Ctx) error {
		r, err := ratings.GetRating(c.UserContext(), c.Params("user_id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"rating": r})
	})

	secured.Get("/users/me/ledger", func(c *fiber.Ctx) error {
		page, err := ratings.GetLedger(c.UserContext(), callerID(c), c.QueryInt("limit", 50))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(page)
	})
}
