// handlers/review.go
package handlers

import (
	"clan-review-system/middleware"
	"clan-review-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupReviewRoutes(app *fiber.App, reviewService *services.ReviewService) {
	// 🔐 Everything here needs user context; mutations additionally need the
	// clan-admin role resolved by the Gateway.
	secured := app.Group("/", middleware.UserContextMiddleware())

	clan := secured.Group("/clans/:clanId", middleware.RequireClanAdmin())

	// Ingestion + review queue
	clan.Post("/submissions", reviewService.CreateSubmission)
	clan.Get("/submissions", reviewService.GetSubmissions)
	clan.Get("/submissions/:id", reviewService.GetSubmissionByID)

	// Bulk review actions (delete / reject / approve / rematch)
	clan.Post("/submissions/:id/bulk-action", reviewService.BulkAction)

	// Coarse rematch — whole clan or one submission, server-side routine
	clan.Post("/rematch", reviewService.RematchAll)

	// Production rollups
	clan.Get("/analytics/:type", reviewService.GetAnalytics)
}
