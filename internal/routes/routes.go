package routes

import (
	"time"

	"github.com/driverlink/driverlink/internal/config"
	"github.com/driverlink/driverlink/internal/handlers"
	"github.com/driverlink/driverlink/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	incidentHandler *handlers.IncidentHandler,
	voteHandler *handlers.VoteHandler,
	ratingHandler *handlers.RatingHandler,
	commentHandler *handlers.CommentHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	jwt := middleware.JWTProtected(cfg)

	api.Post("/auth/logout", jwt, authHandler.Logout)
	api.Delete("/auth/account", jwt, authHandler.DeleteAccount)

	// Incidents — reads are public, writes require auth
	api.Get("/incidents", incidentHandler.List)
	api.Get("/incidents/:id", incidentHandler.Get)
	api.Post("/incidents", jwt, incidentHandler.Create)
	api.Put("/incidents/:id", jwt, incidentHandler.Update)
	api.Delete("/incidents/:id", jwt, incidentHandler.Delete)

	// Votes
	api.Get("/votes/incident/:incidentId", voteHandler.ListByIncident)
	api.Get("/votes/incident/:incidentId/statistics", voteHandler.Statistics)
	api.Get("/votes/incident/:incidentId/me", jwt, voteHandler.HasVoted)
	api.Post("/votes", jwt, voteHandler.Cast)
	api.Delete("/votes/:id", jwt, voteHandler.Remove)

	// Ratings
	api.Get("/ratings/incident/:incidentId", ratingHandler.ListByIncident)
	api.Get("/ratings/incident/:incidentId/average", ratingHandler.Average)
	api.Get("/ratings/incident/:incidentId/statistics", ratingHandler.Statistics)
	api.Post("/ratings", jwt, ratingHandler.Create)
	api.Put("/ratings/:id", jwt, ratingHandler.Update)
	api.Delete("/ratings/:id", jwt, ratingHandler.Delete)

	// Comments
	api.Get("/comments/incident/:incidentId", commentHandler.ListByIncident)
	api.Get("/comments/incident/:incidentId/statistics", commentHandler.Statistics)
	api.Post("/comments", jwt, commentHandler.Create)
	api.Put("/comments/:id", jwt, commentHandler.Update)
	api.Delete("/comments/:id", jwt, commentHandler.Delete)

	// Admin — incident verification lifecycle
	admin := api.Group("/admin", jwt, middleware.AdminRequired(db))
	admin.Put("/incidents/:id/status", incidentHandler.SetStatus)
}
