package handlers

import (
	"strconv"
	"time"

	"github.com/driverlink/driverlink/internal/dto"
	"github.com/driverlink/driverlink/internal/feedback"
	"github.com/driverlink/driverlink/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type RatingHandler struct {
	ratings *feedback.RatingService
	stats   *feedback.StatsService
}

func NewRatingHandler(ratings *feedback.RatingService, stats *feedback.StatsService) *RatingHandler {
	return &RatingHandler{ratings: ratings, stats: stats}
}

func (h *RatingHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateRatingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	rating, err := h.ratings.Create(c.Context(), req.IncidentID, middleware.UserID(c), req.Value, req.Comment)
	if err != nil {
		return feedbackError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(rating)
}

func (h *RatingHandler) Update(c *fiber.Ctx) error {
	ratingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid rating id",
		})
	}

	var req dto.UpdateRatingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	rating, err := h.ratings.Update(c.Context(), ratingID, middleware.UserID(c), req.Value, req.Comment)
	if err != nil {
		return feedbackError(c, err)
	}
	return c.JSON(rating)
}

func (h *RatingHandler) Delete(c *fiber.Ctx) error {
	ratingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid rating id",
		})
	}

	if err := h.ratings.Delete(c.Context(), ratingID, middleware.UserID(c)); err != nil {
		return feedbackError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListByIncident accepts optional min_value, max_value and since query
// parameters; since is RFC 3339.
func (h *RatingHandler) ListByIncident(c *fiber.Ctx) error {
	incidentID, err := uuid.Parse(c.Params("incidentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid incident id",
		})
	}

	var filter feedback.RatingFilter
	if v := c.Query("min_value"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid min_value",
			})
		}
		filter.MinValue = &n
	}
	if v := c.Query("max_value"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid max_value",
			})
		}
		filter.MaxValue = &n
	}
	if v := c.Query("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid since timestamp, expected RFC 3339",
			})
		}
		filter.Since = &t
	}

	ratings, err := h.ratings.ListByIncident(c.Context(), incidentID, filter)
	if err != nil {
		return feedbackError(c, err)
	}
	return c.JSON(ratings)
}

func (h *RatingHandler) Average(c *fiber.Ctx) error {
	incidentID, err := uuid.Parse(c.Params("incidentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid incident id",
		})
	}

	avg, err := h.ratings.Average(c.Context(), incidentID)
	if err != nil {
		return feedbackError(c, err)
	}
	return c.JSON(fiber.Map{"incident_id": incidentID, "average_rating": avg})
}

func (h *RatingHandler) Statistics(c *fiber.Ctx) error {
	incidentID, err := uuid.Parse(c.Params("incidentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid incident id",
		})
	}

	stats, err := h.stats.RatingStatistics(c.Context(), incidentID)
	if err != nil {
		return feedbackError(c, err)
	}
	return c.JSON(stats)
}
