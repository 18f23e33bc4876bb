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

type CommentHandler struct {
	comments *feedback.CommentService
	stats    *feedback.StatsService
}

func NewCommentHandler(comments *feedback.CommentService, stats *feedback.StatsService) *CommentHandler {
	return &CommentHandler{comments: comments, stats: stats}
}

func (h *CommentHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	comment, err := h.comments.Create(c.Context(), req.IncidentID, middleware.UserID(c), req.Content)
	if err != nil {
		return feedbackError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

func (h *CommentHandler) Update(c *fiber.Ctx) error {
	commentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid comment id",
		})
	}

	var req dto.UpdateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	comment, err := h.comments.Update(c.Context(), commentID, middleware.UserID(c), req.Content)
	if err != nil {
		return feedbackError(c, err)
	}
	return c.JSON(comment)
}

func (h *CommentHandler) Delete(c *fiber.Ctx) error {
	commentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid comment id",
		})
	}

	if err := h.comments.Delete(c.Context(), commentID, middleware.UserID(c)); err != nil {
		return feedbackError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListByIncident accepts optional since (RFC 3339), search, page and
// page_size query parameters.
func (h *CommentHandler) ListByIncident(c *fiber.Ctx) error {
	incidentID, err := uuid.Parse(c.Params("incidentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid incident id",
		})
	}

	opts := feedback.ListCommentsOptions{
		Search:   c.Query("search"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", feedback.DefaultPageSize),
	}
	if v := c.Query("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid since timestamp, expected RFC 3339",
			})
		}
		opts.Since = &t
	}

	comments, total, err := h.comments.ListByIncident(c.Context(), incidentID, opts)
	if err != nil {
		return feedbackError(c, err)
	}
	return c.JSON(dto.CommentPage{
		Comments: comments,
		Total:    total,
		Page:     opts.Page,
		PageSize: opts.PageSize,
	})
}

func (h *CommentHandler) Statistics(c *fiber.Ctx) error {
	incidentID, err := uuid.Parse(c.Params("incidentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid incident id",
		})
	}

	stats, err := h.stats.CommentStatistics(c.Context(), incidentID)
	if err != nil {
		return feedbackError(c, err)
	}
	return c.JSON(stats)
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
