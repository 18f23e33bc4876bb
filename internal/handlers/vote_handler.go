package handlers

import (
	"github.com/driverlink/driverlink/internal/dto"
	"github.com/driverlink/driverlink/internal/feedback"
	"github.com/driverlink/driverlink/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type VoteHandler struct {
	votes *feedback.VoteService
	stats *feedback.StatsService
}

func NewVoteHandler(votes *feedback.VoteService, stats *feedback.StatsService) *VoteHandler {
	return &VoteHandler{votes: votes, stats: stats}
}

func (h *VoteHandler) Cast(c *fiber.Ctx) error {
	var req dto.CastVoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	vote, err := h.votes.Cast(c.Context(), req.IncidentID, middleware.UserID(c), req.VoteType)
	if err != nil {
		return feedbackError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(vote)
}

func (h *VoteHandler) Remove(c *fiber.Ctx) error {
	voteID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid vote id",
		})
	}

	if err := h.votes.Remove(c.Context(), voteID, middleware.UserID(c)); err != nil {
		return feedbackError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *VoteHandler) ListByIncident(c *fiber.Ctx) error {
	incidentID, err := uuid.Parse(c.Params("incidentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid incident id",
		})
	}

	votes, err := h.votes.ListByIncident(c.Context(), incidentID)
	if err != nil {
		return feedbackError(c, err)
	}
	return c.JSON(votes)
}

// HasVoted tells the caller whether they currently hold an active vote.
func (h *VoteHandler) HasVoted(c *fiber.Ctx) error {
	incidentID, err := uuid.Parse(c.Params("incidentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid incident id",
		})
	}

	voted, err := h.votes.HasVoted(c.Context(), incidentID, middleware.UserID(c))
	if err != nil {
		return feedbackError(c, err)
	}
	return c.JSON(fiber.Map{"has_voted": voted})
}

func (h *VoteHandler) Statistics(c *fiber.Ctx) error {
	incidentID, err := uuid.Parse(c.Params("incidentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid incident id",
		})
	}

	stats, err := h.stats.VoteStatistics(c.Context(), incidentID)
	if err != nil {
		return feedbackError(c, err)
	}
	return c.JSON(stats)
}
