package handlers

import (
	"log/slog"

	"github.com/driverlink/driverlink/internal/dto"
	"github.com/driverlink/driverlink/internal/feedback"
	"github.com/gofiber/fiber/v2"
)

// feedbackError translates engine failures to HTTP. Unavailable is the only
// kind logged here; everything else is a caller mistake and goes straight
// back with its message.
func feedbackError(c *fiber.Ctx, err error) error {
	kind := feedback.KindOf(err)

	var status int
	switch kind {
	case feedback.KindNotFound:
		status = fiber.StatusNotFound
	case feedback.KindInvalidInput:
		status = fiber.StatusBadRequest
	case feedback.KindForbidden:
		status = fiber.StatusForbidden
	case feedback.KindConflict, feedback.KindExpired:
		status = fiber.StatusConflict
	case feedback.KindRateLimited:
		status = fiber.StatusTooManyRequests
	case feedback.KindUnavailable:
		slog.Error("feedback storage unavailable", "error", err, "path", c.Path())
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Error: true, Message: "Service temporarily unavailable", Kind: kind.String(),
		})
	default:
		slog.Error("unclassified feedback error", "error", err, "path", c.Path())
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.Status(status).JSON(dto.ErrorResponse{
		Error: true, Message: err.Error(), Kind: kind.String(),
	})
}
