package handlers

import (
	"errors"
	"time"

	"github.com/driverlink/driverlink/internal/dto"
	"github.com/driverlink/driverlink/internal/middleware"
	"github.com/driverlink/driverlink/internal/models"
	"github.com/driverlink/driverlink/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type IncidentHandler struct {
	incidents *services.IncidentService
}

func NewIncidentHandler(incidents *services.IncidentService) *IncidentHandler {
	return &IncidentHandler{incidents: incidents}
}

func (h *IncidentHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateIncidentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	incident, err := h.incidents.Create(middleware.UserID(c), &req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(incident)
}

func (h *IncidentHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid incident id",
		})
	}

	incident, err := h.incidents.Get(id)
	if err != nil {
		return incidentError(c, err)
	}
	return c.JSON(incident)
}

// List accepts optional status, type, city, start_date, end_date and page
// query parameters; dates are RFC 3339.
func (h *IncidentHandler) List(c *fiber.Ctx) error {
	filter := dto.IncidentFilter{
		Status: models.IncidentStatus(c.Query("status")),
		Type:   models.IncidentType(c.Query("type")),
		City:   c.Query("city"),
	}
	if v := c.Query("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid start_date, expected RFC 3339",
			})
		}
		filter.StartDate = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid end_date, expected RFC 3339",
			})
		}
		filter.EndDate = &t
	}

	page := queryInt(c, "page", 1)
	incidents, total, err := h.incidents.List(filter, page)
	if err != nil {
		return incidentError(c, err)
	}
	return c.JSON(fiber.Map{
		"incidents": incidents,
		"total":     total,
		"page":      page,
	})
}

func (h *IncidentHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid incident id",
		})
	}

	var req dto.UpdateIncidentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	incident, err := h.incidents.Update(middleware.UserID(c), id, &req)
	if err != nil {
		return incidentError(c, err)
	}
	return c.JSON(incident)
}

func (h *IncidentHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid incident id",
		})
	}

	if err := h.incidents.Delete(middleware.UserID(c), id, isAdmin(c)); err != nil {
		return incidentError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetStatus is admin-only; the route guards it with AdminRequired.
func (h *IncidentHandler) SetStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid incident id",
		})
	}

	var req struct {
		Status models.IncidentStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	incident, err := h.incidents.SetStatus(id, req.Status)
	if err != nil {
		return incidentError(c, err)
	}
	return c.JSON(incident)
}

func incidentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrIncidentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrNotIncidentOwner):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	default:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
}

func isAdmin(c *fiber.Ctx) bool {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}
	role, _ := claims["role"].(string)
	return role == "admin"
}
