package dto

import (
	"time"

	"github.com/driverlink/driverlink/internal/models"
	"github.com/google/uuid"
)

type LocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
	Area      string  `json:"area"`
	City      string  `json:"city"`
	Province  string  `json:"province"`
}

type CreateIncidentRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Type        models.IncidentType `json:"type"`
	Location    LocationRequest     `json:"location"`
}

type UpdateIncidentRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Type        models.IncidentType `json:"type"`
	Location    *LocationRequest    `json:"location"`
}

// IncidentFilter narrows incident listings; zero values mean "no filter".
type IncidentFilter struct {
	Status    models.IncidentStatus
	Type      models.IncidentType
	City      string
	StartDate *time.Time
	EndDate   *time.Time
}

type IncidentResponse struct {
	ID                uuid.UUID             `json:"id"`
	Title             string                `json:"title"`
	Description       string                `json:"description"`
	ReporterID        uuid.UUID             `json:"reporter_id"`
	Type              models.IncidentType   `json:"type"`
	Status            models.IncidentStatus `json:"status"`
	VerificationCount int                   `json:"verification_count"`
	Location          models.Location       `json:"location"`
	AverageRating     *float64              `json:"average_rating"`
	Active            bool                  `json:"active"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}
