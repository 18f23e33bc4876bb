package models

import (
	"time"

	"github.com/google/uuid"
)

// IncidentType classifies what was reported.
type IncidentType string

const (
	IncidentAccident      IncidentType = "ACCIDENT"
	IncidentTrafficJam    IncidentType = "TRAFFIC_JAM"
	IncidentRoadClosure   IncidentType = "ROAD_CLOSURE"
	IncidentPoliceControl IncidentType = "POLICE_CONTROL"
	IncidentHazard        IncidentType = "HAZARD"
	IncidentOther         IncidentType = "OTHER"
)

// IncidentStatus tracks the verification lifecycle.
type IncidentStatus string

const (
	StatusPending  IncidentStatus = "PENDING"
	StatusVerified IncidentStatus = "VERIFIED"
	StatusResolved IncidentStatus = "RESOLVED"
	StatusRejected IncidentStatus = "REJECTED"
)

// Incident is a reported road event. All feedback (votes, ratings, comments)
// attaches to an incident by ID. Deletion is a soft flag flip so historical
// feedback stays retrievable.
type Incident struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title             string         `gorm:"size:200;not null" json:"title"`
	Description       string         `gorm:"type:text;not null" json:"description"`
	LocationID        uuid.UUID      `gorm:"type:uuid;not null" json:"-"`
	Location          Location       `gorm:"foreignKey:LocationID" json:"location"`
	ReporterID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"reporter_id"`
	Type              IncidentType   `gorm:"size:30;not null" json:"type"`
	Status            IncidentStatus `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	VerificationCount int            `gorm:"not null;default:0" json:"verification_count"`
	Active            bool           `gorm:"not null;default:true;index" json:"active"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// ValidIncidentType reports whether t is one of the enumerated types.
func ValidIncidentType(t IncidentType) bool {
	switch t {
	case IncidentAccident, IncidentTrafficJam, IncidentRoadClosure,
		IncidentPoliceControl, IncidentHazard, IncidentOther:
		return true
	}
	return false
}
