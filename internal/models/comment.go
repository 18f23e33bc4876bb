package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is free-form discussion on an incident. Edits are only allowed for
// a fixed window after creation; deletion flips Active off.
type Comment struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	IncidentID uuid.UUID `gorm:"type:uuid;not null;index" json:"incident_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Active     bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
