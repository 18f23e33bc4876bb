package models

import (
	"time"

	"github.com/google/uuid"
)

// Rating is a 1-5 score with an optional short comment. At most one active
// rating per (incident_id, user_id); unlike votes a second attempt is
// rejected outright rather than folded into an update.
type Rating struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	IncidentID uuid.UUID `gorm:"type:uuid;not null;index" json:"incident_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Value      int       `gorm:"not null;check:value >= 1 AND value <= 5" json:"value"`
	Comment    string    `gorm:"size:500" json:"comment"`
	Active     bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}
