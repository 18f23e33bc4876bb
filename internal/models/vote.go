package models

import (
	"time"

	"github.com/google/uuid"
)

// VoteType is the kind of vote a user can cast on an incident.
type VoteType string

const (
	VoteUpvote   VoteType = "UPVOTE"
	VoteDownvote VoteType = "DOWNVOTE"
	VoteReport   VoteType = "REPORT"
)

// VoteTypes lists the valid values in declaration order, for error messages.
func VoteTypes() []VoteType {
	return []VoteType{VoteUpvote, VoteDownvote, VoteReport}
}

// ValidVoteType reports whether t is one of the enumerated vote types.
func ValidVoteType(t VoteType) bool {
	switch t {
	case VoteUpvote, VoteDownvote, VoteReport:
		return true
	}
	return false
}

// Vote records one user's stance on one incident. At most one row per
// (incident_id, user_id) may be active at a time; the database enforces this
// with a partial unique index (see database.Migrate). A changed mind mutates
// the existing row, removal flips Active off and keeps the row for audit.
type Vote struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	IncidentID uuid.UUID `gorm:"type:uuid;not null;index" json:"incident_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	VoteType   VoteType  `gorm:"size:20;not null" json:"vote_type"`
	Active     bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
