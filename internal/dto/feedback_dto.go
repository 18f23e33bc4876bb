package dto

import (
	"github.com/driverlink/driverlink/internal/models"
	"github.com/google/uuid"
)

type CastVoteRequest struct {
	IncidentID uuid.UUID       `json:"incident_id"`
	VoteType   models.VoteType `json:"vote_type"`
}

type CreateRatingRequest struct {
	IncidentID uuid.UUID `json:"incident_id"`
	Value      int       `json:"value"`
	Comment    string    `json:"comment"`
}

type UpdateRatingRequest struct {
	Value   int    `json:"value"`
	Comment string `json:"comment"`
}

type CreateCommentRequest struct {
	IncidentID uuid.UUID `json:"incident_id"`
	Content    string    `json:"content"`
}

type UpdateCommentRequest struct {
	Content string `json:"content"`
}

type CommentPage struct {
	Comments []models.Comment `json:"comments"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}
