package feedback

import (
	"context"
	"time"

	"github.com/driverlink/driverlink/internal/models"
	"github.com/google/uuid"
)

// RatingFilter narrows rating listings. Nil fields mean "no bound".
type RatingFilter struct {
	MinValue *int
	MaxValue *int
	Since    *time.Time
}

// ListCommentsOptions narrows and pages comment listings. Since is an
// inclusive lower bound on CreatedAt; Search matches content
// case-insensitively as a substring.
type ListCommentsOptions struct {
	Since    *time.Time
	Search   string
	Page     int
	PageSize int
}

// DefaultPageSize applies when ListCommentsOptions.PageSize is unset.
const DefaultPageSize = 20

// VoteTypeCounts maps each vote type to its active-row count.
type VoteTypeCounts map[models.VoteType]int64

// RatingAggregate is the read-side summary of active ratings.
type RatingAggregate struct {
	Average *float64
	Total   int64
}

// CommentAggregate is the read-side summary of active comments.
type CommentAggregate struct {
	Total            int64
	UniqueCommenters int64
	LastCommentAt    *time.Time
}

// Store is the persistence boundary for votes, ratings and comments.
//
// Point lookups that scope to active rows return (nil, nil) when no active
// row exists; lookups by ID return a KindNotFound error when the row is
// absent. Every write is a single statement so concurrent readers observe
// either the pre- or post-write state of a record, never a partial one.
// Create calls surface active-uniqueness violations as KindConflict so the
// caller can retry as an update or report the conflict; all other storage
// faults come back as KindUnavailable.
type Store interface {
	// Atomic runs fn inside one transaction. The Store handed to fn is only
	// valid for the duration of the call.
	Atomic(ctx context.Context, fn func(Store) error) error

	IncidentExists(ctx context.Context, id uuid.UUID) (bool, error)
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)

	ActiveVote(ctx context.Context, incidentID, userID uuid.UUID) (*models.Vote, error)
	VoteByID(ctx context.Context, id uuid.UUID) (*models.Vote, error)
	ActiveVotes(ctx context.Context, incidentID uuid.UUID) ([]models.Vote, error)
	CreateVote(ctx context.Context, v *models.Vote) error
	SetVoteType(ctx context.Context, id uuid.UUID, t models.VoteType) error
	DeactivateVote(ctx context.Context, id uuid.UUID) error

	ActiveRating(ctx context.Context, incidentID, userID uuid.UUID) (*models.Rating, error)
	RatingByID(ctx context.Context, id uuid.UUID) (*models.Rating, error)
	ActiveRatings(ctx context.Context, incidentID uuid.UUID, f RatingFilter) ([]models.Rating, error)
	CreateRating(ctx context.Context, r *models.Rating) error
	SetRating(ctx context.Context, id uuid.UUID, value int, comment string) error
	DeactivateRating(ctx context.Context, id uuid.UUID) error

	CommentByID(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	ListComments(ctx context.Context, incidentID uuid.UUID, opts ListCommentsOptions) ([]models.Comment, int64, error)
	CountRecentComments(ctx context.Context, incidentID, userID uuid.UUID, since time.Time) (int64, error)
	CreateComment(ctx context.Context, c *models.Comment) error
	SetCommentContent(ctx context.Context, id uuid.UUID, content string) error
	DeactivateComment(ctx context.Context, id uuid.UUID) error

	VoteCounts(ctx context.Context, incidentID uuid.UUID) (VoteTypeCounts, error)
	UniqueVoters(ctx context.Context, incidentID uuid.UUID) (int64, error)
	RatingStats(ctx context.Context, incidentID uuid.UUID) (RatingAggregate, error)
	RatingDistribution(ctx context.Context, incidentID uuid.UUID) (map[int]int64, error)
	CommentStats(ctx context.Context, incidentID uuid.UUID) (CommentAggregate, error)
}
