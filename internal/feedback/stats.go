package feedback

import (
	"context"
	"time"

	"github.com/driverlink/driverlink/internal/models"
	"github.com/google/uuid"
)

// VoteStatistics summarizes active votes on one incident. Absent types count
// as zero.
type VoteStatistics struct {
	IncidentID   uuid.UUID `json:"incident_id"`
	Upvotes      int64     `json:"upvotes"`
	Downvotes    int64     `json:"downvotes"`
	Reports      int64     `json:"reports"`
	UniqueVoters int64     `json:"unique_voters"`
}

// RatingStatistics summarizes active ratings. Average is null when the
// incident has no active ratings; Distribution only carries observed values,
// missing keys mean zero.
type RatingStatistics struct {
	IncidentID   uuid.UUID     `json:"incident_id"`
	Average      *float64      `json:"average_rating"`
	Total        int64         `json:"total_ratings"`
	Distribution map[int]int64 `json:"rating_distribution"`
}

// CommentStatistics summarizes active comments. LastCommentAt is null when
// there are none.
type CommentStatistics struct {
	IncidentID       uuid.UUID  `json:"incident_id"`
	Total            int64      `json:"total_comments"`
	UniqueCommenters int64      `json:"unique_commenters"`
	LastCommentAt    *time.Time `json:"last_comment_at"`
}

// StatsService derives per-incident statistics from active rows only. It is
// purely read-side: no locks are taken against the writers, and a reader may
// observe a record before or after a concurrent update but never half-written.
type StatsService struct {
	store Store
}

func NewStatsService(store Store) *StatsService {
	return &StatsService{store: store}
}

func (s *StatsService) VoteStatistics(ctx context.Context, incidentID uuid.UUID) (*VoteStatistics, error) {
	if err := s.checkIncident(ctx, incidentID); err != nil {
		return nil, err
	}
	counts, err := s.store.VoteCounts(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	voters, err := s.store.UniqueVoters(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	return &VoteStatistics{
		IncidentID:   incidentID,
		Upvotes:      counts[models.VoteUpvote],
		Downvotes:    counts[models.VoteDownvote],
		Reports:      counts[models.VoteReport],
		UniqueVoters: voters,
	}, nil
}

func (s *StatsService) RatingStatistics(ctx context.Context, incidentID uuid.UUID) (*RatingStatistics, error) {
	if err := s.checkIncident(ctx, incidentID); err != nil {
		return nil, err
	}
	agg, err := s.store.RatingStats(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	dist, err := s.store.RatingDistribution(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	return &RatingStatistics{
		IncidentID:   incidentID,
		Average:      agg.Average,
		Total:        agg.Total,
		Distribution: dist,
	}, nil
}

func (s *StatsService) CommentStatistics(ctx context.Context, incidentID uuid.UUID) (*CommentStatistics, error) {
	if err := s.checkIncident(ctx, incidentID); err != nil {
		return nil, err
	}
	agg, err := s.store.CommentStats(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	return &CommentStatistics{
		IncidentID:       incidentID,
		Total:            agg.Total,
		UniqueCommenters: agg.UniqueCommenters,
		LastCommentAt:    agg.LastCommentAt,
	}, nil
}

func (s *StatsService) checkIncident(ctx context.Context, incidentID uuid.UUID) error {
	exists, err := s.store.IncidentExists(ctx, incidentID)
	if err != nil {
		return err
	}
	if !exists {
		return notFoundf("incident %s not found", incidentID)
	}
	return nil
}
