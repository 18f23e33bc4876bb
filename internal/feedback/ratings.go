package feedback

import (
	"context"

	"github.com/driverlink/driverlink/internal/models"
	"github.com/google/uuid"
)

const maxRatingComment = 500

// RatingService enforces at-most-one-active-rating-per-(incident, user).
// Unlike votes, a duplicate rating attempt is rejected outright; changes go
// through Update, gated by ownership.
type RatingService struct {
	store Store
}

func NewRatingService(store Store) *RatingService {
	return &RatingService{store: store}
}

// Create stores a new rating. Input is validated before storage is touched,
// so a rejected call leaves the store byte-identical.
func (s *RatingService) Create(ctx context.Context, incidentID, userID uuid.UUID, value int, comment string) (*models.Rating, error) {
	if err := requireCaller(userID); err != nil {
		return nil, err
	}
	if err := validateRating(value, comment); err != nil {
		return nil, err
	}

	rating := &models.Rating{
		IncidentID: incidentID,
		UserID:     userID,
		Value:      value,
		Comment:    comment,
		Active:     true,
	}
	err := s.store.Atomic(ctx, func(tx Store) error {
		if err := s.checkReferences(ctx, tx, incidentID, userID); err != nil {
			return err
		}
		existing, err := tx.ActiveRating(ctx, incidentID, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return conflictf("user has already rated this incident")
		}
		err = tx.CreateRating(ctx, rating)
		if KindOf(err) == KindConflict {
			// Lost a race with a concurrent create; the unique index kept the
			// invariant, report it the same way as the pre-check would have.
			return conflictf("user has already rated this incident")
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return rating, nil
}

// Update overwrites the rating's value and comment in place.
func (s *RatingService) Update(ctx context.Context, ratingID, callerID uuid.UUID, value int, comment string) (*models.Rating, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	if err := validateRating(value, comment); err != nil {
		return nil, err
	}

	var result *models.Rating
	err := s.store.Atomic(ctx, func(tx Store) error {
		rating, err := tx.RatingByID(ctx, ratingID)
		if err != nil {
			return err
		}
		if !rating.Active {
			return notFoundf("rating %s not found", ratingID)
		}
		if err := requireOwner(rating.UserID, callerID, "rating"); err != nil {
			return err
		}
		if err := tx.SetRating(ctx, ratingID, value, comment); err != nil {
			return err
		}
		result, err = tx.RatingByID(ctx, ratingID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete soft-deletes the caller's rating.
func (s *RatingService) Delete(ctx context.Context, ratingID, callerID uuid.UUID) error {
	if err := requireCaller(callerID); err != nil {
		return err
	}
	return s.store.Atomic(ctx, func(tx Store) error {
		rating, err := tx.RatingByID(ctx, ratingID)
		if err != nil {
			return err
		}
		if !rating.Active {
			return notFoundf("rating %s not found", ratingID)
		}
		if err := requireOwner(rating.UserID, callerID, "rating"); err != nil {
			return err
		}
		return tx.DeactivateRating(ctx, ratingID)
	})
}

// ListByIncident returns the incident's active ratings, newest first,
// optionally filtered by value range and creation time.
func (s *RatingService) ListByIncident(ctx context.Context, incidentID uuid.UUID, f RatingFilter) ([]models.Rating, error) {
	exists, err := s.store.IncidentExists(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFoundf("incident %s not found", incidentID)
	}
	return s.store.ActiveRatings(ctx, incidentID, f)
}

// Average returns the mean of active rating values, or nil when the incident
// has no active ratings.
func (s *RatingService) Average(ctx context.Context, incidentID uuid.UUID) (*float64, error) {
	exists, err := s.store.IncidentExists(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFoundf("incident %s not found", incidentID)
	}
	agg, err := s.store.RatingStats(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	return agg.Average, nil
}

func (s *RatingService) checkReferences(ctx context.Context, tx Store, incidentID, userID uuid.UUID) error {
	exists, err := tx.IncidentExists(ctx, incidentID)
	if err != nil {
		return err
	}
	if !exists {
		return notFoundf("incident %s not found", incidentID)
	}
	exists, err = tx.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return notFoundf("user %s not found", userID)
	}
	return nil
}

func validateRating(value int, comment string) error {
	if value < 1 || value > 5 {
		return invalidf("rating value must be between 1 and 5")
	}
	if len(comment) > maxRatingComment {
		return invalidf("rating comment cannot exceed %d characters", maxRatingComment)
	}
	return nil
}
