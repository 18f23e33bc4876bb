package feedback

import (
	"context"
	"strings"

	"github.com/driverlink/driverlink/internal/models"
	"github.com/google/uuid"
)

// VoteService enforces the at-most-one-active-vote-per-(incident, user)
// invariant. Repeat votes with a different type mutate the existing row;
// repeat votes with the same type are rejected.
type VoteService struct {
	store Store
}

func NewVoteService(store Store) *VoteService {
	return &VoteService{store: store}
}

// Cast records the caller's vote on an incident.
//
// The check-then-act sequence runs in one transaction, and the partial unique
// index backs it up: if two concurrent casts both observe "no active vote",
// the loser's insert surfaces as KindConflict and is retried along the update
// path, so the invariant holds either way.
func (s *VoteService) Cast(ctx context.Context, incidentID, userID uuid.UUID, voteType models.VoteType) (*models.Vote, error) {
	if err := requireCaller(userID); err != nil {
		return nil, err
	}
	if !models.ValidVoteType(voteType) {
		return nil, invalidf("invalid vote type %q, valid types are: %s", voteType, validVoteTypeList())
	}

	var result *models.Vote
	err := s.store.Atomic(ctx, func(tx Store) error {
		if err := s.checkReferences(ctx, tx, incidentID, userID); err != nil {
			return err
		}

		existing, err := tx.ActiveVote(ctx, incidentID, userID)
		if err != nil {
			return err
		}

		if existing == nil {
			vote := &models.Vote{
				IncidentID: incidentID,
				UserID:     userID,
				VoteType:   voteType,
				Active:     true,
			}
			err := tx.CreateVote(ctx, vote)
			if KindOf(err) == KindConflict {
				// Lost a race with a concurrent first vote; fall through to
				// the update path against the row that won.
				existing, err = tx.ActiveVote(ctx, incidentID, userID)
				if err != nil {
					return err
				}
				if existing == nil {
					return conflictf("vote for this incident changed concurrently")
				}
			} else if err != nil {
				return err
			} else {
				result = vote
				return nil
			}
		}

		if existing.VoteType == voteType {
			return conflictf("already voted %s for this incident", voteType)
		}
		if err := tx.SetVoteType(ctx, existing.ID, voteType); err != nil {
			return err
		}
		result, err = tx.VoteByID(ctx, existing.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Remove soft-deletes the caller's vote. A vote that does not exist or was
// already removed reports KindNotFound; a vote owned by someone else reports
// KindForbidden and is left untouched.
func (s *VoteService) Remove(ctx context.Context, voteID, callerID uuid.UUID) error {
	if err := requireCaller(callerID); err != nil {
		return err
	}
	return s.store.Atomic(ctx, func(tx Store) error {
		vote, err := tx.VoteByID(ctx, voteID)
		if err != nil {
			return err
		}
		if !vote.Active {
			return notFoundf("vote %s not found", voteID)
		}
		if err := requireOwner(vote.UserID, callerID, "vote"); err != nil {
			return err
		}
		return tx.DeactivateVote(ctx, voteID)
	})
}

// ListByIncident returns the incident's active votes, newest first.
func (s *VoteService) ListByIncident(ctx context.Context, incidentID uuid.UUID) ([]models.Vote, error) {
	exists, err := s.store.IncidentExists(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFoundf("incident %s not found", incidentID)
	}
	return s.store.ActiveVotes(ctx, incidentID)
}

// HasVoted reports whether the user has an active vote on the incident.
func (s *VoteService) HasVoted(ctx context.Context, incidentID, userID uuid.UUID) (bool, error) {
	vote, err := s.store.ActiveVote(ctx, incidentID, userID)
	if err != nil {
		return false, err
	}
	return vote != nil, nil
}

func (s *VoteService) checkReferences(ctx context.Context, tx Store, incidentID, userID uuid.UUID) error {
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

func validVoteTypeList() string {
	types := models.VoteTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
