package feedback

import (
	"context"
	"strings"
	"time"

	"github.com/driverlink/driverlink/internal/models"
	"github.com/google/uuid"
)

const (
	minCommentLength = 5
	maxCommentLength = 1000

	// editWindow is how long after creation a comment may still be edited.
	editWindow = 30 * time.Minute

	// spamWindow and spamLimit bound how fast one user may comment on one
	// incident: at most spamLimit active comments per spamWindow.
	spamWindow = time.Minute
	spamLimit  = 3
)

// ModerationFunc decides whether comment content is acceptable. It runs after
// the length checks and before any storage write.
type ModerationFunc func(content string) bool

// CommentService validates, throttles and soft-deletes comments.
type CommentService struct {
	store    Store
	moderate ModerationFunc
	now      func() time.Time
}

// NewCommentService wires a comment service. A nil moderate accepts all
// content.
func NewCommentService(store Store, moderate ModerationFunc) *CommentService {
	if moderate == nil {
		moderate = AllowAll
	}
	return &CommentService{store: store, moderate: moderate, now: time.Now}
}

// Create validates and stores a new comment. Content is stored trimmed.
func (s *CommentService) Create(ctx context.Context, incidentID, userID uuid.UUID, content string) (*models.Comment, error) {
	if err := requireCaller(userID); err != nil {
		return nil, err
	}
	trimmed, err := s.validateContent(content)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		IncidentID: incidentID,
		UserID:     userID,
		Content:    trimmed,
		Active:     true,
	}
	err = s.store.Atomic(ctx, func(tx Store) error {
		if err := s.checkReferences(ctx, tx, incidentID, userID); err != nil {
			return err
		}
		recent, err := tx.CountRecentComments(ctx, incidentID, userID, s.now().Add(-spamWindow))
		if err != nil {
			return err
		}
		if recent >= spamLimit {
			return rateLimitedf("please wait before posting more comments")
		}
		return tx.CreateComment(ctx, comment)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// Update overwrites a comment's content. Edits are only accepted within
// editWindow of creation; later attempts report KindExpired.
func (s *CommentService) Update(ctx context.Context, commentID, callerID uuid.UUID, content string) (*models.Comment, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}

	var result *models.Comment
	err := s.store.Atomic(ctx, func(tx Store) error {
		comment, err := tx.CommentByID(ctx, commentID)
		if err != nil {
			return err
		}
		if !comment.Active {
			return notFoundf("comment %s not found", commentID)
		}
		trimmed, err := s.validateContent(content)
		if err != nil {
			return err
		}
		if err := requireOwner(comment.UserID, callerID, "comment"); err != nil {
			return err
		}
		if s.now().After(comment.CreatedAt.Add(editWindow)) {
			return expiredf("comments can only be edited within %d minutes of creation", int(editWindow.Minutes()))
		}
		if err := tx.SetCommentContent(ctx, commentID, trimmed); err != nil {
			return err
		}
		result, err = tx.CommentByID(ctx, commentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete soft-deletes the caller's comment. Deletion has no time window.
func (s *CommentService) Delete(ctx context.Context, commentID, callerID uuid.UUID) error {
	if err := requireCaller(callerID); err != nil {
		return err
	}
	return s.store.Atomic(ctx, func(tx Store) error {
		comment, err := tx.CommentByID(ctx, commentID)
		if err != nil {
			return err
		}
		if !comment.Active {
			return notFoundf("comment %s not found", commentID)
		}
		if err := requireOwner(comment.UserID, callerID, "comment"); err != nil {
			return err
		}
		return tx.DeactivateComment(ctx, commentID)
	})
}

// ListByIncident returns a page of the incident's active comments, newest
// first, with the total count of matches.
func (s *CommentService) ListByIncident(ctx context.Context, incidentID uuid.UUID, opts ListCommentsOptions) ([]models.Comment, int64, error) {
	exists, err := s.store.IncidentExists(ctx, incidentID)
	if err != nil {
		return nil, 0, err
	}
	if !exists {
		return nil, 0, notFoundf("incident %s not found", incidentID)
	}
	return s.store.ListComments(ctx, incidentID, opts)
}

func (s *CommentService) validateContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) < minCommentLength {
		return "", invalidf("comment must be at least %d characters long", minCommentLength)
	}
	if len(content) > maxCommentLength {
		return "", invalidf("comment cannot exceed %d characters", maxCommentLength)
	}
	if !s.moderate(trimmed) {
		return "", invalidf("comment contains inappropriate content")
	}
	return trimmed, nil
}

func (s *CommentService) checkReferences(ctx context.Context, tx Store, incidentID, userID uuid.UUID) error {
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
