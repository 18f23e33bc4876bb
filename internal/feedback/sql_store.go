package feedback

import (
	"context"
	"errors"
	"time"

	"github.com/driverlink/driverlink/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// SQLStore is the Postgres-backed Store. Uniqueness of active votes and
// ratings is enforced by partial unique indexes (see database.Migrate), so a
// lost race on create comes back from here as KindConflict instead of a
// driver error.
type SQLStore struct {
	db *gorm.DB
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Atomic(ctx context.Context, fn func(Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&SQLStore{db: tx})
	})
	if err != nil && KindOf(err) == 0 {
		return s.wrap(err)
	}
	return err
}

// wrap translates driver failures into engine error kinds.
func (s *SQLStore) wrap(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return conflictf("record already exists")
	}
	return unavailable(err)
}

func (s *SQLStore) IncidentExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Incident{}).Where("id = ? AND active", id).Count(&count).Error
	if err != nil {
		return false, s.wrap(err)
	}
	return count > 0, nil
}

func (s *SQLStore) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ? AND active", id).Count(&count).Error
	if err != nil {
		return false, s.wrap(err)
	}
	return count > 0, nil
}

// --- Votes ---

func (s *SQLStore) ActiveVote(ctx context.Context, incidentID, userID uuid.UUID) (*models.Vote, error) {
	var v models.Vote
	err := s.db.WithContext(ctx).
		Where("incident_id = ? AND user_id = ? AND active", incidentID, userID).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.wrap(err)
	}
	return &v, nil
}

func (s *SQLStore) VoteByID(ctx context.Context, id uuid.UUID) (*models.Vote, error) {
	var v models.Vote
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundf("vote %s not found", id)
	}
	if err != nil {
		return nil, s.wrap(err)
	}
	return &v, nil
}

func (s *SQLStore) ActiveVotes(ctx context.Context, incidentID uuid.UUID) ([]models.Vote, error) {
	var votes []models.Vote
	err := s.db.WithContext(ctx).
		Where("incident_id = ? AND active", incidentID).
		Order("created_at DESC, id").
		Find(&votes).Error
	if err != nil {
		return nil, s.wrap(err)
	}
	return votes, nil
}

func (s *SQLStore) CreateVote(ctx context.Context, v *models.Vote) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return s.wrap(s.db.WithContext(ctx).Create(v).Error)
}

func (s *SQLStore) SetVoteType(ctx context.Context, id uuid.UUID, t models.VoteType) error {
	res := s.db.WithContext(ctx).Model(&models.Vote{}).
		Where("id = ? AND active", id).
		Updates(map[string]any{"vote_type": t, "updated_at": time.Now()})
	if res.Error != nil {
		return s.wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return notFoundf("vote %s not found", id)
	}
	return nil
}

func (s *SQLStore) DeactivateVote(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&models.Vote{}).
		Where("id = ? AND active", id).
		Updates(map[string]any{"active": false, "updated_at": time.Now()})
	if res.Error != nil {
		return s.wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return notFoundf("vote %s not found", id)
	}
	return nil
}

// --- Ratings ---

func (s *SQLStore) ActiveRating(ctx context.Context, incidentID, userID uuid.UUID) (*models.Rating, error) {
	var r models.Rating
	err := s.db.WithContext(ctx).
		Where("incident_id = ? AND user_id = ? AND active", incidentID, userID).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.wrap(err)
	}
	return &r, nil
}

func (s *SQLStore) RatingByID(ctx context.Context, id uuid.UUID) (*models.Rating, error) {
	var r models.Rating
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundf("rating %s not found", id)
	}
	if err != nil {
		return nil, s.wrap(err)
	}
	return &r, nil
}

func (s *SQLStore) ActiveRatings(ctx context.Context, incidentID uuid.UUID, f RatingFilter) ([]models.Rating, error) {
	q := s.db.WithContext(ctx).
		Where("incident_id = ? AND active", incidentID)
	if f.MinValue != nil {
		q = q.Where("value >= ?", *f.MinValue)
	}
	if f.MaxValue != nil {
		q = q.Where("value <= ?", *f.MaxValue)
	}
	if f.Since != nil {
		q = q.Where("created_at >= ?", *f.Since)
	}
	var ratings []models.Rating
	if err := q.Order("created_at DESC, id").Find(&ratings).Error; err != nil {
		return nil, s.wrap(err)
	}
	return ratings, nil
}

func (s *SQLStore) CreateRating(ctx context.Context, r *models.Rating) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return s.wrap(s.db.WithContext(ctx).Create(r).Error)
}

func (s *SQLStore) SetRating(ctx context.Context, id uuid.UUID, value int, comment string) error {
	res := s.db.WithContext(ctx).Model(&models.Rating{}).
		Where("id = ? AND active", id).
		Updates(map[string]any{"value": value, "comment": comment})
	if res.Error != nil {
		return s.wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return notFoundf("rating %s not found", id)
	}
	return nil
}

func (s *SQLStore) DeactivateRating(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&models.Rating{}).
		Where("id = ? AND active", id).
		Update("active", false)
	if res.Error != nil {
		return s.wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return notFoundf("rating %s not found", id)
	}
	return nil
}

// --- Comments ---

func (s *SQLStore) CommentByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var c models.Comment
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundf("comment %s not found", id)
	}
	if err != nil {
		return nil, s.wrap(err)
	}
	return &c, nil
}

func (s *SQLStore) ListComments(ctx context.Context, incidentID uuid.UUID, opts ListCommentsOptions) ([]models.Comment, int64, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	q := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("incident_id = ? AND active", incidentID)
	if opts.Since != nil {
		q = q.Where("created_at >= ?", *opts.Since)
	}
	if opts.Search != "" {
		q = q.Where("content ILIKE ?", "%"+opts.Search+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, s.wrap(err)
	}

	var comments []models.Comment
	err := q.Order("created_at DESC, id").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&comments).Error
	if err != nil {
		return nil, 0, s.wrap(err)
	}
	return comments, total, nil
}

func (s *SQLStore) CountRecentComments(ctx context.Context, incidentID, userID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("incident_id = ? AND user_id = ? AND active AND created_at >= ?", incidentID, userID, since).
		Count(&count).Error
	if err != nil {
		return 0, s.wrap(err)
	}
	return count, nil
}

func (s *SQLStore) CreateComment(ctx context.Context, c *models.Comment) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return s.wrap(s.db.WithContext(ctx).Create(c).Error)
}

func (s *SQLStore) SetCommentContent(ctx context.Context, id uuid.UUID, content string) error {
	res := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND active", id).
		Updates(map[string]any{"content": content, "updated_at": time.Now()})
	if res.Error != nil {
		return s.wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return notFoundf("comment %s not found", id)
	}
	return nil
}

func (s *SQLStore) DeactivateComment(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND active", id).
		Updates(map[string]any{"active": false, "updated_at": time.Now()})
	if res.Error != nil {
		return s.wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return notFoundf("comment %s not found", id)
	}
	return nil
}

// --- Aggregates ---

func (s *SQLStore) VoteCounts(ctx context.Context, incidentID uuid.UUID) (VoteTypeCounts, error) {
	var rows []struct {
		VoteType models.VoteType
		Count    int64
	}
	err := s.db.WithContext(ctx).Model(&models.Vote{}).
		Select("vote_type, COUNT(*) AS count").
		Where("incident_id = ? AND active", incidentID).
		Group("vote_type").
		Find(&rows).Error
	if err != nil {
		return nil, s.wrap(err)
	}
	counts := make(VoteTypeCounts, len(rows))
	for _, r := range rows {
		counts[r.VoteType] = r.Count
	}
	return counts, nil
}

func (s *SQLStore) UniqueVoters(ctx context.Context, incidentID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Vote{}).
		Where("incident_id = ? AND active", incidentID).
		Distinct("user_id").
		Count(&count).Error
	if err != nil {
		return 0, s.wrap(err)
	}
	return count, nil
}

func (s *SQLStore) RatingStats(ctx context.Context, incidentID uuid.UUID) (RatingAggregate, error) {
	var row struct {
		Average *float64
		Total   int64
	}
	err := s.db.WithContext(ctx).Model(&models.Rating{}).
		Select("AVG(value) AS average, COUNT(*) AS total").
		Where("incident_id = ? AND active", incidentID).
		Scan(&row).Error
	if err != nil {
		return RatingAggregate{}, s.wrap(err)
	}
	return RatingAggregate{Average: row.Average, Total: row.Total}, nil
}

func (s *SQLStore) RatingDistribution(ctx context.Context, incidentID uuid.UUID) (map[int]int64, error) {
	var rows []struct {
		Value int
		Count int64
	}
	err := s.db.WithContext(ctx).Model(&models.Rating{}).
		Select("value, COUNT(*) AS count").
		Where("incident_id = ? AND active", incidentID).
		Group("value").
		Find(&rows).Error
	if err != nil {
		return nil, s.wrap(err)
	}
	dist := make(map[int]int64, len(rows))
	for _, r := range rows {
		dist[r.Value] = r.Count
	}
	return dist, nil
}

func (s *SQLStore) CommentStats(ctx context.Context, incidentID uuid.UUID) (CommentAggregate, error) {
	var row struct {
		Total            int64
		UniqueCommenters int64
		LastCommentAt    *time.Time
	}
	err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Select("COUNT(*) AS total, COUNT(DISTINCT user_id) AS unique_commenters, MAX(created_at) AS last_comment_at").
		Where("incident_id = ? AND active", incidentID).
		Scan(&row).Error
	if err != nil {
		return CommentAggregate{}, s.wrap(err)
	}
	return CommentAggregate{
		Total:            row.Total,
		UniqueCommenters: row.UniqueCommenters,
		LastCommentAt:    row.LastCommentAt,
	}, nil
}
