package feedback

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/driverlink/driverlink/internal/models"
	"github.com/google/uuid"
)

// memStore is an in-memory Store for unit tests. It enforces the same
// active-row uniqueness rule as the Postgres partial indexes and serializes
// Atomic blocks, so the services see the contract they run against in
// production.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	clock func() time.Time
	seq   int64

	incidents map[uuid.UUID]bool
	users     map[uuid.UUID]bool
	votes     map[uuid.UUID]*models.Vote
	ratings   map[uuid.UUID]*models.Rating
	comments  map[uuid.UUID]*models.Comment
	order     map[uuid.UUID]int64
}

func newMemStore() *memStore {
	return &memStore{
		clock:     time.Now,
		incidents: make(map[uuid.UUID]bool),
		users:     make(map[uuid.UUID]bool),
		votes:     make(map[uuid.UUID]*models.Vote),
		ratings:   make(map[uuid.UUID]*models.Rating),
		comments:  make(map[uuid.UUID]*models.Comment),
		order:     make(map[uuid.UUID]int64),
	}
}

func (m *memStore) addIncident() uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.incidents[id] = true
	return id
}

func (m *memStore) addUser() uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.users[id] = true
	return id
}

func (m *memStore) next(id uuid.UUID) {
	m.seq++
	m.order[id] = m.seq
}

func (m *memStore) Atomic(_ context.Context, fn func(Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}

func (m *memStore) IncidentExists(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.incidents[id], nil
}

func (m *memStore) UserExists(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id], nil
}

func (m *memStore) ActiveVote(_ context.Context, incidentID, userID uuid.UUID) (*models.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.votes {
		if v.Active && v.IncidentID == incidentID && v.UserID == userID {
			cp := *v
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) VoteByID(_ context.Context, id uuid.UUID) (*models.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.votes[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, notFoundf("vote %s not found", id)
}

func (m *memStore) ActiveVotes(_ context.Context, incidentID uuid.UUID) ([]models.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Vote
	for _, v := range m.votes {
		if v.Active && v.IncidentID == incidentID {
			out = append(out, *v)
		}
	}
	m.sortNewestFirstVotes(out)
	return out, nil
}

func (m *memStore) CreateVote(_ context.Context, v *models.Vote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.Active {
		for _, existing := range m.votes {
			if existing.Active && existing.IncidentID == v.IncidentID && existing.UserID == v.UserID {
				return conflictf("record already exists")
			}
		}
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = m.clock()
	}
	v.UpdatedAt = v.CreatedAt
	cp := *v
	m.votes[v.ID] = &cp
	m.next(v.ID)
	return nil
}

func (m *memStore) SetVoteType(_ context.Context, id uuid.UUID, t models.VoteType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.votes[id]
	if !ok || !v.Active {
		return notFoundf("vote %s not found", id)
	}
	v.VoteType = t
	v.UpdatedAt = m.clock()
	return nil
}

func (m *memStore) DeactivateVote(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.votes[id]
	if !ok || !v.Active {
		return notFoundf("vote %s not found", id)
	}
	v.Active = false
	v.UpdatedAt = m.clock()
	return nil
}

func (m *memStore) ActiveRating(_ context.Context, incidentID, userID uuid.UUID) (*models.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.ratings {
		if r.Active && r.IncidentID == incidentID && r.UserID == userID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) RatingByID(_ context.Context, id uuid.UUID) (*models.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.ratings[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, notFoundf("rating %s not found", id)
}

func (m *memStore) ActiveRatings(_ context.Context, incidentID uuid.UUID, f RatingFilter) ([]models.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Rating
	for _, r := range m.ratings {
		if !r.Active || r.IncidentID != incidentID {
			continue
		}
		if f.MinValue != nil && r.Value < *f.MinValue {
			continue
		}
		if f.MaxValue != nil && r.Value > *f.MaxValue {
			continue
		}
		if f.Since != nil && r.CreatedAt.Before(*f.Since) {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return m.order[out[i].ID] > m.order[out[j].ID] })
	return out, nil
}

func (m *memStore) CreateRating(_ context.Context, r *models.Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.Active {
		for _, existing := range m.ratings {
			if existing.Active && existing.IncidentID == r.IncidentID && existing.UserID == r.UserID {
				return conflictf("record already exists")
			}
		}
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = m.clock()
	}
	cp := *r
	m.ratings[r.ID] = &cp
	m.next(r.ID)
	return nil
}

func (m *memStore) SetRating(_ context.Context, id uuid.UUID, value int, comment string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ratings[id]
	if !ok || !r.Active {
		return notFoundf("rating %s not found", id)
	}
	r.Value = value
	r.Comment = comment
	return nil
}

func (m *memStore) DeactivateRating(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ratings[id]
	if !ok || !r.Active {
		return notFoundf("rating %s not found", id)
	}
	r.Active = false
	return nil
}

func (m *memStore) CommentByID(_ context.Context, id uuid.UUID) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.comments[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, notFoundf("comment %s not found", id)
}

func (m *memStore) ListComments(_ context.Context, incidentID uuid.UUID, opts ListCommentsOptions) ([]models.Comment, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	var matched []models.Comment
	for _, c := range m.comments {
		if !c.Active || c.IncidentID != incidentID {
			continue
		}
		if opts.Since != nil && c.CreatedAt.Before(*opts.Since) {
			continue
		}
		if opts.Search != "" && !strings.Contains(strings.ToLower(c.Content), strings.ToLower(opts.Search)) {
			continue
		}
		matched = append(matched, *c)
	}
	sort.Slice(matched, func(i, j int) bool { return m.order[matched[i].ID] > m.order[matched[j].ID] })

	total := int64(len(matched))
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (m *memStore) CountRecentComments(_ context.Context, incidentID, userID uuid.UUID, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, c := range m.comments {
		if c.Active && c.IncidentID == incidentID && c.UserID == userID && !c.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *memStore) CreateComment(_ context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = m.clock()
	}
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.comments[c.ID] = &cp
	m.next(c.ID)
	return nil
}

func (m *memStore) SetCommentContent(_ context.Context, id uuid.UUID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok || !c.Active {
		return notFoundf("comment %s not found", id)
	}
	c.Content = content
	c.UpdatedAt = m.clock()
	return nil
}

func (m *memStore) DeactivateComment(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok || !c.Active {
		return notFoundf("comment %s not found", id)
	}
	c.Active = false
	c.UpdatedAt = m.clock()
	return nil
}

func (m *memStore) VoteCounts(_ context.Context, incidentID uuid.UUID) (VoteTypeCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(VoteTypeCounts)
	for _, v := range m.votes {
		if v.Active && v.IncidentID == incidentID {
			counts[v.VoteType]++
		}
	}
	return counts, nil
}

func (m *memStore) UniqueVoters(_ context.Context, incidentID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	voters := make(map[uuid.UUID]bool)
	for _, v := range m.votes {
		if v.Active && v.IncidentID == incidentID {
			voters[v.UserID] = true
		}
	}
	return int64(len(voters)), nil
}

func (m *memStore) RatingStats(_ context.Context, incidentID uuid.UUID) (RatingAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum, total int64
	for _, r := range m.ratings {
		if r.Active && r.IncidentID == incidentID {
			sum += int64(r.Value)
			total++
		}
	}
	agg := RatingAggregate{Total: total}
	if total > 0 {
		avg := float64(sum) / float64(total)
		agg.Average = &avg
	}
	return agg, nil
}

func (m *memStore) RatingDistribution(_ context.Context, incidentID uuid.UUID) (map[int]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dist := make(map[int]int64)
	for _, r := range m.ratings {
		if r.Active && r.IncidentID == incidentID {
			dist[r.Value]++
		}
	}
	return dist, nil
}

func (m *memStore) CommentStats(_ context.Context, incidentID uuid.UUID) (CommentAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	agg := CommentAggregate{}
	commenters := make(map[uuid.UUID]bool)
	for _, c := range m.comments {
		if !c.Active || c.IncidentID != incidentID {
			continue
		}
		agg.Total++
		commenters[c.UserID] = true
		if agg.LastCommentAt == nil || c.CreatedAt.After(*agg.LastCommentAt) {
			t := c.CreatedAt
			agg.LastCommentAt = &t
		}
	}
	agg.UniqueCommenters = int64(len(commenters))
	return agg, nil
}

func (m *memStore) sortNewestFirstVotes(votes []models.Vote) {
	sort.Slice(votes, func(i, j int) bool { return m.order[votes[i].ID] > m.order[votes[j].ID] })
}

// snapshotVotes returns a deterministic copy of all vote rows for
// before/after comparisons.
func (m *memStore) snapshotVotes() []models.Vote {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Vote, 0, len(m.votes))
	for _, v := range m.votes {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return m.order[out[i].ID] < m.order[out[j].ID] })
	return out
}

// snapshotRatings is the rating counterpart of snapshotVotes.
func (m *memStore) snapshotRatings() []models.Rating {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Rating, 0, len(m.ratings))
	for _, r := range m.ratings {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return m.order[out[i].ID] < m.order[out[j].ID] })
	return out
}
