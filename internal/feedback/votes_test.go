package feedback

import (
	"context"
	"sync"
	"testing"

	"github.com/driverlink/driverlink/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCastVote_CreatesFirstVote(t *testing.T) {
	store := newMemStore()
	incident := store.addIncident()
	user := store.addUser()
	svc := NewVoteService(store)

	vote, err := svc.Cast(context.Background(), incident, user, models.VoteUpvote)
	require.NoError(t, err)
	assert.Equal(t, models.VoteUpvote, vote.VoteType)
	assert.True(t, vote.Active)
	assert.Equal(t, incident, vote.IncidentID)
	assert.Equal(t, user, vote.UserID)
}

func TestCastVote_SameTypeTwiceIsConflict(t *testing.T) {
	store := newMemStore()
	incident := store.addIncident()
	user := store.addUser()
	svc := NewVoteService(store)

	_, err := svc.Cast(context.Background(), incident, user, models.VoteUpvote)
	require.NoError(t, err)

	before := store.snapshotVotes()
	_, err = svc.Cast(context.Background(), incident, user, models.VoteUpvote)
	assert.True(t, IsKind(err, KindConflict), "got %v", err)
	assert.Contains(t, err.Error(), "already voted UPVOTE")
	assert.Equal(t, before, store.snapshotVotes(), "rejected cast must not change the store")
}

func TestCastVote_ChangedTypeUpdatesSameRow(t *testing.T) {
	store := newMemStore()
	incident := store.addIncident()
	user := store.addUser()
	svc := NewVoteService(store)

	first, err := svc.Cast(context.Background(), incident, user, models.VoteUpvote)
	require.NoError(t, err)

	second, err := svc.Cast(context.Background(), incident, user, models.VoteDownvote)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "changed vote must mutate the same row")
	assert.Equal(t, models.VoteDownvote, second.VoteType)

	votes, err := svc.ListByIncident(context.Background(), incident)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, models.VoteDownvote, votes[0].VoteType)
}

func TestCastVote_InvalidType(t *testing.T) {
	store := newMemStore()
	incident := store.addIncident()
	user := store.addUser()
	svc := NewVoteService(store)

	_, err := svc.Cast(context.Background(), incident, user, models.VoteType("SIDEWAYS"))
	assert.True(t, IsKind(err, KindInvalidInput), "got %v", err)
	assert.Contains(t, err.Error(), "UPVOTE, DOWNVOTE, REPORT")
}

func TestCastVote_MissingReferences(t *testing.T) {
	store := newMemStore()
	incident := store.addIncident()
	user := store.addUser()
	svc := NewVoteService(store)

	_, err := svc.Cast(context.Background(), uuid.New(), user, models.VoteUpvote)
	assert.True(t, IsKind(err, KindNotFound), "unknown incident: got %v", err)

	_, err = svc.Cast(context.Background(), incident, uuid.New(), models.VoteUpvote)
	assert.True(t, IsKind(err, KindNotFound), "unknown user: got %v", err)
}

func TestCastVote_NilCaller(t *testing.T) {
	store := newMemStore()
	incident := store.addIncident()
	svc := NewVoteService(store)

	_, err := svc.Cast(context.Background(), incident, uuid.Nil, models.VoteUpvote)
	assert.True(t, IsKind(err, KindInvalidInput), "got %v", err)
}

func TestRemoveVote_Ownership(t *testing.T) {
	store := newMemStore()
	incident := store.addIncident()
	owner := store.addUser()
	other := store.addUser()
	svc := NewVoteService(store)

	vote, err := svc.Cast(context.Background(), incident, owner, models.VoteUpvote)
	require.NoError(t, err)

	err = svc.Remove(context.Background(), vote.ID, other)
	assert.True(t, IsKind(err, KindForbidden), "got %v", err)

	got, err := store.VoteByID(context.Background(), vote.ID)
	require.NoError(t, err)
	assert.True(t, got.Active, "forbidden removal must leave the vote active")

	require.NoError(t, svc.Remove(context.Background(), vote.ID, owner))
	got, err = store.VoteByID(context.Background(), vote.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	// Removing again reports not found: inactive votes are invisible.
	err = svc.Remove(context.Background(), vote.ID, owner)
	assert.True(t, IsKind(err, KindNotFound), "got %v", err)
}

func TestRemoveVote_Unknown(t *testing.T) {
	store := newMemStore()
	svc := NewVoteService(store)

	err := svc.Remove(context.Background(), uuid.New(), store.addUser())
	assert.True(t, IsKind(err, KindNotFound), "got %v", err)
}

func TestHasVoted(t *testing.T) {
	store := newMemStore()
	incident := store.addIncident()
	user := store.addUser()
	svc := NewVoteService(store)

	voted, err := svc.HasVoted(context.Background(), incident, user)
	require.NoError(t, err)
	assert.False(t, voted)

	vote, err := svc.Cast(context.Background(), incident, user, models.VoteReport)
	require.NoError(t, err)

	voted, err = svc.HasVoted(context.Background(), incident, user)
	require.NoError(t, err)
	assert.True(t, voted)

	require.NoError(t, svc.Remove(context.Background(), vote.ID, user))
	voted, err = svc.HasVoted(context.Background(), incident, user)
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestCastVote_ConcurrentSameUserKeepsInvariant(t *testing.T) {
	store := newMemStore()
	incident := store.addIncident()
	user := store.addUser()
	svc := NewVoteService(store)

	types := []models.VoteType{models.VoteUpvote, models.VoteDownvote, models.VoteReport}
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(vt models.VoteType) {
			defer wg.Done()
			// Conflicts are an expected outcome here; only the invariant matters.
			_, _ = svc.Cast(context.Background(), incident, user, vt)
		}(types[i%len(types)])
	}
	wg.Wait()

	active := 0
	for _, v := range store.snapshotVotes() {
		if v.Active {
			active++
		}
	}
	assert.LessOrEqual(t, active, 1, "at most one active vote per (incident, user)")
}

func TestListVotes_NewestFirstActiveOnly(t *testing.T) {
	store := newMemStore()
	incident := store.addIncident()
	svc := NewVoteService(store)

	first := store.addUser()
	second := store.addUser()
	third := store.addUser()

	_, err := svc.Cast(context.Background(), incident, first, models.VoteUpvote)
	require.NoError(t, err)
	_, err = svc.Cast(context.Background(), incident, second, models.VoteDownvote)
	require.NoError(t, err)
	removed, err := svc.Cast(context.Background(), incident, third, models.VoteReport)
	require.NoError(t, err)
	require.NoError(t, svc.Remove(context.Background(), removed.ID, third))

	votes, err := svc.ListByIncident(context.Background(), incident)
	require.NoError(t, err)
	require.Len(t, votes, 2)
	assert.Equal(t, second, votes[0].UserID)
	assert.Equal(t, first, votes[1].UserID)
}

func TestListVotes_UnknownIncident(t *testing.T) {
	store := newMemStore()
	svc := NewVoteService(store)

	_, err := svc.ListByIncident(context.Background(), uuid.New())
	assert.True(t, IsKind(err, KindNotFound), "got %v", err)
}
